package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mckalmarchik/sabbe/internal/chain"
	"github.com/mckalmarchik/sabbe/internal/config"
	"github.com/mckalmarchik/sabbe/internal/dex/izumi"
	"github.com/mckalmarchik/sabbe/internal/dex/syncswap"
	"github.com/mckalmarchik/sabbe/internal/registry"
	"github.com/mckalmarchik/sabbe/internal/trade"
)

// izumiAllowancePoll paces the allowance re-read after an approval on the
// concentrated-liquidity contracts.
const izumiAllowancePoll = 5 * time.Second

// tradeEnv is everything a trade command needs, wired once per invocation.
type tradeEnv struct {
	cfg       config.Config
	logger    *zap.Logger
	client    *chain.Client
	reg       *registry.Registry
	signer    *trade.LocalSigner
	submitter *trade.Submitter
	rng       *rand.Rand
	sleep     func()
	cancel    func()
	ctx       context.Context
}

func newTradeEnv(cmd *cobra.Command) (*tradeEnv, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key is required")
	}

	reg := registry.Default()
	network, err := reg.Network(cfg.Network)
	if err != nil {
		return nil, err
	}
	rpcURL := cfg.RPCURL
	if rpcURL == "" {
		rpcURL = network.RPCURL
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	client, err := chain.NewClient(ctx, rpcURL)
	if err != nil {
		stop()
		return nil, fmt.Errorf("connect rpc: %w", err)
	}

	signer, err := trade.NewLocalSigner(cfg.PrivateKey)
	if err != nil {
		stop()
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	return &tradeEnv{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		reg:       reg,
		signer:    signer,
		submitter: trade.NewSubmitter(client, signer, network.ExplorerURL, logger),
		rng:       rng,
		sleep:     trade.RandomDelay(rng, cfg.MinDelay, cfg.MaxDelay),
		cancel:    stop,
		ctx:       ctx,
	}, nil
}

func (e *tradeEnv) close() {
	e.client.Close()
	e.cancel()
	_ = e.logger.Sync()
}

func (e *tradeEnv) syncswapService() (*syncswap.Service, error) {
	gate := trade.NewAllowanceGate(e.submitter, e.logger)
	gate.Sleep = e.sleep
	return syncswap.NewService(e.client, e.submitter, gate, e.reg, e.cfg.Network, e.signer.Address(), e.logger)
}

func (e *tradeEnv) izumiService() (*izumi.Service, error) {
	gate := trade.NewAllowanceGate(e.submitter, e.logger)
	gate.Sleep = e.sleep
	gate.PollInterval = izumiAllowancePoll
	svc, err := izumi.NewService(e.client, e.submitter, gate, e.reg, e.cfg.Network, e.signer.Address(), e.rng, e.logger)
	if err != nil {
		return nil, err
	}
	svc.Sleep = e.sleep
	return svc, nil
}

func finish(logger *zap.Logger, status trade.Status, err error) error {
	if err != nil {
		return err
	}
	logger.Info("finished", zap.String("status", status.String()))
	if status != trade.StatusSuccess {
		return fmt.Errorf("finished with status %s", status)
	}
	return nil
}

func runSwap(cmd *cobra.Command, _ []string) error {
	env, err := newTradeEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	slippage, _ := cmd.Flags().GetFloat64("slippage")
	amount, _ := cmd.Flags().GetFloat64("amount")
	percentage, _ := cmd.Flags().GetFloat64("percentage")
	dex, _ := cmd.Flags().GetString("dex")

	var status trade.Status
	switch dex {
	case "syncswap":
		svc, err := env.syncswapService()
		if err != nil {
			return err
		}
		status, err = svc.Swap(env.ctx, from, to, slippage, amount, percentage)
		return finish(env.logger, status, err)
	case "izumi":
		svc, err := env.izumiService()
		if err != nil {
			return err
		}
		status, err = svc.Swap(env.ctx, from, to, slippage, amount, percentage)
		return finish(env.logger, status, err)
	default:
		return fmt.Errorf("unknown dex %q", dex)
	}
}

func runAddLiquidity(cmd *cobra.Command, _ []string) error {
	env, err := newTradeEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	first, _ := cmd.Flags().GetString("first")
	second, _ := cmd.Flags().GetString("second")
	amount, _ := cmd.Flags().GetFloat64("amount")
	percentage, _ := cmd.Flags().GetFloat64("percentage")
	dex, _ := cmd.Flags().GetString("dex")

	var status trade.Status
	switch dex {
	case "syncswap":
		svc, err := env.syncswapService()
		if err != nil {
			return err
		}
		status, err = svc.AddLiquidity(env.ctx, first, second, amount, percentage)
		return finish(env.logger, status, err)
	case "izumi":
		svc, err := env.izumiService()
		if err != nil {
			return err
		}
		status, err = svc.AddLiquidity(env.ctx, first, second, amount, percentage)
		return finish(env.logger, status, err)
	default:
		return fmt.Errorf("unknown dex %q", dex)
	}
}

func runRemoveLiquidity(cmd *cobra.Command, _ []string) error {
	env, err := newTradeEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	first, _ := cmd.Flags().GetString("first")
	second, _ := cmd.Flags().GetString("second")
	percentage, _ := cmd.Flags().GetFloat64("percentage")
	dex, _ := cmd.Flags().GetString("dex")

	var status trade.Status
	switch dex {
	case "syncswap":
		// Classic pools remove liquidity by burning LP tokens.
		svc, err := env.syncswapService()
		if err != nil {
			return err
		}
		status, err = svc.BurnLiquidity(env.ctx, first, second, percentage)
		return finish(env.logger, status, err)
	case "izumi":
		svc, err := env.izumiService()
		if err != nil {
			return err
		}
		status, err = svc.RemoveLiquidity(env.ctx, first, second)
		return finish(env.logger, status, err)
	default:
		return fmt.Errorf("unknown dex %q", dex)
	}
}

func runBurnLiquidity(cmd *cobra.Command, _ []string) error {
	env, err := newTradeEnv(cmd)
	if err != nil {
		return err
	}
	defer env.close()

	first, _ := cmd.Flags().GetString("first")
	second, _ := cmd.Flags().GetString("second")
	dex, _ := cmd.Flags().GetString("dex")

	if dex != "izumi" {
		return fmt.Errorf("burn-liquidity is only available on izumi")
	}
	svc, err := env.izumiService()
	if err != nil {
		return err
	}
	status, err := svc.BurnLiquidity(env.ctx, first, second)
	return finish(env.logger, status, err)
}
