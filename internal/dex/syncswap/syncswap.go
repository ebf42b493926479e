// Package syncswap automates trading against SyncSwap-style classic
// (constant-product) pools: swaps, one-sided liquidity provisioning, and LP
// token burns.
package syncswap

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mckalmarchik/sabbe/internal/erc20"
	"github.com/mckalmarchik/sabbe/internal/registry"
	"github.com/mckalmarchik/sabbe/internal/trade"
)

// withdrawMode 1 asks the pool to withdraw the unwrapped native coin.
const withdrawMode uint8 = 1

// deadlineSeconds is added to the latest block timestamp for router calls.
const deadlineSeconds = 1800

var zeroAddress = common.Address{}

// Backend is the chain surface the service needs beyond transaction
// submission.
type Backend interface {
	trade.Backend
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Service executes trading actions against the SyncSwap router on one
// network for one account.
type Service struct {
	backend   Backend
	submitter trade.TxSubmitter
	gate      *trade.AllowanceGate
	reg       *registry.Registry
	network   registry.Network
	account   common.Address
	factory   common.Address
	router    common.Address
	logger    *zap.Logger
}

// NewService wires a service for the given network and account.
func NewService(
	backend Backend,
	submitter trade.TxSubmitter,
	gate *trade.AllowanceGate,
	reg *registry.Registry,
	networkName string,
	account common.Address,
	logger *zap.Logger,
) (*Service, error) {
	network, err := reg.Network(networkName)
	if err != nil {
		return nil, err
	}
	factory, err := reg.Contract(networkName, registry.SyncSwapPoolFactory)
	if err != nil {
		return nil, err
	}
	router, err := reg.Contract(networkName, registry.SyncSwapRouter)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		backend:   backend,
		submitter: submitter,
		gate:      gate,
		reg:       reg,
		network:   network,
		account:   account,
		factory:   factory,
		router:    router,
		logger:    logger.With(zap.String("dex", "syncswap")),
	}, nil
}

// resolvedToken is a token bound to its on-chain representation. The native
// coin resolves to the wrapped-native contract for pool lookups while its
// balance comes from the account itself.
type resolvedToken struct {
	symbol   string
	address  common.Address
	contract *erc20.Contract
	decimals uint8
	native   bool
}

func (s *Service) resolveToken(ctx context.Context, symbol string) (resolvedToken, error) {
	token, err := s.reg.Token(s.network.Name, symbol)
	if err != nil {
		return resolvedToken{}, err
	}

	if token.Native {
		weth, err := s.wethAddress(ctx)
		if err != nil {
			return resolvedToken{}, err
		}
		contract := erc20.New(weth, s.backend)
		decimals, err := contract.Decimals(ctx)
		if err != nil {
			return resolvedToken{}, err
		}
		return resolvedToken{symbol: symbol, address: weth, contract: contract, decimals: decimals, native: true}, nil
	}

	return resolvedToken{
		symbol:   symbol,
		address:  token.Address,
		contract: erc20.New(token.Address, s.backend),
		decimals: token.Decimals,
	}, nil
}

func (s *Service) balanceOf(ctx context.Context, token resolvedToken) (*big.Int, error) {
	if token.native {
		return s.backend.BalanceAt(ctx, s.account)
	}
	return token.contract.BalanceOf(ctx, s.account)
}

// Swap trades amount (or percentage of the wallet balance) of fromSymbol for
// toSymbol, bounded by the slippage tolerance in percent.
func (s *Service) Swap(ctx context.Context, fromSymbol, toSymbol string, slippage, amount, percentage float64) (trade.Status, error) {
	if err := trade.ValidateAmountArgs(amount, percentage); err != nil {
		return trade.StatusFailed, err
	}

	from, err := s.resolveToken(ctx, fromSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}
	to, err := s.resolveToken(ctx, toSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}

	balance, err := s.balanceOf(ctx, from)
	if err != nil {
		return trade.StatusFailed, err
	}

	amountWei, amountHuman, err := trade.ResolveAmount(balance, from.decimals, amount, percentage)
	if err != nil {
		return trade.StatusFailed, err
	}

	s.logger.Info("swapping",
		zap.Float64("amount", amountHuman),
		zap.String("from", from.symbol),
		zap.String("to", to.symbol),
	)

	pool, err := s.poolAddress(ctx, from.address, to.address)
	if err != nil {
		return trade.StatusFailed, err
	}

	reserve0, reserve1, err := s.poolReserves(ctx, pool)
	if err != nil {
		s.logger.Error("failed to get pool info", zap.Error(err))
		return trade.StatusFailed, nil
	}

	// Reserves are keyed by ascending token address.
	reserveIn, reserveOut := reserve0, reserve1
	if bytes.Compare(from.address.Bytes(), to.address.Bytes()) > 0 {
		reserveIn, reserveOut = reserve1, reserve0
	}

	minOut := MinAmountOut(reserveIn, reserveOut, from.decimals, to.decimals, amountHuman, slippage)
	if !HasLiquidity(reserveIn, reserveOut, amountWei, minOut) {
		s.logger.Error("insufficient liquidity in the pool",
			zap.String("pool", pool.Hex()),
			zap.String("amount_in", amountWei.String()),
			zap.String("min_out", minOut.String()),
		)
		return trade.StatusInsufficientLiquidity, nil
	}

	swapData, err := encodeWithdrawData(from.address, s.account, withdrawMode)
	if err != nil {
		return trade.StatusFailed, err
	}

	tokenIn := from.address
	if from.native {
		tokenIn = zeroAddress
	}
	paths := []swapPath{{
		Steps: []swapStep{{
			Pool:     pool,
			Data:     swapData,
			Callback: zeroAddress,
		}},
		TokenIn:  tokenIn,
		AmountIn: amountWei,
	}}

	deadline, err := s.deadline(ctx)
	if err != nil {
		return trade.StatusFailed, err
	}

	routerABI, err := routerABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	data, err := routerABI.Pack("swap", paths, minOut, deadline)
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack swap: %w", err)
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	call := trade.Call{To: s.router, Data: data}
	if from.native {
		call.Value = amountWei
	} else {
		if status := s.gate.Ensure(ctx, txc, from.contract, s.router, amountWei); status != trade.StatusSuccess {
			return status, nil
		}
	}

	status := s.submitter.Submit(ctx, txc, call)
	if status == trade.StatusSuccess {
		s.logger.Info("swap confirmed",
			zap.Float64("amount", amountHuman),
			zap.String("from", from.symbol),
			zap.String("to", to.symbol),
		)
	} else {
		s.logger.Error("swap failed",
			zap.String("from", from.symbol),
			zap.String("to", to.symbol),
			zap.String("status", status.String()),
		)
	}
	return status, nil
}

// AddLiquidity deposits amount (or percentage of the balance) of firstSymbol
// one-sided into the firstSymbol/secondSymbol classic pool.
func (s *Service) AddLiquidity(ctx context.Context, firstSymbol, secondSymbol string, amount, percentage float64) (trade.Status, error) {
	if err := trade.ValidateAmountArgs(amount, percentage); err != nil {
		return trade.StatusFailed, err
	}

	first, err := s.resolveToken(ctx, firstSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}
	second, err := s.resolveToken(ctx, secondSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}

	balance, err := s.balanceOf(ctx, first)
	if err != nil {
		return trade.StatusFailed, err
	}

	amountWei, amountHuman, err := trade.ResolveAmount(balance, first.decimals, amount, percentage)
	if err != nil {
		return trade.StatusFailed, err
	}

	s.logger.Info("adding liquidity",
		zap.Float64("amount", amountHuman),
		zap.String("first", first.symbol),
		zap.String("second", second.symbol),
	)

	pool, err := s.poolAddress(ctx, first.address, second.address)
	if err != nil {
		return trade.StatusFailed, err
	}

	firstInput := first.address
	if first.native {
		firstInput = zeroAddress
	}
	inputs := []tokenInput{
		{Token: firstInput, Amount: amountWei},
		{Token: second.address, Amount: new(big.Int)},
	}

	mintTo, err := encodeAddress(s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	routerABI, err := routerABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	data, err := routerABI.Pack("addLiquidity2", pool, inputs, mintTo, new(big.Int), zeroAddress, []byte{})
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack addLiquidity2: %w", err)
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	call := trade.Call{To: s.router, Data: data}
	if first.native {
		call.Value = amountWei
	} else {
		if status := s.gate.Ensure(ctx, txc, first.contract, s.router, amountWei); status != trade.StatusSuccess {
			return status, nil
		}
	}

	status := s.submitter.Submit(ctx, txc, call)
	if status == trade.StatusSuccess {
		s.logger.Info("liquidity added",
			zap.Float64("amount", amountHuman),
			zap.String("pool", pool.Hex()),
		)
	} else {
		s.logger.Error("add liquidity failed", zap.String("status", status.String()))
	}
	return status, nil
}

// BurnLiquidity removes the given percentage of the account's LP position in
// the firstSymbol/secondSymbol classic pool, withdrawing into firstSymbol.
func (s *Service) BurnLiquidity(ctx context.Context, firstSymbol, secondSymbol string, percentage float64) (trade.Status, error) {
	first, err := s.resolveToken(ctx, firstSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}
	second, err := s.resolveToken(ctx, secondSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}

	s.logger.Info("removing liquidity",
		zap.Float64("percentage", percentage),
		zap.String("first", first.symbol),
		zap.String("second", second.symbol),
	)

	pool, err := s.poolAddress(ctx, first.address, second.address)
	if err != nil {
		return trade.StatusFailed, err
	}

	// The pool contract doubles as the LP token.
	lpToken := erc20.New(pool, s.backend)
	lpBalance, err := lpToken.BalanceOf(ctx, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}
	lpDecimals, err := lpToken.Decimals(ctx)
	if err != nil {
		return trade.StatusFailed, err
	}

	amountWei, amountHuman, err := trade.ResolveAmount(lpBalance, lpDecimals, 0, percentage)
	if err != nil {
		return trade.StatusFailed, err
	}

	burnData, err := encodeWithdrawData(first.address, s.account, withdrawMode)
	if err != nil {
		return trade.StatusFailed, err
	}

	routerABI, err := routerABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	data, err := routerABI.Pack("burnLiquiditySingle", pool, amountWei, burnData, new(big.Int), zeroAddress, []byte{})
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack burnLiquiditySingle: %w", err)
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	if status := s.gate.Ensure(ctx, txc, lpToken, s.router, amountWei); status != trade.StatusSuccess {
		return status, nil
	}

	status := s.submitter.Submit(ctx, txc, trade.Call{To: s.router, Data: data})
	if status == trade.StatusSuccess {
		s.logger.Info("liquidity removed", zap.Float64("amount", amountHuman), zap.String("pool", pool.Hex()))
	} else {
		s.logger.Error("remove liquidity failed", zap.String("status", status.String()))
	}
	return status, nil
}

// wethAddress asks the router for the wrapped-native token address.
func (s *Service) wethAddress(ctx context.Context) (common.Address, error) {
	parsed, err := routerABIInstance()
	if err != nil {
		return common.Address{}, err
	}
	values, err := s.callContract(ctx, s.router, parsed, "wETH")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// poolAddress resolves the classic pool for a token pair via the factory.
func (s *Service) poolAddress(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	parsed, err := factoryABIInstance()
	if err != nil {
		return common.Address{}, err
	}
	values, err := s.callContract(ctx, s.factory, parsed, "getPool", tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// poolReserves reads the pool reserves, ordered by ascending token address.
func (s *Service) poolReserves(ctx context.Context, pool common.Address) (*big.Int, *big.Int, error) {
	parsed, err := poolABIInstance()
	if err != nil {
		return nil, nil, err
	}
	values, err := s.callContract(ctx, pool, parsed, "getReserves")
	if err != nil {
		return nil, nil, err
	}
	if len(values) < 2 {
		return nil, nil, fmt.Errorf("getReserves returned %d values", len(values))
	}
	reserve0, ok := values[0].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported reserve type %T", values[0])
	}
	reserve1, ok := values[1].(*big.Int)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported reserve type %T", values[1])
	}
	return reserve0, reserve1, nil
}

func (s *Service) deadline(ctx context.Context) (*big.Int, error) {
	header, err := s.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("latest header: %w", err)
	}
	return new(big.Int).SetUint64(header.Time + deadlineSeconds), nil
}

func (s *Service) callContract(ctx context.Context, to common.Address, parsed abi.ABI, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := s.backend.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

func encodeWithdrawData(token, recipient common.Address, mode uint8) ([]byte, error) {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}
	uint8Type, err := abi.NewType("uint8", "", nil)
	if err != nil {
		return nil, err
	}
	args := abi.Arguments{{Type: addressType}, {Type: addressType}, {Type: uint8Type}}
	return args.Pack(token, recipient, mode)
}

func encodeAddress(addr common.Address) ([]byte, error) {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, err
	}
	args := abi.Arguments{{Type: addressType}}
	return args.Pack(addr)
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}
