// Package izumi automates trading against iZUMi concentrated-liquidity
// pools: swaps, ranged liquidity mints, position removal, and burning of
// emptied position NFTs.
package izumi

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"math/rand"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/mckalmarchik/sabbe/internal/erc20"
	"github.com/mckalmarchik/sabbe/internal/registry"
	"github.com/mckalmarchik/sabbe/internal/trade"
)

// poolFee is the 0.2% fee tier, in millionths.
const poolFee = 2000

// Swap boundary points. A swap runs until the pool price crosses the
// boundary, so the extreme points make the limit effectively amount-only.
const (
	leftBoundaryPoint  = -799999
	rightBoundaryPoint = 799999
)

// deadlineSeconds is added to the latest block timestamp for contract calls.
const deadlineSeconds = 1800

var (
	zeroAddress = common.Address{}
	maxUint128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// Backend is the chain surface the service needs beyond transaction
// submission.
type Backend interface {
	trade.Backend
	BalanceAt(ctx context.Context, account common.Address) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// Service executes trading actions against the iZUMi liquidity manager and
// swap contracts on one network for one account.
type Service struct {
	backend   Backend
	submitter trade.TxSubmitter
	gate      *trade.AllowanceGate
	reg       *registry.Registry
	network   registry.Network
	account   common.Address
	manager   common.Address
	swap      common.Address
	rng       *rand.Rand
	logger    *zap.Logger

	// Sleep runs between the pre-swap and the mint when adding liquidity.
	Sleep func()
}

// NewService wires a service for the given network and account. The rng
// drives the liquidity range randomization and the position scan order; nil
// seeds one from the clock.
func NewService(
	backend Backend,
	submitter trade.TxSubmitter,
	gate *trade.AllowanceGate,
	reg *registry.Registry,
	networkName string,
	account common.Address,
	rng *rand.Rand,
	logger *zap.Logger,
) (*Service, error) {
	network, err := reg.Network(networkName)
	if err != nil {
		return nil, err
	}
	manager, err := reg.Contract(networkName, registry.IzumiLiquidityManager)
	if err != nil {
		return nil, err
	}
	swapContract, err := reg.Contract(networkName, registry.IzumiSwap)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
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
		manager:   manager,
		swap:      swapContract,
		rng:       rng,
		logger:    logger.With(zap.String("dex", "izumi")),
		Sleep:     func() {},
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

	currentPoint, err := s.currentPoint(ctx, pool)
	if err != nil {
		s.logger.Error("failed to get pool state", zap.Error(err))
		return trade.StatusFailed, nil
	}

	// Pools key token X as the lower address; swapping the higher-address
	// token sells Y for X at the inverted price.
	tokenX, tokenY := from.address, to.address
	boundary := int64(leftBoundaryPoint)
	method := "swapX2Y"
	price := PointPrice(currentPoint)
	if bytes.Compare(from.address.Bytes(), to.address.Bytes()) > 0 {
		tokenX, tokenY = tokenY, tokenX
		boundary = rightBoundaryPoint
		method = "swapY2X"
		price = 1 / price
	}

	minOut := MinAcquired(amountHuman, price, from.decimals, to.decimals, slippage)

	recipient := s.account
	if to.native {
		recipient = zeroAddress
	}

	deadline, err := s.deadline(ctx)
	if err != nil {
		return trade.StatusFailed, err
	}

	parsed, err := swapABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	swapData, err := parsed.Pack(method, swapParams{
		TokenX:      tokenX,
		TokenY:      tokenY,
		Fee:         big.NewInt(poolFee),
		BoundaryPt:  big.NewInt(boundary),
		Recipient:   recipient,
		Amount:      amountWei,
		MaxPayed:    new(big.Int),
		MinAcquired: minOut,
		Deadline:    deadline,
	})
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack %s: %w", method, err)
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	callings := [][]byte{swapData}
	call := trade.Call{To: s.swap}
	if from.native {
		refund, err := parsed.Pack("refundETH")
		if err != nil {
			return trade.StatusFailed, err
		}
		callings = append(callings, refund)
		call.Value = amountWei
	} else {
		if status := s.gate.Ensure(ctx, txc, from.contract, s.swap, amountWei); status != trade.StatusSuccess {
			return status, nil
		}
	}
	if to.native {
		unwrap, err := parsed.Pack("unwrapWETH9", new(big.Int), s.account)
		if err != nil {
			return trade.StatusFailed, err
		}
		callings = append(callings, unwrap)
	}

	if len(callings) == 1 {
		call.Data = callings[0]
	} else {
		call.Data, err = parsed.Pack("multicall", callings)
		if err != nil {
			return trade.StatusFailed, fmt.Errorf("pack multicall: %w", err)
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

// AddLiquidity mints a randomized-range position in the
// firstSymbol/secondSymbol pool. Half of the committed amount is first
// swapped into secondSymbol so the mint can draw from both sides.
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

	firstBalance, err := s.balanceOf(ctx, first)
	if err != nil {
		return trade.StatusFailed, err
	}

	maxFirstWei, amountHuman, err := trade.ResolveAmount(firstBalance, first.decimals, amount, percentage)
	if err != nil {
		return trade.StatusFailed, err
	}

	s.logger.Info("adding liquidity",
		zap.Float64("amount", amountHuman),
		zap.String("first", first.symbol),
		zap.String("second", second.symbol),
	)

	status, err := s.Swap(ctx, firstSymbol, secondSymbol, 0.5, amountHuman/2, 0)
	if err != nil {
		return trade.StatusFailed, err
	}
	if status != trade.StatusSuccess {
		return status, nil
	}

	if s.Sleep != nil {
		s.Sleep()
	}

	firstBalance, err = s.balanceOf(ctx, first)
	if err != nil {
		return trade.StatusFailed, err
	}
	secondBalance, err := s.balanceOf(ctx, second)
	if err != nil {
		return trade.StatusFailed, err
	}

	maxFirstWei.Rsh(maxFirstWei, 1)
	if maxFirstWei.Cmp(firstBalance) > 0 {
		maxFirstWei.Set(firstBalance)
	}
	maxSecondWei := secondBalance

	pool, err := s.poolAddress(ctx, first.address, second.address)
	if err != nil {
		return trade.StatusFailed, err
	}

	currentPoint, err := s.currentPoint(ctx, pool)
	if err != nil {
		s.logger.Error("failed to get pool state", zap.Error(err))
		return trade.StatusFailed, nil
	}

	delta, err := s.poolInt32(ctx, pool, "pointDelta")
	if err != nil {
		return trade.StatusFailed, err
	}
	leftMost, err := s.poolInt32(ctx, pool, "leftMostPt")
	if err != nil {
		return trade.StatusFailed, err
	}
	rightMost, err := s.poolInt32(ctx, pool, "rightMostPt")
	if err != nil {
		return trade.StatusFailed, err
	}

	leftPoint, rightPoint := RandomRange(s.rng, currentPoint, delta, leftMost, rightMost)

	tokenX, tokenY := first.address, second.address
	if bytes.Compare(tokenX.Bytes(), tokenY.Bytes()) > 0 {
		tokenX, tokenY = tokenY, tokenX
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	if !first.native {
		if status := s.gate.Ensure(ctx, txc, first.contract, s.manager, maxFirstWei); status != trade.StatusSuccess {
			return status, nil
		}
	}
	if !second.native {
		if status := s.gate.Ensure(ctx, txc, second.contract, s.manager, maxSecondWei); status != trade.StatusSuccess {
			return status, nil
		}
	}

	deadline, err := s.deadline(ctx)
	if err != nil {
		return trade.StatusFailed, err
	}

	parsed, err := managerABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	mintData, err := parsed.Pack("mint", mintParams{
		Miner:      s.account,
		TokenX:     tokenX,
		TokenY:     tokenY,
		Fee:        big.NewInt(poolFee),
		Pl:         big.NewInt(int64(leftPoint)),
		Pr:         big.NewInt(int64(rightPoint)),
		XLim:       maxFirstWei,
		YLim:       maxSecondWei,
		AmountXMin: new(big.Int),
		AmountYMin: new(big.Int),
		Deadline:   deadline,
	})
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack mint: %w", err)
	}

	call := trade.Call{To: s.manager, Data: mintData}
	if first.native {
		refund, err := parsed.Pack("refundETH")
		if err != nil {
			return trade.StatusFailed, err
		}
		call.Data, err = parsed.Pack("multicall", [][]byte{mintData, refund})
		if err != nil {
			return trade.StatusFailed, fmt.Errorf("pack multicall: %w", err)
		}
		call.Value = maxFirstWei
	}

	status = s.submitter.Submit(ctx, txc, call)
	if status == trade.StatusSuccess {
		s.logger.Info("liquidity added",
			zap.String("pool", pool.Hex()),
			zap.Int32("left_point", leftPoint),
			zap.Int32("right_point", rightPoint),
		)
	} else {
		s.logger.Error("add liquidity failed", zap.String("status", status.String()))
	}
	return status, nil
}

// RemoveLiquidity picks a random active position in the
// firstSymbol/secondSymbol pool, removes all of its liquidity and collects
// the owed tokens. Returns StatusNoLiquidities when the account holds no
// active position in the pool.
func (s *Service) RemoveLiquidity(ctx context.Context, firstSymbol, secondSymbol string) (trade.Status, error) {
	first, err := s.resolveToken(ctx, firstSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}
	second, err := s.resolveToken(ctx, secondSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}

	s.logger.Info("searching for liquidity",
		zap.String("first", first.symbol),
		zap.String("second", second.symbol),
	)

	pos, found, err := s.findPosition(ctx, first, second, func(p position) bool {
		return p.Liquidity.Sign() > 0
	})
	if err != nil {
		return trade.StatusFailed, err
	}
	if !found {
		s.logger.Warn("no liquidity found",
			zap.String("first", first.symbol),
			zap.String("second", second.symbol),
		)
		return trade.StatusNoLiquidities, nil
	}

	s.logger.Info("found liquidity, removing it", zap.String("token_id", pos.TokenID.String()))

	native := first.native || second.native
	recipient := s.account
	if native {
		recipient = zeroAddress
	}

	deadline, err := s.deadline(ctx)
	if err != nil {
		return trade.StatusFailed, err
	}

	parsed, err := managerABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	decData, err := parsed.Pack("decLiquidity", pos.TokenID, pos.Liquidity, new(big.Int), new(big.Int), deadline)
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack decLiquidity: %w", err)
	}
	collectData, err := parsed.Pack("collect", recipient, pos.TokenID, maxUint128, maxUint128)
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack collect: %w", err)
	}

	callings := [][]byte{decData, collectData}
	if native {
		weth := first.address
		if !first.native {
			weth = second.address
		}
		unwrap, err := parsed.Pack("unwrapWETH9", new(big.Int), s.account)
		if err != nil {
			return trade.StatusFailed, err
		}
		sweep, err := parsed.Pack("sweepToken", weth, new(big.Int), s.account)
		if err != nil {
			return trade.StatusFailed, err
		}
		callings = append(callings, unwrap, sweep)
	}

	data, err := parsed.Pack("multicall", callings)
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack multicall: %w", err)
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	status := s.submitter.Submit(ctx, txc, trade.Call{To: s.manager, Data: data})
	if status == trade.StatusSuccess {
		s.logger.Info("liquidity removed", zap.String("token_id", pos.TokenID.String()))
	} else {
		s.logger.Error("remove liquidity failed", zap.String("status", status.String()))
	}
	return status, nil
}

// BurnLiquidity burns a random emptied position NFT in the
// firstSymbol/secondSymbol pool. Only positions with no liquidity and no
// uncollected tokens qualify. Returns StatusNoLiquidities when none do.
func (s *Service) BurnLiquidity(ctx context.Context, firstSymbol, secondSymbol string) (trade.Status, error) {
	first, err := s.resolveToken(ctx, firstSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}
	second, err := s.resolveToken(ctx, secondSymbol)
	if err != nil {
		return trade.StatusFailed, err
	}

	s.logger.Info("searching for positions to burn",
		zap.String("first", first.symbol),
		zap.String("second", second.symbol),
	)

	pos, found, err := s.findPosition(ctx, first, second, func(p position) bool {
		return p.Liquidity.Sign() == 0 && p.RemainTokenX.Sign() == 0 && p.RemainTokenY.Sign() == 0
	})
	if err != nil {
		return trade.StatusFailed, err
	}
	if !found {
		s.logger.Warn("no positions found to burn",
			zap.String("first", first.symbol),
			zap.String("second", second.symbol),
		)
		return trade.StatusNoLiquidities, nil
	}

	s.logger.Info("found position, burning it", zap.String("token_id", pos.TokenID.String()))

	parsed, err := managerABIInstance()
	if err != nil {
		return trade.StatusFailed, err
	}
	data, err := parsed.Pack("burn", pos.TokenID)
	if err != nil {
		return trade.StatusFailed, fmt.Errorf("pack burn: %w", err)
	}

	txc, err := trade.NewTxContext(ctx, s.backend, s.account)
	if err != nil {
		return trade.StatusFailed, err
	}

	status := s.submitter.Submit(ctx, txc, trade.Call{To: s.manager, Data: data})
	if status == trade.StatusSuccess {
		s.logger.Info("position burned", zap.String("token_id", pos.TokenID.String()))
	} else {
		s.logger.Error("burn failed", zap.String("status", status.String()))
	}
	return status, nil
}

// findPosition walks the account's position NFTs in random order and
// returns the first one in the pair's pool matching the predicate.
func (s *Service) findPosition(ctx context.Context, first, second resolvedToken, match func(position) bool) (position, bool, error) {
	pool, err := s.poolAddress(ctx, first.address, second.address)
	if err != nil {
		return position{}, false, err
	}

	parsed, err := managerABIInstance()
	if err != nil {
		return position{}, false, err
	}

	values, err := s.callContract(ctx, s.manager, parsed, "poolIds", pool)
	if err != nil {
		return position{}, false, err
	}
	poolID, err := asBigInt(values[0])
	if err != nil {
		return position{}, false, err
	}

	values, err = s.callContract(ctx, s.manager, parsed, "balanceOf", s.account)
	if err != nil {
		return position{}, false, err
	}
	total, err := asBigInt(values[0])
	if err != nil {
		return position{}, false, err
	}

	for _, i := range s.rng.Perm(int(total.Int64())) {
		values, err = s.callContract(ctx, s.manager, parsed, "tokenOfOwnerByIndex", s.account, big.NewInt(int64(i)))
		if err != nil {
			return position{}, false, err
		}
		tokenID, err := asBigInt(values[0])
		if err != nil {
			return position{}, false, err
		}

		pos, err := s.positionByID(ctx, parsed, tokenID)
		if err != nil {
			return position{}, false, err
		}
		if pos.PoolID.Cmp(poolID) == 0 && match(pos) {
			return pos, true, nil
		}
	}
	return position{}, false, nil
}

func (s *Service) positionByID(ctx context.Context, parsed abi.ABI, tokenID *big.Int) (position, error) {
	values, err := s.callContract(ctx, s.manager, parsed, "liquidities", tokenID)
	if err != nil {
		return position{}, err
	}
	if len(values) < 8 {
		return position{}, fmt.Errorf("liquidities returned %d values", len(values))
	}

	pos := position{TokenID: tokenID}
	if pos.Liquidity, err = asBigInt(values[2]); err != nil {
		return position{}, err
	}
	if pos.RemainTokenX, err = asBigInt(values[5]); err != nil {
		return position{}, err
	}
	if pos.RemainTokenY, err = asBigInt(values[6]); err != nil {
		return position{}, err
	}
	if pos.PoolID, err = asBigInt(values[7]); err != nil {
		return position{}, err
	}
	return pos, nil
}

// wethAddress asks the liquidity manager for the wrapped-native token
// address.
func (s *Service) wethAddress(ctx context.Context) (common.Address, error) {
	parsed, err := managerABIInstance()
	if err != nil {
		return common.Address{}, err
	}
	values, err := s.callContract(ctx, s.manager, parsed, "WETH9")
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// poolAddress resolves the pool for a token pair at the 0.2% fee tier.
func (s *Service) poolAddress(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	parsed, err := managerABIInstance()
	if err != nil {
		return common.Address{}, err
	}
	values, err := s.callContract(ctx, s.manager, parsed, "pool", tokenA, tokenB, big.NewInt(poolFee))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}

// currentPoint reads the pool's current price point from its state.
func (s *Service) currentPoint(ctx context.Context, pool common.Address) (int32, error) {
	parsed, err := poolABIInstance()
	if err != nil {
		return 0, err
	}
	values, err := s.callContract(ctx, pool, parsed, "state")
	if err != nil {
		return 0, err
	}
	if len(values) < 2 {
		return 0, fmt.Errorf("state returned %d values", len(values))
	}
	point, err := asBigInt(values[1])
	if err != nil {
		return 0, err
	}
	return int32(point.Int64()), nil
}

func (s *Service) poolInt32(ctx context.Context, pool common.Address, method string) (int32, error) {
	parsed, err := poolABIInstance()
	if err != nil {
		return 0, err
	}
	values, err := s.callContract(ctx, pool, parsed, method)
	if err != nil {
		return 0, err
	}
	value, err := asBigInt(values[0])
	if err != nil {
		return 0, err
	}
	return int32(value.Int64()), nil
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

func asBigInt(value interface{}) (*big.Int, error) {
	if v, ok := value.(*big.Int); ok {
		return v, nil
	}
	return nil, fmt.Errorf("unsupported integer type %T", value)
}
