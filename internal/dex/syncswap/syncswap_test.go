package syncswap

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/mckalmarchik/sabbe/internal/registry"
	"github.com/mckalmarchik/sabbe/internal/trade"
)

// mockBackend answers eth_call by target address and records estimation
// attempts.
type mockBackend struct {
	responses     map[common.Address][]byte
	callCount     int
	estimateCalls int
}

func (m *mockBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(324), nil }

func (m *mockBackend) NonceAt(context.Context, common.Address) (uint64, error) { return 0, nil }

func (m *mockBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(250_000_000), nil
}

func (m *mockBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	m.estimateCalls++
	return 21_000, nil
}

func (m *mockBackend) SendTransaction(context.Context, *types.Transaction) error { return nil }

func (m *mockBackend) WaitForReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

func (m *mockBackend) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func (m *mockBackend) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	return &types.Header{Time: 1_700_000_000}, nil
}

func (m *mockBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	m.callCount++
	resp, ok := m.responses[*msg.To]
	if !ok {
		return nil, errors.New("unexpected call target")
	}
	return resp, nil
}

type countingSubmitter struct {
	status trade.Status
	calls  int
}

func (c *countingSubmitter) Submit(context.Context, *trade.TxContext, trade.Call) trade.Status {
	c.calls++
	return c.status
}

func encodeUint256(v *big.Int) []byte {
	return common.LeftPadBytes(v.Bytes(), 32)
}

func encodeAddressWord(a common.Address) []byte {
	return common.LeftPadBytes(a.Bytes(), 32)
}

func newTestService(t *testing.T, backend *mockBackend, submitter trade.TxSubmitter) *Service {
	t.Helper()
	gate := trade.NewAllowanceGate(submitter, nil)
	account := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	svc, err := NewService(backend, submitter, gate, registry.Default(), registry.ZkEra, account, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestSwapRejectsBadAmountArgs(t *testing.T) {
	backend := &mockBackend{}
	submitter := &countingSubmitter{status: trade.StatusSuccess}
	svc := newTestService(t, backend, submitter)

	_, err := svc.Swap(context.Background(), "USDC", "USDT", 1, 5, 50)
	if !errors.Is(err, trade.ErrInvalidArguments) {
		t.Fatalf("err = %v, want ErrInvalidArguments", err)
	}
	if backend.callCount != 0 {
		t.Fatalf("made %d network calls, want none before validation", backend.callCount)
	}
}

func TestSwapInsufficientLiquidityShortCircuits(t *testing.T) {
	reg := registry.Default()
	usdc, _ := reg.Token(registry.ZkEra, "USDC")
	factory, _ := reg.Contract(registry.ZkEra, registry.SyncSwapPoolFactory)
	pool := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	backend := &mockBackend{responses: map[common.Address][]byte{
		// balanceOf: plenty of USDC in the wallet.
		usdc.Address: encodeUint256(big.NewInt(1_000_000_000)),
		// getPool
		factory: encodeAddressWord(pool),
		// getReserves: reserves far below the trade size.
		pool: append(encodeUint256(big.NewInt(50)), encodeUint256(big.NewInt(50))...),
	}}
	submitter := &countingSubmitter{status: trade.StatusSuccess}
	svc := newTestService(t, backend, submitter)

	status, err := svc.Swap(context.Background(), "USDC", "USDT", 1, 100, 0)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if status != trade.StatusInsufficientLiquidity {
		t.Fatalf("status = %s, want %s", status, trade.StatusInsufficientLiquidity)
	}
	if submitter.calls != 0 {
		t.Fatalf("submitter calls = %d, nothing may be submitted", submitter.calls)
	}
	if backend.estimateCalls != 0 {
		t.Fatalf("estimate calls = %d, gas must not be estimated", backend.estimateCalls)
	}
}

func TestSwapEmptyPoolShortCircuits(t *testing.T) {
	reg := registry.Default()
	usdc, _ := reg.Token(registry.ZkEra, "USDC")
	factory, _ := reg.Contract(registry.ZkEra, registry.SyncSwapPoolFactory)
	pool := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	backend := &mockBackend{responses: map[common.Address][]byte{
		usdc.Address: encodeUint256(big.NewInt(1_000_000_000)),
		factory:      encodeAddressWord(pool),
		// getReserves: a freshly deployed pool with nothing in it.
		pool: append(encodeUint256(new(big.Int)), encodeUint256(new(big.Int))...),
	}}
	submitter := &countingSubmitter{status: trade.StatusSuccess}
	svc := newTestService(t, backend, submitter)

	status, err := svc.Swap(context.Background(), "USDC", "USDT", 1, 100, 0)
	if err != nil {
		t.Fatalf("Swap: %v", err)
	}
	if status != trade.StatusInsufficientLiquidity {
		t.Fatalf("status = %s, want %s", status, trade.StatusInsufficientLiquidity)
	}
	if submitter.calls != 0 {
		t.Fatalf("submitter calls = %d, nothing may be submitted", submitter.calls)
	}
}
