package trade

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type fakeBackend struct {
	estimateErr   error
	sendErr       error
	receiptStatus uint64
	receiptErr    error

	estimateCalls int
	sendCalls     int
	sentTx        *types.Transaction
}

func (b *fakeBackend) ChainID(context.Context) (*big.Int, error) { return big.NewInt(324), nil }

func (b *fakeBackend) NonceAt(context.Context, common.Address) (uint64, error) { return 7, nil }

func (b *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(250_000_000), nil
}

func (b *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	b.estimateCalls++
	if b.estimateErr != nil {
		return 0, b.estimateErr
	}
	return 21_000, nil
}

func (b *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.sendCalls++
	b.sentTx = tx
	return b.sendErr
}

func (b *fakeBackend) WaitForReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if b.receiptErr != nil {
		return nil, b.receiptErr
	}
	return &types.Receipt{Status: b.receiptStatus}, nil
}

type fakeSigner struct{ address common.Address }

func (s *fakeSigner) Address() common.Address { return s.address }

func (s *fakeSigner) SignTx(tx *types.Transaction, _ *big.Int) (*types.Transaction, error) {
	return tx, nil
}

func newTestTxContext(t *testing.T, backend Backend, from common.Address) *TxContext {
	t.Helper()
	txc, err := NewTxContext(context.Background(), backend, from)
	if err != nil {
		t.Fatalf("NewTxContext: %v", err)
	}
	return txc
}

func TestSubmitSuccess(t *testing.T) {
	backend := &fakeBackend{receiptStatus: types.ReceiptStatusSuccessful}
	from := common.HexToAddress("0x01")
	sub := NewSubmitter(backend, &fakeSigner{address: from}, "", nil)
	txc := newTestTxContext(t, backend, from)

	status := sub.Submit(context.Background(), txc, Call{To: common.HexToAddress("0x02")})
	if status != StatusSuccess {
		t.Fatalf("status = %s, want %s", status, StatusSuccess)
	}
	if txc.Nonce != 8 {
		t.Fatalf("nonce = %d, want 8 after success", txc.Nonce)
	}
	if backend.sentTx.Type() != types.DynamicFeeTxType {
		t.Fatalf("tx type = %d, want dynamic fee", backend.sentTx.Type())
	}
	if backend.sentTx.GasTipCap().Cmp(big.NewInt(100_000_000)) != 0 {
		t.Fatalf("tip = %s, want 100000000", backend.sentTx.GasTipCap())
	}
}

func TestSubmitInsufficientBalance(t *testing.T) {
	backend := &fakeBackend{estimateErr: errors.New("err: insufficient balance for transfer")}
	from := common.HexToAddress("0x01")
	sub := NewSubmitter(backend, &fakeSigner{address: from}, "", nil)
	txc := newTestTxContext(t, backend, from)

	status := sub.Submit(context.Background(), txc, Call{To: common.HexToAddress("0x02")})
	if status != StatusInsufficientBalance {
		t.Fatalf("status = %s, want %s", status, StatusInsufficientBalance)
	}
	if backend.sendCalls != 0 {
		t.Fatalf("sendCalls = %d, nothing should be broadcast", backend.sendCalls)
	}
	if txc.Nonce != 7 {
		t.Fatalf("nonce = %d, must not advance on failure", txc.Nonce)
	}
}

func TestSubmitEstimationFailure(t *testing.T) {
	backend := &fakeBackend{estimateErr: errors.New("execution reverted")}
	from := common.HexToAddress("0x01")
	sub := NewSubmitter(backend, &fakeSigner{address: from}, "", nil)
	txc := newTestTxContext(t, backend, from)

	status := sub.Submit(context.Background(), txc, Call{To: common.HexToAddress("0x02")})
	if status != StatusFailed {
		t.Fatalf("status = %s, want %s", status, StatusFailed)
	}
}

func TestSubmitRevertedReceipt(t *testing.T) {
	backend := &fakeBackend{receiptStatus: types.ReceiptStatusFailed}
	from := common.HexToAddress("0x01")
	sub := NewSubmitter(backend, &fakeSigner{address: from}, "", nil)
	txc := newTestTxContext(t, backend, from)

	status := sub.Submit(context.Background(), txc, Call{To: common.HexToAddress("0x02")})
	if status != StatusFailed {
		t.Fatalf("status = %s, want %s", status, StatusFailed)
	}
	if txc.Nonce != 7 {
		t.Fatalf("nonce = %d, must not advance on revert", txc.Nonce)
	}
}

func TestIsInsufficientBalance(t *testing.T) {
	if !IsInsufficientBalance(errors.New("insufficient balance for transfer")) {
		t.Fatal("substring match expected")
	}
	if IsInsufficientBalance(errors.New("execution reverted")) {
		t.Fatal("unrelated error must not match")
	}
	if IsInsufficientBalance(nil) {
		t.Fatal("nil error must not match")
	}
}
