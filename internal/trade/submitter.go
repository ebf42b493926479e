package trade

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// priorityFeeWei is the fixed tip used for every transaction.
const priorityFeeWei = 100_000_000

// Backend is the chain surface the submitter depends on.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitForReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Signer signs a transaction with a caller-supplied key. The key is never
// persisted by this package.
type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Call describes a single contract invocation to submit.
type Call struct {
	To    common.Address
	Data  []byte
	Value *big.Int
}

// TxContext carries the mutable per-run transaction fields. The nonce is read
// once per action and incremented locally across the sequential
// approve-then-act steps; concurrent runs for the same account are the
// caller's responsibility.
type TxContext struct {
	From      common.Address
	Nonce     uint64
	GasTipCap *big.Int
	GasFeeCap *big.Int
	ChainID   *big.Int
}

// NewTxContext reads the latest nonce and gas price and builds a TxContext.
func NewTxContext(ctx context.Context, backend Backend, from common.Address) (*TxContext, error) {
	nonce, err := backend.NonceAt(ctx, from)
	if err != nil {
		return nil, err
	}
	gasPrice, err := backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return &TxContext{
		From:      from,
		Nonce:     nonce,
		GasTipCap: big.NewInt(priorityFeeWei),
		GasFeeCap: gasPrice,
		ChainID:   chainID,
	}, nil
}

// TxSubmitter submits a call and reports the outcome as a status.
type TxSubmitter interface {
	Submit(ctx context.Context, txc *TxContext, call Call) Status
}

// Submitter builds, gas-estimates, signs, broadcasts and confirms
// transactions against a chain backend.
type Submitter struct {
	backend     Backend
	signer      Signer
	logger      *zap.Logger
	explorerURL string
}

// NewSubmitter builds a Submitter.
func NewSubmitter(backend Backend, signer Signer, explorerURL string, logger *zap.Logger) *Submitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Submitter{
		backend:     backend,
		signer:      signer,
		logger:      logger,
		explorerURL: explorerURL,
	}
}

// Submit runs the estimate-sign-send-confirm sequence for a single call.
// A gas estimation error mentioning insufficient balance maps to
// StatusInsufficientBalance; any other estimation, broadcast or confirmation
// problem maps to StatusFailed. On success the context nonce is advanced.
func (s *Submitter) Submit(ctx context.Context, txc *TxContext, call Call) Status {
	value := call.Value
	if value == nil {
		value = new(big.Int)
	}

	gas, err := s.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:      txc.From,
		To:        &call.To,
		Value:     value,
		Data:      call.Data,
		GasTipCap: txc.GasTipCap,
		GasFeeCap: txc.GasFeeCap,
	})
	if err != nil {
		if IsInsufficientBalance(err) {
			s.logger.Error("insufficient balance", zap.Error(err))
			return StatusInsufficientBalance
		}
		s.logger.Error("gas estimation failed", zap.Error(err))
		return StatusFailed
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   txc.ChainID,
		Nonce:     txc.Nonce,
		GasTipCap: txc.GasTipCap,
		GasFeeCap: txc.GasFeeCap,
		Gas:       gas,
		To:        &call.To,
		Value:     value,
		Data:      call.Data,
	})

	signed, err := s.signer.SignTx(tx, txc.ChainID)
	if err != nil {
		s.logger.Error("sign transaction failed", zap.Error(err))
		return StatusFailed
	}

	if err := s.backend.SendTransaction(ctx, signed); err != nil {
		s.logger.Error("broadcast failed", zap.Error(err))
		return StatusFailed
	}

	txHash := signed.Hash()
	s.logger.Info("transaction sent", zap.String("tx", s.explorerURL+txHash.Hex()))

	receipt, err := s.backend.WaitForReceipt(ctx, txHash)
	if err != nil || receipt == nil || receipt.Status != types.ReceiptStatusSuccessful {
		s.logger.Error("transaction not confirmed", zap.String("tx_hash", txHash.Hex()), zap.Error(err))
		return StatusFailed
	}

	txc.Nonce++
	return StatusSuccess
}

// IsInsufficientBalance reports whether a gas estimation error means the
// account cannot cover value plus fees.
func IsInsufficientBalance(err error) bool {
	return err != nil && strings.Contains(err.Error(), "insufficient balance")
}
