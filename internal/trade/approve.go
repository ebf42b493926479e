package trade

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// approveHeadroom is the multiplier applied to the required amount when
// approving, so small follow-up trades do not need another approval.
const approveHeadroom = 10

// ApprovalState is the position of the approve-then-act workflow.
type ApprovalState int

const (
	// Ready means the current allowance already covers the required amount.
	Ready ApprovalState = iota
	// NeedsApproval means an approval transaction must confirm first.
	NeedsApproval
)

// PlanApproval decides whether an approval is needed for the required amount.
func PlanApproval(allowance, required *big.Int) ApprovalState {
	if allowance.Cmp(required) < 0 {
		return NeedsApproval
	}
	return Ready
}

// ApprovalToken is the token surface the gate needs: an allowance read and a
// packed approve call.
type ApprovalToken interface {
	Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error)
	ApproveCall(spender common.Address, amount *big.Int) (Call, error)
}

// AllowanceGate submits an approval before the main action when the current
// allowance is short, and waits for it to confirm.
type AllowanceGate struct {
	submitter TxSubmitter
	logger    *zap.Logger

	// Sleep runs after a confirmed approval, before the main action.
	Sleep func()
	// PollInterval paces the allowance re-read when waiting for the chain
	// state to reflect the approval. Zero disables the wait.
	PollInterval time.Duration
}

// NewAllowanceGate builds a gate over a transaction submitter.
func NewAllowanceGate(submitter TxSubmitter, logger *zap.Logger) *AllowanceGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllowanceGate{
		submitter: submitter,
		logger:    logger,
		Sleep:     func() {},
	}
}

// Ensure checks the spender allowance and, if short, approves ten times the
// required amount and waits for confirmation. Returns StatusSuccess when the
// main action may proceed.
func (g *AllowanceGate) Ensure(ctx context.Context, txc *TxContext, token ApprovalToken, spender common.Address, required *big.Int) Status {
	allowance, err := token.Allowance(ctx, txc.From, spender)
	if err != nil {
		g.logger.Error("allowance read failed", zap.Error(err))
		return StatusFailed
	}

	if PlanApproval(allowance, required) == Ready {
		return StatusSuccess
	}

	approveAmount := new(big.Int).Mul(required, big.NewInt(approveHeadroom))
	g.logger.Info("approving spender",
		zap.String("spender", spender.Hex()),
		zap.String("amount", approveAmount.String()),
	)

	call, err := token.ApproveCall(spender, approveAmount)
	if err != nil {
		g.logger.Error("pack approve failed", zap.Error(err))
		return StatusFailed
	}

	if status := g.submitter.Submit(ctx, txc, call); status != StatusSuccess {
		return status
	}

	if g.PollInterval > 0 {
		if err := g.waitForAllowance(ctx, token, txc.From, spender, required); err != nil {
			g.logger.Error("allowance wait failed", zap.Error(err))
			return StatusFailed
		}
	}

	if g.Sleep != nil {
		g.Sleep()
	}
	return StatusSuccess
}

// waitForAllowance re-reads the allowance until it covers the required
// amount. The approval receipt is already confirmed at this point; this only
// guards against a lagging RPC node.
func (g *AllowanceGate) waitForAllowance(ctx context.Context, token ApprovalToken, owner, spender common.Address, required *big.Int) error {
	for {
		allowance, err := token.Allowance(ctx, owner, spender)
		if err != nil {
			return err
		}
		if allowance.Cmp(required) >= 0 {
			return nil
		}

		timer := time.NewTimer(g.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
