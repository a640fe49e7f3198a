package schedule

import (
	"context"
	"errors"
	"fmt"
)

// TransferService moves tokens out of the custody account. A returned error
// means no funds moved, unless it wraps ErrTransferOutcomeUnknown.
// Implementations should execute a given Key at most once.
type TransferService interface {
	Transfer(ctx context.Context, req TransferRequest) error
}

// TransferRequest describes one release from custody to a beneficiary.
type TransferRequest struct {
	Amount        uint64
	From          Identity // custody account
	To            Identity // beneficiary token account
	Authority     Identity // custody authority
	AuthoritySeed byte

	// Key identifies the settlement, so a replayed request can be dropped.
	Key string
}

// SettlementKey names one claim settlement. TotalReleased strictly grows
// with every settlement, so the key never repeats within a custody account,
// even when a slot is reused.
func SettlementKey(custodyAccount Identity, releasedAfter uint64, slot int, claimedAfter uint64) string {
	return fmt.Sprintf("%s/%d/%d/%d", custodyAccount, releasedAfter, slot, claimedAfter)
}

// ClaimKind distinguishes the outcomes of a claim request.
type ClaimKind uint8

const (
	// ClaimIgnored means the requester does not own the slot or the slot
	// is inactive. Nothing was computed or changed.
	ClaimIgnored ClaimKind = iota
	// ClaimNothingDue means the request was valid but no tokens are claimable yet.
	ClaimNothingDue
	// ClaimSettled means Amount tokens were transferred and recorded.
	ClaimSettled
)

func (k ClaimKind) String() string {
	switch k {
	case ClaimIgnored:
		return "ignored"
	case ClaimNothingDue:
		return "nothing_due"
	case ClaimSettled:
		return "settled"
	default:
		return fmt.Sprintf("claim_kind(%d)", uint8(k))
	}
}

// ClaimOutcome is the result of SettleClaim.
type ClaimOutcome struct {
	Kind   ClaimKind
	Slot   int
	Amount uint64
}

// SettleClaim releases whatever the plan at slot has vested by now.
//
// A requester that does not match the slot's beneficiary, or an inactive
// slot, is silently ignored. Otherwise the claimable amount is transferred
// from custody to destination and, only once the transfer succeeded, added
// to both the plan's ClaimedTotal and the ledger's TotalReleased. An error
// wrapping ErrTransferOutcomeUnknown leaves the counters untouched although
// the tokens may have moved; the caller must not retry blindly.
func SettleClaim(ctx context.Context, reg *Registry, slot int, requester, destination Identity,
	ledger *LedgerState, transfers TransferService, now uint64) (ClaimOutcome, error) {
	outcome := ClaimOutcome{Kind: ClaimIgnored, Slot: slot}
	if reg == nil || ledger == nil || transfers == nil {
		return outcome, ErrNilParam
	}

	plan, err := reg.Get(slot)
	if err != nil {
		return outcome, err
	}
	if !plan.IsActive() || plan.Beneficiary != requester {
		return outcome, nil
	}

	claimable, err := EntitledNow(
		plan.PlannedTotal,
		uint64(plan.TGEUnlockPercent),
		uint64(plan.UnlockingPeriodMonths),
		plan.ClaimedTotal,
		ledger.TriggerTimestamp,
		now,
	)
	if err != nil {
		return outcome, err
	}
	if claimable == 0 {
		outcome.Kind = ClaimNothingDue
		return outcome, nil
	}

	// Both sums are checked before any funds move.
	released, err := checkedAdd(ledger.TotalReleased, claimable, "total released")
	if err != nil {
		return outcome, err
	}
	claimed, err := checkedAdd(plan.ClaimedTotal, claimable, "claimed total")
	if err != nil {
		return outcome, err
	}
	if claimed > plan.PlannedTotal {
		return outcome, fmt.Errorf("%w: claimed %d exceeds planned %d", ErrConsistencyViolation, claimed, plan.PlannedTotal)
	}

	req := TransferRequest{
		Amount:        claimable,
		From:          ledger.CustodyAccount,
		To:            destination,
		Authority:     ledger.CustodyAuthority,
		AuthoritySeed: ledger.AuthoritySeed,
		Key:           SettlementKey(ledger.CustodyAccount, released, slot, claimed),
	}
	if err := transfers.Transfer(ctx, req); err != nil {
		if errors.Is(err, ErrTransferOutcomeUnknown) {
			return outcome, fmt.Errorf("schedule: settle slot %d: %w", slot, err)
		}
		return outcome, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	ledger.TotalReleased = released
	plan.ClaimedTotal = claimed

	outcome.Kind = ClaimSettled
	outcome.Amount = claimable
	return outcome, nil
}
