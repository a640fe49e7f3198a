// Package host runs a vesting program: it serializes requests, checks the
// administrative capability, loads and commits state through a StateStore,
// and supplies the clock.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bitfsorg/vesting-go/schedule"
	"github.com/bitfsorg/vesting-go/store"
)

// Program is one vesting program instance. Every request runs under a single
// lock from state load to commit.
type Program struct {
	Store     store.StateStore
	Transfers schedule.TransferService
	Deriver   schedule.AddressDeriver
	Namespace schedule.Identity
	Tag       string // custody derivation tag; empty = schedule.CustodyTag
	Logger    *slog.Logger
	Now       func() uint64 // unix seconds

	mu     sync.Mutex
	halted error
}

// New creates a program with the wall clock and a discarding logger.
func New(st store.StateStore, transfers schedule.TransferService, deriver schedule.AddressDeriver,
	namespace schedule.Identity) *Program {
	return &Program{
		Store:     st,
		Transfers: transfers,
		Deriver:   deriver,
		Namespace: namespace,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() uint64 { return uint64(time.Now().Unix()) },
	}
}

// Close releases the underlying store when it holds resources.
func (p *Program) Close() error {
	if c, ok := p.Store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Halted reports the failure that stopped the program, or nil.
func (p *Program) Halted() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halted
}

// withLock runs fn under the request lock unless the program is halted.
func (p *Program) withLock(fn func() error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted != nil {
		return fmt.Errorf("%w: %w", ErrHalted, p.halted)
	}
	return fn()
}

// halt stops the program. Called with p.mu held.
func (p *Program) halt(op string, err error) {
	p.halted = err
	p.Logger.Error("program halted", "op", op, "error", err)
}

// load returns the committed state. ErrNotInitialized from the store is
// mapped to the host error, so callers need not know the store.
func (p *Program) load() (*schedule.LedgerState, *schedule.Registry, error) {
	ledger, reg, err := p.Store.Load()
	if errors.Is(err, store.ErrNotInitialized) {
		return nil, nil, ErrNotInitialized
	}
	if err != nil {
		return nil, nil, fmt.Errorf("host: load state: %w", err)
	}
	if !ledger.Initialized {
		return nil, nil, ErrNotInitialized
	}
	return ledger, reg, nil
}

// loadAdmin loads state and checks that caller holds the admin capability.
func (p *Program) loadAdmin(caller schedule.Identity) (*schedule.LedgerState, *schedule.Registry, error) {
	ledger, reg, err := p.load()
	if err != nil {
		return nil, nil, err
	}
	if caller != ledger.Admin {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return ledger, reg, nil
}

// Initialize creates the program ledger. The custody authority is derived
// from admin, which also becomes the only identity allowed to manage
// beneficiaries. The custody account must be handed to that authority on
// the token ledger before claims can settle.
func (p *Program) Initialize(ctx context.Context, admin, custodyAccount schedule.Identity, triggerTimestamp uint64) error {
	return p.withLock(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, _, err := p.load(); err == nil {
			return ErrAlreadyInitialized
		} else if !errors.Is(err, ErrNotInitialized) {
			return err
		}

		ledger := &schedule.LedgerState{}
		reg := schedule.NewRegistry()
		if err := schedule.InitializeWithDeriver(ledger, reg, p.Deriver, p.Tag, admin, p.Namespace,
			custodyAccount, triggerTimestamp); err != nil {
			return err
		}
		if err := p.Store.Commit(ledger, reg); err != nil {
			return fmt.Errorf("host: commit: %w", err)
		}

		p.Logger.Info("program initialized",
			"admin", admin.String(),
			"custody_account", custodyAccount.String(),
			"custody_authority", ledger.CustodyAuthority.String(),
			"authority_seed", ledger.AuthoritySeed,
			"trigger", triggerTimestamp)
		return nil
	})
}

// AddBeneficiary registers a plan and returns its slot.
func (p *Program) AddBeneficiary(ctx context.Context, caller schedule.Identity, tgeUnlockPercent uint8,
	beneficiary schedule.Identity, unlockingPeriodMonths uint8, plannedTotal uint64) (int, error) {
	var slot int
	err := p.withLock(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ledger, reg, err := p.loadAdmin(caller)
		if err != nil {
			return err
		}
		slot, err = schedule.AddBeneficiary(reg, tgeUnlockPercent, beneficiary, unlockingPeriodMonths, plannedTotal)
		if err != nil {
			return err
		}
		if err := p.Store.Commit(ledger, reg); err != nil {
			return fmt.Errorf("host: commit: %w", err)
		}

		p.Logger.Info("beneficiary added",
			"slot", slot,
			"beneficiary", beneficiary.String(),
			"tge_percent", tgeUnlockPercent,
			"months", unlockingPeriodMonths,
			"planned", plannedTotal,
			"active", reg.ActiveCount())
		return nil
	})
	return slot, err
}

// RemoveBeneficiary tombstones the plan at slot. Already released tokens stay released.
func (p *Program) RemoveBeneficiary(ctx context.Context, caller schedule.Identity, slot int) error {
	return p.withLock(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ledger, reg, err := p.loadAdmin(caller)
		if err != nil {
			return err
		}
		if err := schedule.RemoveBeneficiary(reg, slot); err != nil {
			return err
		}
		if err := p.Store.Commit(ledger, reg); err != nil {
			return fmt.Errorf("host: commit: %w", err)
		}

		p.Logger.Info("beneficiary removed", "slot", slot, "active", reg.ActiveCount())
		return nil
	})
}

// Claim releases what the plan at slot has vested to destination. A zero
// destination means the requester itself.
func (p *Program) Claim(ctx context.Context, slot int, requester, destination schedule.Identity) (schedule.ClaimOutcome, error) {
	var outcome schedule.ClaimOutcome
	err := p.withLock(func() error {
		ledger, reg, err := p.load()
		if err != nil {
			return err
		}
		if destination.IsZero() {
			destination = requester
		}

		outcome, err = schedule.SettleClaim(ctx, reg, slot, requester, destination, ledger, p.Transfers, p.Now())
		if err != nil {
			// Tokens may have moved without being recorded; a retry could pay twice.
			if errors.Is(err, schedule.ErrConsistencyViolation) || errors.Is(err, schedule.ErrTransferOutcomeUnknown) {
				p.halt("claim", err)
			} else {
				p.Logger.Warn("claim failed", "slot", slot, "error", err)
			}
			return err
		}
		if outcome.Kind != schedule.ClaimSettled {
			p.Logger.Debug("claim not settled", "slot", slot, "outcome", outcome.Kind.String())
			return nil
		}

		// Funds already moved: losing this commit would allow a second release.
		if err := p.Store.Commit(ledger, reg); err != nil {
			err = fmt.Errorf("host: commit after transfer: %w", err)
			p.halt("claim", err)
			return err
		}

		p.Logger.Info("claim settled",
			"slot", slot,
			"beneficiary", requester.String(),
			"destination", destination.String(),
			"amount", outcome.Amount,
			"total_released", ledger.TotalReleased)
		return nil
	})
	return outcome, err
}

// Beneficiary returns a copy of the active plan at slot.
func (p *Program) Beneficiary(slot int) (schedule.VestingPlan, error) {
	var plan schedule.VestingPlan
	err := p.withLock(func() error {
		_, reg, err := p.load()
		if err != nil {
			return err
		}
		got, err := reg.GetActive(slot)
		if err != nil {
			return err
		}
		plan = *got
		return nil
	})
	return plan, err
}

// Ledger returns a copy of the committed ledger state.
func (p *Program) Ledger() (*schedule.LedgerState, error) {
	var ledger *schedule.LedgerState
	err := p.withLock(func() error {
		var err error
		ledger, _, err = p.load()
		return err
	})
	return ledger, err
}

// ActiveCount returns the number of active plans.
func (p *Program) ActiveCount() (int, error) {
	var n int
	err := p.withLock(func() error {
		_, reg, err := p.load()
		if err != nil {
			return err
		}
		n = reg.ActiveCount()
		return nil
	})
	return n, err
}

// Claimable returns what a claim on slot would release right now.
func (p *Program) Claimable(slot int) (uint64, error) {
	var amount uint64
	err := p.withLock(func() error {
		ledger, reg, err := p.load()
		if err != nil {
			return err
		}
		plan, err := reg.GetActive(slot)
		if err != nil {
			return err
		}
		amount, err = schedule.EntitledNow(
			plan.PlannedTotal,
			uint64(plan.TGEUnlockPercent),
			uint64(plan.UnlockingPeriodMonths),
			plan.ClaimedTotal,
			ledger.TriggerTimestamp,
			p.Now(),
		)
		return err
	})
	return amount, err
}
