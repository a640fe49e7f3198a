package schedule

import "fmt"

// AddressDeriver computes a deterministic identity from an owner, a tag and
// a namespace, returning the identity and its disambiguation byte.
type AddressDeriver interface {
	Derive(owner Identity, tag string, namespace Identity) (Identity, byte, error)
}

// Initialize sets every ledger field and clears the registry. It is meant to
// run once per ledger lifetime; the caller enforces that.
func Initialize(ledger *LedgerState, reg *Registry, admin, custodyAccount, custodyAuthority Identity,
	authoritySeed byte, triggerTimestamp uint64) error {
	if ledger == nil || reg == nil {
		return ErrNilParam
	}
	*ledger = LedgerState{
		Initialized:      true,
		TriggerTimestamp: triggerTimestamp,
		CustodyAccount:   custodyAccount,
		CustodyAuthority: custodyAuthority,
		AuthoritySeed:    authoritySeed,
		TotalReleased:    0,
		Admin:            admin,
	}
	reg.Reset()
	return nil
}

// InitializeWithDeriver derives the custody authority of admin under tag and
// namespace and then initializes the ledger with it. An empty tag means
// CustodyTag.
func InitializeWithDeriver(ledger *LedgerState, reg *Registry, deriver AddressDeriver, tag string,
	admin, namespace, custodyAccount Identity, triggerTimestamp uint64) error {
	if deriver == nil {
		return ErrNilParam
	}
	if tag == "" {
		tag = CustodyTag
	}
	authority, seed, err := deriver.Derive(admin, tag, namespace)
	if err != nil {
		return fmt.Errorf("schedule: derive custody authority: %w", err)
	}
	return Initialize(ledger, reg, admin, custodyAccount, authority, seed, triggerTimestamp)
}

// AddBeneficiary registers a new vesting plan and returns its slot.
func AddBeneficiary(reg *Registry, tgeUnlockPercent uint8, beneficiary Identity,
	unlockingPeriodMonths uint8, plannedTotal uint64) (int, error) {
	if reg == nil {
		return 0, ErrNilParam
	}
	return reg.Add(NewVestingPlan(tgeUnlockPercent, beneficiary, unlockingPeriodMonths, plannedTotal))
}

// RemoveBeneficiary tombstones the plan at slot.
func RemoveBeneficiary(reg *Registry, slot int) error {
	if reg == nil {
		return ErrNilParam
	}
	return reg.Remove(slot)
}
