package schedule

import (
	"encoding/hex"
	"fmt"
)

const (
	// MaxSlots is the fixed capacity of the beneficiary registry.
	MaxSlots = 300

	// IdentitySize is the byte length of a ledger identity.
	IdentitySize = 32

	// MaxUnlockPercent is the upper bound of a TGE unlock percentage.
	MaxUnlockPercent = 100

	// CustodyTag is the derivation tag of the custody authority.
	CustodyTag = "vesting_vault"
)

// Identity is an opaque 32-byte address on the external ledger.
type Identity [IdentitySize]byte

// ParseIdentity decodes a 64-character hex string into an Identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("schedule: parse identity: %w", err)
	}
	if len(b) != IdentitySize {
		return id, fmt.Errorf("schedule: parse identity: expected %d bytes, got %d", IdentitySize, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the hex encoding of the identity.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// IsZero reports whether every byte of the identity is zero.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// PlanStatus marks whether a registry slot holds a live entitlement.
type PlanStatus uint8

const (
	// StatusInactive marks a free or tombstoned slot.
	StatusInactive PlanStatus = 0
	// StatusActive marks a slot holding a live entitlement.
	StatusActive PlanStatus = 1
)

func (s PlanStatus) String() string {
	switch s {
	case StatusInactive:
		return "inactive"
	case StatusActive:
		return "active"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// VestingPlan is the record stored in one registry slot.
type VestingPlan struct {
	Status      PlanStatus
	Beneficiary Identity

	// PlannedTotal is the number of tokens the beneficiary is ever entitled to.
	PlannedTotal uint64

	// ClaimedTotal is the cumulative amount already released.
	ClaimedTotal uint64

	// TGEUnlockPercent is released at the trigger event, 15% is stored as 15.
	TGEUnlockPercent uint8

	// UnlockingPeriodMonths is the linear release window after the trigger.
	// Zero is only valid together with a 100% TGE unlock.
	UnlockingPeriodMonths uint8
}

// NewVestingPlan builds an active plan with nothing claimed yet.
func NewVestingPlan(tgeUnlockPercent uint8, beneficiary Identity, unlockingPeriodMonths uint8, plannedTotal uint64) VestingPlan {
	return VestingPlan{
		Status:                StatusActive,
		Beneficiary:           beneficiary,
		PlannedTotal:          plannedTotal,
		TGEUnlockPercent:      tgeUnlockPercent,
		UnlockingPeriodMonths: unlockingPeriodMonths,
	}
}

// IsActive reports whether the plan occupies a live slot.
func (p *VestingPlan) IsActive() bool {
	return p.Status == StatusActive
}

// LedgerState is the program-wide vesting record. It is created once by
// Initialize and afterwards only TotalReleased changes.
type LedgerState struct {
	Initialized bool

	// TriggerTimestamp is the unix time of the token generation event.
	TriggerTimestamp uint64

	// CustodyAccount holds the pooled tokens.
	CustodyAccount Identity

	// CustodyAuthority is the derived identity allowed to move custody funds.
	CustodyAuthority Identity

	// AuthoritySeed is the disambiguation byte returned by derivation.
	AuthoritySeed byte

	// TotalReleased is the sum of every amount ever transferred out.
	TotalReleased uint64

	// Admin is the owner the custody authority was derived from.
	Admin Identity
}
