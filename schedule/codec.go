package schedule

import (
	"encoding/binary"
	"fmt"
)

const (
	// PlanRecordSize is status(1) + beneficiary(32) + planned(8) + claimed(8) + tge(1) + period(1).
	PlanRecordSize = 51

	// RegistryRecordSize is active_count(8) followed by MaxSlots plan records.
	RegistryRecordSize = 8 + MaxSlots*PlanRecordSize

	// LedgerRecordSize is initialized(1) + trigger(8) + custody(32) + authority(32) + seed(1) + released(8) + admin(32).
	LedgerRecordSize = 114
)

// putPlan encodes plan into buf, which must hold PlanRecordSize bytes.
func putPlan(buf []byte, plan *VestingPlan) {
	buf[0] = byte(plan.Status)
	copy(buf[1:33], plan.Beneficiary[:])
	binary.BigEndian.PutUint64(buf[33:41], plan.PlannedTotal)
	binary.BigEndian.PutUint64(buf[41:49], plan.ClaimedTotal)
	buf[49] = plan.TGEUnlockPercent
	buf[50] = plan.UnlockingPeriodMonths
}

func readPlan(buf []byte) (VestingPlan, error) {
	var plan VestingPlan
	status := PlanStatus(buf[0])
	if status != StatusInactive && status != StatusActive {
		return plan, fmt.Errorf("%w: plan status %d", ErrInvalidRecord, buf[0])
	}
	plan.Status = status
	copy(plan.Beneficiary[:], buf[1:33])
	plan.PlannedTotal = binary.BigEndian.Uint64(buf[33:41])
	plan.ClaimedTotal = binary.BigEndian.Uint64(buf[41:49])
	plan.TGEUnlockPercent = buf[49]
	plan.UnlockingPeriodMonths = buf[50]
	return plan, nil
}

// SerializePlan encodes a single plan as a fixed-width record.
func SerializePlan(plan *VestingPlan) []byte {
	buf := make([]byte, PlanRecordSize)
	putPlan(buf, plan)
	return buf
}

// DeserializePlan decodes a fixed-width plan record.
func DeserializePlan(data []byte) (*VestingPlan, error) {
	if len(data) != PlanRecordSize {
		return nil, fmt.Errorf("%w: plan expected %d bytes, got %d", ErrInvalidRecord, PlanRecordSize, len(data))
	}
	plan, err := readPlan(data)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// SerializeRegistry encodes the whole registry, every slot included.
func SerializeRegistry(r *Registry) []byte {
	buf := make([]byte, RegistryRecordSize)
	binary.BigEndian.PutUint64(buf[0:8], r.activeCount)
	offset := 8
	for i := range r.slots {
		putPlan(buf[offset:offset+PlanRecordSize], &r.slots[i])
		offset += PlanRecordSize
	}
	return buf
}

// DeserializeRegistry decodes a registry record. The stored active count
// must match the number of active slots.
func DeserializeRegistry(data []byte) (*Registry, error) {
	if len(data) != RegistryRecordSize {
		return nil, fmt.Errorf("%w: registry expected %d bytes, got %d", ErrInvalidRecord, RegistryRecordSize, len(data))
	}
	r := &Registry{activeCount: binary.BigEndian.Uint64(data[0:8])}
	offset := 8
	for i := range r.slots {
		plan, err := readPlan(data[offset : offset+PlanRecordSize])
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		r.slots[i] = plan
		offset += PlanRecordSize
	}
	if err := r.CheckConsistency(); err != nil {
		return nil, err
	}
	return r, nil
}

// SerializeLedger encodes the ledger state as a fixed-width record.
func SerializeLedger(s *LedgerState) []byte {
	buf := make([]byte, LedgerRecordSize)
	if s.Initialized {
		buf[0] = 1
	}
	binary.BigEndian.PutUint64(buf[1:9], s.TriggerTimestamp)
	copy(buf[9:41], s.CustodyAccount[:])
	copy(buf[41:73], s.CustodyAuthority[:])
	buf[73] = s.AuthoritySeed
	binary.BigEndian.PutUint64(buf[74:82], s.TotalReleased)
	copy(buf[82:114], s.Admin[:])
	return buf
}

// DeserializeLedger decodes a ledger state record.
func DeserializeLedger(data []byte) (*LedgerState, error) {
	if len(data) != LedgerRecordSize {
		return nil, fmt.Errorf("%w: ledger expected %d bytes, got %d", ErrInvalidRecord, LedgerRecordSize, len(data))
	}
	if data[0] > 1 {
		return nil, fmt.Errorf("%w: initialized flag %d", ErrInvalidRecord, data[0])
	}
	s := &LedgerState{Initialized: data[0] == 1}
	s.TriggerTimestamp = binary.BigEndian.Uint64(data[1:9])
	copy(s.CustodyAccount[:], data[9:41])
	copy(s.CustodyAuthority[:], data[41:73])
	s.AuthoritySeed = data[73]
	s.TotalReleased = binary.BigEndian.Uint64(data[74:82])
	copy(s.Admin[:], data[82:114])
	return s, nil
}
