package schedule

import "fmt"

// Registry is the fixed-capacity beneficiary table. Slots are addressed by
// index, never reordered or compacted, and reused lowest-first after removal.
//
// A Registry performs no locking; callers hold exclusive access for the
// duration of each operation.
type Registry struct {
	slots       [MaxSlots]VestingPlan
	activeCount uint64
}

// NewRegistry returns a registry with every slot inactive.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add writes plan into the lowest-indexed inactive slot and returns its index.
// The stored plan is always active with nothing claimed.
func (r *Registry) Add(plan VestingPlan) (int, error) {
	idx, err := r.nextFree()
	if err != nil {
		return 0, err
	}

	plan.Status = StatusActive
	plan.ClaimedTotal = 0
	r.slots[idx] = plan
	r.activeCount++
	return idx, nil
}

// nextFree finds the lowest-indexed inactive slot.
func (r *Registry) nextFree() (int, error) {
	for i := range r.slots {
		if r.slots[i].Status == StatusInactive {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %d active plans", ErrRegistryFull, r.activeCount)
}

// Remove tombstones an active slot. Plan fields other than the status are
// left in place until the slot is reused by Add.
func (r *Registry) Remove(slot int) error {
	plan, err := r.GetActive(slot)
	if err != nil {
		return err
	}
	plan.Status = StatusInactive
	r.activeCount--
	return nil
}

// ActiveCount returns the materialized number of active slots.
func (r *Registry) ActiveCount() int {
	return int(r.activeCount)
}

// CountActive counts active slots by scanning. It always equals ActiveCount
// for a consistent registry.
func (r *Registry) CountActive() int {
	n := 0
	for i := range r.slots {
		if r.slots[i].Status == StatusActive {
			n++
		}
	}
	return n
}

// Get returns the plan stored at slot, active or not.
func (r *Registry) Get(slot int) (*VestingPlan, error) {
	if slot < 0 || slot >= MaxSlots {
		return nil, fmt.Errorf("%w: %d", ErrIndexOutOfRange, slot)
	}
	return &r.slots[slot], nil
}

// GetActive returns the plan at slot, or ErrSlotNotActive for a free slot.
// Tombstoned slots still carry stale plan data, so reads that use plan
// fields go through GetActive.
func (r *Registry) GetActive(slot int) (*VestingPlan, error) {
	plan, err := r.Get(slot)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive() {
		return nil, fmt.Errorf("%w: %d", ErrSlotNotActive, slot)
	}
	return plan, nil
}

// ActiveSlots returns the indices of all active slots in ascending order.
func (r *Registry) ActiveSlots() []int {
	slots := make([]int, 0, r.activeCount)
	for i := range r.slots {
		if r.slots[i].Status == StatusActive {
			slots = append(slots, i)
		}
	}
	return slots
}

// Reset marks every slot inactive and zeroes the active count.
func (r *Registry) Reset() {
	for i := range r.slots {
		r.slots[i].Status = StatusInactive
	}
	r.activeCount = 0
}

// CheckConsistency verifies the materialized count against the slots.
func (r *Registry) CheckConsistency() error {
	if n := r.CountActive(); uint64(n) != r.activeCount {
		return fmt.Errorf("%w: active count %d, %d active slots", ErrConsistencyViolation, r.activeCount, n)
	}
	return nil
}
