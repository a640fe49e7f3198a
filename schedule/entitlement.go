package schedule

import (
	"fmt"
	"math/bits"
)

// minutesPerTenMonths is the length of ten 30.5-day months in minutes,
// so a window of m months is m*minutesPerTenMonths/10 minutes.
const minutesPerTenMonths = 305 * 60 * 24

// EntitledNow returns the amount the beneficiary may claim at nowTimestamp.
//
// Before or at the trigger nothing is claimable. After it, tgeUnlockPercent of
// plannedTotal is unlocked at once and the rest accrues linearly per minute
// over unlockingPeriodMonths of 30.5 days each. The already claimed amount is
// subtracted; claimedTotal above the entitlement yields ErrConsistencyViolation.
func EntitledNow(plannedTotal, tgeUnlockPercent, unlockingPeriodMonths, claimedTotal, triggerTimestamp, nowTimestamp uint64) (uint64, error) {
	entitled, err := Entitlement(plannedTotal, tgeUnlockPercent, unlockingPeriodMonths, triggerTimestamp, nowTimestamp)
	if err != nil {
		return 0, err
	}
	if claimedTotal > entitled {
		return 0, fmt.Errorf("%w: claimed %d exceeds entitled %d", ErrConsistencyViolation, claimedTotal, entitled)
	}
	return entitled - claimedTotal, nil
}

// Entitlement returns the cumulative amount unlocked at nowTimestamp,
// regardless of what has been claimed. It never exceeds plannedTotal.
func Entitlement(plannedTotal, tgeUnlockPercent, unlockingPeriodMonths, triggerTimestamp, nowTimestamp uint64) (uint64, error) {
	if err := validateParams(tgeUnlockPercent, unlockingPeriodMonths); err != nil {
		return 0, err
	}

	if nowTimestamp <= triggerTimestamp {
		return 0, nil
	}

	atTrigger := mulDiv(plannedTotal, tgeUnlockPercent, MaxUnlockPercent)

	windowMinutes := minutesPerTenMonths * unlockingPeriodMonths / 10
	elapsedMinutes := (nowTimestamp - triggerTimestamp) / 60
	effectiveMinutes := min(elapsedMinutes, windowMinutes)

	// A zero window is only reachable with a 100% TGE unlock.
	var afterTrigger uint64
	if windowMinutes > 0 {
		afterTrigger = mulDiv(plannedTotal-atTrigger, effectiveMinutes, windowMinutes)
	}

	return atTrigger + afterTrigger, nil
}

func validateParams(tgeUnlockPercent, unlockingPeriodMonths uint64) error {
	if tgeUnlockPercent > MaxUnlockPercent {
		return fmt.Errorf("%w: tge unlock percent %d above %d", ErrInvalidInput, tgeUnlockPercent, MaxUnlockPercent)
	}
	if unlockingPeriodMonths == 0 && tgeUnlockPercent < MaxUnlockPercent {
		return fmt.Errorf("%w: zero unlocking period requires %d%% at tge, got %d%%",
			ErrInvalidInput, MaxUnlockPercent, tgeUnlockPercent)
	}
	return nil
}

// mulDiv computes floor(a*b/d) in 128-bit precision. Callers guarantee
// b <= d, so the quotient never exceeds a and fits in 64 bits.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// checkedAdd returns a+b, or ErrConsistencyViolation when the sum overflows.
func checkedAdd(a, b uint64, what string) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %s overflows (%d + %d)", ErrConsistencyViolation, what, a, b)
	}
	return sum, nil
}
