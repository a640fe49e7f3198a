// Package schedule implements the vesting accounting engine: the
// entitlement calculation for cliff-plus-linear schedules, the fixed-capacity
// beneficiary registry, and exactly-once claim settlement against an
// external transfer service.
//
// Entitlement at time t after the trigger event is
//
//	planned*tge/100 + (planned - planned*tge/100) * min(minutes(t), window) / window
//
// where window = 305*months*60*24/10 minutes, a 30.5-day month expressed
// without floating point.
package schedule
