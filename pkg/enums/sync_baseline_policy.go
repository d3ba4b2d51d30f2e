package enums

import "fmt"

// SyncBaselinePolicy decides when the previous-items baseline advances
// relative to the remote reconciliation call.
type SyncBaselinePolicy string

const (
	// BaselineAdvanceImmediate snapshots the baseline before the remote
	// call resolves. A second mutation arriving mid-flight diffs against
	// the post-first-mutation state instead of double-counting it; the
	// cost is that a failed sync is never re-diffed.
	BaselineAdvanceImmediate SyncBaselinePolicy = "advance-immediate"
	// BaselineAdvanceOnSync moves the baseline only after the gateway
	// confirms, so the next mutation re-sends anything a failed sync
	// dropped.
	BaselineAdvanceOnSync SyncBaselinePolicy = "advance-on-sync"
)

var validSyncBaselinePolicies = []SyncBaselinePolicy{
	BaselineAdvanceImmediate,
	BaselineAdvanceOnSync,
}

// String implements fmt.Stringer.
func (p SyncBaselinePolicy) String() string {
	return string(p)
}

// IsValid reports whether the value is a known SyncBaselinePolicy.
func (p SyncBaselinePolicy) IsValid() bool {
	for _, candidate := range validSyncBaselinePolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseSyncBaselinePolicy converts raw input into a SyncBaselinePolicy.
func ParseSyncBaselinePolicy(value string) (SyncBaselinePolicy, error) {
	for _, candidate := range validSyncBaselinePolicies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync baseline policy %q", value)
}
