package enums

import "fmt"

// PayoutBatchStatus tracks a payout batch from creation to its terminal state.
// Pending is reserved for batches that require manual execution outside the
// sweep (payout-API methods).
type PayoutBatchStatus string

const (
	PayoutBatchStatusPending    PayoutBatchStatus = "pending"
	PayoutBatchStatusProcessing PayoutBatchStatus = "processing"
	PayoutBatchStatusCompleted  PayoutBatchStatus = "completed"
	PayoutBatchStatusPartial    PayoutBatchStatus = "partial"
	PayoutBatchStatusFailed     PayoutBatchStatus = "failed"
)

var validPayoutBatchStatuses = []PayoutBatchStatus{
	PayoutBatchStatusPending,
	PayoutBatchStatusProcessing,
	PayoutBatchStatusCompleted,
	PayoutBatchStatusPartial,
	PayoutBatchStatusFailed,
}

// String implements fmt.Stringer.
func (p PayoutBatchStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PayoutBatchStatus) IsValid() bool {
	for _, candidate := range validPayoutBatchStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutBatchStatus converts raw input into a PayoutBatchStatus.
func ParsePayoutBatchStatus(value string) (PayoutBatchStatus, error) {
	for _, candidate := range validPayoutBatchStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout batch status %q", value)
}
