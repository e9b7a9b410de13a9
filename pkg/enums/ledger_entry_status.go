package enums

import "fmt"

// LedgerEntryStatus tracks the lifecycle of the money movement behind an entry.
type LedgerEntryStatus string

const (
	LedgerEntryStatusPending    LedgerEntryStatus = "pending"
	LedgerEntryStatusProcessing LedgerEntryStatus = "processing"
	LedgerEntryStatusCompleted  LedgerEntryStatus = "completed"
	LedgerEntryStatusFailed     LedgerEntryStatus = "failed"
)

var validLedgerEntryStatuses = []LedgerEntryStatus{
	LedgerEntryStatusPending,
	LedgerEntryStatusProcessing,
	LedgerEntryStatusCompleted,
	LedgerEntryStatusFailed,
}

// String implements fmt.Stringer.
func (l LedgerEntryStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is known.
func (l LedgerEntryStatus) IsValid() bool {
	for _, candidate := range validLedgerEntryStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEntryStatus converts raw input into a LedgerEntryStatus.
func ParseLedgerEntryStatus(value string) (LedgerEntryStatus, error) {
	for _, candidate := range validLedgerEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry status %q", value)
}
