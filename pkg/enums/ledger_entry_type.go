package enums

import "fmt"

// LedgerEntryType labels the monetary fact a ledger entry records.
type LedgerEntryType string

const (
	LedgerEntryTypePurchase   LedgerEntryType = "purchase"
	LedgerEntryTypeCommission LedgerEntryType = "commission"
	LedgerEntryTypeRefund     LedgerEntryType = "refund"
	LedgerEntryTypePayout     LedgerEntryType = "payout"
)

var validLedgerEntryTypes = []LedgerEntryType{
	LedgerEntryTypePurchase,
	LedgerEntryTypeCommission,
	LedgerEntryTypeRefund,
	LedgerEntryTypePayout,
}

// String implements fmt.Stringer.
func (l LedgerEntryType) String() string {
	return string(l)
}

// IsValid reports whether the value is known.
func (l LedgerEntryType) IsValid() bool {
	for _, candidate := range validLedgerEntryTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLedgerEntryType converts raw input into a LedgerEntryType.
func ParseLedgerEntryType(value string) (LedgerEntryType, error) {
	for _, candidate := range validLedgerEntryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ledger entry type %q", value)
}
