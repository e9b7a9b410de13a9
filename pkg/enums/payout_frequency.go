package enums

import "fmt"

// PayoutFrequency is the cadence of the scheduled payout sweep.
type PayoutFrequency string

const (
	PayoutFrequencyDaily    PayoutFrequency = "daily"
	PayoutFrequencyWeekly   PayoutFrequency = "weekly"
	PayoutFrequencyBiweekly PayoutFrequency = "biweekly"
	PayoutFrequencyMonthly  PayoutFrequency = "monthly"
)

var validPayoutFrequencies = []PayoutFrequency{
	PayoutFrequencyDaily,
	PayoutFrequencyWeekly,
	PayoutFrequencyBiweekly,
	PayoutFrequencyMonthly,
}

// String implements fmt.Stringer.
func (p PayoutFrequency) String() string {
	return string(p)
}

// IsValid reports whether the value is known.
func (p PayoutFrequency) IsValid() bool {
	for _, candidate := range validPayoutFrequencies {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutFrequency converts raw input into a PayoutFrequency.
func ParsePayoutFrequency(value string) (PayoutFrequency, error) {
	for _, candidate := range validPayoutFrequencies {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout frequency %q", value)
}
