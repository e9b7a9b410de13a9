package enums

import "fmt"

// OnboardingStatus reflects how far a seller has gotten with processor onboarding.
type OnboardingStatus string

const (
	OnboardingStatusPending   OnboardingStatus = "pending"
	OnboardingStatusActive    OnboardingStatus = "active"
	OnboardingStatusSuspended OnboardingStatus = "suspended"
)

var validOnboardingStatuses = []OnboardingStatus{
	OnboardingStatusPending,
	OnboardingStatusActive,
	OnboardingStatusSuspended,
}

// String implements fmt.Stringer.
func (o OnboardingStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is known.
func (o OnboardingStatus) IsValid() bool {
	for _, candidate := range validOnboardingStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOnboardingStatus converts raw input into an OnboardingStatus.
func ParseOnboardingStatus(value string) (OnboardingStatus, error) {
	for _, candidate := range validOnboardingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid onboarding status %q", value)
}
