package enums

import "fmt"

// PaymentMethod identifies the payment processor an order settled through.
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "stripe"
	PaymentMethodPayPal PaymentMethod = "paypal"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodStripe,
	PaymentMethodPayPal,
}

// PaymentMethods returns the supported methods in sweep order.
func PaymentMethods() []PaymentMethod {
	methods := make([]PaymentMethod, len(validPaymentMethods))
	copy(methods, validPaymentMethods)
	return methods
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// SupportsRealTimeTransfer reports whether sellers on this method can receive
// an immediate connected-account transfer at settlement time. PayPal pays via
// its batch payout API instead.
func (p PaymentMethod) SupportsRealTimeTransfer() bool {
	return p == PaymentMethodStripe
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
