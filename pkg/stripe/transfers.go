package stripe

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/refund"
	"github.com/stripe/stripe-go/v84/transfer"
)

var (
	errDestinationRequired = errors.New("transfer destination account is required")
	errAmountRequired      = errors.New("amount must be positive")
	errPaymentRefRequired  = errors.New("payment reference is required")
)

// Transfer moves amountCents to the seller's connected account and returns the
// Stripe transfer id. Stripe does not dedupe transfers; callers must not retry
// a transfer that may have landed.
func (c *Client) Transfer(ctx context.Context, destinationAccountID string, amountCents int64, metadata map[string]string) (string, error) {
	destination := strings.TrimSpace(destinationAccountID)
	if destination == "" {
		return "", errDestinationRequired
	}
	if amountCents <= 0 {
		return "", errAmountRequired
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(amountCents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(destination),
	}
	params.Context = ctx
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	created, err := transfer.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

// Refund reverses amountCents of the original payment. A zero amount refunds
// the full remaining balance.
func (c *Client) Refund(ctx context.Context, paymentRef string, amountCents int64) (string, error) {
	ref := strings.TrimSpace(paymentRef)
	if ref == "" {
		return "", errPaymentRefRequired
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(ref),
	}
	params.Context = ctx
	if amountCents > 0 {
		params.Amount = stripe.Int64(amountCents)
	}

	created, err := refund.New(params)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}
