package paypal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptmart/promptmart-backend/pkg/config"
	pkgerrors "github.com/promptmart/promptmart-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.PayPalConfig{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Env:          "sandbox",
	}, WithBaseURL(server.URL), WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesCredentialsAndEnvironment(t *testing.T) {
	_, err := NewClient(config.PayPalConfig{ClientID: "id", ClientSecret: "secret", Env: "staging"})
	assert.Error(t, err)

	_, err = NewClient(config.PayPalConfig{Env: "sandbox"})
	assert.Error(t, err)

	client, err := NewClient(config.PayPalConfig{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "sandbox", client.Environment())
}

func TestPayoutSendsAuthorizedRequest(t *testing.T) {
	var tokenCalls, payoutCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "test-client", user)
		assert.Equal(t, "test-secret", pass)
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "expires_in": 3600})
	})
	mux.HandleFunc("/v1/payments/payouts", func(w http.ResponseWriter, r *http.Request) {
		payoutCalls++
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var payload payoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Items, 1)
		assert.Equal(t, "seller@example.com", payload.Items[0].Receiver)
		assert.Equal(t, "12.05", payload.Items[0].Amount.Value)
		assert.Equal(t, "USD", payload.Items[0].Amount.Currency)
		assert.Equal(t, "batch-1:seller-1", payload.Items[0].SenderItemID)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"batch_header": map[string]any{"payout_batch_id": "PAYOUT-9", "batch_status": "PENDING"},
		})
	})

	client := newTestClient(t, mux)
	batchID, err := client.Payout(context.Background(), "seller@example.com", 1205, "batch-1:seller-1")
	require.NoError(t, err)
	assert.Equal(t, "PAYOUT-9", batchID)

	// A second payout reuses the cached token instead of re-authenticating.
	_, err = client.Payout(context.Background(), "seller@example.com", 1205, "batch-1:seller-1")
	require.NoError(t, err)
	assert.Equal(t, 1, tokenCalls)
	assert.Equal(t, 2, payoutCalls)
}

func TestPayoutRejectsInvalidInput(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.Payout(context.Background(), "", 500, "item")
	assert.Error(t, err)

	_, err = client.Payout(context.Background(), "seller@example.com", 0, "item")
	assert.Error(t, err)
}

func TestPayoutSurfacesAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "expires_in": 3600})
	})
	mux.HandleFunc("/v1/payments/payouts", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"name":"INSUFFICIENT_FUNDS"}`))
	})

	client := newTestClient(t, mux)
	_, err := client.Payout(context.Background(), "seller@example.com", 500, "item")
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeProcessor))
	assert.Contains(t, err.Error(), "INSUFFICIENT_FUNDS")
}
