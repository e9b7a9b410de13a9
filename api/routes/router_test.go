package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/promptmart/promptmart-backend/api/controllers"
	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/settlement"
	"github.com/promptmart/promptmart-backend/pkg/config"
	"github.com/promptmart/promptmart-backend/pkg/db/models"
	"github.com/promptmart/promptmart-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubSettlementService struct{}

func (stubSettlementService) CompleteOrder(ctx context.Context, orderID uuid.UUID, processorPaymentRef *string) (*settlement.Result, error) {
	return &settlement.Result{Success: true, TransactionIDs: []uuid.UUID{uuid.New()}}, nil
}

func (stubSettlementService) ProcessRefund(ctx context.Context, orderID uuid.UUID, amountCents *int64, reason *string) (*settlement.Result, error) {
	return &settlement.Result{Success: true}, nil
}

type stubLedgerService struct{}

func (stubLedgerService) RecordEntry(ctx context.Context, input ledger.RecordEntryInput) (*models.LedgerEntry, error) {
	return &models.LedgerEntry{}, nil
}

func (stubLedgerService) EntriesForOrder(ctx context.Context, orderID uuid.UUID) ([]models.LedgerEntry, error) {
	return nil, nil
}

func (stubLedgerService) SellerBalance(ctx context.Context, sellerID uuid.UUID, cutoff time.Time) (int64, error) {
	return 4200, nil
}

type stubPayoutService struct{}

func (stubPayoutService) GetBatch(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error) {
	return &models.PayoutBatch{ID: id}, nil
}

func (stubPayoutService) ListBatches(ctx context.Context, limit int) ([]models.PayoutBatch, error) {
	return []models.PayoutBatch{}, nil
}

func (stubPayoutService) ExecutePendingBatch(ctx context.Context, id uuid.UUID) (*models.PayoutBatch, error) {
	return &models.PayoutBatch{ID: id}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(RouterParams{
		Config:     &config.Config{App: config.AppConfig{Env: "test"}},
		Logger:     logger.New(logger.Options{ServiceName: "router-test"}),
		Pingers:    map[string]controllers.Pinger{"db": stubPinger{}},
		Settlement: stubSettlementService{},
		Ledger:     stubLedgerService{},
		Payouts:    stubPayoutService{},
	})
}

func TestRouterHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	for _, path := range []string{"/health/live", "/health/ready"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s returned %d", path, w.Code)
		}
	}
}

func TestRouterSettlementRoutes(t *testing.T) {
	router := newTestRouter(t)
	orderID := uuid.New()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/complete", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("complete returned %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sellers/"+uuid.NewString()+"/balance", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("balance returned %d", w.Code)
	}

	var envelope struct {
		Data struct {
			BalanceCents int64 `json:"balance_cents"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode balance envelope: %v", err)
	}
	if envelope.Data.BalanceCents != 4200 {
		t.Fatalf("unexpected balance %d", envelope.Data.BalanceCents)
	}
}

func TestRouterRejectsMalformedIDs(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders/not-a-uuid/complete", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed order id, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/payouts/batches/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed batch id, got %d", w.Code)
	}
}

func TestRouterUnknownRouteIs404(t *testing.T) {
	router := newTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
