package controllers

import (
	"net/http"

	"github.com/promptmart/promptmart-backend/api/responses"
	"github.com/promptmart/promptmart-backend/api/validators"
	"github.com/promptmart/promptmart-backend/internal/payouts"
	"github.com/promptmart/promptmart-backend/pkg/logger"
)

const (
	defaultBatchPageSize = 20
	maxBatchPageSize     = 100
)

// ListPayoutBatches returns recent payout batches, newest first.
func ListPayoutBatches(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultBatchPageSize, 1, maxBatchPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batches, err := svc.ListBatches(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batches)
	}
}

// GetPayoutBatch returns one payout batch with its error log and metadata.
func GetPayoutBatch(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := parseUUIDParam(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.GetBatch(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// ExecutePayoutBatch pays out a staged pending batch through its payout API.
func ExecutePayoutBatch(svc payouts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batchID, err := parseUUIDParam(r, "batchId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		batch, err := svc.ExecutePendingBatch(r.Context(), batchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, batch)
	}
}

// PayoutEstimate predicts a seller's next payout date and amount.
func PayoutEstimate(estimator *payouts.Estimator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := parseUUIDParam(r, "sellerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		estimate, err := estimator.NextPayout(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if estimate == nil {
			responses.WriteSuccess(w, map[string]any{"seller_id": sellerID, "payout_due": false})
			return
		}
		responses.WriteSuccess(w, estimate)
	}
}
