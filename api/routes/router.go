package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptmart/promptmart-backend/api/controllers"
	"github.com/promptmart/promptmart-backend/api/middleware"
	"github.com/promptmart/promptmart-backend/internal/ledger"
	"github.com/promptmart/promptmart-backend/internal/payouts"
	"github.com/promptmart/promptmart-backend/internal/settlement"
	"github.com/promptmart/promptmart-backend/pkg/config"
	"github.com/promptmart/promptmart-backend/pkg/logger"
)

// RouterParams carry everything the HTTP surface needs.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	Pingers    map[string]controllers.Pinger
	Settlement settlement.Service
	Ledger     ledger.Service
	Payouts    payouts.Service
	Estimator  *payouts.Estimator
	Registry   *prometheus.Registry
}

// NewRouter wires the settlement API and its ops endpoints.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.Pingers))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders/{orderId}", func(r chi.Router) {
			r.Post("/complete", controllers.CompleteOrder(params.Settlement, params.Logger))
			r.Post("/refund", controllers.RefundOrder(params.Settlement, params.Logger))
			r.Get("/ledger", controllers.OrderLedger(params.Ledger, params.Logger))
		})

		r.Route("/payouts/batches", func(r chi.Router) {
			r.Get("/", controllers.ListPayoutBatches(params.Payouts, params.Logger))
			r.Get("/{batchId}", controllers.GetPayoutBatch(params.Payouts, params.Logger))
			r.Post("/{batchId}/execute", controllers.ExecutePayoutBatch(params.Payouts, params.Logger))
		})

		r.Route("/sellers/{sellerId}", func(r chi.Router) {
			r.Get("/balance", controllers.SellerBalance(params.Ledger, params.Logger))
			r.Get("/payout-estimate", controllers.PayoutEstimate(params.Estimator, params.Logger))
		})
	})

	return r
}
