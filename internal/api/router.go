package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/transactionprocessing/estatereporting/internal/ingestion"
	"github.com/transactionprocessing/estatereporting/internal/reporting"
	"github.com/transactionprocessing/estatereporting/internal/rollup"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	reportingSvc *reporting.Service,
	builder *rollup.Builder,
	ingestionSvc *ingestion.Service,
	logger *slog.Logger,
) http.Handler {
	h := &Handlers{
		reporting: reportingSvc,
		builder:   builder,
		ingestion: ingestionSvc,
		logger:    logger.With("component", "api"),
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", h.Health)

	r.Route("/api/v1/estates/{estateID}", func(r chi.Router) {
		// Rollup and ingestion.
		r.Post("/summaries/{date}", h.BuildSummary)
		r.Post("/batches", h.RecordBatch)

		// Sales.
		r.Get("/sales/comparison", h.GetSalesComparison)
		r.Get("/sales/failed/comparison", h.GetFailedSalesComparison)
		r.Get("/sales/hourly/counts", h.GetHourlyCounts)
		r.Get("/sales/hourly/values", h.GetHourlyValues)
		r.Get("/sales/rankings", h.GetTopBottom)

		// Dimensions.
		r.Get("/merchants", h.ListMerchants)
		r.Get("/merchants/kpis", h.GetMerchantKpis)
		r.Get("/merchants/{reportingID}", h.GetMerchant)
		r.Get("/operators", h.ListOperators)
		r.Get("/products", h.ListProducts)

		// Settlements.
		r.Get("/settlements/today", h.GetTodaysSettlement)
		r.Get("/settlements/last", h.GetLastSettlement)
		r.Get("/settlements/unsettled-fees", h.GetUnsettledFees)

		// Transactions.
		r.Post("/transactions/search", h.SearchTransactions)

		// Calendar.
		r.Get("/calendar/years", h.GetCalendarYears)
		r.Get("/calendar/years/{year}/dates", h.GetCalendarDates)
		r.Get("/calendar/comparison-dates", h.GetComparisonDates)
	})

	return r
}
