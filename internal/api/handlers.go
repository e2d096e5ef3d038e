package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/ingestion"
	"github.com/transactionprocessing/estatereporting/internal/reporting"
	"github.com/transactionprocessing/estatereporting/internal/rollup"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	reporting *reporting.Service
	builder   *rollup.Builder
	ingestion *ingestion.Service
	logger    *slog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the error taxonomy onto HTTP statuses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	h.writeError(w, status, err.Error())
}

func estateID(r *http.Request) string {
	return chi.URLParam(r, "estateID")
}

func parseDate(s string) (time.Time, error) {
	t, err := domain.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrValidation, s)
	}
	return t, nil
}

func requiredDate(r *http.Request, name string) (time.Time, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
	}
	return parseDate(s)
}

func optionalInt(r *http.Request, name string) (*int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return &v, nil
}

func intList(r *http.Request, name string) ([]int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a comma separated id list", domain.ErrValidation, name)
		}
		out = append(out, v)
	}
	return out, nil
}

func filters(r *http.Request) (domain.Filters, error) {
	var f domain.Filters
	var err error
	if f.MerchantReportingID, err = optionalInt(r, "merchantReportingId"); err != nil {
		return f, err
	}
	if f.OperatorReportingID, err = optionalInt(r, "operatorReportingId"); err != nil {
		return f, err
	}
	return f, nil
}

// comparisonParams reads the comparison date and filters shared by the
// comparative endpoints.
func comparisonParams(r *http.Request) (time.Time, domain.Filters, error) {
	comparisonDate, err := requiredDate(r, "comparisonDate")
	if err != nil {
		return time.Time{}, domain.Filters{}, err
	}
	f, err := filters(r)
	return comparisonDate, f, err
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- rollup and ingestion ---

func (h *Handlers) BuildSummary(w http.ResponseWriter, r *http.Request) {
	date, err := parseDate(chi.URLParam(r, "date"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	mode := h.builder.ModeFor(date)
	if m := r.URL.Query().Get("mode"); m != "" {
		if mode, err = rollup.ParseMode(m); err != nil {
			h.writeServiceError(w, r, err)
			return
		}
	}

	result, err := h.builder.BuildSummary(r.Context(), estateID(r), date, mode)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) RecordBatch(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, 32<<20))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	format := "json"
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = "yaml"
	}
	batch, err := ingestion.ParseBatch(data, format)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.ingestion.Record(r.Context(), estateID(r), batch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// --- sales ---

func (h *Handlers) GetSalesComparison(w http.ResponseWriter, r *http.Request) {
	comparisonDate, f, err := comparisonParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.reporting.GetSalesComparison(r.Context(), estateID(r), time.Time{}, comparisonDate, f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetFailedSalesComparison(w http.ResponseWriter, r *http.Request) {
	comparisonDate, f, err := comparisonParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.reporting.GetFailedSalesComparison(r.Context(), estateID(r), time.Time{}, comparisonDate,
		r.URL.Query().Get("responseCode"), f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetHourlyCounts(w http.ResponseWriter, r *http.Request) {
	comparisonDate, f, err := comparisonParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.reporting.GetHourlyCounts(r.Context(), estateID(r), time.Time{}, comparisonDate, f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetHourlyValues(w http.ResponseWriter, r *http.Request) {
	comparisonDate, f, err := comparisonParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.reporting.GetHourlyValues(r.Context(), estateID(r), time.Time{}, comparisonDate, f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetTopBottom(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	dimension, err := domain.ParseDimension(q.Get("dimension"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	count, err := optionalInt(r, "count")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	n := 5
	if count != nil {
		n = *count
	}
	direction := domain.RankDirection(strings.ToLower(q.Get("direction")))
	if direction == "" {
		direction = domain.RankTop
	}

	res, err := h.reporting.GetTopBottom(r.Context(), estateID(r), direction, n, dimension)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- dimensions ---

func (h *Handlers) ListMerchants(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.ListMerchants(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetMerchant(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "reportingID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "merchant reporting id must be an integer")
		return
	}
	res, err := h.reporting.GetMerchant(r.Context(), estateID(r), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetMerchantKpis(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.GetMerchantKpis(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) ListOperators(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.ListOperators(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.ListProducts(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- settlements ---

func (h *Handlers) GetTodaysSettlement(w http.ResponseWriter, r *http.Request) {
	comparisonDate, f, err := comparisonParams(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.reporting.GetTodaysSettlement(r.Context(), estateID(r), time.Time{}, comparisonDate, f)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetLastSettlement(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.GetLastSettlement(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetUnsettledFees(w http.ResponseWriter, r *http.Request) {
	req, err := unsettledFeesRequest(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	res, err := h.reporting.GetUnsettledFees(r.Context(), estateID(r), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func unsettledFeesRequest(r *http.Request) (domain.UnsettledFeesRequest, error) {
	var req domain.UnsettledFeesRequest
	var err error
	if req.StartDate, err = requiredDate(r, "startDate"); err != nil {
		return req, err
	}
	if req.EndDate, err = requiredDate(r, "endDate"); err != nil {
		return req, err
	}
	if req.MerchantIDs, err = intList(r, "merchantIds"); err != nil {
		return req, err
	}
	if req.OperatorIDs, err = intList(r, "operatorIds"); err != nil {
		return req, err
	}
	if req.ProductIDs, err = intList(r, "productIds"); err != nil {
		return req, err
	}
	req.GroupBy, err = domain.ParseDimension(r.URL.Query().Get("groupBy"))
	return req, err
}

// --- transactions ---

func (h *Handlers) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	var req domain.TransactionSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid search request: "+err.Error())
		return
	}

	var opts domain.SearchOptions
	var err error
	if opts.Page, err = optionalInt(r, "page"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if opts.PageSize, err = optionalInt(r, "pageSize"); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	opts.SortField = domain.SortField(r.URL.Query().Get("sortField"))
	opts.SortDirection = domain.SortDirection(r.URL.Query().Get("sortDirection"))

	res, err := h.reporting.Search(r.Context(), estateID(r), req, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// --- calendar ---

func (h *Handlers) GetCalendarYears(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.GetCalendarYears(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetCalendarDates(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "year must be an integer")
		return
	}
	res, err := h.reporting.GetCalendarDates(r.Context(), estateID(r), year)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) GetComparisonDates(w http.ResponseWriter, r *http.Request) {
	res, err := h.reporting.GetComparisonDates(r.Context(), estateID(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}
