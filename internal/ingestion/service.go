package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
	"github.com/transactionprocessing/estatereporting/internal/rollup"
)

// RecordResult is returned from a successful batch.
type RecordResult struct {
	TransactionsRecorded int      `json:"transactions_recorded"`
	DuplicatesSkipped    int      `json:"duplicates_skipped"`
	SettlementsRecorded  int      `json:"settlements_recorded"`
	DatesRebuilt         []string `json:"dates_rebuilt"`
}

// Service records upstream batches into the fact store. It stands in for
// the transaction processing system: it keeps dimensions, merchant
// activity and the calendar current, then rebuilds the rollup of every
// date the batch touched.
type Service struct {
	dims        *repository.DimensionRepo
	txns        *repository.TransactionRepo
	settlements *repository.SettlementRepo
	activity    *repository.ActivityRepo
	calendar    *repository.CalendarRepo
	builder     *rollup.Builder
	logger      *slog.Logger
}

// NewService creates a new ingestion service.
func NewService(
	dims *repository.DimensionRepo,
	txns *repository.TransactionRepo,
	settlements *repository.SettlementRepo,
	activity *repository.ActivityRepo,
	calendar *repository.CalendarRepo,
	builder *rollup.Builder,
	logger *slog.Logger,
) *Service {
	return &Service{
		dims:        dims,
		txns:        txns,
		settlements: settlements,
		activity:    activity,
		calendar:    calendar,
		builder:     builder,
		logger:      logger.With("component", "ingestion"),
	}
}

// Record stores the batch for estateID. Facts must reference dimensions
// that exist once the batch's own dimensions are recorded.
func (s *Service) Record(ctx context.Context, estateID string, b *Batch) (*RecordResult, error) {
	if strings.TrimSpace(estateID) == "" {
		return nil, fmt.Errorf("%w: estate id is required", domain.ErrValidation)
	}

	if err := s.dims.Upsert(ctx, estateID, b.Dimensions); err != nil {
		return nil, fmt.Errorf("record dimensions: %w", err)
	}
	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, fmt.Errorf("load dimensions: %w", err)
	}

	facts := make([]domain.TransactionFact, len(b.Transactions))
	for i, f := range b.Transactions {
		if err := checkReferences(set, f); err != nil {
			return nil, fmt.Errorf("transaction %s: %w", f.ID, err)
		}
		f.EstateID = estateID
		facts[i] = f
	}

	dates := touchedDates(facts)
	if len(dates) > 0 {
		if err := s.calendar.Ensure(ctx, estateID, dates[0], dates[len(dates)-1]); err != nil {
			return nil, fmt.Errorf("calendar: %w", err)
		}
	}

	inserted, err := s.txns.BulkInsert(ctx, facts)
	if err != nil {
		return nil, fmt.Errorf("insert transactions: %w", err)
	}

	for merchantID, at := range lastSales(facts) {
		if err := s.activity.RecordSale(ctx, estateID, merchantID, at); err != nil {
			return nil, fmt.Errorf("merchant activity: %w", err)
		}
	}

	if len(b.Settlements) > 0 || len(b.SettlementFees) > 0 {
		if err := s.settlements.Record(ctx, estateID, b.Settlements, b.SettlementFees); err != nil {
			return nil, fmt.Errorf("record settlements: %w", err)
		}
	}

	s.logger.Info("batch recorded",
		"estate_id", estateID, "transactions", len(facts), "new", inserted,
		"settlements", len(b.Settlements), "fees", len(b.SettlementFees))

	result := &RecordResult{
		TransactionsRecorded: inserted,
		DuplicatesSkipped:    len(facts) - inserted,
		SettlementsRecorded:  len(b.Settlements),
		DatesRebuilt:         []string{},
	}

	// A failed rebuild leaves the previous buckets in place and does not
	// fail the batch; the next batch or an operator rollup repairs it.
	for _, d := range dates {
		if _, err := s.builder.BuildSummary(ctx, estateID, d, s.builder.ModeFor(d)); err != nil {
			s.logger.Warn("rollup after batch failed", "estate_id", estateID, "date", domain.FormatDate(d), "error", err)
			continue
		}
		result.DatesRebuilt = append(result.DatesRebuilt, domain.FormatDate(d))
	}

	return result, nil
}

func checkReferences(set *repository.DimensionSet, f domain.TransactionFact) error {
	if _, ok := set.Merchants[f.MerchantID]; !ok {
		return fmt.Errorf("%w: unknown merchant %s", domain.ErrValidation, f.MerchantID)
	}
	if _, ok := set.Operators[f.OperatorID]; !ok {
		return fmt.Errorf("%w: unknown operator %s", domain.ErrValidation, f.OperatorID)
	}
	if _, ok := set.Contracts[f.ContractID]; !ok {
		return fmt.Errorf("%w: unknown contract %s", domain.ErrValidation, f.ContractID)
	}
	if _, ok := set.Products[f.ProductID]; !ok {
		return fmt.Errorf("%w: unknown product %s", domain.ErrValidation, f.ProductID)
	}
	return nil
}

// touchedDates returns the distinct fact dates in ascending order.
func touchedDates(facts []domain.TransactionFact) []time.Time {
	seen := make(map[string]time.Time)
	for _, f := range facts {
		seen[domain.FormatDate(f.DateTime)] = f.Date()
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// lastSales returns the latest sale time of each merchant in facts.
func lastSales(facts []domain.TransactionFact) map[string]time.Time {
	last := make(map[string]time.Time)
	for _, f := range facts {
		if !f.IsSale() {
			continue
		}
		if t, ok := last[f.MerchantID]; !ok || f.DateTime.After(t) {
			last[f.MerchantID] = f.DateTime
		}
	}
	return last
}
