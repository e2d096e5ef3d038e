package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
)

// Service answers the comparative, ranking, KPI, settlement and search
// queries of an estate. All methods are read-only and safe for concurrent
// use alongside rollup builds.
type Service struct {
	txns        *repository.TransactionRepo
	dims        *repository.DimensionRepo
	summaries   *repository.SummaryRepo
	settlements *repository.SettlementRepo
	activity    *repository.ActivityRepo
	calendar    *repository.CalendarRepo
	now         func() time.Time
}

type Option func(*Service)

// WithClock overrides the clock that decides "now" and "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new reporting service.
func NewService(
	txns *repository.TransactionRepo,
	dims *repository.DimensionRepo,
	summaries *repository.SummaryRepo,
	settlements *repository.SettlementRepo,
	activity *repository.ActivityRepo,
	calendar *repository.CalendarRepo,
	opts ...Option,
) *Service {
	s := &Service{
		txns:        txns,
		dims:        dims,
		summaries:   summaries,
		settlements: settlements,
		activity:    activity,
		calendar:    calendar,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// today resolves the "today" of a query. The HTTP layer always passes the
// zero time, which means the clock's date; a non-zero value only exists so
// Go callers and tests can pin a date without swapping the clock.
func (s *Service) today(t time.Time) time.Time {
	if t.IsZero() {
		return domain.DateOf(s.now())
	}
	return domain.DateOf(t)
}

func requireEstate(estateID string) error {
	if strings.TrimSpace(estateID) == "" {
		return fmt.Errorf("%w: estate id is required", domain.ErrValidation)
	}
	return nil
}

func validateFilters(f domain.Filters) error {
	if f.MerchantReportingID != nil && *f.MerchantReportingID <= 0 {
		return fmt.Errorf("%w: merchant reporting id must be positive", domain.ErrValidation)
	}
	if f.OperatorReportingID != nil && *f.OperatorReportingID <= 0 {
		return fmt.Errorf("%w: operator reporting id must be positive", domain.ErrValidation)
	}
	return nil
}

func validateIDs(kind string, ids []int) error {
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("%w: %s reporting id %d must be positive", domain.ErrValidation, kind, id)
		}
	}
	return nil
}

// selection is a resolved Filters: the bucket to read and the matching
// fact predicate.
type selection struct {
	scope      domain.Scope
	key        string
	merchantID string
	operatorID string
}

func (sel selection) filtered() bool {
	return sel.scope != domain.ScopeEstate
}

func (sel selection) factQuery(date time.Time) repository.FactQuery {
	return repository.FactQuery{Date: date, MerchantID: sel.merchantID, OperatorID: sel.operatorID}
}

// resolve maps reporting id filters to durable ids. The merchant filter
// takes precedence over the operator filter.
func (s *Service) resolve(ctx context.Context, estateID string, f domain.Filters) (selection, error) {
	if f.MerchantReportingID == nil && f.OperatorReportingID == nil {
		return selection{scope: domain.ScopeEstate}, nil
	}

	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return selection{}, err
	}

	if f.MerchantReportingID != nil {
		m, ok := set.MerchantByReportingID(*f.MerchantReportingID)
		if !ok {
			return selection{}, fmt.Errorf("%w: merchant %d", domain.ErrNotFound, *f.MerchantReportingID)
		}
		return selection{scope: domain.ScopeMerchant, key: m.ID, merchantID: m.ID}, nil
	}

	o, ok := set.OperatorByReportingID(*f.OperatorReportingID)
	if !ok {
		return selection{}, fmt.Errorf("%w: operator %d", domain.ErrNotFound, *f.OperatorReportingID)
	}
	return selection{scope: domain.ScopeOperator, key: o.ID, operatorID: o.ID}, nil
}

func sumFacts(facts []domain.TransactionFact) domain.Totals {
	t := domain.Totals{Value: zero}
	for _, f := range facts {
		t = t.Add(f.Amount)
	}
	return t
}
