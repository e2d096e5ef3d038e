package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// GetSalesComparison compares today's sales with those of comparisonDate,
// read from the summary buckets of the selected scope.
func (s *Service) GetSalesComparison(ctx context.Context, estateID string, today, comparisonDate time.Time, f domain.Filters) (*domain.SalesComparison, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if err := validateFilters(f); err != nil {
		return nil, err
	}
	today = s.today(today)

	sel, err := s.resolve(ctx, estateID, f)
	if err != nil {
		return nil, err
	}

	todays, err := s.summaries.Bucket(ctx, estateID, today, sel.scope, sel.key)
	if err != nil {
		return nil, fmt.Errorf("todays sales: %w", err)
	}
	comparison, err := s.summaries.Bucket(ctx, estateID, comparisonDate, sel.scope, sel.key)
	if err != nil {
		return nil, fmt.Errorf("comparison sales: %w", err)
	}

	res := domain.NewSalesComparison(todays, comparison)
	return &res, nil
}

// GetFailedSalesComparison compares facts that failed with responseCode.
// The rollup does not keep response code aggregates, so both dates are
// rescanned from the facts.
func (s *Service) GetFailedSalesComparison(ctx context.Context, estateID string, today, comparisonDate time.Time, responseCode string, f domain.Filters) (*domain.SalesComparison, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	responseCode = strings.TrimSpace(responseCode)
	if responseCode == "" || responseCode == domain.ResponseCodeSuccess {
		return nil, fmt.Errorf("%w: a non-success response code is required", domain.ErrValidation)
	}
	if err := validateFilters(f); err != nil {
		return nil, err
	}
	today = s.today(today)

	sel, err := s.resolve(ctx, estateID, f)
	if err != nil {
		return nil, err
	}

	totals := make([]domain.Totals, 2)
	for i, date := range []time.Time{today, comparisonDate} {
		q := sel.factQuery(date)
		q.ResponseCode = responseCode
		facts, err := s.txns.Facts(ctx, estateID, q)
		if err != nil {
			return nil, fmt.Errorf("failed sales for %s: %w", domain.FormatDate(date), err)
		}
		totals[i] = sumFacts(facts)
	}

	res := domain.NewSalesComparison(totals[0], totals[1])
	return &res, nil
}
