package reporting

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// GetTodaysSettlement compares the settled and pending fees of settlements
// dated today with those dated comparisonDate.
func (s *Service) GetTodaysSettlement(ctx context.Context, estateID string, today, comparisonDate time.Time, f domain.Filters) (*domain.TodaysSettlement, error) {
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

	settled, pending, err := s.settlements.FeeTotals(ctx, estateID, today, sel.merchantID, sel.operatorID)
	if err != nil {
		return nil, fmt.Errorf("todays settlement: %w", err)
	}
	cmpSettled, cmpPending, err := s.settlements.FeeTotals(ctx, estateID, comparisonDate, sel.merchantID, sel.operatorID)
	if err != nil {
		return nil, fmt.Errorf("comparison settlement: %w", err)
	}

	return &domain.TodaysSettlement{
		TodaysSettlementCount:            settled.Count,
		TodaysSettlementValue:            settled.Value,
		TodaysPendingSettlementCount:     pending.Count,
		TodaysPendingSettlementValue:     pending.Value,
		ComparisonSettlementCount:        cmpSettled.Count,
		ComparisonSettlementValue:        cmpSettled.Value,
		ComparisonPendingSettlementCount: cmpPending.Count,
		ComparisonPendingSettlementValue: cmpPending.Value,
	}, nil
}

// GetLastSettlement returns the estate's most recent settlement. It fails
// with domain.ErrNotFound when the estate has none.
func (s *Service) GetLastSettlement(ctx context.Context, estateID string) (*domain.LastSettlement, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	return s.settlements.Last(ctx, estateID)
}

// GetUnsettledFees groups pending fees by the requested dimension, ordered
// by dimension name.
func (s *Service) GetUnsettledFees(ctx context.Context, estateID string, req domain.UnsettledFeesRequest) ([]domain.UnsettledFeeGroup, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return nil, fmt.Errorf("%w: start and end dates are required", domain.ErrValidation)
	}
	if domain.FormatDate(req.EndDate) < domain.FormatDate(req.StartDate) {
		return nil, fmt.Errorf("%w: end date is before start date", domain.ErrValidation)
	}
	for kind, ids := range map[string][]int{"merchant": req.MerchantIDs, "operator": req.OperatorIDs, "product": req.ProductIDs} {
		if err := validateIDs(kind, ids); err != nil {
			return nil, err
		}
	}
	spec, err := specFor(req.GroupBy)
	if err != nil {
		return nil, err
	}

	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, err
	}
	fees, err := s.settlements.UnsettledFees(ctx, estateID, req)
	if err != nil {
		return nil, err
	}

	groups := group(set, spec, len(fees), func(i int) (dimensionIDs, decimal.Decimal) {
		return feeIDs(fees[i]), fees[i].CalculatedValue
	})
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].name != groups[j].name {
			return groups[i].name < groups[j].name
		}
		return groups[i].id < groups[j].id
	})

	out := make([]domain.UnsettledFeeGroup, len(groups))
	for i, g := range groups {
		out[i] = domain.UnsettledFeeGroup{DimensionName: g.name, FeesValue: g.Value, FeesCount: g.Count}
	}
	return out, nil
}
