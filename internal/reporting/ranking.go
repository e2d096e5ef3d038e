package reporting

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
)

// GetTopBottom ranks today's sales value by dimension member. Top orders by
// value descending, Bottom ascending; equal values order by name. A count
// of zero or less yields an empty ranking.
func (s *Service) GetTopBottom(ctx context.Context, estateID string, direction domain.RankDirection, count int, dimension domain.Dimension) ([]domain.RankEntry, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if direction != domain.RankTop && direction != domain.RankBottom {
		return nil, fmt.Errorf("%w: unknown rank direction %q", domain.ErrValidation, direction)
	}
	spec, err := specFor(dimension)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		return []domain.RankEntry{}, nil
	}

	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, err
	}
	facts, err := s.txns.Facts(ctx, estateID, repository.FactQuery{Date: s.today(s.now()), SalesOnly: true})
	if err != nil {
		return nil, fmt.Errorf("todays sales: %w", err)
	}

	groups := group(set, spec, len(facts), func(i int) (dimensionIDs, decimal.Decimal) {
		return factIDs(facts[i]), facts[i].Amount
	})
	rank(groups, direction)

	if count > len(groups) {
		count = len(groups)
	}
	out := make([]domain.RankEntry, count)
	for i := range out {
		out[i] = domain.RankEntry{Name: groups[i].name, SalesValue: groups[i].Value}
	}
	return out, nil
}

// rank sorts groups by value in direction, breaking ties by name and then
// by id so the order never depends on input order.
func rank(groups []namedTotals, direction domain.RankDirection) {
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i], groups[j]
		if c := a.Value.Cmp(b.Value); c != 0 {
			if direction == domain.RankTop {
				return c > 0
			}
			return c < 0
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.id < b.id
	})
}
