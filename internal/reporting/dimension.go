package reporting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
)

var zero = decimal.Zero

// dimensionIDs is the dimension triple every fact and fee line carries.
type dimensionIDs struct {
	merchant string
	operator string
	product  string
}

func factIDs(f domain.TransactionFact) dimensionIDs {
	return dimensionIDs{merchant: f.MerchantID, operator: f.OperatorID, product: f.ProductID}
}

func feeIDs(f repository.UnsettledFee) dimensionIDs {
	return dimensionIDs{merchant: f.MerchantID, operator: f.OperatorID, product: f.ProductID}
}

// dimensionSpec picks a grouping key and its display name for one
// dimension.
type dimensionSpec struct {
	key  func(dimensionIDs) string
	name func(*repository.DimensionSet, string) string
}

func specFor(d domain.Dimension) (dimensionSpec, error) {
	switch d {
	case domain.DimensionMerchant:
		return dimensionSpec{
			key: func(ids dimensionIDs) string { return ids.merchant },
			name: func(set *repository.DimensionSet, id string) string {
				if m, ok := set.Merchants[id]; ok {
					return m.Name
				}
				return id
			},
		}, nil
	case domain.DimensionOperator:
		return dimensionSpec{
			key: func(ids dimensionIDs) string { return ids.operator },
			name: func(set *repository.DimensionSet, id string) string {
				if o, ok := set.Operators[id]; ok {
					return o.Name
				}
				return id
			},
		}, nil
	case domain.DimensionProduct:
		return dimensionSpec{
			key: func(ids dimensionIDs) string { return ids.product },
			name: func(set *repository.DimensionSet, id string) string {
				if p, ok := set.Products[id]; ok {
					return p.Name
				}
				return id
			},
		}, nil
	}
	return dimensionSpec{}, fmt.Errorf("%w: unknown dimension %q", domain.ErrValidation, d)
}

// namedTotals is one group of a dimension, keyed by durable id.
type namedTotals struct {
	id   string
	name string
	domain.Totals
}

// group folds amounts into per-member totals of one dimension.
func group(set *repository.DimensionSet, spec dimensionSpec, n int, at func(int) (dimensionIDs, decimal.Decimal)) []namedTotals {
	index := make(map[string]int)
	var out []namedTotals
	for i := 0; i < n; i++ {
		ids, amount := at(i)
		k := spec.key(ids)
		pos, ok := index[k]
		if !ok {
			pos = len(out)
			index[k] = pos
			out = append(out, namedTotals{id: k, name: spec.name(set, k), Totals: domain.Totals{Value: zero}})
		}
		out[pos].Totals = out[pos].Totals.Add(amount)
	}
	return out
}
