package rollup

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

type scopeKey struct {
	scope domain.Scope
	key   func(domain.TransactionFact) string
}

var scopeKeys = []scopeKey{
	{domain.ScopeEstate, func(domain.TransactionFact) string { return "" }},
	{domain.ScopeMerchant, func(f domain.TransactionFact) string { return f.MerchantID }},
	{domain.ScopeOperator, func(f domain.TransactionFact) string { return f.OperatorID }},
	{domain.ScopeProduct, func(f domain.TransactionFact) string { return f.ProductID }},
	{domain.ScopeHour, func(f domain.TransactionFact) string { return HourKey(f.Hour()) }},
}

// HourKey is the scope key of an hour bucket.
func HourKey(hour int) string {
	return fmt.Sprintf("%02d", hour)
}

// Aggregate groups the sales among facts dated date into every scope. The
// estate-wide bucket is always present, so a built empty day reads as zero
// rather than missing. Output order is stable: scope, then key.
func Aggregate(estateID string, date time.Time, facts []domain.TransactionFact) []domain.SummaryBucket {
	date = domain.DateOf(date)
	groups := make(map[domain.Scope]map[string]domain.Totals, len(scopeKeys))
	for _, sk := range scopeKeys {
		groups[sk.scope] = make(map[string]domain.Totals)
	}
	groups[domain.ScopeEstate][""] = domain.Totals{Value: decimal.Zero}

	for _, f := range facts {
		if !f.IsSale() || !domain.SameDate(f.DateTime, date) {
			continue
		}
		for _, sk := range scopeKeys {
			k := sk.key(f)
			groups[sk.scope][k] = groups[sk.scope][k].Add(f.Amount)
		}
	}

	var buckets []domain.SummaryBucket
	for _, sk := range scopeKeys {
		keys := make([]string, 0, len(groups[sk.scope]))
		for k := range groups[sk.scope] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			buckets = append(buckets, domain.SummaryBucket{
				EstateID: estateID,
				Date:     date,
				Scope:    sk.scope,
				ScopeKey: k,
				Totals:   groups[sk.scope][k],
			})
		}
	}
	return buckets
}
