package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope is the grouping a summary bucket covers.
type Scope string

const (
	ScopeEstate   Scope = "estate"
	ScopeMerchant Scope = "merchant"
	ScopeOperator Scope = "operator"
	ScopeProduct  Scope = "product"
	ScopeHour     Scope = "hour"
)

// BuildMode distinguishes the volatile current-day rollup from a closed date.
type BuildMode string

const (
	BuildToday    BuildMode = "today"
	BuildHistoric BuildMode = "historic"
)

// Totals is a count and summed value pair.
type Totals struct {
	Count int             `json:"count"`
	Value decimal.Decimal `json:"value"`
}

// Add folds one amount into the totals.
func (t Totals) Add(amount decimal.Decimal) Totals {
	return Totals{Count: t.Count + 1, Value: t.Value.Add(amount)}
}

// Average is Value/Count, or zero when there is nothing to average.
func (t Totals) Average() decimal.Decimal {
	if t.Count == 0 {
		return decimal.Zero
	}
	return t.Value.Div(decimal.NewFromInt(int64(t.Count)))
}

// SummaryBucket is a pre-aggregated (date, scope) rollup. ScopeKey is empty
// for the estate scope, the dimension id for dimension scopes and the two
// digit hour for the hour scope.
type SummaryBucket struct {
	EstateID string    `json:"estate_id"`
	Date     time.Time `json:"date"`
	Scope    Scope     `json:"scope"`
	ScopeKey string    `json:"scope_key"`
	Totals
}
