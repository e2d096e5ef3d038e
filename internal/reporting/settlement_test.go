package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

var twoDaysAgo = today.AddDate(0, 0, -2)

// seedSettlements records pending fees of 1 (Alpha, Safaricom) and 2
// (Bravo, Voucher) today, a settled fee of 3 (Alpha, Safaricom) yesterday
// and a pending fee of 4 (Bravo, Voucher) two days ago.
func seedSettlements(t *testing.T, env *testEnv) {
	t.Helper()
	est := newEstate()
	saf, voucher := est.operator("Safaricom"), est.operator("Voucher")
	alpha, bravo := est.merchant("Alpha"), est.merchant("Bravo")

	f1 := est.sale(alpha, saf, testNow.Add(-time.Hour), "100")
	f2 := est.sale(bravo, voucher, testNow.Add(-2*time.Hour), "200")
	f3 := est.sale(alpha, saf, testNow.Add(-25*time.Hour), "300")
	f4 := est.sale(bravo, voucher, testNow.Add(-49*time.Hour), "400")

	est.settlement(bravo, twoDaysAgo, false, f4)
	est.settlement(alpha, yesterday, true, f3)
	est.settlement(alpha, today, false, f1)
	est.settlement(bravo, today, false, f2)
	env.record(t, est)
}

func TestGetTodaysSettlement(t *testing.T) {
	env := newTestEnv(t)
	seedSettlements(t, env)
	ctx := context.Background()

	res, err := env.svc.GetTodaysSettlement(ctx, estateID, testNow, yesterday, domain.Filters{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.TodaysSettlementCount)
	assert.True(t, res.TodaysSettlementValue.IsZero())
	assert.Equal(t, 2, res.TodaysPendingSettlementCount)
	assertDecimal(t, "3", res.TodaysPendingSettlementValue)
	assert.Equal(t, 1, res.ComparisonSettlementCount)
	assertDecimal(t, "3", res.ComparisonSettlementValue)
	assert.Equal(t, 0, res.ComparisonPendingSettlementCount)

	res, err = env.svc.GetTodaysSettlement(ctx, estateID, testNow, yesterday,
		domain.Filters{MerchantReportingID: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TodaysPendingSettlementCount)
	assertDecimal(t, "1", res.TodaysPendingSettlementValue)
	assert.Equal(t, 1, res.ComparisonSettlementCount)

	res, err = env.svc.GetTodaysSettlement(ctx, estateID, testNow, yesterday,
		domain.Filters{OperatorReportingID: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TodaysPendingSettlementCount)
	assertDecimal(t, "2", res.TodaysPendingSettlementValue)
	assert.Equal(t, 0, res.ComparisonSettlementCount)

	_, err = env.svc.GetTodaysSettlement(ctx, estateID, testNow, yesterday,
		domain.Filters{MerchantReportingID: intPtr(42)})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetLastSettlement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.GetLastSettlement(ctx, estateID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	seedSettlements(t, env)

	// Two settlements share today's date; Bravo's started processing last.
	last, err := env.svc.GetLastSettlement(ctx, estateID)
	require.NoError(t, err)
	assert.Equal(t, domain.FormatDate(today), domain.FormatDate(last.SettlementDate))
	assert.Equal(t, 1, last.SalesCount)
	assertDecimal(t, "200", last.SalesValue)
	assertDecimal(t, "2", last.FeesValue)
}

func TestGetUnsettledFees(t *testing.T) {
	env := newTestEnv(t)
	seedSettlements(t, env)
	ctx := context.Background()

	byOperator, err := env.svc.GetUnsettledFees(ctx, estateID, domain.UnsettledFeesRequest{
		StartDate: twoDaysAgo, EndDate: today, GroupBy: domain.DimensionOperator,
	})
	require.NoError(t, err)
	require.Len(t, byOperator, 2)
	assert.Equal(t, "Safaricom", byOperator[0].DimensionName)
	assert.Equal(t, 1, byOperator[0].FeesCount)
	assertDecimal(t, "1", byOperator[0].FeesValue)
	assert.Equal(t, "Voucher", byOperator[1].DimensionName)
	assert.Equal(t, 2, byOperator[1].FeesCount)
	assertDecimal(t, "6", byOperator[1].FeesValue)

	byMerchant, err := env.svc.GetUnsettledFees(ctx, estateID, domain.UnsettledFeesRequest{
		StartDate: today, EndDate: today, GroupBy: domain.DimensionMerchant,
	})
	require.NoError(t, err)
	require.Len(t, byMerchant, 2)
	assert.Equal(t, "Alpha", byMerchant[0].DimensionName)
	assert.Equal(t, "Bravo", byMerchant[1].DimensionName)
	assertDecimal(t, "2", byMerchant[1].FeesValue)

	byProduct, err := env.svc.GetUnsettledFees(ctx, estateID, domain.UnsettledFeesRequest{
		StartDate: twoDaysAgo, EndDate: today, ProductIDs: []int{2}, GroupBy: domain.DimensionProduct,
	})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, "Voucher Topup", byProduct[0].DimensionName)

	none, err := env.svc.GetUnsettledFees(ctx, estateID, domain.UnsettledFeesRequest{
		StartDate: yesterday, EndDate: yesterday, GroupBy: domain.DimensionMerchant,
	})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetUnsettledFees_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.UnsettledFeesRequest
	}{
		{"missing dates", domain.UnsettledFeesRequest{GroupBy: domain.DimensionMerchant}},
		{"end before start", domain.UnsettledFeesRequest{StartDate: today, EndDate: yesterday, GroupBy: domain.DimensionMerchant}},
		{"bad id", domain.UnsettledFeesRequest{StartDate: yesterday, EndDate: today, OperatorIDs: []int{0}, GroupBy: domain.DimensionMerchant}},
		{"bad group", domain.UnsettledFeesRequest{StartDate: yesterday, EndDate: today, GroupBy: "contract"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.GetUnsettledFees(ctx, estateID, tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}
