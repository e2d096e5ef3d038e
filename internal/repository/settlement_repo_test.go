package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

func fee(settlementID, txnID, merchantID, value string, date time.Time, settled bool) domain.SettlementFeeLine {
	return domain.SettlementFeeLine{
		SettlementID:      settlementID,
		MerchantID:        merchantID,
		TransactionID:     txnID,
		FeeSourceID:       "commission",
		FeeValue:          decimal.RequireFromString("0.5"),
		CalculatedValue:   decimal.RequireFromString(value),
		FeeCalculatedDate: date,
		IsSettled:         settled,
	}
}

func seedSettlements(t *testing.T) *SettlementRepo {
	t.Helper()
	ctx := context.Background()
	db := openTestDB(t)
	seedDimensions(t, db)
	d1, d2 := day("2024-03-01"), day("2024-03-02")

	voucher := sale("t-3", "m-2", d1.Add(11*time.Hour), "300")
	voucher.OperatorID, voucher.ContractID, voucher.ProductID = "o-2", "c-2", "p-2"
	_, err := NewTransactionRepo(db).BulkInsert(ctx, []domain.TransactionFact{
		sale("t-1", "m-1", d1.Add(9*time.Hour), "100"),
		sale("t-2", "m-1", d1.Add(10*time.Hour), "200"),
		voucher,
		sale("t-4", "m-1", d2.Add(9*time.Hour), "400"),
	})
	require.NoError(t, err)

	repo := NewSettlementRepo(db)
	require.NoError(t, repo.Record(ctx, testEstate,
		[]domain.SettlementRecord{
			{ID: "s-1", MerchantID: "m-1", SettlementDate: d1, ProcessingStarted: true, ProcessingStartedAt: d1.Add(23 * time.Hour), IsCompleted: true},
			{ID: "s-2", MerchantID: "m-2", SettlementDate: d1},
			{ID: "s-3", MerchantID: "m-1", SettlementDate: d2},
		},
		[]domain.SettlementFeeLine{
			fee("s-1", "t-1", "m-1", "1.00", d1, true),
			fee("s-1", "t-2", "m-1", "2.50", d1, true),
			fee("s-2", "t-3", "m-2", "0.75", d1, false),
			fee("s-3", "t-4", "m-1", "4.00", d2, false),
		},
	))
	return repo
}

func TestSettlementRepo_FeeTotals(t *testing.T) {
	ctx := context.Background()
	repo := seedSettlements(t)
	d1 := day("2024-03-01")

	settled, pending, err := repo.FeeTotals(ctx, testEstate, d1, "", "")
	require.NoError(t, err)
	assert.Equal(t, 2, settled.Count)
	assert.Equal(t, "3.5", settled.Value.String())
	assert.Equal(t, 1, pending.Count)
	assert.Equal(t, "0.75", pending.Value.String())

	settled, pending, err = repo.FeeTotals(ctx, testEstate, d1, "m-2", "")
	require.NoError(t, err)
	assert.Equal(t, 0, settled.Count)
	assert.True(t, settled.Value.IsZero())
	assert.Equal(t, 1, pending.Count)

	settled, pending, err = repo.FeeTotals(ctx, testEstate, d1, "", "o-1")
	require.NoError(t, err)
	assert.Equal(t, 2, settled.Count)
	assert.Equal(t, 0, pending.Count)

	settled, pending, err = repo.FeeTotals(ctx, testEstate, day("2024-02-01"), "", "")
	require.NoError(t, err)
	assert.Zero(t, settled.Count+pending.Count)
}

func TestSettlementRepo_RecordFlipsPendingFee(t *testing.T) {
	ctx := context.Background()
	repo := seedSettlements(t)
	d2 := day("2024-03-02")

	require.NoError(t, repo.Record(ctx, testEstate,
		[]domain.SettlementRecord{{ID: "s-3", MerchantID: "m-1", SettlementDate: d2, ProcessingStarted: true, IsCompleted: true}},
		[]domain.SettlementFeeLine{fee("s-3", "t-4", "m-1", "4.00", d2, true)},
	))

	settled, pending, err := repo.FeeTotals(ctx, testEstate, d2, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, settled.Count)
	assert.Equal(t, 0, pending.Count)
}

func TestSettlementRepo_Last(t *testing.T) {
	repo := seedSettlements(t)

	last, err := repo.Last(context.Background(), testEstate)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-02"), last.SettlementDate)
	assert.Equal(t, 1, last.SalesCount)
	assert.Equal(t, "400", last.SalesValue.String())
	assert.Equal(t, "4", last.FeesValue.String())
}

func TestSettlementRepo_LastNotFound(t *testing.T) {
	repo := NewSettlementRepo(openTestDB(t))

	_, err := repo.Last(context.Background(), testEstate)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSettlementRepo_UnsettledFees(t *testing.T) {
	ctx := context.Background()
	repo := seedSettlements(t)

	fees, err := repo.UnsettledFees(ctx, testEstate, domain.UnsettledFeesRequest{
		StartDate: day("2024-03-01"), EndDate: day("2024-03-02"),
	})
	require.NoError(t, err)
	require.Len(t, fees, 2)
	assert.Equal(t, "m-2", fees[0].MerchantID)
	assert.Equal(t, "o-2", fees[0].OperatorID)
	assert.Equal(t, "p-2", fees[0].ProductID)
	assert.Equal(t, "0.75", fees[0].CalculatedValue.String())
	assert.Equal(t, "m-1", fees[1].MerchantID)

	oneDay, err := repo.UnsettledFees(ctx, testEstate, domain.UnsettledFeesRequest{
		StartDate: day("2024-03-02"), EndDate: day("2024-03-02"),
	})
	require.NoError(t, err)
	assert.Len(t, oneDay, 1)

	byMerchant, err := repo.UnsettledFees(ctx, testEstate, domain.UnsettledFeesRequest{
		StartDate: day("2024-03-01"), EndDate: day("2024-03-02"), MerchantIDs: []int{1},
	})
	require.NoError(t, err)
	require.Len(t, byMerchant, 1)
	assert.Equal(t, "4", byMerchant[0].CalculatedValue.String())

	byProduct, err := repo.UnsettledFees(ctx, testEstate, domain.UnsettledFeesRequest{
		StartDate: day("2024-03-01"), EndDate: day("2024-03-02"), ProductIDs: []int{2}, OperatorIDs: []int{2},
	})
	require.NoError(t, err)
	assert.Len(t, byProduct, 1)
}
