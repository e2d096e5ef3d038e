package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

const testEstate = "estate-1"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := InitDB(filepath.Join(t.TempDir(), "reporting.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// testDimensions is two merchants, two operators with one contract each
// and one product per contract.
func testDimensions() Dimensions {
	return Dimensions{
		Merchants: []domain.Merchant{
			{DimensionRef: domain.DimensionRef{ID: "m-1", Name: "Alpha Store"}},
			{DimensionRef: domain.DimensionRef{ID: "m-2", Name: "Bravo Store"}},
		},
		Operators: []domain.Operator{
			{DimensionRef: domain.DimensionRef{ID: "o-1", Name: "Safaricom"}},
			{DimensionRef: domain.DimensionRef{ID: "o-2", Name: "Voucher"}},
		},
		Contracts: []domain.Contract{
			{DimensionRef: domain.DimensionRef{ID: "c-1", Name: "Safaricom Contract"}, OperatorID: "o-1"},
			{DimensionRef: domain.DimensionRef{ID: "c-2", Name: "Voucher Contract"}, OperatorID: "o-2"},
		},
		Products: []domain.Product{
			{DimensionRef: domain.DimensionRef{ID: "p-1", Name: "Custom Topup"}, ContractID: "c-1"},
			{DimensionRef: domain.DimensionRef{ID: "p-2", Name: "Gift Voucher"}, ContractID: "c-2"},
		},
	}
}

func seedDimensions(t *testing.T, db *sql.DB) *DimensionRepo {
	t.Helper()
	repo, err := NewDimensionRepo(db, 8)
	require.NoError(t, err)
	require.NoError(t, repo.Upsert(context.Background(), testEstate, testDimensions()))
	return repo
}

// sale builds an authorised sale on operator o-1 unless overridden.
func sale(id, merchantID string, at time.Time, amount string) domain.TransactionFact {
	return domain.TransactionFact{
		ID:                id,
		EstateID:          testEstate,
		MerchantID:        merchantID,
		OperatorID:        "o-1",
		ContractID:        "c-1",
		ProductID:         "p-1",
		DateTime:          at,
		Amount:            decimal.RequireFromString(amount),
		ResponseCode:      domain.ResponseCodeSuccess,
		Authorized:        true,
		AuthCode:          "AUTH" + id,
		TransactionNumber: "N" + id,
		Source:            domain.SourceOnline,
	}
}

func declined(id, merchantID string, at time.Time, amount, code string) domain.TransactionFact {
	f := sale(id, merchantID, at, amount)
	f.ResponseCode = code
	f.Authorized = false
	f.AuthCode = ""
	return f
}

func day(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
