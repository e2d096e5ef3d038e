package repository

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

func TestTransactionRepo_BulkInsertSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))
	at := day("2024-03-01").Add(10 * time.Hour)

	n, err := repo.BulkInsert(ctx, []domain.TransactionFact{
		sale("t-1", "m-1", at, "10"),
		sale("t-2", "m-1", at, "20"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.BulkInsert(ctx, []domain.TransactionFact{
		sale("t-2", "m-1", at, "20"),
		sale("t-3", "m-2", at, "30"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	count, err := repo.Count(ctx, testEstate)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTransactionRepo_Facts(t *testing.T) {
	ctx := context.Background()
	repo := NewTransactionRepo(openTestDB(t))
	d := day("2024-03-01")

	_, err := repo.BulkInsert(ctx, []domain.TransactionFact{
		sale("t-1", "m-1", d.Add(8*time.Hour+15*time.Minute), "10.50"),
		sale("t-2", "m-2", d.Add(13*time.Hour), "20"),
		declined("t-3", "m-1", d.Add(9*time.Hour), "5", "1008"),
		sale("t-4", "m-1", d.AddDate(0, 0, 1).Add(8*time.Hour), "99"),
	})
	require.NoError(t, err)

	all, err := repo.Facts(ctx, testEstate, FactQuery{Date: d})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t-1", all[0].ID)
	assert.Equal(t, d.Add(8*time.Hour+15*time.Minute), all[0].DateTime)
	assert.Equal(t, "10.5", all[0].Amount.String())
	assert.True(t, all[0].Authorized)
	assert.Equal(t, "AUTHt-1", all[0].AuthCode)

	sales, err := repo.Facts(ctx, testEstate, FactQuery{Date: d, SalesOnly: true})
	require.NoError(t, err)
	assert.Len(t, sales, 2)

	failed, err := repo.Facts(ctx, testEstate, FactQuery{Date: d, ResponseCode: "1008"})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.False(t, failed[0].IsSale())

	merchant, err := repo.Facts(ctx, testEstate, FactQuery{Date: d, SalesOnly: true, MerchantID: "m-1"})
	require.NoError(t, err)
	assert.Len(t, merchant, 1)

	cutoff := 12
	morning, err := repo.Facts(ctx, testEstate, FactQuery{Date: d, SalesOnly: true, MaxHour: &cutoff})
	require.NoError(t, err)
	require.Len(t, morning, 1)
	assert.Equal(t, "t-1", morning[0].ID)

	other, err := repo.Facts(ctx, "estate-2", FactQuery{Date: d})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func seedSearch(t *testing.T) (*TransactionRepo, time.Time) {
	t.Helper()
	db := openTestDB(t)
	seedDimensions(t, db)
	repo := NewTransactionRepo(db)
	d := day("2024-03-01")

	var facts []domain.TransactionFact
	for i := 1; i <= 10; i++ {
		merchant := "m-1"
		if i%2 == 0 {
			merchant = "m-2"
		}
		f := sale(fmt.Sprintf("t-%02d", i), merchant, d.Add(time.Duration(i)*time.Hour), fmt.Sprintf("%d", 100-i))
		if i > 5 {
			f.OperatorID, f.ContractID, f.ProductID = "o-2", "c-2", "p-2"
		}
		facts = append(facts, f)
	}
	facts = append(facts, declined("t-11", "m-1", d.Add(11*time.Hour), "50", "1008"))
	_, err := repo.BulkInsert(context.Background(), facts)
	require.NoError(t, err)
	return repo, d
}

func ids(results []domain.TransactionResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.TransactionID
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestTransactionRepo_SearchPaging(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedSearch(t)
	req := domain.TransactionSearchRequest{QueryDate: "2024-03-01", ResponseCode: domain.ResponseCodeSuccess}

	all, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, all, 10)
	assert.Equal(t, "t-01", all[0].TransactionID)
	assert.Equal(t, "t-10", all[9].TransactionID)

	var pages [][]string
	for page := 1; page <= 3; page++ {
		res, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{Page: intPtr(page), PageSize: intPtr(5)})
		require.NoError(t, err)
		pages = append(pages, ids(res))
	}
	assert.Equal(t, ids(all[:5]), pages[0])
	assert.Equal(t, ids(all[5:]), pages[1])
	assert.Empty(t, pages[2])

	firstPage, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{PageSize: intPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, ids(all[:3]), ids(firstPage))
}

func TestTransactionRepo_SearchPageBeyondIntRange(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedSearch(t)
	req := domain.TransactionSearchRequest{QueryDate: "2024-03-01", ResponseCode: domain.ResponseCodeSuccess}

	for _, page := range []int{math.MaxInt / 4, math.MaxInt/4 + 2, math.MaxInt} {
		res, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{Page: intPtr(page), PageSize: intPtr(4)})
		require.NoError(t, err)
		assert.NotNil(t, res)
		assert.Empty(t, res, "page %d", page)
	}
}

func TestPageOffset(t *testing.T) {
	tests := []struct {
		page, size int
		want       int
		ok         bool
	}{
		{1, 5, 0, true},
		{3, 5, 10, true},
		{0, 5, 0, true},
		{math.MaxInt/5 + 1, 5, math.MaxInt / 5 * 5, true},
		{math.MaxInt/5 + 2, 5, 0, false},
		{math.MaxInt, 2, 0, false},
	}
	for _, tt := range tests {
		got, ok := pageOffset(tt.page, tt.size)
		assert.Equal(t, tt.ok, ok, "page %d size %d", tt.page, tt.size)
		assert.Equal(t, tt.want, got, "page %d size %d", tt.page, tt.size)
	}
}

func TestTransactionRepo_SearchProjection(t *testing.T) {
	repo, d := seedSearch(t)

	res, err := repo.Search(context.Background(), testEstate,
		domain.TransactionSearchRequest{QueryDate: "2024-03-01", TransactionNumber: "Nt-06"},
		domain.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, res, 1)

	r := res[0]
	assert.Equal(t, "t-06", r.TransactionID)
	assert.Equal(t, d.Add(6*time.Hour), r.TransactionDateTime)
	assert.Equal(t, "Bravo Store", r.MerchantName)
	assert.Equal(t, 2, r.MerchantReportingID)
	assert.Equal(t, "Voucher", r.OperatorName)
	assert.Equal(t, 2, r.OperatorReportingID)
	assert.Equal(t, "Gift Voucher", r.ProductName)
	assert.Equal(t, "94", r.Amount.String())
	assert.True(t, r.IsAuthorized)
	assert.Equal(t, domain.SourceOnline, r.TransactionSource)
	assert.Positive(t, r.TransactionReportID)
}

func TestTransactionRepo_SearchFilters(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedSearch(t)

	tests := []struct {
		name string
		req  domain.TransactionSearchRequest
		want []string
	}{
		{
			name: "value range is inclusive",
			req: domain.TransactionSearchRequest{
				ValueRange: &domain.ValueRange{StartValue: decimal.NewFromInt(95), EndValue: decimal.NewFromInt(97)},
			},
			want: []string{"t-03", "t-04", "t-05"},
		},
		{
			name: "merchant reporting ids",
			req:  domain.TransactionSearchRequest{Merchants: []int{2}},
			want: []string{"t-02", "t-04", "t-06", "t-08", "t-10"},
		},
		{
			name: "operator reporting ids",
			req:  domain.TransactionSearchRequest{Operators: []int{1}},
			want: []string{"t-01", "t-02", "t-03", "t-04", "t-05", "t-11"},
		},
		{
			name: "filters combine",
			req:  domain.TransactionSearchRequest{Merchants: []int{1}, Operators: []int{2}},
			want: []string{"t-07", "t-09"},
		},
		{
			name: "response code",
			req:  domain.TransactionSearchRequest{ResponseCode: "1008"},
			want: []string{"t-11"},
		},
		{
			name: "auth code",
			req:  domain.TransactionSearchRequest{AuthCode: "AUTHt-03"},
			want: []string{"t-03"},
		},
		{
			name: "other date",
			req:  domain.TransactionSearchRequest{QueryDate: "2024-03-02"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.req.QueryDate == "" {
				tt.req.QueryDate = "2024-03-01"
			}
			res, err := repo.Search(ctx, testEstate, tt.req, domain.SearchOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(res))
		})
	}
}

func TestTransactionRepo_SearchSorting(t *testing.T) {
	ctx := context.Background()
	repo, _ := seedSearch(t)
	req := domain.TransactionSearchRequest{QueryDate: "2024-03-01", ResponseCode: domain.ResponseCodeSuccess}

	byAmount, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{
		SortField: domain.SortTransactionAmount, SortDirection: domain.SortAscending,
	})
	require.NoError(t, err)
	assert.Equal(t, "t-10", byAmount[0].TransactionID)
	assert.Equal(t, "t-01", byAmount[9].TransactionID)

	byMerchant, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{
		SortField: domain.SortMerchantName, SortDirection: domain.SortDescending,
	})
	require.NoError(t, err)
	// Bravo first, ties in recording order.
	assert.Equal(t, []string{"t-02", "t-04", "t-06", "t-08", "t-10", "t-01", "t-03", "t-05", "t-07", "t-09"}, ids(byMerchant))

	byOperator, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{
		SortField: domain.SortOperatorName, SortDirection: domain.SortDescending, PageSize: intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"t-06", "t-07"}, ids(byOperator))

	desc, err := repo.Search(ctx, testEstate, req, domain.SearchOptions{SortDirection: domain.SortDescending, PageSize: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"t-10"}, ids(desc))
}
