package reporting_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/ingestion"
	"github.com/transactionprocessing/estatereporting/internal/logging"
	"github.com/transactionprocessing/estatereporting/internal/reporting"
	"github.com/transactionprocessing/estatereporting/internal/repository"
	"github.com/transactionprocessing/estatereporting/internal/rollup"
)

const estateID = "estate-1"

// testNow is a Thursday afternoon.
var testNow = time.Date(2024, 3, 14, 15, 30, 0, 0, time.UTC)

var (
	today     = domain.DateOf(testNow)
	yesterday = today.AddDate(0, 0, -1)
)

type testEnv struct {
	svc       *reporting.Service
	ingest    *ingestion.Service
	builder   *rollup.Builder
	summaries *repository.SummaryRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "reporting.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := func() time.Time { return testNow }
	txns := repository.NewTransactionRepo(db)
	dims, err := repository.NewDimensionRepo(db, 8)
	require.NoError(t, err)
	summaries := repository.NewSummaryRepo(db)
	settlements := repository.NewSettlementRepo(db)
	activity := repository.NewActivityRepo(db)
	calendar := repository.NewCalendarRepo(db)

	builder := rollup.NewBuilder(txns, summaries, logging.Discard(), rollup.WithClock(clock))
	return &testEnv{
		svc:       reporting.NewService(txns, dims, summaries, settlements, activity, calendar, reporting.WithClock(clock)),
		ingest:    ingestion.NewService(dims, txns, settlements, activity, calendar, builder, logging.Discard()),
		builder:   builder,
		summaries: summaries,
	}
}

func (e *testEnv) record(t *testing.T, est *estate) {
	t.Helper()
	_, err := e.ingest.Record(context.Background(), estateID, est.batch)
	require.NoError(t, err)
	est.batch = &ingestion.Batch{}
}

// estate accumulates a batch of dimensions, facts and settlements. Each
// operator gets one contract and one product named after it. Settlements
// created later start processing later.
type estate struct {
	batch    *ingestion.Batch
	seq      int
	products map[string]domain.Product
}

func newEstate() *estate {
	return &estate{batch: &ingestion.Batch{}, products: make(map[string]domain.Product)}
}

func (e *estate) nextID(prefix string) string {
	e.seq++
	return fmt.Sprintf("%s-%04d", prefix, e.seq)
}

func (e *estate) merchant(name string) string {
	m := domain.Merchant{DimensionRef: domain.DimensionRef{ID: e.nextID("m"), Name: name}}
	e.batch.Merchants = append(e.batch.Merchants, m)
	return m.ID
}

func (e *estate) operator(name string) string {
	o := domain.Operator{DimensionRef: domain.DimensionRef{ID: e.nextID("o"), Name: name}}
	c := domain.Contract{DimensionRef: domain.DimensionRef{ID: e.nextID("c"), Name: name + " Contract"}, OperatorID: o.ID}
	p := domain.Product{DimensionRef: domain.DimensionRef{ID: e.nextID("p"), Name: name + " Topup"}, ContractID: c.ID}
	e.batch.Operators = append(e.batch.Operators, o)
	e.batch.Contracts = append(e.batch.Contracts, c)
	e.batch.Products = append(e.batch.Products, p)
	e.products[o.ID] = p
	return o.ID
}

func (e *estate) fact(merchantID, operatorID string, at time.Time, amount, code string) domain.TransactionFact {
	p := e.products[operatorID]
	id := e.nextID("t")
	f := domain.TransactionFact{
		ID:                id,
		MerchantID:        merchantID,
		OperatorID:        operatorID,
		ContractID:        p.ContractID,
		ProductID:         p.ID,
		DateTime:          at,
		Amount:            decimal.RequireFromString(amount),
		ResponseCode:      code,
		Authorized:        code == domain.ResponseCodeSuccess,
		TransactionNumber: id,
		Source:            domain.SourceOnline,
	}
	if f.Authorized {
		f.AuthCode = "A" + id
	}
	e.batch.Transactions = append(e.batch.Transactions, f)
	return f
}

func (e *estate) sale(merchantID, operatorID string, at time.Time, amount string) domain.TransactionFact {
	return e.fact(merchantID, operatorID, at, amount, domain.ResponseCodeSuccess)
}

func (e *estate) settlement(merchantID string, date time.Time, settled bool, fees ...domain.TransactionFact) {
	id := e.nextID("s")
	e.batch.Settlements = append(e.batch.Settlements, domain.SettlementRecord{
		ID:                  id,
		MerchantID:          merchantID,
		SettlementDate:      date,
		ProcessingStarted:   settled,
		ProcessingStartedAt: date.Add(time.Duration(e.seq) * time.Minute),
		IsCompleted:         settled,
	})
	for _, f := range fees {
		e.batch.SettlementFees = append(e.batch.SettlementFees, domain.SettlementFeeLine{
			SettlementID:      id,
			MerchantID:        merchantID,
			TransactionID:     f.ID,
			FeeSourceID:       "commission",
			FeeValue:          decimal.RequireFromString("0.01"),
			CalculatedValue:   f.Amount.Mul(decimal.RequireFromString("0.01")),
			FeeCalculatedDate: date,
			IsSettled:         settled,
		})
	}
}

func intPtr(v int) *int { return &v }

func decimalOf(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	w := decimal.RequireFromString(want)
	require.Truef(t, w.Equal(got), "want %s, got %s", w, got)
}
