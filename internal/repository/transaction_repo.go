package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

const insertTransactionSQL = `INSERT OR IGNORE INTO transactions
	(transaction_id, estate_id, merchant_id, operator_id, contract_id, product_id,
	 transaction_date, transaction_time, transaction_hour, amount, response_code,
	 is_authorised, auth_code, transaction_number, transaction_source)
	VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`

// BulkInsert records facts, skipping ids that already exist. It returns the
// number of new rows.
func (r *TransactionRepo) BulkInsert(ctx context.Context, facts []domain.TransactionFact) (int, error) {
	inserted := 0
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, storeErr("begin tx", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.PrepareContext(ctx, insertTransactionSQL)
	if err != nil {
		return 0, storeErr("prepare", err)
	}
	defer stmt.Close()

	for i := range facts {
		f := &facts[i]
		res, err := stmt.ExecContext(ctx,
			f.ID, f.EstateID, f.MerchantID, f.OperatorID, f.ContractID, f.ProductID,
			f.DateTime.Format(domain.DateLayout), f.DateTime.Format(domain.TimeLayout), f.Hour(),
			f.Amount.InexactFloat64(), f.ResponseCode, boolToInt(f.Authorized),
			f.AuthCode, f.TransactionNumber, int(f.Source),
		)
		if err != nil {
			return inserted, storeErr(fmt.Sprintf("insert row %d", i), err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, storeErr("commit", err)
	}
	return inserted, nil
}

func (r *TransactionRepo) Count(ctx context.Context, estateID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions WHERE estate_id = ?", estateID).Scan(&count)
	return count, storeErr("count", err)
}

// FactQuery selects facts of one date. Zero-valued fields do not filter.
type FactQuery struct {
	Date         time.Time
	SalesOnly    bool
	ResponseCode string
	MerchantID   string
	OperatorID   string
	// MaxHour keeps facts whose hour is at most this value.
	MaxHour *int
}

// Facts returns the facts of an estate matching q, in recording order.
func (r *TransactionRepo) Facts(ctx context.Context, estateID string, q FactQuery) ([]domain.TransactionFact, error) {
	where, args := buildFactWhere(estateID, q)
	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, estate_id, merchant_id, operator_id, contract_id, product_id,
			transaction_date, transaction_time, amount, response_code, is_authorised,
			auth_code, transaction_number, transaction_source
		FROM transactions`+where+` ORDER BY transaction_report_id`, args...)
	if err != nil {
		return nil, storeErr("query facts", err)
	}
	defer rows.Close()

	var facts []domain.TransactionFact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, storeErr("scan fact", err)
		}
		facts = append(facts, *f)
	}
	return facts, storeErr("rows", rows.Err())
}

// Search runs a transaction search over the estate's facts joined to their
// dimension names. Without a sort field results are ordered by the
// surrogate transaction_report_id ascending.
func (r *TransactionRepo) Search(ctx context.Context, estateID string, req domain.TransactionSearchRequest, opts domain.SearchOptions) ([]domain.TransactionResult, error) {
	where, args := buildSearchWhere(estateID, req)

	q := `
		SELECT t.transaction_id, t.transaction_report_id, t.transaction_date, t.transaction_time,
			COALESCE(m.name, ''), COALESCE(m.reporting_id, 0),
			COALESCE(o.name, ''), COALESCE(o.reporting_id, 0),
			COALESCE(p.name, ''), COALESCE(p.reporting_id, 0),
			t.amount, t.response_code, t.is_authorised, t.auth_code, t.transaction_number,
			t.transaction_source
		FROM transactions t
		LEFT JOIN merchants m ON m.estate_id = t.estate_id AND m.merchant_id = t.merchant_id
		LEFT JOIN operators o ON o.estate_id = t.estate_id AND o.operator_id = t.operator_id
		LEFT JOIN products p ON p.estate_id = t.estate_id AND p.product_id = t.product_id` +
		where + " ORDER BY " + searchOrder(opts)

	if opts.PageSize != nil {
		page := 1
		if opts.Page != nil {
			page = *opts.Page
		}
		offset, ok := pageOffset(page, *opts.PageSize)
		if !ok {
			return []domain.TransactionResult{}, nil
		}
		q += " LIMIT ? OFFSET ?"
		args = append(args, *opts.PageSize, offset)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("search", err)
	}
	defer rows.Close()

	results := []domain.TransactionResult{}
	for rows.Next() {
		var res domain.TransactionResult
		var date, tod string
		var authorised int
		var source int
		err := rows.Scan(
			&res.TransactionID, &res.TransactionReportID, &date, &tod,
			&res.MerchantName, &res.MerchantReportingID,
			&res.OperatorName, &res.OperatorReportingID,
			&res.ProductName, &res.ProductReportingID,
			&res.Amount, &res.ResponseCode, &authorised, &res.AuthCode, &res.TransactionNumber,
			&source,
		)
		if err != nil {
			return nil, storeErr("scan search row", err)
		}
		res.TransactionDateTime = parseDateTime(date, tod)
		res.IsAuthorized = authorised == 1
		res.TransactionSource = domain.TransactionSource(source)
		results = append(results, res)
	}
	return results, storeErr("rows", rows.Err())
}

// --- helpers ---

func buildFactWhere(estateID string, q FactQuery) (string, []any) {
	clauses := []string{"estate_id = ?", "transaction_date = ?"}
	args := []any{estateID, domain.FormatDate(q.Date)}

	if q.SalesOnly {
		clauses = append(clauses, "is_authorised = 1", "response_code = ?")
		args = append(args, domain.ResponseCodeSuccess)
	}
	if q.ResponseCode != "" {
		clauses = append(clauses, "response_code = ?")
		args = append(args, q.ResponseCode)
	}
	if q.MerchantID != "" {
		clauses = append(clauses, "merchant_id = ?")
		args = append(args, q.MerchantID)
	}
	if q.OperatorID != "" {
		clauses = append(clauses, "operator_id = ?")
		args = append(args, q.OperatorID)
	}
	if q.MaxHour != nil {
		clauses = append(clauses, "transaction_hour <= ?")
		args = append(args, *q.MaxHour)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func buildSearchWhere(estateID string, req domain.TransactionSearchRequest) (string, []any) {
	clauses := []string{"t.estate_id = ?", "t.transaction_date = ?"}
	args := []any{estateID, req.QueryDate}

	if req.ValueRange != nil {
		clauses = append(clauses, "t.amount >= ?", "t.amount <= ?")
		args = append(args, req.ValueRange.StartValue.InexactFloat64(), req.ValueRange.EndValue.InexactFloat64())
	}
	if req.AuthCode != "" {
		clauses = append(clauses, "t.auth_code = ?")
		args = append(args, req.AuthCode)
	}
	if req.TransactionNumber != "" {
		clauses = append(clauses, "t.transaction_number = ?")
		args = append(args, req.TransactionNumber)
	}
	if req.ResponseCode != "" {
		clauses = append(clauses, "t.response_code = ?")
		args = append(args, req.ResponseCode)
	}
	if len(req.Merchants) > 0 {
		clauses = append(clauses, "m.reporting_id IN ("+placeholders(len(req.Merchants))+")")
		for _, id := range req.Merchants {
			args = append(args, id)
		}
	}
	if len(req.Operators) > 0 {
		clauses = append(clauses, "o.reporting_id IN ("+placeholders(len(req.Operators))+")")
		for _, id := range req.Operators {
			args = append(args, id)
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func searchOrder(opts domain.SearchOptions) string {
	dir := "ASC"
	if opts.SortDirection == domain.SortDescending {
		dir = "DESC"
	}
	switch opts.SortField {
	case domain.SortMerchantName:
		return "m.name " + dir + ", t.transaction_report_id"
	case domain.SortOperatorName:
		return "o.name " + dir + ", t.transaction_report_id"
	case domain.SortTransactionAmount:
		return "t.amount " + dir + ", t.transaction_report_id"
	}
	return "t.transaction_report_id " + dir
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func parseDateTime(date, tod string) time.Time {
	t, err := time.Parse(domain.DateLayout+" "+domain.TimeLayout, date+" "+tod)
	if err != nil {
		t, _ = domain.ParseDate(date)
	}
	return t
}

func scanFact(rows *sql.Rows) (*domain.TransactionFact, error) {
	var f domain.TransactionFact
	var date, tod string
	var amount float64
	var authorised, source int

	err := rows.Scan(
		&f.ID, &f.EstateID, &f.MerchantID, &f.OperatorID, &f.ContractID, &f.ProductID,
		&date, &tod, &amount, &f.ResponseCode, &authorised,
		&f.AuthCode, &f.TransactionNumber, &source,
	)
	if err != nil {
		return nil, err
	}

	f.DateTime = parseDateTime(date, tod)
	f.Amount = decimal.NewFromFloat(amount)
	f.Authorized = authorised == 1
	f.Source = domain.TransactionSource(source)
	return &f, nil
}

// pageOffset returns the row offset of page. ok is false when the offset
// does not fit in an int, which is always past the last row.
func pageOffset(page, size int) (offset int, ok bool) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		return 0, true
	}
	if page-1 > math.MaxInt/size {
		return 0, false
	}
	return (page - 1) * size, true
}
