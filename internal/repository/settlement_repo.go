package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

type SettlementRepo struct {
	db *sql.DB
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{db: db}
}

// Record upserts settlements and their fee lines in one transaction. Fee
// lines are keyed by (settlement, transaction, fee source) so a later batch
// can flip a line from pending to settled.
func (r *SettlementRepo) Record(ctx context.Context, estateID string, settlements []domain.SettlementRecord, fees []domain.SettlementFeeLine) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback()

	for i := range settlements {
		s := &settlements[i]
		var started any
		if !s.ProcessingStartedAt.IsZero() {
			started = s.ProcessingStartedAt.UTC().Format(time.RFC3339)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO settlements
			(settlement_id, estate_id, merchant_id, settlement_date, processing_started,
			 processing_started_date_time, is_completed)
			VALUES (?,?,?,?,?,?,?)
			ON CONFLICT(settlement_id) DO UPDATE SET
				processing_started = excluded.processing_started,
				processing_started_date_time = excluded.processing_started_date_time,
				is_completed = excluded.is_completed`,
			s.ID, estateID, s.MerchantID, domain.FormatDate(s.SettlementDate),
			boolToInt(s.ProcessingStarted), started, boolToInt(s.IsCompleted),
		)
		if err != nil {
			return storeErr(fmt.Sprintf("upsert settlement %d", i), err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO settlement_fees
		(settlement_id, estate_id, merchant_id, transaction_id, fee_source_id,
		 fee_value, calculated_value, fee_calculated_date, is_settled)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(settlement_id, transaction_id, fee_source_id) DO UPDATE SET
			calculated_value = excluded.calculated_value,
			is_settled = excluded.is_settled`,
	)
	if err != nil {
		return storeErr("prepare fees", err)
	}
	defer stmt.Close()

	for i := range fees {
		f := &fees[i]
		if _, err := stmt.ExecContext(ctx,
			f.SettlementID, estateID, f.MerchantID, f.TransactionID, f.FeeSourceID,
			f.FeeValue.InexactFloat64(), f.CalculatedValue.InexactFloat64(),
			domain.FormatDate(f.FeeCalculatedDate), boolToInt(f.IsSettled),
		); err != nil {
			return storeErr(fmt.Sprintf("upsert fee %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// FeeTotals sums the calculated fees of settlements dated date, split into
// settled and pending lines. Empty merchant/operator ids do not filter.
func (r *SettlementRepo) FeeTotals(ctx context.Context, estateID string, date time.Time, merchantID, operatorID string) (settled, pending domain.Totals, err error) {
	clauses := []string{"f.estate_id = ?", "s.settlement_date = ?"}
	args := []any{estateID, domain.FormatDate(date)}
	if merchantID != "" {
		clauses = append(clauses, "f.merchant_id = ?")
		args = append(args, merchantID)
	}
	if operatorID != "" {
		clauses = append(clauses, "t.operator_id = ?")
		args = append(args, operatorID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT f.is_settled, COUNT(*), COALESCE(SUM(f.calculated_value), 0)
		FROM settlement_fees f
		JOIN settlements s ON s.settlement_id = f.settlement_id
		LEFT JOIN transactions t ON t.transaction_id = f.transaction_id
		WHERE `+strings.Join(clauses, " AND ")+`
		GROUP BY f.is_settled`, args...)
	if err != nil {
		return settled, pending, storeErr("fee totals", err)
	}
	defer rows.Close()

	settled.Value, pending.Value = decimal.Zero, decimal.Zero
	for rows.Next() {
		var isSettled int
		var t domain.Totals
		if err := rows.Scan(&isSettled, &t.Count, &t.Value); err != nil {
			return settled, pending, storeErr("scan fee totals", err)
		}
		if isSettled == 1 {
			settled = t
		} else {
			pending = t
		}
	}
	return settled, pending, storeErr("rows", rows.Err())
}

// Last returns the most recent settlement of the estate with its sales and
// fee figures. Ties on settlement date go to the latest processing start.
func (r *SettlementRepo) Last(ctx context.Context, estateID string) (*domain.LastSettlement, error) {
	var id, date string
	err := r.db.QueryRowContext(ctx, `
		SELECT settlement_id, settlement_date FROM settlements
		WHERE estate_id = ?
		ORDER BY settlement_date DESC, COALESCE(processing_started_date_time, '') DESC
		LIMIT 1`, estateID,
	).Scan(&id, &date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no settlements for estate %s", domain.ErrNotFound, estateID)
	}
	if err != nil {
		return nil, storeErr("last settlement", err)
	}

	last := &domain.LastSettlement{}
	if last.SettlementDate, err = domain.ParseDate(date); err != nil {
		return nil, fmt.Errorf("settlement date %q: %w", date, err)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM transactions
		WHERE transaction_id IN (SELECT DISTINCT transaction_id FROM settlement_fees WHERE settlement_id = ?)`,
		id,
	).Scan(&last.SalesCount, &last.SalesValue)
	if err != nil {
		return nil, storeErr("settlement sales", err)
	}

	err = r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(calculated_value), 0) FROM settlement_fees WHERE settlement_id = ?", id,
	).Scan(&last.FeesValue)
	if err != nil {
		return nil, storeErr("settlement fees", err)
	}
	return last, nil
}

// UnsettledFee is one pending fee line with the dimensions of its
// underlying transaction.
type UnsettledFee struct {
	MerchantID      string
	OperatorID      string
	ProductID       string
	CalculatedValue decimal.Decimal
}

// UnsettledFees lists pending fee lines calculated between the request's
// start and end dates inclusive, restricted by the reporting id lists.
func (r *SettlementRepo) UnsettledFees(ctx context.Context, estateID string, req domain.UnsettledFeesRequest) ([]UnsettledFee, error) {
	clauses := []string{
		"f.estate_id = ?", "f.is_settled = 0",
		"f.fee_calculated_date >= ?", "f.fee_calculated_date <= ?",
	}
	args := []any{estateID, domain.FormatDate(req.StartDate), domain.FormatDate(req.EndDate)}

	for _, in := range []struct {
		col string
		ids []int
	}{
		{"m.reporting_id", req.MerchantIDs},
		{"o.reporting_id", req.OperatorIDs},
		{"p.reporting_id", req.ProductIDs},
	} {
		if len(in.ids) == 0 {
			continue
		}
		clauses = append(clauses, in.col+" IN ("+placeholders(len(in.ids))+")")
		for _, id := range in.ids {
			args = append(args, id)
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT t.merchant_id, t.operator_id, t.product_id, f.calculated_value
		FROM settlement_fees f
		JOIN transactions t ON t.transaction_id = f.transaction_id
		LEFT JOIN merchants m ON m.estate_id = t.estate_id AND m.merchant_id = t.merchant_id
		LEFT JOIN operators o ON o.estate_id = t.estate_id AND o.operator_id = t.operator_id
		LEFT JOIN products p ON p.estate_id = t.estate_id AND p.product_id = t.product_id
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY t.transaction_report_id`, args...)
	if err != nil {
		return nil, storeErr("unsettled fees", err)
	}
	defer rows.Close()

	var out []UnsettledFee
	for rows.Next() {
		var f UnsettledFee
		var value float64
		if err := rows.Scan(&f.MerchantID, &f.OperatorID, &f.ProductID, &value); err != nil {
			return nil, storeErr("scan unsettled fee", err)
		}
		f.CalculatedValue = decimal.NewFromFloat(value)
		out = append(out, f)
	}
	return out, storeErr("rows", rows.Err())
}
