package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

type SummaryRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSummaryRepo(db *sql.DB) *SummaryRepo {
	return &SummaryRepo{db: db, now: time.Now}
}

// ReplaceBuckets swaps the whole bucket set of (estate, date) for buckets in
// a single transaction. Readers see either the previous set or the new one.
// On any error the previous set is left as it was.
func (r *SummaryRepo) ReplaceBuckets(ctx context.Context, estateID string, date time.Time, buckets []domain.SummaryBucket) error {
	day := domain.FormatDate(date)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM summary_buckets WHERE estate_id = ? AND summary_date = ?", estateID, day,
	); err != nil {
		return storeErr("clear buckets", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO summary_buckets
		(estate_id, summary_date, scope, scope_key, txn_count, txn_value, built_at)
		VALUES (?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return storeErr("prepare", err)
	}
	defer stmt.Close()

	builtAt := r.now().UTC().Format(time.RFC3339)
	for i := range buckets {
		b := &buckets[i]
		if _, err := stmt.ExecContext(ctx,
			estateID, day, string(b.Scope), b.ScopeKey, b.Count, b.Value.String(), builtAt,
		); err != nil {
			return storeErr(fmt.Sprintf("insert bucket %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// Bucket returns the totals of one (date, scope, key) bucket. A bucket that
// was never built reads as zero totals.
func (r *SummaryRepo) Bucket(ctx context.Context, estateID string, date time.Time, scope domain.Scope, key string) (domain.Totals, error) {
	var t domain.Totals
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT txn_count, txn_value FROM summary_buckets
		 WHERE estate_id = ? AND summary_date = ? AND scope = ? AND scope_key = ?`,
		estateID, domain.FormatDate(date), string(scope), key,
	).Scan(&t.Count, &value)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Totals{Value: decimal.Zero}, nil
	}
	if err != nil {
		return t, storeErr("bucket", err)
	}
	t.Value, err = decimal.NewFromString(value)
	if err != nil {
		return t, fmt.Errorf("bucket value %q: %w", value, err)
	}
	return t, nil
}

// HourBuckets returns the per-hour buckets of a date keyed by hour.
func (r *SummaryRepo) HourBuckets(ctx context.Context, estateID string, date time.Time) (map[int]domain.Totals, error) {
	buckets, err := r.Buckets(ctx, estateID, date, domain.ScopeHour)
	if err != nil {
		return nil, err
	}
	out := make(map[int]domain.Totals, len(buckets))
	for _, b := range buckets {
		hour, err := strconv.Atoi(b.ScopeKey)
		if err != nil {
			return nil, fmt.Errorf("hour bucket key %q: %w", b.ScopeKey, err)
		}
		out[hour] = b.Totals
	}
	return out, nil
}

// Buckets lists the buckets of a date, optionally restricted to scopes.
func (r *SummaryRepo) Buckets(ctx context.Context, estateID string, date time.Time, scopes ...domain.Scope) ([]domain.SummaryBucket, error) {
	q := `SELECT scope, scope_key, txn_count, txn_value FROM summary_buckets
		WHERE estate_id = ? AND summary_date = ?`
	args := []any{estateID, domain.FormatDate(date)}
	if len(scopes) > 0 {
		q += " AND scope IN (" + placeholders(len(scopes)) + ")"
		for _, s := range scopes {
			args = append(args, string(s))
		}
	}
	q += " ORDER BY scope, scope_key"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storeErr("query buckets", err)
	}
	defer rows.Close()

	var out []domain.SummaryBucket
	for rows.Next() {
		b := domain.SummaryBucket{EstateID: estateID, Date: domain.DateOf(date)}
		var scope, value string
		if err := rows.Scan(&scope, &b.ScopeKey, &b.Count, &value); err != nil {
			return nil, storeErr("scan bucket", err)
		}
		b.Scope = domain.Scope(scope)
		if b.Value, err = decimal.NewFromString(value); err != nil {
			return nil, fmt.Errorf("bucket value %q: %w", value, err)
		}
		out = append(out, b)
	}
	return out, storeErr("rows", rows.Err())
}
