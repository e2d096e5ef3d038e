package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

type ActivityRepo struct {
	db *sql.DB
}

func NewActivityRepo(db *sql.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// RecordSale moves a merchant's last sale forward to at. Older sales never
// move it back.
func (r *ActivityRepo) RecordSale(ctx context.Context, estateID, merchantID string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO merchant_activity (estate_id, merchant_id, last_sale_date_time)
		VALUES (?,?,?)
		ON CONFLICT(estate_id, merchant_id) DO UPDATE SET
			last_sale_date_time = MAX(last_sale_date_time, excluded.last_sale_date_time)`,
		estateID, merchantID, at.UTC().Format(time.RFC3339),
	)
	return storeErr("record sale", err)
}

// List returns every merchant of the estate with its last sale. Merchants
// that never sold carry domain.MinDate.
func (r *ActivityRepo) List(ctx context.Context, estateID string) ([]domain.MerchantActivity, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.merchant_id, m.name, a.last_sale_date_time
		FROM merchants m
		LEFT JOIN merchant_activity a ON a.estate_id = m.estate_id AND a.merchant_id = m.merchant_id
		WHERE m.estate_id = ?
		ORDER BY m.reporting_id`, estateID)
	if err != nil {
		return nil, storeErr("query activity", err)
	}
	defer rows.Close()

	var out []domain.MerchantActivity
	for rows.Next() {
		var a domain.MerchantActivity
		var last sql.NullString
		if err := rows.Scan(&a.MerchantID, &a.MerchantName, &last); err != nil {
			return nil, storeErr("scan activity", err)
		}
		a.LastSaleDateTime = domain.MinDate
		if last.Valid {
			if t, err := time.Parse(time.RFC3339, last.String); err == nil {
				a.LastSaleDateTime = t
			}
		}
		out = append(out, a)
	}
	return out, storeErr("rows", rows.Err())
}
