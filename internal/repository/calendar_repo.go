package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

type CalendarRepo struct {
	db *sql.DB
}

func NewCalendarRepo(db *sql.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

// Ensure adds calendar rows for every date from..to inclusive that the
// estate does not have yet.
func (r *CalendarRepo) Ensure(ctx context.Context, estateID string, from, to time.Time) error {
	from, to = domain.DateOf(from), domain.DateOf(to)
	if to.Before(from) {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO calendar
		(estate_id, date, day_of_week, day_of_week_number, month_name, month_number, week_number, year)
		VALUES (?,?,?,?,?,?,?,?)`,
	)
	if err != nil {
		return storeErr("prepare", err)
	}
	defer stmt.Close()

	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		_, week := d.ISOWeek()
		if _, err := stmt.ExecContext(ctx,
			estateID, domain.FormatDate(d), d.Weekday().String(), int(d.Weekday()),
			d.Month().String(), int(d.Month()), week, d.Year(),
		); err != nil {
			return storeErr("insert calendar date", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit", err)
	}
	return nil
}

// Years lists the distinct calendar years of the estate, newest first.
func (r *CalendarRepo) Years(ctx context.Context, estateID string) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT DISTINCT year FROM calendar WHERE estate_id = ? ORDER BY year DESC", estateID)
	if err != nil {
		return nil, storeErr("query years", err)
	}
	defer rows.Close()

	years := []int{}
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, storeErr("scan year", err)
		}
		years = append(years, y)
	}
	return years, storeErr("rows", rows.Err())
}

// Dates lists the calendar rows of a year in date order.
func (r *CalendarRepo) Dates(ctx context.Context, estateID string, year int) ([]domain.CalendarDate, error) {
	return r.query(ctx,
		"WHERE estate_id = ? AND year = ? ORDER BY date", estateID, year)
}

// DatesBefore lists calendar rows strictly before the given date, most
// recent first.
func (r *CalendarRepo) DatesBefore(ctx context.Context, estateID string, before time.Time) ([]domain.CalendarDate, error) {
	return r.query(ctx,
		"WHERE estate_id = ? AND date < ? ORDER BY date DESC", estateID, domain.FormatDate(before))
}

func (r *CalendarRepo) query(ctx context.Context, tail string, args ...any) ([]domain.CalendarDate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date, day_of_week, day_of_week_number, month_name, month_number, week_number, year
		FROM calendar `+tail, args...)
	if err != nil {
		return nil, storeErr("query calendar", err)
	}
	defer rows.Close()

	dates := []domain.CalendarDate{}
	for rows.Next() {
		var c domain.CalendarDate
		var date string
		if err := rows.Scan(&date, &c.DayOfWeek, &c.DayOfWeekNumber, &c.MonthName,
			&c.MonthNumber, &c.WeekNumber, &c.Year); err != nil {
			return nil, storeErr("scan calendar", err)
		}
		if c.Date, err = domain.ParseDate(date); err != nil {
			return nil, fmt.Errorf("calendar date %q: %w", date, err)
		}
		c.YearWeekNumber = fmt.Sprintf("%d-%02d", c.Year, c.WeekNumber)
		dates = append(dates, c)
	}
	return dates, storeErr("rows", rows.Err())
}
