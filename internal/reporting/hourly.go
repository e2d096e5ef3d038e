package reporting

import (
	"context"
	"fmt"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// GetHourlyCounts returns today's and the comparison date's sales counts per
// hour, up to the current hour.
func (s *Service) GetHourlyCounts(ctx context.Context, estateID string, today, comparisonDate time.Time, f domain.Filters) ([]domain.HourlyCount, error) {
	series, err := s.hourlySeries(ctx, estateID, today, comparisonDate, f)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HourlyCount, len(series))
	for i, h := range series {
		out[i] = domain.HourlyCount{Hour: h.Hour, TodaysCount: h.TodaysCount, ComparisonCount: h.ComparisonCount}
	}
	return out, nil
}

// GetHourlyValues returns today's and the comparison date's sales values per
// hour, up to the current hour.
func (s *Service) GetHourlyValues(ctx context.Context, estateID string, today, comparisonDate time.Time, f domain.Filters) ([]domain.HourlyValue, error) {
	series, err := s.hourlySeries(ctx, estateID, today, comparisonDate, f)
	if err != nil {
		return nil, err
	}
	out := make([]domain.HourlyValue, len(series))
	for i, h := range series {
		out[i] = domain.HourlyValue{Hour: h.Hour, TodaysValue: h.TodaysValue, ComparisonValue: h.ComparisonValue}
	}
	return out, nil
}

// hourlySeries builds both series cut off at the same hour. Today's hours
// always come from the facts; the comparison date reads its hour buckets
// unless a filter or a still-open date forces a rescan.
func (s *Service) hourlySeries(ctx context.Context, estateID string, today, comparisonDate time.Time, f domain.Filters) ([]domain.HourlySales, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if err := validateFilters(f); err != nil {
		return nil, err
	}
	now := s.now()
	today = s.today(today)

	cutoff := 23
	if domain.SameDate(today, now) {
		cutoff = now.Hour()
	}

	sel, err := s.resolve(ctx, estateID, f)
	if err != nil {
		return nil, err
	}

	todays, err := s.hoursFromFacts(ctx, estateID, today, sel, cutoff)
	if err != nil {
		return nil, fmt.Errorf("todays hours: %w", err)
	}

	var comparison map[int]domain.Totals
	if sel.filtered() || domain.FormatDate(comparisonDate) >= domain.FormatDate(now) {
		comparison, err = s.hoursFromFacts(ctx, estateID, comparisonDate, sel, cutoff)
	} else {
		comparison, err = s.summaries.HourBuckets(ctx, estateID, comparisonDate)
	}
	if err != nil {
		return nil, fmt.Errorf("comparison hours: %w", err)
	}

	series := make([]domain.HourlySales, 0, cutoff+1)
	for hour := 0; hour <= cutoff; hour++ {
		t, c := todays[hour], comparison[hour]
		series = append(series, domain.HourlySales{
			Hour:            hour,
			TodaysCount:     t.Count,
			TodaysValue:     t.Value,
			ComparisonCount: c.Count,
			ComparisonValue: c.Value,
		})
	}
	return series, nil
}

func (s *Service) hoursFromFacts(ctx context.Context, estateID string, date time.Time, sel selection, cutoff int) (map[int]domain.Totals, error) {
	q := sel.factQuery(date)
	q.SalesOnly = true
	q.MaxHour = &cutoff
	facts, err := s.txns.Facts(ctx, estateID, q)
	if err != nil {
		return nil, err
	}
	hours := make(map[int]domain.Totals)
	for _, f := range facts {
		hours[f.Hour()] = hours[f.Hour()].Add(f.Amount)
	}
	return hours, nil
}
