package reporting

import (
	"context"
	"fmt"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

func (s *Service) GetCalendarYears(ctx context.Context, estateID string) ([]int, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	return s.calendar.Years(ctx, estateID)
}

func (s *Service) GetCalendarDates(ctx context.Context, estateID string, year int) ([]domain.CalendarDate, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if year < 1 {
		return nil, fmt.Errorf("%w: year %d", domain.ErrValidation, year)
	}
	return s.calendar.Dates(ctx, estateID, year)
}

// GetComparisonDates lists the dates a caller can compare today against:
// Yesterday, Last Week and Last Month first, then the stored calendar dates
// before today, most recent first.
func (s *Service) GetComparisonDates(ctx context.Context, estateID string) ([]domain.ComparisonDate, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	today := domain.DateOf(s.now())

	stored, err := s.calendar.DatesBefore(ctx, estateID, today)
	if err != nil {
		return nil, err
	}

	out := []domain.ComparisonDate{
		{Date: today.AddDate(0, 0, -1), Description: "Yesterday", OrderValue: 0},
		{Date: today.AddDate(0, 0, -7), Description: "Last Week", OrderValue: 1},
		{Date: today.AddDate(0, -1, 0), Description: "Last Month", OrderValue: 2},
	}
	for i, c := range stored {
		out = append(out, domain.ComparisonDate{
			Date:        c.Date,
			Description: domain.FormatDate(c.Date),
			OrderValue:  i + 3,
		})
	}
	return out, nil
}
