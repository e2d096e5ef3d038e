package reporting

import (
	"context"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// GetMerchantKpis classifies every merchant of the estate by the recency of
// its last sale.
func (s *Service) GetMerchantKpis(ctx context.Context, estateID string) (*domain.MerchantKpi, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	activity, err := s.activity.List(ctx, estateID)
	if err != nil {
		return nil, err
	}
	kpi := ClassifyMerchants(activity, s.now())
	return &kpi, nil
}

// ClassifyMerchants counts merchants into three independent buckets:
// a sale at or after now-1h, no sale dated today, and no sale dated within
// the last seven days.
func ClassifyMerchants(activity []domain.MerchantActivity, now time.Time) domain.MerchantKpi {
	hourAgo := now.Add(-time.Hour)
	today := domain.DateOf(now)
	weekAgo := today.AddDate(0, 0, -7)

	var kpi domain.MerchantKpi
	for _, a := range activity {
		last := a.LastSaleDateTime.In(now.Location())
		lastDay := domain.DateOf(last)
		if !last.Before(hourAgo) {
			kpi.WithSaleInLastHour++
		}
		if lastDay.Before(today) {
			kpi.WithNoSaleToday++
		}
		if lastDay.Before(weekAgo) {
			kpi.WithNoSaleInLast7Days++
		}
	}
	return kpi
}
