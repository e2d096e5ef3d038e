package reporting

import (
	"context"
	"fmt"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

func (s *Service) ListMerchants(ctx context.Context, estateID string) ([]domain.Merchant, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, err
	}
	return set.SortedMerchants(), nil
}

// GetMerchant looks a merchant up by reporting id.
func (s *Service) GetMerchant(ctx context.Context, estateID string, reportingID int) (*domain.Merchant, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if reportingID <= 0 {
		return nil, fmt.Errorf("%w: merchant reporting id must be positive", domain.ErrValidation)
	}
	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, err
	}
	m, ok := set.MerchantByReportingID(reportingID)
	if !ok {
		return nil, fmt.Errorf("%w: merchant %d", domain.ErrNotFound, reportingID)
	}
	return &m, nil
}

func (s *Service) ListOperators(ctx context.Context, estateID string) ([]domain.Operator, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, err
	}
	return set.SortedOperators(), nil
}

func (s *Service) ListProducts(ctx context.Context, estateID string) ([]domain.Product, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	set, err := s.dims.Load(ctx, estateID)
	if err != nil {
		return nil, err
	}
	return set.SortedProducts(), nil
}
