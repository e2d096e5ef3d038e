package reporting

import (
	"context"
	"fmt"

	"github.com/transactionprocessing/estatereporting/internal/domain"
)

// Search returns the facts of one date matching every filter of req. With
// no sort field the results come in recording order (ascending surrogate
// id). Nil paging returns every match; a page past the end is empty.
func (s *Service) Search(ctx context.Context, estateID string, req domain.TransactionSearchRequest, opts domain.SearchOptions) ([]domain.TransactionResult, error) {
	if err := requireEstate(estateID); err != nil {
		return nil, err
	}
	if err := validateSearch(req, opts); err != nil {
		return nil, err
	}
	return s.txns.Search(ctx, estateID, req, opts)
}

func validateSearch(req domain.TransactionSearchRequest, opts domain.SearchOptions) error {
	if req.QueryDate == "" {
		return fmt.Errorf("%w: query date is required", domain.ErrValidation)
	}
	if _, err := domain.ParseDate(req.QueryDate); err != nil {
		return fmt.Errorf("%w: query date %q: %v", domain.ErrValidation, req.QueryDate, err)
	}
	if r := req.ValueRange; r != nil && r.EndValue.LessThan(r.StartValue) {
		return fmt.Errorf("%w: value range end is below its start", domain.ErrValidation)
	}
	if err := validateIDs("merchant", req.Merchants); err != nil {
		return err
	}
	if err := validateIDs("operator", req.Operators); err != nil {
		return err
	}
	if opts.Page != nil && *opts.Page < 1 {
		return fmt.Errorf("%w: page must be 1 or more", domain.ErrValidation)
	}
	if opts.PageSize != nil && *opts.PageSize < 1 {
		return fmt.Errorf("%w: page size must be 1 or more", domain.ErrValidation)
	}
	switch opts.SortField {
	case "", domain.SortMerchantName, domain.SortOperatorName, domain.SortTransactionAmount:
	default:
		return fmt.Errorf("%w: unknown sort field %q", domain.ErrValidation, opts.SortField)
	}
	switch opts.SortDirection {
	case "", domain.SortAscending, domain.SortDescending:
	default:
		return fmt.Errorf("%w: unknown sort direction %q", domain.ErrValidation, opts.SortDirection)
	}
	return nil
}
