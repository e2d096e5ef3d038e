package rollup

import (
	"context"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
)

// FactSource reads recorded transaction facts.
//
//go:generate mockgen -destination=mocks/mock_rollup.go -package=mock_rollup -source=interface.go
type FactSource interface {
	Facts(ctx context.Context, estateID string, q repository.FactQuery) ([]domain.TransactionFact, error)
}

// BucketStore atomically replaces the summary buckets of one date.
type BucketStore interface {
	ReplaceBuckets(ctx context.Context, estateID string, date time.Time, buckets []domain.SummaryBucket) error
}
