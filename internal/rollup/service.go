package rollup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/transactionprocessing/estatereporting/internal/domain"
	"github.com/transactionprocessing/estatereporting/internal/repository"
)

// Result summarises one rollup build.
type Result struct {
	EstateID   string           `json:"estate_id"`
	Date       string           `json:"date"`
	Mode       domain.BuildMode `json:"mode"`
	SalesCount int              `json:"sales_count"`
	Buckets    int              `json:"buckets"`
}

// Builder computes and replaces per-date summary buckets.
type Builder struct {
	facts  FactSource
	store  BucketStore
	logger *slog.Logger
	now    func() time.Time
	locks  *keyedMutex
}

type Option func(*Builder)

// WithClock overrides the clock used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithoutSerialization lets concurrent builds of the same (estate, date)
// race. The last writer wins; the result is the same either way.
func WithoutSerialization() Option {
	return func(b *Builder) { b.locks = nil }
}

// NewBuilder creates a rollup builder. Builds of the same (estate, date)
// are serialized in-process unless WithoutSerialization is given.
func NewBuilder(facts FactSource, store BucketStore, logger *slog.Logger, opts ...Option) *Builder {
	b := &Builder{
		facts:  facts,
		store:  store,
		logger: logger.With("component", "rollup"),
		now:    time.Now,
		locks:  newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ParseMode accepts "today" or "historic" in any case.
func ParseMode(s string) (domain.BuildMode, error) {
	switch m := domain.BuildMode(strings.ToLower(strings.TrimSpace(s))); m {
	case domain.BuildToday, domain.BuildHistoric:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown build mode %q", domain.ErrValidation, s)
}

// BuildSummary regroups every fact dated date and replaces the date's bucket
// set in one unit of work. Rebuilding an unchanged fact set yields the same
// buckets. On failure the previous bucket set is left intact.
//
// Today mode is for the current date and may run any number of times.
// Historic mode closes an earlier date.
func (b *Builder) BuildSummary(ctx context.Context, estateID string, date time.Time, mode domain.BuildMode) (*Result, error) {
	if err := b.validate(estateID, date, mode); err != nil {
		return nil, err
	}
	date = domain.DateOf(date)
	day := domain.FormatDate(date)

	if b.locks != nil {
		unlock, err := b.locks.Lock(ctx, estateID+"/"+day)
		if err != nil {
			return nil, fmt.Errorf("wait for build of %s: %w", day, err)
		}
		defer unlock()
	}

	facts, err := b.facts.Facts(ctx, estateID, repository.FactQuery{Date: date, SalesOnly: true})
	if err != nil {
		return nil, fmt.Errorf("load facts for %s: %w", day, err)
	}

	buckets := Aggregate(estateID, date, facts)
	if err := b.store.ReplaceBuckets(ctx, estateID, date, buckets); err != nil {
		return nil, fmt.Errorf("replace buckets for %s: %w", day, err)
	}

	res := &Result{
		EstateID:   estateID,
		Date:       day,
		Mode:       mode,
		SalesCount: buckets[0].Count,
		Buckets:    len(buckets),
	}

	level := slog.LevelDebug
	if mode == domain.BuildHistoric {
		level = slog.LevelInfo
	}
	b.logger.Log(ctx, level, "summary built",
		"estate_id", estateID, "date", day, "mode", mode,
		"sales", res.SalesCount, "buckets", res.Buckets)

	return res, nil
}

func (b *Builder) validate(estateID string, date time.Time, mode domain.BuildMode) error {
	if strings.TrimSpace(estateID) == "" {
		return fmt.Errorf("%w: estate id is required", domain.ErrValidation)
	}
	if date.IsZero() {
		return fmt.Errorf("%w: date is required", domain.ErrValidation)
	}
	today, day := domain.FormatDate(b.now()), domain.FormatDate(date)
	switch mode {
	case domain.BuildToday:
		if day != today {
			return fmt.Errorf("%w: today mode builds %s only, got %s", domain.ErrValidation, today, day)
		}
	case domain.BuildHistoric:
		if day >= today {
			return fmt.Errorf("%w: historic mode needs a closed date, got %s", domain.ErrValidation, day)
		}
	default:
		return fmt.Errorf("%w: unknown build mode %q", domain.ErrValidation, mode)
	}
	return nil
}

// ModeFor picks the build mode for date: Today for the current date,
// Historic for anything earlier.
func (b *Builder) ModeFor(date time.Time) domain.BuildMode {
	if domain.FormatDate(date) == domain.FormatDate(b.now()) {
		return domain.BuildToday
	}
	return domain.BuildHistoric
}
