// Package ledger orchestrates the split calculator and balance consolidator
// over the Expense Store, and owns the rules for mutating the ledger.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mmynk/splitledger/internal/apperrors"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultMaxAttempts is how many times a conflicting mutation is attempted
// before the conflict is surfaced to the caller.
const DefaultMaxAttempts = 3

// Service is the Ledger Service. It holds no ledger state of its own; every
// call reads fresh copies from the store.
type Service struct {
	store       storage.Store
	publisher   events.Publisher
	validate    *validator.Validate
	maxAttempts int
	now         func() time.Time
	newID       func() string
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets where domain events are sent after successful mutations.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMaxAttempts sets the conflict retry budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.maxAttempts = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service backed by store.
func New(store storage.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		publisher:   events.Noop{},
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		maxAttempts: DefaultMaxAttempts,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// withRetry runs attempt until it succeeds, fails with a non-retryable
// error, or the retry budget is spent. Each attempt must re-read whatever it
// writes so the compare-and-swap sees current versions.
func (s *Service) withRetry(ctx context.Context, operation string, attempt func(ctx context.Context) error) error {
	var err error
	for i := 1; i <= s.maxAttempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = attempt(ctx)
		if !apperrors.IsRetryable(err) {
			return err
		}

		if i < s.maxAttempts {
			metrics.ObserveRetry(operation)
			slog.Warn("Mutation conflict, retrying", "operation", operation, "attempt", i, "error", err)
		}
	}
	return fmt.Errorf("%s: gave up after %d attempts: %w", operation, s.maxAttempts, err)
}

// publish sends event, logging instead of failing: the mutation is already durable.
func (s *Service) publish(ctx context.Context, event events.Event) {
	event.OccurredAt = s.now()
	if err := s.publisher.Publish(ctx, event); err != nil {
		slog.Error("Failed to publish ledger event", "type", event.Type, "error", err)
	}
}
