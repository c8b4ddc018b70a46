package booking

import (
	"context"
	"sort"
	"time"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// Resolvers wraps the provider's read calls with a per-call deadline and
// a bounded retry for upstream failures. Only these idempotent reads are
// ever retried; mutating calls go through the Submitter and managers
// untouched.
type Resolvers struct {
	Provider Provider

	// Timeout bounds each attempt. Retries is the number of extra
	// attempts after the first.
	Timeout time.Duration
	Retries int
	Backoff time.Duration
}

func NewResolvers(p Provider) *Resolvers {
	return &Resolvers{
		Provider: p,
		Timeout:  15 * time.Second,
		Retries:  2,
		Backoff:  500 * time.Millisecond,
	}
}

// TimeWindows resolves the bookable windows for (trail, date), ordered
// by start time. An empty slice is a terminal answer, not an error.
func (r *Resolvers) TimeWindows(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
	var out []domain.TimeWindow
	err := r.retry(ctx, func(ctx context.Context) error {
		ws, err := r.Provider.FetchAvailableWindows(ctx, trailID, date)
		if err != nil {
			return err
		}
		out = ws
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}

// RemainingCapacity resolves the headcount still bookable for (trail,
// date). A failure means capacity unknown; callers must block submission
// rather than assume open capacity.
func (r *Resolvers) RemainingCapacity(ctx context.Context, trailID int64, date time.Time) (int, error) {
	var out int
	err := r.retry(ctx, func(ctx context.Context) error {
		n, err := r.Provider.FetchRemainingCapacity(ctx, trailID, date)
		if err != nil {
			return err
		}
		out = n
		return nil
	})
	return out, err
}

// EligibleGuides resolves the guides free and qualified for a concrete
// window. Meaningless without a window, so callers only invoke it once
// one is selected. Empty is a valid answer.
func (r *Resolvers) EligibleGuides(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
	var out []domain.Guide
	err := r.retry(ctx, func(ctx context.Context) error {
		gs, err := r.Provider.FetchEligibleGuides(ctx, trailID, date, w)
		if err != nil {
			return err
		}
		out = gs
		return nil
	})
	return out, err
}

func (r *Resolvers) Trail(ctx context.Context, trailID int64) (domain.Trail, error) {
	var out domain.Trail
	err := r.retry(ctx, func(ctx context.Context) error {
		t, err := r.Provider.GetTrail(ctx, trailID)
		if err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

func (r *Resolvers) retry(ctx context.Context, fn func(context.Context) error) error {
	attempts := r.Retries + 1
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return &domain.UpstreamError{Op: "resolver", Err: ctx.Err()}
			case <-time.After(r.Backoff):
			}
		}
		err = r.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		if !domain.IsUpstreamUnavailable(err) {
			return err
		}
	}
	return err
}

func (r *Resolvers) attempt(ctx context.Context, fn func(context.Context) error) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := fn(cctx)
	if err != nil && cctx.Err() != nil && !domain.IsUpstreamUnavailable(err) {
		return &domain.UpstreamError{Op: "resolver", Err: cctx.Err()}
	}
	return err
}
