package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/trailbook/internal/domain/booking"
)

func newTestResolvers(p Provider) *Resolvers {
	return &Resolvers{Provider: p, Timeout: time.Second, Retries: 2, Backoff: time.Millisecond}
}

func TestResolversRetryUpstream(t *testing.T) {
	calls := 0
	fp := &fakeProvider{
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			calls++
			if calls < 3 {
				return 0, &domain.UpstreamError{Op: "capacity", Err: context.DeadlineExceeded}
			}
			return 12, nil
		},
	}

	n, err := newTestResolvers(fp).RemainingCapacity(context.Background(), 3, testNow())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.Equal(t, 3, calls)
}

func TestResolversRetryExhausted(t *testing.T) {
	calls := 0
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			calls++
			return nil, &domain.UpstreamError{Op: "windows", Err: context.DeadlineExceeded}
		},
	}

	_, err := newTestResolvers(fp).TimeWindows(context.Background(), 3, testNow())
	assert.True(t, domain.IsUpstreamUnavailable(err))
	assert.Equal(t, 3, calls, "first attempt plus two retries")
}

func TestResolversNoRetryOnValidation(t *testing.T) {
	calls := 0
	fp := &fakeProvider{
		fetchGuides: func(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
			calls++
			return nil, domain.NewValidationError("fecha", "fuera de temporada")
		},
	}

	_, err := newTestResolvers(fp).EligibleGuides(context.Background(), 3, testNow(), domain.TimeWindow{Start: "08:00", End: "12:00"})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 1, calls, "non-upstream failures are terminal")
}

func TestResolversSortWindows(t *testing.T) {
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{
				{Start: "13:00", End: "17:00"},
				{Start: "08:00", End: "12:00"},
			}, nil
		},
	}

	ws, err := newTestResolvers(fp).TimeWindows(context.Background(), 3, testNow())
	require.NoError(t, err)
	require.Len(t, ws, 2)
	assert.Equal(t, "08:00", ws[0].Start)
	assert.Equal(t, "13:00", ws[1].Start)
}

func TestResolversEmptyWindowsIsTerminal(t *testing.T) {
	fp := &fakeProvider{}
	ws, err := newTestResolvers(fp).TimeWindows(context.Background(), 3, testNow())
	require.NoError(t, err)
	assert.Empty(t, ws)
}
