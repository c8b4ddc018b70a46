package booking

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/example/trailbook/internal/domain/booking"
)

var (
	testTrail = domain.Trail{ID: 3, Name: "Sendero Los Quetzales", DailyCapacity: 30}
	dateOne   = time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	dateTwo   = time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC)

	morning   = domain.TimeWindow{Start: "08:00", End: "12:00"}
	afternoon = domain.TimeWindow{Start: "13:00", End: "17:00"}
)

func newTestCoordinator(fp *fakeProvider) *Coordinator {
	res := &Resolvers{Provider: fp, Timeout: time.Second, Retries: 0, Backoff: time.Millisecond}
	sub := &Submitter{Provider: fp, Now: testNow}
	return NewCoordinator(res, sub, zerolog.Nop())
}

func settle(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.WaitSettled(ctx))
}

func TestCoordinatorResolvesTuple(t *testing.T) {
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{afternoon, morning}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)

	snap := c.Snapshot()
	assert.True(t, snap.WindowsResolved)
	assert.Equal(t, []domain.TimeWindow{morning, afternoon}, snap.Windows)
	require.NotNil(t, snap.Capacity)
	assert.Equal(t, 12, *snap.Capacity)
	assert.False(t, snap.LoadingAvailability)
}

func TestCoordinatorDiscardsStaleAvailability(t *testing.T) {
	release := make(chan struct{})
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			if date.Equal(dateOne) {
				<-release
				return []domain.TimeWindow{{Start: "06:00", End: "10:00"}}, nil
			}
			return []domain.TimeWindow{morning}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			if date.Equal(dateOne) {
				return 1, nil
			}
			return 20, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	c.SetDate(dateTwo)
	settle(t, c)

	// Let the superseded response arrive after the fresh one settled.
	close(release)
	time.Sleep(50 * time.Millisecond)

	snap := c.Snapshot()
	assert.Equal(t, dateTwo, snap.VisitDate)
	assert.Equal(t, []domain.TimeWindow{morning}, snap.Windows, "stale response must never be applied")
	require.NotNil(t, snap.Capacity)
	assert.Equal(t, 20, *snap.Capacity)
}

func TestCoordinatorSelectWindowFetchesGuides(t *testing.T) {
	var gotWindow domain.TimeWindow
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{morning, afternoon}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
		fetchGuides: func(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
			gotWindow = w
			return []domain.Guide{{ID: 7, Name: "Luis", MaxGroupSize: 8}}, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)

	require.NoError(t, c.SelectWindow(morning))
	settle(t, c)

	snap := c.Snapshot()
	assert.Equal(t, morning, gotWindow)
	assert.True(t, snap.GuidesResolved)
	require.Len(t, snap.Guides, 1)
	assert.Equal(t, int64(7), snap.Guides[0].ID)
}

func TestCoordinatorSelectWindowRejectsUnknown(t *testing.T) {
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{morning}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)

	err := c.SelectWindow(domain.TimeWindow{Start: "06:00", End: "10:00"})
	assert.True(t, domain.IsValidation(err))
}

func TestCoordinatorDateChangeClearsDownstream(t *testing.T) {
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{morning}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
		fetchGuides: func(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
			return []domain.Guide{{ID: 7}}, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)
	require.NoError(t, c.SelectWindow(morning))
	settle(t, c)
	c.SelectGuide(7)

	c.SetDate(dateTwo)
	settle(t, c)

	snap := c.Snapshot()
	assert.True(t, snap.Window.IsZero(), "window selection must not survive a date change")
	assert.Zero(t, snap.GuideID)
	assert.Empty(t, snap.Guides)
	assert.False(t, snap.GuidesResolved)
}

func TestCoordinatorSubmitWhileLoading(t *testing.T) {
	release := make(chan struct{})
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			<-release
			return []domain.TimeWindow{morning}, nil
		},
	}
	c := newTestCoordinator(fp)
	defer close(release)

	c.SetTrail(testTrail)
	c.SetDate(dateOne)

	_, err := c.Submit(context.Background())
	assert.True(t, domain.IsValidation(err))
}

func TestCoordinatorSubmitManualNoGuides(t *testing.T) {
	created := false
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{morning}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
		fetchGuides: func(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
			return nil, nil
		},
		create: func(ctx context.Context, req domain.ReservationRequest) (domain.CreateResult, error) {
			created = true
			return domain.CreateResult{}, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetVisitor(domain.Visitor{NationalID: "1234567"})
	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)
	require.NoError(t, c.SelectWindow(morning))
	settle(t, c)
	c.SetPeople(2)
	c.SetGuideMode(domain.GuideModeManual)

	_, err := c.Submit(context.Background())
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "guideId", ve.Field)
	assert.False(t, created, "empty eligible set fails fast with no round trip")
}

func TestCoordinatorSubmitHappyPath(t *testing.T) {
	var got domain.ReservationRequest
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			return []domain.TimeWindow{morning, afternoon}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
		fetchGuides: func(ctx context.Context, trailID int64, date time.Time, w domain.TimeWindow) ([]domain.Guide, error) {
			return []domain.Guide{{ID: 7, Name: "Luis", MaxGroupSize: 8}}, nil
		},
		create: func(ctx context.Context, req domain.ReservationRequest) (domain.CreateResult, error) {
			got = req
			return domain.CreateResult{ReservationID: 42, ConfirmationCode: "RES-0042", State: domain.StatePending}, nil
		},
	}
	c := newTestCoordinator(fp)

	c.SetVisitor(domain.Visitor{NationalID: "1234567", FirstName: "Ana", LastName: "Rojas"})
	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)
	require.NoError(t, c.SelectWindow(morning))
	settle(t, c)
	c.SetPeople(4)
	c.SetGuideMode(domain.GuideModeManual)
	c.SelectGuide(7)

	res, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.ReservationID)
	assert.Equal(t, "RES-0042", res.ConfirmationCode)

	assert.Equal(t, int64(3), got.TrailID)
	assert.Equal(t, morning, got.Window)
	assert.Equal(t, 4, got.People)
	assert.Equal(t, domain.GuideModeManual, got.Mode)
	assert.Equal(t, int64(7), got.GuideID)
	assert.NotEmpty(t, got.ClientRef)
}

func TestCoordinatorCapacityRejectionRefreshes(t *testing.T) {
	var windowCalls int32
	fp := &fakeProvider{
		fetchWindows: func(ctx context.Context, trailID int64, date time.Time) ([]domain.TimeWindow, error) {
			atomic.AddInt32(&windowCalls, 1)
			return []domain.TimeWindow{morning}, nil
		},
		fetchCapacity: func(ctx context.Context, trailID int64, date time.Time) (int, error) {
			return 12, nil
		},
		create: func(ctx context.Context, req domain.ReservationRequest) (domain.CreateResult, error) {
			return domain.CreateResult{}, &domain.CapacityExceededError{}
		},
	}
	c := newTestCoordinator(fp)

	c.SetVisitor(domain.Visitor{NationalID: "1234567"})
	c.SetTrail(testTrail)
	c.SetDate(dateOne)
	settle(t, c)
	require.NoError(t, c.SelectWindow(morning))
	settle(t, c)
	c.SetPeople(4)

	_, err := c.Submit(context.Background())
	assert.True(t, domain.IsCapacityExceeded(err))

	settle(t, c)
	snap := c.Snapshot()
	assert.True(t, snap.Window.IsZero(), "rejected slot is deselected")
	assert.Equal(t, int32(2), atomic.LoadInt32(&windowCalls), "availability is re-resolved after the rejection")
}
