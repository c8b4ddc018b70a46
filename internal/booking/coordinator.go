package booking

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	domain "github.com/example/trailbook/internal/domain/booking"
)

// Coordinator drives the interactive reservation-creation workflow. It
// owns the form-state tuple (trail, date, window, people, mode, guide)
// and re-resolves availability, capacity and guide eligibility whenever
// an upstream selection changes.
//
// Responses are applied in last-request-wins order: every fetch carries
// the generation current at launch, and a response whose generation no
// longer matches is discarded, never applied. A slow response for an old
// (trail, date) pair can therefore never overwrite a fresh selection.
type Coordinator struct {
	res *Resolvers
	sub *Submitter
	log zerolog.Logger

	mu      sync.Mutex
	changed chan struct{}

	// form-state tuple
	trail        domain.Trail
	visitDate    time.Time
	window       domain.TimeWindow
	people       int
	mode         domain.GuideMode
	guideID      int64
	visitor      domain.Visitor
	observations string

	// resolved facts for the current tuple
	windows         []domain.TimeWindow
	windowsResolved bool
	windowsErr      error
	capacity        *int
	capacityErr     error
	guides          []domain.Guide
	guidesResolved  bool
	guidesErr       error

	loadingAvail  bool
	loadingGuides bool

	availGen uint64
	guideGen uint64

	cancelAvail  context.CancelFunc
	cancelGuides context.CancelFunc

	// OnUpdate, when set, receives a snapshot after every applied
	// change. Called without the lock held.
	OnUpdate func(Snapshot)
}

// Snapshot is a consistent copy of the coordinator's state for rendering.
type Snapshot struct {
	Trail     domain.Trail
	VisitDate time.Time
	Window    domain.TimeWindow
	People    int
	Mode      domain.GuideMode
	GuideID   int64

	Windows         []domain.TimeWindow
	WindowsResolved bool
	WindowsErr      error
	Capacity        *int
	CapacityErr     error
	Guides          []domain.Guide
	GuidesResolved  bool
	GuidesErr       error

	LoadingAvailability bool
	LoadingGuides       bool
}

func NewCoordinator(res *Resolvers, sub *Submitter, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		res:     res,
		sub:     sub,
		log:     log.With().Str("component", "coordinator").Logger(),
		changed: make(chan struct{}),
		people:  1,
		mode:    domain.GuideModeNone,
	}
}

func (c *Coordinator) SetVisitor(v domain.Visitor) {
	c.mu.Lock()
	c.visitor = v
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) SetObservations(s string) {
	c.mu.Lock()
	c.observations = s
	c.mu.Unlock()
	c.notify()
}

// SetTrail changes the selected trail and re-resolves capacity and
// availability for the new (trail, date) pair.
func (c *Coordinator) SetTrail(t domain.Trail) {
	c.mu.Lock()
	c.trail = t
	c.resetForTupleLocked()
	c.mu.Unlock()
	c.notify()
}

// SetDate changes the visit date and re-resolves capacity and
// availability for the new (trail, date) pair.
func (c *Coordinator) SetDate(d time.Time) {
	c.mu.Lock()
	c.visitDate = d
	c.resetForTupleLocked()
	c.mu.Unlock()
	c.notify()
}

// resetForTupleLocked clears everything downstream of (trail, date),
// supersedes in-flight fetches, and launches new ones when the tuple is
// complete.
func (c *Coordinator) resetForTupleLocked() {
	c.window = domain.TimeWindow{}
	c.guideID = 0
	c.windows = nil
	c.windowsResolved = false
	c.windowsErr = nil
	c.capacity = nil
	c.capacityErr = nil
	c.clearGuidesLocked()

	c.availGen++
	if c.cancelAvail != nil {
		c.cancelAvail()
		c.cancelAvail = nil
	}
	c.loadingAvail = false

	if c.trail.ID == 0 || c.visitDate.IsZero() {
		return
	}

	gen := c.availGen
	trailID := c.trail.ID
	date := c.visitDate
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelAvail = cancel
	c.loadingAvail = true

	// Capacity and availability resolve concurrently; each applies
	// independently under the same generation.
	var pending int32 = 2
	done := func() {
		if atomic.AddInt32(&pending, -1) == 0 {
			cancel()
		}
	}

	go func() {
		defer done()
		ws, err := c.res.TimeWindows(ctx, trailID, date)
		c.applyWindows(gen, ws, err)
	}()
	go func() {
		defer done()
		n, err := c.res.RemainingCapacity(ctx, trailID, date)
		c.applyCapacity(gen, n, err)
	}()
}

func (c *Coordinator) applyWindows(gen uint64, ws []domain.TimeWindow, err error) {
	c.mu.Lock()
	if gen != c.availGen {
		c.mu.Unlock()
		c.log.Debug().Uint64("gen", gen).Msg("discarding stale availability response")
		return
	}
	c.windows = ws
	c.windowsResolved = err == nil
	c.windowsErr = err
	c.finishAvailLocked()

	// A previously selected window that vanished from the fresh set is
	// never silently kept.
	if !c.window.IsZero() && !domain.ContainsWindow(ws, c.window) {
		c.window = domain.TimeWindow{}
		c.guideID = 0
		c.clearGuidesLocked()
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) applyCapacity(gen uint64, n int, err error) {
	c.mu.Lock()
	if gen != c.availGen {
		c.mu.Unlock()
		c.log.Debug().Uint64("gen", gen).Msg("discarding stale capacity response")
		return
	}
	if err == nil {
		c.capacity = &n
		c.capacityErr = nil
	} else {
		c.capacity = nil
		c.capacityErr = err
	}
	c.finishAvailLocked()
	c.mu.Unlock()
	c.notify()
}

// finishAvailLocked marks the availability pass settled once both the
// window and capacity answers for the current generation are in.
func (c *Coordinator) finishAvailLocked() {
	windowsDone := c.windowsResolved || c.windowsErr != nil
	capacityDone := c.capacity != nil || c.capacityErr != nil
	if windowsDone && capacityDone {
		c.loadingAvail = false
	}
}

// SelectWindow picks a time window from the resolved set and triggers
// guide eligibility for (trail, date, window).
func (c *Coordinator) SelectWindow(w domain.TimeWindow) error {
	c.mu.Lock()
	if !c.windowsResolved {
		c.mu.Unlock()
		return domain.NewValidationError("timeWindow", "availability not resolved yet")
	}
	if !domain.ContainsWindow(c.windows, w) {
		c.mu.Unlock()
		return domain.NewValidationError("timeWindow", "not an available window")
	}
	c.window = w
	c.guideID = 0
	c.clearGuidesLocked()

	gen := c.guideGen
	trailID := c.trail.ID
	date := c.visitDate
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelGuides = cancel
	c.loadingGuides = true
	c.mu.Unlock()
	c.notify()

	go func() {
		defer cancel()
		gs, err := c.res.EligibleGuides(ctx, trailID, date, w)
		c.applyGuides(gen, gs, err)
	}()
	return nil
}

func (c *Coordinator) clearGuidesLocked() {
	c.guides = nil
	c.guidesResolved = false
	c.guidesErr = nil
	c.guideGen++
	if c.cancelGuides != nil {
		c.cancelGuides()
		c.cancelGuides = nil
	}
	c.loadingGuides = false
}

func (c *Coordinator) applyGuides(gen uint64, gs []domain.Guide, err error) {
	c.mu.Lock()
	if gen != c.guideGen {
		c.mu.Unlock()
		c.log.Debug().Uint64("gen", gen).Msg("discarding stale guide response")
		return
	}
	c.guides = gs
	c.guidesResolved = err == nil
	c.guidesErr = err
	c.loadingGuides = false
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) SetPeople(n int) {
	c.mu.Lock()
	c.people = n
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) SetGuideMode(m domain.GuideMode) {
	c.mu.Lock()
	c.mode = m
	if m != domain.GuideModeManual {
		c.guideID = 0
	}
	c.mu.Unlock()
	c.notify()
}

func (c *Coordinator) SelectGuide(id int64) {
	c.mu.Lock()
	c.guideID = id
	c.mu.Unlock()
	c.notify()
}

// Submit validates the assembled form against the resolved constraints
// and performs the create. In MANUAL mode with an empty eligible set it
// fails fast with no round trip. A CapacityExceeded rejection refreshes
// availability for the current tuple before returning.
func (c *Coordinator) Submit(ctx context.Context) (domain.CreateResult, error) {
	c.mu.Lock()
	if c.loadingAvail || c.loadingGuides {
		c.mu.Unlock()
		return domain.CreateResult{}, domain.NewValidationError("form", "still resolving availability")
	}
	if c.mode == domain.GuideModeManual && c.guidesResolved && len(c.guides) == 0 {
		c.mu.Unlock()
		return domain.CreateResult{}, domain.NewValidationError("guideId",
			"no guides available for this slot; use automatic assignment or pick another slot")
	}

	req := domain.ReservationRequest{
		Visitor:      c.visitor,
		TrailID:      c.trail.ID,
		VisitDate:    c.visitDate,
		Window:       c.window,
		People:       c.people,
		Observations: c.observations,
		Mode:         c.mode,
		GuideID:      c.guideID,
	}
	cons := Constraints{
		Trail:          c.trail,
		Windows:        append([]domain.TimeWindow(nil), c.windows...),
		Capacity:       c.capacity,
		EligibleGuides: append([]domain.Guide(nil), c.guides...),
	}
	c.mu.Unlock()

	res, err := c.sub.Submit(ctx, req, cons)
	if err != nil {
		if domain.IsCapacityExceeded(err) {
			// The slot was taken under us; refresh the options so the
			// caller sees current reality, not the stale set.
			c.mu.Lock()
			c.resetForTupleLocked()
			c.mu.Unlock()
			c.notify()
		}
		return domain.CreateResult{}, err
	}
	return res, nil
}

// Snapshot returns a consistent copy of the current state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	return Snapshot{
		Trail:               c.trail,
		VisitDate:           c.visitDate,
		Window:              c.window,
		People:              c.people,
		Mode:                c.mode,
		GuideID:             c.guideID,
		Windows:             append([]domain.TimeWindow(nil), c.windows...),
		WindowsResolved:     c.windowsResolved,
		WindowsErr:          c.windowsErr,
		Capacity:            c.capacity,
		CapacityErr:         c.capacityErr,
		Guides:              append([]domain.Guide(nil), c.guides...),
		GuidesResolved:      c.guidesResolved,
		GuidesErr:           c.guidesErr,
		LoadingAvailability: c.loadingAvail,
		LoadingGuides:       c.loadingGuides,
	}
}

// WaitSettled blocks until no resolver call is in flight.
func (c *Coordinator) WaitSettled(ctx context.Context) error {
	for {
		c.mu.Lock()
		if !c.loadingAvail && !c.loadingGuides {
			c.mu.Unlock()
			return nil
		}
		ch := c.changed
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// notify wakes waiters and pushes a snapshot to OnUpdate.
func (c *Coordinator) notify() {
	c.mu.Lock()
	close(c.changed)
	c.changed = make(chan struct{})
	var snap Snapshot
	cb := c.OnUpdate
	if cb != nil {
		snap = c.snapshotLocked()
	}
	c.mu.Unlock()
	if cb != nil {
		cb(snap)
	}
}
