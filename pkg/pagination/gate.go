package pagination

import (
	"context"
	"errors"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
)

// ErrBusy is returned by the Try methods while another fetch is in flight.
var ErrBusy = errors.New("fetch already in flight")

// Gate serializes all mutations of a Controller. Scroll and prefetch
// triggers use the Try methods and are dropped while a fetch is running;
// Refresh and FetchNext wait their turn.
type Gate struct {
	ctrl     *Controller
	sem      chan struct{}
	scroll   ScrollTrigger
	prefetch PrefetchTrigger
}

// NewGate wraps ctrl with default triggers.
func NewGate(ctrl *Controller) *Gate {
	return &Gate{
		ctrl:     ctrl,
		sem:      make(chan struct{}, 1),
		scroll:   DefaultScrollTrigger(),
		prefetch: DefaultPrefetchTrigger(),
	}
}

// WithTriggers replaces the scroll and prefetch triggers.
func (g *Gate) WithTriggers(scroll ScrollTrigger, prefetch PrefetchTrigger) *Gate {
	g.scroll = scroll
	g.prefetch = prefetch
	return g
}

// Controller returns the wrapped controller.
func (g *Gate) Controller() *Controller {
	return g.ctrl
}

// State returns the controller's latest snapshot.
func (g *Gate) State() State {
	return g.ctrl.State()
}

// InFlight reports whether a mutation currently holds the gate.
func (g *Gate) InFlight() bool {
	return len(g.sem) > 0
}

func (g *Gate) acquire(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) tryAcquire() bool {
	select {
	case g.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g *Gate) release() {
	<-g.sem
}

// FetchNext waits for any in-flight fetch, then fetches the next page.
func (g *Gate) FetchNext(ctx context.Context) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.release()
	return g.ctrl.FetchNext(ctx, false)
}

// Refresh waits for any in-flight fetch, then restarts the session.
func (g *Gate) Refresh(ctx context.Context) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.release()
	return g.ctrl.Refresh(ctx)
}

// ApplyFilter sets the status filter and refreshes in one serialized step.
func (g *Gate) ApplyFilter(ctx context.Context, filter catalog.StatusFilter) error {
	if err := g.acquire(ctx); err != nil {
		return err
	}
	defer g.release()
	g.ctrl.SetStatusFilter(filter)
	return g.ctrl.Refresh(ctx)
}

// TryFetchNext fetches the next page unless a fetch is already running,
// in which case it returns ErrBusy.
func (g *Gate) TryFetchNext(ctx context.Context) error {
	if !g.tryAcquire() {
		return ErrBusy
	}
	defer g.release()
	return g.ctrl.FetchNext(ctx, false)
}

// TryRefresh restarts the session unless a fetch is already running.
func (g *Gate) TryRefresh(ctx context.Context) error {
	if !g.tryAcquire() {
		return ErrBusy
	}
	defer g.release()
	return g.ctrl.Refresh(ctx)
}

// OnScroll fetches the next page when the viewport is near the end of the
// content. started is false when the trigger did not fire, nothing is left
// to load, or another fetch was already running.
func (g *Gate) OnScroll(ctx context.Context, offsetY, contentHeight, viewportHeight float64) (started bool, err error) {
	if !g.scroll.ShouldFetch(offsetY, contentHeight, viewportHeight) {
		return false, nil
	}
	return g.tryNext(ctx)
}

// OnPrefetch fetches the next page when any of rows is within the
// prefetch margin of the loaded item count.
func (g *Gate) OnPrefetch(ctx context.Context, rows []int) (started bool, err error) {
	if !g.prefetch.ShouldFetch(rows, g.ctrl.State().Len()) {
		return false, nil
	}
	return g.tryNext(ctx)
}

func (g *Gate) tryNext(ctx context.Context) (bool, error) {
	if !g.ctrl.State().HasMore() {
		return false, nil
	}
	err := g.TryFetchNext(ctx)
	if errors.Is(err, ErrBusy) {
		return false, nil
	}
	return true, err
}
