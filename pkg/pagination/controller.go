package pagination

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for list pagination.
var (
	pagesFetchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_pagination_pages_fetched_total",
		Help: "Total pages appended to a list by status filter",
	}, []string{"filter"})

	pageFetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rm_pagination_fetch_failures_total",
		Help: "Total failed page fetches by error class",
	}, []string{"class"})

	duplicateItemsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rm_pagination_duplicate_items_total",
		Help: "Items appended whose id was already present in the session",
	})
)

// Controller accumulates catalog pages for one list.
//
// FetchNext, Refresh and SetStatusFilter mutate the controller and must not
// run concurrently with each other. State and Subscribe are safe from any
// goroutine.
type Controller struct {
	service catalog.Service
	logger  zerolog.Logger

	// Owned by the goroutine that serializes mutations.
	items         []catalog.Character
	errMsg        string
	cursor        Cursor
	sessionFilter catalog.StatusFilter
	seen          map[int]struct{}

	state atomic.Pointer[State]

	subsMu  sync.Mutex
	subs    map[int]func(State)
	nextSub int
}

// NewController creates a controller at page 1 with no filter.
func NewController(service catalog.Service) *Controller {
	if service == nil {
		panic("catalog service cannot be nil")
	}
	c := &Controller{
		service: service,
		logger:  logging.NewLogger("list-controller"),
		cursor:  initialCursor(catalog.StatusAll),
		seen:    make(map[int]struct{}),
		subs:    make(map[int]func(State)),
	}
	c.state.Store(&State{Cursor: c.cursor})
	return c
}

// SetLogger replaces the controller logger.
func (c *Controller) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// State returns the latest published snapshot.
func (c *Controller) State() State {
	return *c.state.Load()
}

// StatusFilter returns the filter that the next request will use.
func (c *Controller) StatusFilter() catalog.StatusFilter {
	return c.cursor.Filter
}

// SetStatusFilter changes the filter. It does not fetch: call Refresh to
// start a session for the new filter, otherwise the next FetchNext mixes
// pages of both filters into one list.
func (c *Controller) SetStatusFilter(filter catalog.StatusFilter) {
	if filter == c.cursor.Filter {
		return
	}
	c.cursor.Filter = filter
	c.publish(false)
}

// Subscribe registers fn to receive every published snapshot. fn runs on
// the goroutine that completed the mutation and must not call FetchNext.
func (c *Controller) Subscribe(fn func(State)) (unsubscribe func()) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

// Refresh starts a new session for the current filter and fetches page 1.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.FetchNext(ctx, true)
}

// FetchNext requests the page at the cursor and appends its results.
//
// With reset the cursor returns to page 1 and items and error are cleared
// before the request. When no pages remain FetchNext returns nil without
// touching state. On failure items and cursor keep their values, the
// display message is recorded and the error is returned.
func (c *Controller) FetchNext(ctx context.Context, reset bool) error {
	items := c.items
	cursor := c.cursor
	seen := c.seen

	if reset {
		items = nil
		cursor = initialCursor(cursor.Filter)
		seen = make(map[int]struct{})

		c.items = items
		c.cursor = cursor
		c.seen = seen
		c.errMsg = ""
		c.sessionFilter = cursor.Filter
	}

	if !cursor.HasMore() {
		c.logger.Debug().
			Int("current_page", cursor.CurrentPage).
			Int("total_pages", cursor.TotalPages).
			Str("filter", cursor.Filter.String()).
			Msg("No more pages")
		return nil
	}

	if !reset && cursor.Filter != c.sessionFilter {
		c.logger.Warn().
			Str("session_filter", c.sessionFilter.String()).
			Str("filter", cursor.Filter.String()).
			Msg("Filter changed without refresh, appending to previous session")
	}

	c.publish(true)

	env, err := c.service.FetchPage(ctx, cursor.CurrentPage, cursor.Filter)
	if err != nil {
		c.items = items
		c.cursor = cursor
		c.errMsg = catalog.Message(err)
		c.seen = seen
		if reset {
			c.sessionFilter = cursor.Filter
		}
		pageFetchFailuresTotal.WithLabelValues(string(catalog.Classify(err))).Inc()
		c.logger.Warn().
			Err(err).
			Int("page", cursor.CurrentPage).
			Str("filter", cursor.Filter.String()).
			Msg("Page fetch failed")
		c.publish(false)
		return fmt.Errorf("fetch page %d: %w", cursor.CurrentPage, err)
	}

	for _, ch := range env.Results {
		if _, dup := seen[ch.ID]; dup {
			duplicateItemsTotal.Inc()
			c.logger.Warn().
				Int("id", ch.ID).
				Int("page", cursor.CurrentPage).
				Msg("Duplicate item in session")
		}
		seen[ch.ID] = struct{}{}
	}
	items = append(items, env.Results...)

	// A server reporting fewer pages than the one just served ends the
	// session here rather than leaving the cursor past TotalPages+1.
	cursor.TotalPages = env.Info.Pages
	if cursor.TotalPages < cursor.CurrentPage {
		cursor.TotalPages = cursor.CurrentPage
	}
	fetched := cursor.CurrentPage
	cursor.CurrentPage++

	c.items = items
	c.cursor = cursor
	c.errMsg = ""
	c.seen = seen
	c.sessionFilter = cursor.Filter

	pagesFetchedTotal.WithLabelValues(cursor.Filter.String()).Inc()
	c.logger.Info().
		Int("page", fetched).
		Int("total_pages", cursor.TotalPages).
		Int("results", len(env.Results)).
		Int("items", len(items)).
		Str("filter", cursor.Filter.String()).
		Msg("Page appended")

	c.publish(false)
	return nil
}

// FetchAll fetches pages until none remain or maxPages requests were made.
// maxPages <= 0 means no limit.
func (c *Controller) FetchAll(ctx context.Context, maxPages int) error {
	for n := 0; maxPages <= 0 || n < maxPages; n++ {
		if !c.cursor.HasMore() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.FetchNext(ctx, false); err != nil {
			return err
		}
	}
	return nil
}

// publish stores a snapshot of the committed fields and notifies subscribers.
func (c *Controller) publish(loading bool) {
	s := &State{
		Items:   c.items[:len(c.items):len(c.items)],
		Err:     c.errMsg,
		Cursor:  c.cursor,
		Loading: loading,
	}
	c.state.Store(s)

	c.subsMu.Lock()
	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range subs {
		fn(*s)
	}
}
