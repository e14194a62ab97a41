// Package pagination drives incremental, page-by-page loading of the
// character catalog for an infinite-scroll list.
//
// A Controller owns the cursor (current page, total pages, status filter)
// and the accumulated, append-only result list of one filter session.
// Each successful FetchNext appends one page and advances the cursor; a
// failed fetch leaves items and cursor untouched so the next call retries
// the same page. Once the current page passes the total page count the
// controller stops issuing requests until Refresh starts a new session.
//
// Example usage:
//
//	ctrl := pagination.NewController(catalogClient)
//	gate := pagination.NewGate(ctrl)
//
//	ctrl.Subscribe(func(s pagination.State) {
//		render(s.Items, s.Err)
//	})
//
//	_ = gate.Refresh(ctx)
//	if started, err := gate.OnScroll(ctx, offsetY, contentHeight, viewportHeight); started && err != nil {
//		showRetry(err)
//	}
//
// The Controller is not safe for overlapping FetchNext calls. Serialize
// them yourself or go through a Gate, which drops scroll-driven fetches
// while one is in flight and queues explicit refreshes behind it.
// State snapshots may be read from any goroutine.
package pagination
