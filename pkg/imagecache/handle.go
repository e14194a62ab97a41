package imagecache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Handle is one caller's view of a load. Handles for the same key share
// the underlying fetch but are cancelled independently.
type Handle struct {
	key        string
	done       chan struct{}
	cancel     chan struct{}
	cancelOnce sync.Once

	// Set before done is closed.
	img    *Image
	err    error
	shared bool
}

func resolvedHandle(key string, img *Image, err error) *Handle {
	h := &Handle{
		key:    key,
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
		img:    img,
		err:    err,
	}
	close(h.done)
	return h
}

func waitingHandle(key string, ch <-chan singleflight.Result) *Handle {
	h := &Handle{
		key:    key,
		done:   make(chan struct{}),
		cancel: make(chan struct{}),
	}

	go func() {
		defer close(h.done)
		select {
		case r := <-ch:
			if r.Err != nil {
				h.err = r.Err
				return
			}
			h.img = r.Val.(*Image)
			h.shared = r.Shared
			if r.Shared {
				imageCoalescedTotal.Inc()
			}
		case <-h.cancel:
			h.err = ErrCanceled
		}
	}()

	return h
}

// Key returns the normalized key, empty when the URL was invalid.
func (h *Handle) Key() string {
	return h.key
}

// Done is closed once the handle has a result or was cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Result returns the outcome. Only valid after Done is closed.
func (h *Handle) Result() (*Image, error) {
	<-h.done
	return h.img, h.err
}

// Shared reports whether the result came from a fetch shared with other
// callers. Only valid after Done is closed.
func (h *Handle) Shared() bool {
	<-h.done
	return h.shared
}

// Wait blocks until the result is available, the handle is cancelled or
// ctx ends. A ctx ending does not cancel the handle.
func (h *Handle) Wait(ctx context.Context) (*Image, error) {
	select {
	case <-h.done:
		return h.img, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel releases this caller. Other handles and the fetch are unaffected.
// Cancelling a resolved handle does nothing.
func (h *Handle) Cancel() {
	h.cancelOnce.Do(func() {
		close(h.cancel)
	})
}
