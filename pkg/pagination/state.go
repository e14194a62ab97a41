package pagination

import (
	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
)

// Cursor is the pagination position of one filter session.
type Cursor struct {
	// CurrentPage is the next page to request (1-based).
	CurrentPage int
	// TotalPages is the page count reported by the last envelope.
	TotalPages int
	// Filter is the status filter used for requests.
	Filter catalog.StatusFilter
}

// HasMore reports whether another page may be requested.
func (c Cursor) HasMore() bool {
	return c.CurrentPage <= c.TotalPages
}

// initialCursor is the cursor of a fresh session.
func initialCursor(filter catalog.StatusFilter) Cursor {
	return Cursor{CurrentPage: 1, TotalPages: 1, Filter: filter}
}

// State is an immutable snapshot of a Controller.
type State struct {
	// Items are the accumulated results in page order. Do not modify.
	Items []catalog.Character

	// Err is the display message of the last failure, empty when the last
	// fetch succeeded.
	Err string

	Cursor Cursor

	// Loading is true while a fetch is outstanding.
	Loading bool
}

// HasMore reports whether the list can still grow.
func (s State) HasMore() bool {
	return s.Cursor.HasMore()
}

// Len returns the number of accumulated items.
func (s State) Len() int {
	return len(s.Items)
}

// Find returns the item with the given id.
func (s State) Find(id int) (catalog.Character, bool) {
	for _, c := range s.Items {
		if c.ID == id {
			return c, true
		}
	}
	return catalog.Character{}, false
}
