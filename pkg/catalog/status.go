package catalog

import (
	"fmt"
	"strings"
)

// StatusFilter restricts a page request to characters with one life status.
// The zero value requests all statuses.
type StatusFilter string

const (
	// StatusAll omits the status parameter entirely.
	StatusAll StatusFilter = ""

	// StatusAlive selects living characters.
	StatusAlive StatusFilter = "alive"

	// StatusDead selects dead characters.
	StatusDead StatusFilter = "dead"

	// StatusUnknown selects characters whose status is unknown.
	StatusUnknown StatusFilter = "unknown"
)

// StatusFilters lists every supported filter in display order.
var StatusFilters = []StatusFilter{StatusAll, StatusAlive, StatusDead, StatusUnknown}

// ParseStatusFilter converts user input into a StatusFilter.
// Matching is case-insensitive and "all" maps to StatusAll.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "alive":
		return StatusAlive, nil
	case "dead":
		return StatusDead, nil
	case "unknown":
		return StatusUnknown, nil
	default:
		return StatusAll, fmt.Errorf("unknown status filter %q (want all, alive, dead or unknown)", s)
	}
}

// IsAll reports whether the filter requests every status.
func (f StatusFilter) IsAll() bool {
	return f == StatusAll
}

// String returns the filter label, "all" for the zero value.
func (f StatusFilter) String() string {
	if f.IsAll() {
		return "all"
	}
	return string(f)
}
