package pagination

// ScrollTrigger fires when the scroll offset passes the point one
// Factor-scaled viewport before the end of the content.
type ScrollTrigger struct {
	Factor float64
}

// DefaultScrollTrigger fires 1.2 viewports before the end.
func DefaultScrollTrigger() ScrollTrigger {
	return ScrollTrigger{Factor: 1.2}
}

// ShouldFetch reports whether the next page should be requested.
func (t ScrollTrigger) ShouldFetch(offsetY, contentHeight, viewportHeight float64) bool {
	factor := t.Factor
	if factor <= 0 {
		factor = 1.2
	}
	threshold := contentHeight - viewportHeight*factor
	return offsetY > threshold
}

// PrefetchTrigger fires when a row about to be displayed lies within
// Margin rows of the end of the loaded items.
type PrefetchTrigger struct {
	Margin int
}

// DefaultPrefetchTrigger uses a margin of five rows.
func DefaultPrefetchTrigger() PrefetchTrigger {
	return PrefetchTrigger{Margin: 5}
}

// ShouldFetch reports whether rows reach into the prefetch margin.
func (t PrefetchTrigger) ShouldFetch(rows []int, loaded int) bool {
	if len(rows) == 0 {
		return false
	}
	maxRow := rows[0]
	for _, r := range rows[1:] {
		if r > maxRow {
			maxRow = r
		}
	}
	return maxRow > loaded-t.Margin
}
