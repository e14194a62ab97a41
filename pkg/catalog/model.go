package catalog

import (
	"fmt"
	"time"
)

// Character is a single entity of the Rick and Morty character catalog.
// Values are decoded once from the API and never mutated afterwards.
type Character struct {
	ID       int         `json:"id"`
	Name     string      `json:"name"`
	Status   string      `json:"status"`
	Species  string      `json:"species"`
	Type     string      `json:"type"`
	Gender   string      `json:"gender"`
	Origin   LocationRef `json:"origin"`
	Location LocationRef `json:"location"`
	Image    string      `json:"image"`
	Episode  []string    `json:"episode"`
	URL      string      `json:"url"`
	Created  string      `json:"created"`
}

// LocationRef points at a location resource by name and URL.
type LocationRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// IsEmpty reports whether the reference carries no name.
// Empty references are hidden by the presentation layer; they are still valid.
func (l LocationRef) IsEmpty() bool {
	return l.Name == ""
}

// HasType reports whether the character has a non-empty sub-type.
func (c Character) HasType() bool {
	return c.Type != ""
}

// EpisodeCount returns the number of episodes the character appears in.
func (c Character) EpisodeCount() int {
	return len(c.Episode)
}

// Episodes returns a copy of the episode URLs.
func (c Character) Episodes() []string {
	out := make([]string, len(c.Episode))
	copy(out, c.Episode)
	return out
}

// CreatedAt parses the creation timestamp.
func (c Character) CreatedAt() (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, c.Created)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse created %q: %w", c.Created, err)
	}
	return t, nil
}

// PageInfo is the pagination metadata of one envelope.
type PageInfo struct {
	Count int     `json:"count"`
	Pages int     `json:"pages"`
	Next  *string `json:"next"`
	Prev  *string `json:"prev"`
}

// HasNext reports whether the server advertises a following page.
func (i PageInfo) HasNext() bool {
	return i.Next != nil && *i.Next != ""
}

// PageEnvelope is the server response for exactly one page of characters.
type PageEnvelope struct {
	Info    PageInfo    `json:"info"`
	Results []Character `json:"results"`
}

// rawEnvelope mirrors PageEnvelope with pointers so missing members can
// be told apart from empty ones during decoding.
type rawEnvelope struct {
	Info    *PageInfo    `json:"info"`
	Results *[]Character `json:"results"`
}
