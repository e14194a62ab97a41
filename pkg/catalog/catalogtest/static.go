// Package catalogtest provides an in-memory catalog.Service for tests.
package catalogtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
)

// Call records one FetchPage invocation.
type Call struct {
	Page   int
	Filter catalog.StatusFilter
}

// StaticService serves canned envelopes keyed by filter and page.
// An error queued with FailNext is returned once before normal service
// resumes.
type StaticService struct {
	mu       sync.Mutex
	pages    map[catalog.StatusFilter]map[int]*catalog.PageEnvelope
	failures []error
	calls    []Call
	OnFetch  func(Call)
}

var _ catalog.Service = (*StaticService)(nil)

// NewStaticService creates an empty service.
func NewStaticService() *StaticService {
	return &StaticService{
		pages: make(map[catalog.StatusFilter]map[int]*catalog.PageEnvelope),
	}
}

// SetPage registers the envelope returned for (filter, page).
func (s *StaticService) SetPage(filter catalog.StatusFilter, page int, env *catalog.PageEnvelope) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pages[filter] == nil {
		s.pages[filter] = make(map[int]*catalog.PageEnvelope)
	}
	s.pages[filter][page] = env
}

// SetPages splits characters into pages of pageSize for a filter.
func (s *StaticService) SetPages(filter catalog.StatusFilter, pageSize int, chars []catalog.Character) {
	total := (len(chars) + pageSize - 1) / pageSize
	if total == 0 {
		total = 1
	}
	for page := 1; page <= total; page++ {
		start := (page - 1) * pageSize
		end := start + pageSize
		if end > len(chars) {
			end = len(chars)
		}
		results := make([]catalog.Character, 0, end-start)
		if start < len(chars) {
			results = append(results, chars[start:end]...)
		}
		s.SetPage(filter, page, Envelope(len(chars), total, results...))
	}
}

// FailNext queues an error for the next call.
func (s *StaticService) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, err)
}

// Calls returns every recorded call in order.
func (s *StaticService) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// FetchPage implements catalog.Service.
func (s *StaticService) FetchPage(ctx context.Context, page int, filter catalog.StatusFilter) (*catalog.PageEnvelope, error) {
	call := Call{Page: page, Filter: filter}

	s.mu.Lock()
	s.calls = append(s.calls, call)
	hook := s.OnFetch
	var failure error
	if len(s.failures) > 0 {
		failure = s.failures[0]
		s.failures = s.failures[1:]
	}
	env := s.pages[filter][page]
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err := ctx.Err(); err != nil {
		return nil, &catalog.NetworkError{URL: "static", Err: err}
	}
	if failure != nil {
		return nil, failure
	}
	if env == nil {
		return nil, &catalog.HTTPStatusError{
			URL:        fmt.Sprintf("static?page=%d&status=%s", page, filter),
			StatusCode: 404,
			Message:    "There is nothing here",
		}
	}
	return env, nil
}

// Envelope builds a page envelope.
func Envelope(count, pages int, results ...catalog.Character) *catalog.PageEnvelope {
	if results == nil {
		results = []catalog.Character{}
	}
	return &catalog.PageEnvelope{
		Info:    catalog.PageInfo{Count: count, Pages: pages},
		Results: results,
	}
}

// Character builds a minimal character.
func Character(id int, name, status string) catalog.Character {
	return catalog.Character{
		ID:      id,
		Name:    name,
		Status:  status,
		Species: "Human",
		Gender:  "unknown",
		Image:   fmt.Sprintf("https://rickandmortyapi.com/api/character/avatar/%d.jpeg", id),
		URL:     fmt.Sprintf("https://rickandmortyapi.com/api/character/%d", id),
		Episode: []string{},
	}
}
