// Package testutil provides testing utilities for the catalog client and image cache.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
)

// Paths served by MockCatalog.
const (
	CharacterPath = "/api/character"
	AvatarPrefix  = "/api/character/avatar/"
)

// MockResponse defines the behavior for a fixed mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable mock of the character API and its image host.
type MockCatalog struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	characters []catalog.Character
	pageSize   int
	imageDelay time.Duration

	// Tracking
	requestCount map[string]int
	lastQuery    map[string]string
}

// NewMockCatalog creates a mock server holding the given dataset split into
// pages of pageSize.
func NewMockCatalog(characters []catalog.Character, pageSize int) *MockCatalog {
	if pageSize <= 0 {
		pageSize = 20
	}
	mock := &MockCatalog{
		handlers:     make(map[string]func(w http.ResponseWriter, r *http.Request)),
		characters:   characters,
		pageSize:     pageSize,
		requestCount: make(map[string]int),
		lastQuery:    make(map[string]string),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount[r.URL.Path]++
		mock.lastQuery[r.URL.Path] = r.URL.RawQuery
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		mock.defaultHandler(w, r)
	}))

	// Image URLs in the dataset point at this server.
	for i := range mock.characters {
		mock.characters[i].Image = mock.ImageURL(mock.characters[i].ID)
		mock.characters[i].URL = mock.server.URL + CharacterPath + "/" + strconv.Itoa(mock.characters[i].ID)
	}

	return mock
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// CharacterURL returns the collection endpoint on the mock server.
func (m *MockCatalog) CharacterURL() string {
	return m.server.URL + CharacterPath
}

// ImageURL returns the avatar URL for a character id.
func (m *MockCatalog) ImageURL(id int) string {
	return fmt.Sprintf("%s%s%d.png", m.server.URL, AvatarPrefix, id)
}

// Characters returns the dataset with server-local URLs.
func (m *MockCatalog) Characters() []catalog.Character {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]catalog.Character, len(m.characters))
	copy(out, m.characters)
	return out
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = make(map[string]int)
	m.lastQuery = make(map[string]string)
}

// SetImageDelay delays every avatar response.
func (m *MockCatalog) SetImageDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imageDelay = d
}

// SetHandler sets a custom handler for a specific path.
func (m *MockCatalog) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockCatalog) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// ClearHandler removes a custom handler so the default behavior applies again.
func (m *MockCatalog) ClearHandler(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, path)
}

// GetRequestCount returns the number of requests made to a path.
func (m *MockCatalog) GetRequestCount(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount[path]
}

// LastQuery returns the raw query of the last request to a path.
func (m *MockCatalog) LastQuery(path string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastQuery[path]
}

// defaultHandler serves the collection, single characters and avatars.
func (m *MockCatalog) defaultHandler(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == CharacterPath || r.URL.Path == CharacterPath+"/":
		m.servePage(w, r)
	case strings.HasPrefix(r.URL.Path, AvatarPrefix):
		m.serveAvatar(w, r)
	case strings.HasPrefix(r.URL.Path, CharacterPath+"/"):
		m.serveCharacter(w, r)
	default:
		writeError(w, http.StatusNotFound, "There is nothing here")
	}
}

func (m *MockCatalog) servePage(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "Invalid page")
			return
		}
		page = n
	}
	status := strings.ToLower(r.URL.Query().Get("status"))

	m.mu.RLock()
	var matched []catalog.Character
	for _, c := range m.characters {
		if status == "" || strings.EqualFold(c.Status, status) {
			matched = append(matched, c)
		}
	}
	pageSize := m.pageSize
	m.mu.RUnlock()

	pages := (len(matched) + pageSize - 1) / pageSize
	if page > pages {
		writeError(w, http.StatusNotFound, "There is nothing here")
		return
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(matched) {
		end = len(matched)
	}

	env := catalog.PageEnvelope{
		Info: catalog.PageInfo{
			Count: len(matched),
			Pages: pages,
			Next:  m.pageLink(page+1, pages, status),
			Prev:  m.pageLink(page-1, pages, status),
		},
		Results: matched[start:end],
	}
	writeJSON(w, http.StatusOK, env)
}

func (m *MockCatalog) pageLink(page, pages int, status string) *string {
	if page < 1 || page > pages {
		return nil
	}
	link := fmt.Sprintf("%s%s?page=%d", m.server.URL, CharacterPath, page)
	if status != "" {
		link += "&status=" + status
	}
	return &link
}

func (m *MockCatalog) serveCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, CharacterPath+"/"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Hey! you must provide an id")
		return
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.characters {
		if c.ID == id {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Character not found")
}

func (m *MockCatalog) serveAvatar(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, AvatarPrefix), ".png")
	id, err := strconv.Atoi(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	delay := m.imageDelay
	m.mu.RUnlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Expires", time.Now().Add(time.Hour).Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(PNG(id%8+1, id%8+1))
}

// PNG encodes a solid w×h image.
func PNG(w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 0x97, G: 0xce, B: 0x4c, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Dataset builds n characters cycling through Alive, Dead and unknown.
func Dataset(n int) []catalog.Character {
	statuses := []string{"Alive", "Dead", "unknown"}
	out := make([]catalog.Character, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, catalog.Character{
			ID:       i,
			Name:     fmt.Sprintf("Character %d", i),
			Status:   statuses[(i-1)%len(statuses)],
			Species:  "Human",
			Gender:   "Male",
			Origin:   catalog.LocationRef{Name: "Earth (C-137)", URL: "https://rickandmortyapi.com/api/location/1"},
			Location: catalog.LocationRef{},
			Episode:  []string{"https://rickandmortyapi.com/api/episode/1"},
			Created:  "2017-11-04T18:48:46.250Z",
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
