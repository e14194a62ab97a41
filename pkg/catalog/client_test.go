package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/rm-catalog-client/internal/testutil"
	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
)

func newTestClient(t *testing.T, baseURL string) *catalog.Client {
	t.Helper()

	cfg := catalog.DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.Timeout = 5 * time.Second

	client, err := catalog.New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      catalog.Config
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			config:      catalog.DefaultConfig(),
			expectError: false,
		},
		{
			name: "empty base url",
			config: catalog.Config{
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name: "empty user agent",
			config: catalog.Config{
				BaseURL: catalog.DefaultBaseURL,
			},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
		{
			name: "relative base url",
			config: catalog.Config{
				BaseURL:   "/api/character",
				UserAgent: "TestApp/1.0.0",
			},
			expectError: true,
			errorMsg:    "base url must be absolute",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := catalog.New(tt.config)
			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("Expected client, got nil")
			}
		})
	}
}

func TestClient_PageURL(t *testing.T) {
	client := newTestClient(t, "https://rickandmortyapi.com/api/character")

	tests := []struct {
		name       string
		page       int
		filter     catalog.StatusFilter
		wantPage   string
		wantStatus string
		hasStatus  bool
	}{
		{name: "all statuses omits status", page: 1, filter: catalog.StatusAll, wantPage: "1"},
		{name: "alive", page: 2, filter: catalog.StatusAlive, wantPage: "2", wantStatus: "alive", hasStatus: true},
		{name: "dead", page: 7, filter: catalog.StatusDead, wantPage: "7", wantStatus: "dead", hasStatus: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := url.Parse(client.PageURL(tt.page, tt.filter))
			if err != nil {
				t.Fatalf("PageURL returned unparsable url: %v", err)
			}
			q := u.Query()
			if got := q.Get("page"); got != tt.wantPage {
				t.Errorf("page = %q, want %q", got, tt.wantPage)
			}
			_, present := q["status"]
			if present != tt.hasStatus {
				t.Errorf("status present = %v, want %v", present, tt.hasStatus)
			}
			if got := q.Get("status"); got != tt.wantStatus {
				t.Errorf("status = %q, want %q", got, tt.wantStatus)
			}
			if u.Path != "/api/character" {
				t.Errorf("path = %q, want /api/character", u.Path)
			}
		})
	}
}

func TestClient_FetchPage(t *testing.T) {
	mock := testutil.NewMockCatalog(testutil.Dataset(25), 10)
	defer mock.Close()

	client := newTestClient(t, mock.CharacterURL())
	ctx := context.Background()

	env, err := client.FetchPage(ctx, 1, catalog.StatusAll)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if env.Info.Count != 25 {
		t.Errorf("count = %d, want 25", env.Info.Count)
	}
	if env.Info.Pages != 3 {
		t.Errorf("pages = %d, want 3", env.Info.Pages)
	}
	if !env.Info.HasNext() {
		t.Error("page 1 should advertise a next page")
	}
	if env.Info.Prev != nil {
		t.Errorf("page 1 prev = %v, want nil", *env.Info.Prev)
	}
	if len(env.Results) != 10 {
		t.Fatalf("results = %d, want 10", len(env.Results))
	}
	if env.Results[0].ID != 1 || env.Results[9].ID != 10 {
		t.Errorf("unexpected result order: first=%d last=%d", env.Results[0].ID, env.Results[9].ID)
	}
	if env.Results[0].Origin.Name != "Earth (C-137)" {
		t.Errorf("origin = %q", env.Results[0].Origin.Name)
	}
	if !env.Results[0].Location.IsEmpty() {
		t.Error("location should be empty")
	}

	if got := mock.LastQuery(testutil.CharacterPath); got != "page=1" {
		t.Errorf("query = %q, want page=1", got)
	}
}

func TestClient_FetchPage_StatusFilter(t *testing.T) {
	mock := testutil.NewMockCatalog(testutil.Dataset(30), 20)
	defer mock.Close()

	client := newTestClient(t, mock.CharacterURL())

	env, err := client.FetchPage(context.Background(), 1, catalog.StatusDead)
	if err != nil {
		t.Fatalf("FetchPage failed: %v", err)
	}

	if env.Info.Count != 10 {
		t.Errorf("count = %d, want 10", env.Info.Count)
	}
	for _, c := range env.Results {
		if c.Status != "Dead" {
			t.Errorf("character %d has status %q", c.ID, c.Status)
		}
	}
	if got := mock.LastQuery(testutil.CharacterPath); got != "page=1&status=dead" {
		t.Errorf("query = %q, want page=1&status=dead", got)
	}
}

func TestClient_FetchPage_InvalidPage(t *testing.T) {
	mock := testutil.NewMockCatalog(testutil.Dataset(1), 20)
	defer mock.Close()

	client := newTestClient(t, mock.CharacterURL())

	if _, err := client.FetchPage(context.Background(), 0, catalog.StatusAll); err == nil {
		t.Fatal("expected error for page 0")
	}
	if n := mock.GetRequestCount(testutil.CharacterPath); n != 0 {
		t.Errorf("request count = %d, want 0", n)
	}
}

func TestClient_FetchPage_Errors(t *testing.T) {
	tests := []struct {
		name       string
		response   testutil.MockResponse
		wantIs     error
		wantStatus int
		wantMsg    string
	}{
		{
			name: "not found",
			response: testutil.MockResponse{
				StatusCode: http.StatusNotFound,
				Body:       `{"error":"There is nothing here"}`,
			},
			wantIs:     catalog.ErrHTTPStatus,
			wantStatus: http.StatusNotFound,
			wantMsg:    "There is nothing here",
		},
		{
			name: "server error without body",
			response: testutil.MockResponse{
				StatusCode: http.StatusInternalServerError,
			},
			wantIs:     catalog.ErrHTTPStatus,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "malformed json",
			response: testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       `{"info": {"count": 1, "pages": 1}, "results": [`,
			},
			wantIs: catalog.ErrDecode,
		},
		{
			name: "wrong shape",
			response: testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       `{"info": {"count": 1, "pages": 1}, "results": "nope"}`,
			},
			wantIs: catalog.ErrDecode,
		},
		{
			name: "missing results",
			response: testutil.MockResponse{
				StatusCode: http.StatusOK,
				Body:       `{"info": {"count": 1, "pages": 1}}`,
			},
			wantIs: catalog.ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockCatalog(nil, 20)
			defer mock.Close()
			mock.SetResponse(testutil.CharacterPath, tt.response)

			client := newTestClient(t, mock.CharacterURL())
			_, err := client.FetchPage(context.Background(), 1, catalog.StatusAll)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("errors.Is(%v, %v) = false", err, tt.wantIs)
			}

			if tt.wantStatus != 0 {
				var statusErr *catalog.HTTPStatusError
				if !errors.As(err, &statusErr) {
					t.Fatalf("expected HTTPStatusError, got %T", err)
				}
				if statusErr.StatusCode != tt.wantStatus {
					t.Errorf("status = %d, want %d", statusErr.StatusCode, tt.wantStatus)
				}
				if statusErr.Message != tt.wantMsg {
					t.Errorf("message = %q, want %q", statusErr.Message, tt.wantMsg)
				}
			}
		})
	}
}

func TestClient_FetchPage_NetworkError(t *testing.T) {
	mock := testutil.NewMockCatalog(nil, 20)
	target := mock.CharacterURL()
	mock.Close()

	client := newTestClient(t, target)
	_, err := client.FetchPage(context.Background(), 1, catalog.StatusAll)
	if !errors.Is(err, catalog.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if class := catalog.Classify(err); class != catalog.ErrorClassNetwork {
		t.Errorf("class = %q, want network", class)
	}
}

func TestClient_FetchPage_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockCatalog(testutil.Dataset(1), 20)
	defer mock.Close()
	mock.SetResponse(testutil.CharacterPath, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"info":{"count":0,"pages":1},"results":[]}`,
		Delay:      200 * time.Millisecond,
	})

	client := newTestClient(t, mock.CharacterURL())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.FetchPage(ctx, 1, catalog.StatusAll)
	if !errors.Is(err, catalog.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped deadline exceeded, got %v", err)
	}
}

func TestClient_FetchCharacter(t *testing.T) {
	mock := testutil.NewMockCatalog(testutil.Dataset(5), 20)
	defer mock.Close()

	client := newTestClient(t, mock.CharacterURL())

	ch, err := client.FetchCharacter(context.Background(), 3)
	if err != nil {
		t.Fatalf("FetchCharacter failed: %v", err)
	}
	if ch.ID != 3 || ch.Name != "Character 3" {
		t.Errorf("got %d %q", ch.ID, ch.Name)
	}

	_, err = client.FetchCharacter(context.Background(), 99)
	var statusErr *catalog.HTTPStatusError
	if !errors.As(err, &statusErr) || !statusErr.IsNotFound() {
		t.Fatalf("expected 404, got %v", err)
	}
}
