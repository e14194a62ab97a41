package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"strconv"
	"time"

	"github.com/Sternrassler/rm-catalog-client/pkg/catalog"
	"github.com/Sternrassler/rm-catalog-client/pkg/imagecache"
	"github.com/Sternrassler/rm-catalog-client/pkg/logging"
	"github.com/Sternrassler/rm-catalog-client/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// requestTimeout bounds one upstream call made on behalf of a request.
const requestTimeout = 30 * time.Second

// pinger reports whether a dependency is reachable.
type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type server struct {
	catalog catalog.Service
	images  *imagecache.Cache
	redis   pinger
	logger  zerolog.Logger
}

func newServer(svc catalog.Service, images *imagecache.Cache, ready pinger) *server {
	return &server{
		catalog: svc,
		images:  images,
		redis:   ready,
		logger:  logging.NewLogger("server"),
	}
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", s.readyHandler)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/characters", s.charactersHandler)
	mux.HandleFunc("/image", s.imageHandler)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler fails only when a configured Redis tier stops answering.
func (s *server) readyHandler(w http.ResponseWriter, r *http.Request) {
	if s.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.redis.Ping(ctx).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Readiness check failed")
			http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// charactersHandler returns one page envelope for ?page=&status=.
func (s *server) charactersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			http.Error(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		page = n
	}
	filter, err := catalog.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	env, err := s.catalog.FetchPage(ctx, page, filter)
	if err != nil {
		s.logger.Warn().Err(err).Int("page", page).Str("status_filter", filter.String()).Msg("Page request failed")
		http.Error(w, catalog.Message(err), upstreamStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(env); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to write response")
	}
}

// imageHandler serves ?url= from the image cache, re-encoded as PNG.
func (s *server) imageHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := r.URL.Query().Get("url")
	if raw == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	img, err := s.images.Load(ctx, raw)
	if err != nil {
		if errors.Is(err, imagecache.ErrInvalidURL) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.logger.Warn().Err(err).Str("key", raw).Msg("Image request failed")
		http.Error(w, catalog.Message(err), upstreamStatus(err))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := png.Encode(w, img.Image); err != nil {
		s.logger.Warn().Err(err).Str("key", img.Key).Msg("Failed to encode image")
	}
}

// upstreamStatus maps a catalog error to the status returned to our caller.
// Upstream 4xx pass through; everything else is a bad gateway.
func upstreamStatus(err error) int {
	var statusErr *catalog.HTTPStatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
		return statusErr.StatusCode
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
