// Package handler exposes the query engine over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Harryjl046/eventsearch/internal/search/cache"
	"github.com/Harryjl046/eventsearch/internal/search/executor"
	"github.com/Harryjl046/eventsearch/pkg/config"
	apperrors "github.com/Harryjl046/eventsearch/pkg/errors"
	"github.com/Harryjl046/eventsearch/pkg/logger"
	"github.com/Harryjl046/eventsearch/pkg/metrics"
)

// Handler serves the search API. The cache is optional; a nil cache means
// every query is evaluated directly.
type Handler struct {
	executor     *executor.Executor
	cache        *cache.QueryCache
	metrics      *metrics.Metrics
	defaultLimit int
	maxResults   int
	logger       *slog.Logger
}

// New creates a Handler over a built index.
func New(exec *executor.Executor, queryCache *cache.QueryCache, m *metrics.Metrics, cfg config.SearchConfig) *Handler {
	return &Handler{
		executor:     exec,
		cache:        queryCache,
		metrics:      m,
		defaultLimit: cfg.DefaultLimit,
		maxResults:   cfg.MaxResults,
		logger:       slog.Default().With("component", "search-handler"),
	}
}

// Register attaches all API routes to the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/phrase", h.Phrase)
	mux.HandleFunc("GET /api/v1/rank", h.Rank)
	mux.HandleFunc("GET /api/v1/keywords", h.Keywords)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
}

// Search evaluates a boolean query given in the "q" parameter.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "boolean", func(query string, _ int) (any, resultKind, error) {
		res, err := h.executor.Boolean(r.Context(), query)
		if err != nil {
			return nil, resultError, err
		}
		return res, classify(len(res.DocIDs), len(res.MissingTerms)), nil
	}, 0)
}

// Phrase verifies a contiguous phrase given in the "q" parameter.
func (h *Handler) Phrase(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "phrase", func(query string, _ int) (any, resultKind, error) {
		res, err := h.executor.Phrase(r.Context(), query)
		if err != nil {
			return nil, resultError, err
		}
		return res, classify(len(res.Matches), len(res.MissingTerms)), nil
	}, 0)
}

// Rank scores documents against the free-text query in "q", returning at
// most "limit" results.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.parseLimit(w, r)
	if !ok {
		return
	}
	h.serve(w, r, "ranked", func(query string, limit int) (any, resultKind, error) {
		res, err := h.executor.Ranked(r.Context(), query, limit)
		if err != nil {
			return nil, resultError, err
		}
		return res, classify(len(res.Results), 0), nil
	}, limit)
}

// Keywords returns a document's top TF-IDF terms.
func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	docID := r.URL.Query().Get("doc")
	if docID == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"query parameter 'doc' is required"))
		return
	}
	k := 10
	if kStr := r.URL.Query().Get("k"); kStr != "" {
		parsed, err := strconv.Atoi(kStr)
		if err != nil || parsed < 1 {
			h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"k must be a positive integer"))
			return
		}
		k = parsed
	}
	keywords := h.executor.Keywords(docID, k)
	if keywords == nil {
		h.writeError(w, r, apperrors.Newf(apperrors.ErrTermNotFound, http.StatusNotFound,
			"document %q not found", docID))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"doc_id": docID, "keywords": keywords})
}

// Stats reports term-distribution statistics for the loaded index.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.executor.Stats())
}

// CacheStats reports query cache hit/miss counters.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": hitRate,
	})
}

// CacheInvalidate drops every cached query result.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, r, apperrors.New(apperrors.ErrIndexNotReady, http.StatusServiceUnavailable,
			"caching is disabled"))
		return
	}
	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, r, apperrors.New(apperrors.ErrInternal, http.StatusInternalServerError,
			"cache invalidation failed"))
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

type resultKind string

const (
	resultHit         resultKind = "hit"
	resultZero        resultKind = "zero_result"
	resultTermMissing resultKind = "term_missing"
	resultError       resultKind = "error"
)

func classify(hits, missing int) resultKind {
	switch {
	case missing > 0:
		return resultTermMissing
	case hits == 0:
		return resultZero
	default:
		return resultHit
	}
}

// serve runs the shared query plumbing: parameter checks, cache lookup,
// metrics, and response writing.
func (h *Handler) serve(
	w http.ResponseWriter,
	r *http.Request,
	kind string,
	run func(query string, limit int) (any, resultKind, error),
	limit int,
) {
	start := time.Now()
	log := logger.FromContext(r.Context())

	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
			"query parameter 'q' is required"))
		return
	}

	// Default covers cache hits and computations shared via singleflight.
	kindResult := resultHit
	cacheHit := false
	if h.cache != nil {
		data, hit, err := h.cache.GetOrCompute(r.Context(), kind, query, limit, func() (any, error) {
			result, rk, err := run(query, limit)
			kindResult = rk
			if err != nil {
				return nil, err
			}
			return result, nil
		})
		if err != nil {
			h.observe(kind, resultError, start)
			h.writeError(w, r, err)
			return
		}
		cacheHit = hit
		if cacheHit {
			h.metrics.CacheHitsTotal.Inc()
		} else {
			h.metrics.CacheMissesTotal.Inc()
		}
		h.observe(kind, kindResult, start)
		log.Info("query served", "kind", kind, "query", query, "cache_hit", cacheHit,
			"latency_ms", time.Since(start).Milliseconds())
		h.writeRawJSON(w, data)
		return
	}

	result, kindResult, err := run(query, limit)
	if err != nil {
		h.observe(kind, resultError, start)
		h.writeError(w, r, err)
		return
	}
	h.observe(kind, kindResult, start)
	log.Info("query served", "kind", kind, "query", query, "cache_hit", false,
		"latency_ms", time.Since(start).Milliseconds())
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) observe(kind string, rk resultKind, start time.Time) {
	h.metrics.QueriesTotal.WithLabelValues(kind, string(rk)).Inc()
	h.metrics.QueryLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (h *Handler) parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limit := h.defaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			h.writeError(w, r, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest,
				"limit must be a positive integer"))
			return 0, false
		}
		if parsed > h.maxResults {
			parsed = h.maxResults
		}
		limit = parsed
	}
	return limit, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeRawJSON(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatusCode(err)
	message := err.Error()
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	logger.FromContext(r.Context()).Warn("request failed",
		"path", r.URL.Path, "status", status, "error", err)
	h.writeJSON(w, status, map[string]string{"error": message})
}
