package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/wbnlp/docmap/pkg/choropleth"
	"github.com/wbnlp/docmap/pkg/colorscale"
	"github.com/wbnlp/docmap/pkg/mapstyle"
	"github.com/wbnlp/docmap/pkg/metrics"
	"github.com/wbnlp/docmap/pkg/render"
	"github.com/wbnlp/docmap/pkg/rowsource"
)

const (
	maxBodyBytes   = 10 << 20
	cacheKeyPrefix = "docmap:figure:"
)

// Opener resolves a source spec from a request.
type Opener func(ctx context.Context, spec string) (rowsource.Source, error)

type Options struct {
	Host string
	Port int

	Theme         mapstyle.Theme
	Scale         colorscale.Scale
	DynamicColors bool
	// Defaults for requests that omit trend or sort.
	Trend     bool
	SortYears bool

	Open     Opener
	Cache    Cache
	CacheTTL time.Duration

	CORSOrigins []string
}

// service represents the HTTP service.
type service struct {
	Host   string
	Port   int
	opts   Options
	server *http.Server

	styleMu sync.RWMutex
	theme   mapstyle.Theme
	scale   colorscale.Scale
}

// New creates a new service instance.
func New(opts Options) *service {
	if opts.Open == nil {
		opts.Open = func(ctx context.Context, spec string) (rowsource.Source, error) {
			return rowsource.Open(ctx, spec, rowsource.OpenOptions{Policy: &rowsource.Policy{}})
		}
	}
	return &service{
		Host:  opts.Host,
		Port:  opts.Port,
		opts:  opts,
		theme: opts.Theme,
		scale: opts.Scale,
	}
}

// SetStyle replaces the theme and scale used by later stylesheet requests.
func (s *service) SetStyle(theme mapstyle.Theme, scale colorscale.Scale) {
	s.styleMu.Lock()
	defer s.styleMu.Unlock()
	s.theme = theme
	s.scale = scale
}

func (s *service) style() (mapstyle.Theme, colorscale.Scale) {
	s.styleMu.RLock()
	defer s.styleMu.RUnlock()
	return s.theme, s.scale
}

// Handler builds the router.
func (s *service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(countRequests)

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/scales", s.handleScales)
		r.Get("/choropleth", s.handleGetChoropleth)
		r.Post("/choropleth", s.handlePostChoropleth)
		r.Get("/page", s.handlePage)
		r.Post("/mapcss", s.handleMapCSS)
	})
	r.Handle("/metrics", metrics.Handler())
	return r
}

// Start runs the HTTP server.
func (s *service) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	slog.Info("Starting HTTP service", "address", addr)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 3 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *service) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}

func (s *service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *service) handleScales(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string][]string{"scales": colorscale.Names()})
}

func (s *service) figureOptions(r *http.Request) (choropleth.Options, error) {
	trend, err := queryBool(r, "trend", s.opts.Trend)
	if err != nil {
		return choropleth.Options{}, err
	}
	sorted, err := queryBool(r, "sort", s.opts.SortYears)
	if err != nil {
		return choropleth.Options{}, err
	}
	return choropleth.Options{Trend: trend, SortYears: sorted}, nil
}

func (s *service) handleGetChoropleth(w http.ResponseWriter, r *http.Request) {
	spec := r.URL.Query().Get("source")
	if spec == "" {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "Missing source"})
		return
	}
	opts, err := s.figureOptions(r)
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	key := cacheKey(spec, opts)
	if body, ok := s.cacheGet(r.Context(), key); ok {
		s.respondRaw(w, http.StatusOK, "application/json", body)
		return
	}

	fig, err := s.loadFigure(r.Context(), spec, opts)
	if err != nil {
		s.respond(w, sourceStatus(err), map[string]string{"error": err.Error()})
		return
	}

	body, err := json.Marshal(fig)
	if err != nil {
		s.respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.cacheSet(r.Context(), key, body)
	s.respondRaw(w, http.StatusOK, "application/json", body)
}

func (s *service) handlePostChoropleth(w http.ResponseWriter, r *http.Request) {
	opts, err := s.figureOptions(r)
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	rows, err := rowsource.ParseCSV(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	s.respond(w, http.StatusOK, assemble(rows, opts))
}

func (s *service) handlePage(w http.ResponseWriter, r *http.Request) {
	spec := r.URL.Query().Get("source")
	if spec == "" {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "Missing source"})
		return
	}
	opts, err := s.figureOptions(r)
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	fig, err := s.loadFigure(r.Context(), spec, opts)
	if err != nil {
		s.respond(w, sourceStatus(err), map[string]string{"error": err.Error()})
		return
	}
	page, err := render.Page(fig, "", render.PageOptions{})
	if err != nil {
		s.respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.respondRaw(w, http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *service) handleMapCSS(w http.ResponseWriter, r *http.Request) {
	dynamic, err := queryBool(r, "dynamic", s.opts.DynamicColors)
	if err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var values colorscale.Values
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&values); err != nil {
		s.respond(w, http.StatusBadRequest, map[string]string{"error": "Invalid values: " + err.Error()})
		return
	}

	theme, scale := s.style()
	css, err := mapstyle.Stylesheet(theme, values, scale, dynamic)
	if err != nil {
		s.respond(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	s.respondRaw(w, http.StatusOK, "text/css; charset=utf-8", []byte(css))
}

// loadFigure fetches a source and assembles its figure.
func (s *service) loadFigure(ctx context.Context, spec string, opts choropleth.Options) (*choropleth.Figure, error) {
	src, err := s.opts.Open(ctx, spec)
	if err != nil {
		metrics.SourceFailuresTotal.Inc()
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	start := time.Now()
	var res rowsource.Result
	select {
	case res = <-rowsource.Fetch(ctx, src):
	case <-ctx.Done():
		res.Err = ctx.Err()
	}
	metrics.FetchDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	if res.Err != nil {
		metrics.SourceFailuresTotal.Inc()
		return nil, res.Err
	}
	return assemble(res.Rows, opts), nil
}

// sourceStatus maps a source error to a response code.
func sourceStatus(err error) int {
	switch {
	case errors.Is(err, rowsource.ErrSourceNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, rowsource.ErrUnsupportedSource):
		return http.StatusBadRequest
	}
	return http.StatusBadGateway
}

func assemble(rows []choropleth.Row, opts choropleth.Options) *choropleth.Figure {
	start := time.Now()
	fig := choropleth.Assemble(rows, opts)
	metrics.AssembleDurationMs.Observe(float64(time.Since(start).Milliseconds()))
	return fig
}

// caching reports whether figures are cached. A zero TTL disables the cache
// so redis never holds entries without expiry.
func (s *service) caching() bool {
	return s.opts.Cache != nil && s.opts.CacheTTL > 0
}

func (s *service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if !s.caching() {
		return nil, false
	}
	body, ok, err := s.opts.Cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Cache lookup failed", "key", key, "error", err)
	}
	if !ok || err != nil {
		metrics.CacheMissesTotal.Inc()
		return nil, false
	}
	metrics.CacheHitsTotal.Inc()
	return body, true
}

func (s *service) cacheSet(ctx context.Context, key string, body []byte) {
	if !s.caching() {
		return
	}
	if err := s.opts.Cache.Set(ctx, key, body, s.opts.CacheTTL); err != nil {
		slog.Warn("Cache store failed", "key", key, "error", err)
	}
}

func cacheKey(spec string, opts choropleth.Options) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s\x00%t\x00%t", spec, opts.Trend, opts.SortYears)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func queryBool(r *http.Request, key string, fallback bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", key, v)
	}
	return b, nil
}

func (s *service) respond(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func (s *service) respondRaw(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
