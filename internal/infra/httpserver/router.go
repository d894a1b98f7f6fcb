package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/slim-leaderboard-web/internal/application/analysis"
	domain "github.com/bryanwahyu/slim-leaderboard-web/internal/domain/leaderboard"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/infra/web"
	"github.com/bryanwahyu/slim-leaderboard-web/internal/middleware"
)

// maxBodyBytes bounds the analyze request body.
const maxBodyBytes = 64 << 10

type Options struct {
	Assets          *web.Assets
	TokenConfigured func() bool
	// APIKeys protects the analyze, runs and metrics routes when non-empty.
	APIKeys map[string]string
	// RateLimiter throttles /api/analyze; nil disables it.
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Readiness      map[string]middleware.HealthChecker
}

type Router struct {
	analysisSvc *appanalysis.Service
}

func NewRouter(analysisSvc *appanalysis.Service, opts Options) http.Handler {
	r := &Router{analysisSvc: analysisSvc}
	if opts.Assets == nil {
		opts.Assets = web.NewAssets("")
	}
	if opts.TokenConfigured == nil {
		opts.TokenConfigured = func() bool { return false }
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/", opts.Assets.Handler(web.IndexPage))
	mux.Get("/styles.css", opts.Assets.Handler(web.Stylesheet))
	mux.Get("/script.js", opts.Assets.Handler(web.Script))

	mux.Route("/api", func(rt chi.Router) {
		if len(opts.AllowedOrigins) > 0 {
			rt.Use(cors.Handler(cors.Options{
				AllowedOrigins: opts.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
				MaxAge:         300,
			}))
		}

		rt.Get("/health", middleware.HealthHandler(opts.TokenConfigured))
		rt.Get("/ready", middleware.ReadinessHandler(opts.Readiness))

		rt.Group(func(protected chi.Router) {
			protected.Use(middleware.APIKeyAuth(opts.APIKeys))
			protected.With(middleware.RateLimit(opts.RateLimiter)).
				Post("/analyze", r.wrap(r.handleAnalyze))
			protected.Get("/runs", r.wrap(r.handleRuns))
			protected.Get("/metrics", middleware.MetricsHandler)
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap converts returned errors into a JSON {"error": ...} payload.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		if errors.Is(err, appanalysis.ErrHistoryDisabled) {
			writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
			return
		}

		var derr *domain.Error
		if errors.As(err, &derr) {
			writeJSON(w, derr.Kind.HTTPStatus(), errorBody{Error: derr.Message})
			return
		}
		zap.L().Error("unexpected error", zap.String("path", req.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error: " + err.Error()})
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to write response", zap.Error(err))
	}
}

// POST /api/analyze
// Body: {"repository_url": "...", "target_type": "repository", "output_format": "TABLE", ...}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body domain.RawAnalysisRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	// body kosong diperlakukan sama seperti {}
	if err := dec.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		zap.L().Info("rejected analyze request body", zap.Error(err))
		return domain.ErrInvalidBody
	}
	body.RepositoryURL = middleware.SanitizeString(body.RepositoryURL)
	body.TargetType = middleware.SanitizeString(body.TargetType)
	body.OutputFormat = middleware.SanitizeString(body.OutputFormat)

	done := middleware.AnalysisStarted()
	result, err := r.analysisSvc.Analyze(req.Context(), body)
	kind := domain.KindOf(err)
	done(err != nil && kind != domain.KindValidation, kind == domain.KindTimeout && err != nil)
	if err != nil {
		return err
	}

	writeJSON(w, http.StatusOK, result)
	return nil
}

// GET /api/runs?limit=20
func (r *Router) handleRuns(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))

	list, err := r.analysisSvc.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, list)
	return nil
}
