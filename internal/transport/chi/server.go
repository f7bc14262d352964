// Package chi exposes the search and recommendation API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/glowmart/aisearch/internal/domain"
	"github.com/glowmart/aisearch/internal/domain/page"
	"github.com/glowmart/aisearch/internal/logger"
	"github.com/glowmart/aisearch/internal/metrics"
	"github.com/glowmart/aisearch/internal/repository/prefs"
	"github.com/glowmart/aisearch/internal/usecase/ranking"
	"github.com/glowmart/aisearch/internal/usecase/recommend"
	searchuc "github.com/glowmart/aisearch/internal/usecase/search"
)

// sessionCookie carries the storefront session id.
const sessionCookie = "gm_session"

// Server wires the usecases into HTTP handlers.
type Server struct {
	search *searchuc.Service
	recs   *recommend.Engine
	prefs  *prefs.Repository
	health Pinger
	logger *zap.Logger
}

// Pinger checks a dependency for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewServer creates the API server.
func NewServer(
	search *searchuc.Service,
	recs *recommend.Engine,
	preferences *prefs.Repository,
	health Pinger,
	logger *zap.Logger,
) *Server {
	return &Server{search: search, recs: recs, prefs: preferences, health: health, logger: logger}
}

// Router builds the chi router with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(metrics.Middleware())

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/recommendations/homepage", s.handleHomepage)
		r.Get("/recommendations/pdp", s.handlePDP)
		r.Get("/recommendations/similar", s.handleSimilar)
		r.Get("/preferences", s.handleGetPreferences)
		r.Post("/preferences", s.handleUpdatePreferences)
		r.Delete("/preferences", s.handleResetPreferences)
	})

	return r
}

// searchResponse is the search payload shape served to the storefront.
type searchResponse struct {
	Intent               *domain.Intent         `json:"intent,omitempty"`
	IntentExplanation    string                 `json:"intentExplanation,omitempty"`
	SuggestedRefinements []string               `json:"suggestedRefinements,omitempty"`
	Products             []domain.RankedProduct `json:"products"`
	Pagination           pagination             `json:"pagination"`
	QueryTimeMs          int64                  `json:"queryTimeMs"`
}

type pagination struct {
	NextCursor string `json:"nextCursor,omitempty"`
	PrevCursor string `json:"prevCursor,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	direction, err := page.ParseDirection(q.Get("direction"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	sessionID := s.sessionID(r)
	query, err := domain.NewQuery(q.Get("q"), q.Get("channel"), q.Get("userId"), sessionID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			s.writeDomainError(w, r, domain.NewValidationError("INVALID_LIMIT", "limit must be an integer"))
			return
		}
	}

	result, err := s.search.Search(r.Context(), searchuc.Params{
		Query:     query,
		Limit:     limit,
		Cursor:    q.Get("cursor"),
		Direction: direction,
		Actor:     actor(query, r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	products := result.Page.Products
	if products == nil {
		products = []domain.RankedProduct{}
	}
	writeData(w, http.StatusOK, searchResponse{
		Intent:               result.Intent,
		IntentExplanation:    result.IntentExplanation,
		SuggestedRefinements: result.SuggestedRefinements,
		Products:             products,
		Pagination:           pagination{NextCursor: result.Page.NextCursor, PrevCursor: result.Page.PrevCursor},
		QueryTimeMs:          result.QueryTimeMs,
	})
}

func (s *Server) handleHomepage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := s.sessionID(r)

	sections, err := s.recs.Homepage(r.Context(), recommend.HomepageParams{
		Channel:   q.Get("channel"),
		UserID:    q.Get("userId"),
		SessionID: sessionID,
		Actor:     actorFrom(q.Get("userId"), sessionID, r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{"sections": sections})
}

func (s *Server) handlePDP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := s.sessionID(r)

	result, err := s.recs.PDP(r.Context(), recommend.PDPParams{
		ProductID: q.Get("productId"),
		Channel:   q.Get("channel"),
		UserID:    q.Get("userId"),
		SessionID: sessionID,
		Actor:     actorFrom(q.Get("userId"), sessionID, r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	variant, err := ranking.ParsePriceVariant(q.Get("priceVariant"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			s.writeDomainError(w, r, domain.NewValidationError("INVALID_LIMIT", "limit must be an integer"))
			return
		}
	}

	sessionID := s.sessionID(r)
	rec, err := s.recs.Similar(r.Context(), recommend.SimilarParams{
		ProductID:    q.Get("productId"),
		Channel:      q.Get("channel"),
		Limit:        limit,
		PriceVariant: variant,
		Actor:        actorFrom(q.Get("userId"), sessionID, r),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, rec)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if s.health != nil {
		if err := s.health.Ping(ctx); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]string{"status": status})
}

// requestLogger puts a logger carrying the request id on the context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), l)))
	})
}

// sessionID reads the session cookie, empty when absent.
func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// actor resolves the rate-limit identity: user, session, then client address.
func actor(q domain.Query, r *http.Request) string {
	if a := q.Actor(); a != "" {
		return a
	}
	return clientAddr(r)
}

func actorFrom(userID, sessionID string, r *http.Request) string {
	if userID != "" {
		return userID
	}
	if sessionID != "" {
		return sessionID
	}
	return clientAddr(r)
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// envelope shapes -------------------------------------------------------------

type errorBody struct {
	Type        domain.ErrorType `json:"type"`
	Message     string           `json:"message"`
	Code        string           `json:"code"`
	IsRetryable bool             `json:"isRetryable"`
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"ok": true, "data": data})
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	de := domain.AsError(err)
	status := statusFor(de.Type)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("Request failed", zap.String("code", de.Code), zap.Error(err))
	}
	writeJSON(w, status, map[string]any{"ok": false, "error": errorBody{
		Type:        de.Type,
		Message:     de.Message,
		Code:        de.Code,
		IsRetryable: de.Retryable,
	}})
}

func statusFor(t domain.ErrorType) int {
	switch t {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNoData:
		return http.StatusNotFound
	case domain.ErrorTypeRateLimited:
		return http.StatusTooManyRequests
	case domain.ErrorTypeAIService, domain.ErrorTypeUpstream:
		return http.StatusBadGateway
	case domain.ErrorTypeStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
