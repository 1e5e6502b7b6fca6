// Package planetfake is an in-memory implementation of the Planet API. It
// backs cmd/planetd for local development and the client's end-to-end tests.
package planetfake

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/planet/pkg/httpx"
	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// BuildVersion is reported by /livez.
const BuildVersion = "v0.1.0"

// Server holds shared dependencies for HTTP handlers.
type Server struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cfg       Config
	logger    *slog.Logger
	startTime time.Time

	state  *state
	tokens *tokenIssuer
}

// NewServer builds the API with every route registered.
func NewServer(cfg Config, logger *slog.Logger) (*Server, error) {
	cfg = cfg.withDefaults()

	tokens, err := newTokenIssuer(cfg.TokenSecret, cfg.Issuer, cfg.TokenTTL, cfg.Now)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Mux:       http.NewServeMux(),
		cfg:       cfg,
		logger:    logger,
		startTime: cfg.Now(),
		state:     newState(cfg.Now, cfg.Location),
		tokens:    tokens,
	}

	s.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(s.logger),
	}

	s.registerAuth()
	s.registerQuests()
	s.registerTiers()
	s.registerSystem()

	return s, nil
}

// ServeHTTP implements http.Handler and applies the global middleware chain.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	httpx.Chain(s.Mux, s.middlewares...).ServeHTTP(w, r)
}

// authed wraps h with bearer authentication and any extra middleware.
func (s *Server) authed(h http.HandlerFunc, extra ...httpx.Middleware) http.Handler {
	return httpx.Chain(h, append([]httpx.Middleware{httpx.BearerAuth(s.tokens.Verify)}, extra...)...)
}

func (s *Server) registerAuth() {
	// Register and login share a strict per-IP limit against brute force.
	s.Mux.Handle("POST /auth/register",
		httpx.Chain(http.HandlerFunc(s.handleRegister),
			httpx.RateLimit(s.cfg.LoginLimit, httpx.IPKeyExtractor),
		),
	)
	s.Mux.Handle("POST /auth/login",
		httpx.Chain(http.HandlerFunc(s.handleLogin),
			httpx.RateLimit(s.cfg.LoginLimit, httpx.IPKeyExtractor),
		),
	)

	s.Mux.Handle("GET /auth/me", s.authed(s.handleMe))
	s.Mux.Handle("PATCH /users/{email}", s.authed(s.handleUpdateUser))
}

func (s *Server) registerQuests() {
	s.Mux.Handle("GET /quest/today", s.authed(s.handleTodayQuest))
	s.Mux.Handle("GET /quest/suggestions", s.authed(s.handleSuggestions))
	s.Mux.Handle("POST /quest/suggestions/generate", s.authed(s.handleGenerate,
		httpx.RateLimit(s.cfg.GenerateLimit, httpx.SubjectKeyExtractor),
	))
	s.Mux.Handle("POST /quest/suggestions/{uuid}/approve", s.authed(s.handleApprove))
	s.Mux.Handle("PUT /quest/{id}/complete", s.authed(s.handleComplete))
	s.Mux.Handle("GET /quest/my", s.authed(s.handleMyQuests))
}

func (s *Server) registerTiers() {
	s.Mux.Handle("GET /tier/current", s.authed(s.handleCurrentTier))
	s.Mux.Handle("GET /tier/{year}/{month}", s.authed(s.handleTierForMonth))
}

func (s *Server) registerSystem() {
	s.Mux.HandleFunc("GET /livez", s.handleLivez)
}

var errorStatus = []struct {
	err  error
	code int
}{
	{errUserExists, http.StatusConflict},
	{errQuestAlreadyToday, http.StatusConflict},
	{errQuestAlreadyDone, http.StatusConflict},
	{errUserNotFound, http.StatusNotFound},
	{errQuestNotFound, http.StatusNotFound},
	{errSuggestionNotFound, http.StatusNotFound},
	{errNoSuggestionsToday, http.StatusNotFound},
	{errMonthInFuture, http.StatusBadRequest},
	{errDateRangeReversed, http.StatusBadRequest},
	{errMissingDateArgument, http.StatusBadRequest},
	{errEvidenceUnreadable, http.StatusBadRequest},
	{errForbiddenOtherUser, http.StatusForbidden},
	{errInvalidCredentials, http.StatusUnauthorized},
}

// writeStateError maps domain errors onto status codes. Anything unexpected
// is logged and reported as a 500.
func writeStateError(w http.ResponseWriter, r *http.Request, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			httpx.WriteError(w, e.code, err.Error())
			return
		}
	}

	slogx.FromContext(r.Context()).Error("request failed", "err", err)
	httpx.WriteError(w, http.StatusInternalServerError, "internal server error")
}
