package httpapi

import (
	"net/http"

	"github.com/sage-x-project/didmediator/auth"
	"github.com/sage-x-project/didmediator/health"
	"github.com/sage-x-project/didmediator/inbound"
	"github.com/sage-x-project/didmediator/internal/logger"
	"github.com/sage-x-project/didmediator/internal/metrics"
	"github.com/sage-x-project/didmediator/mailbox"
	"github.com/sage-x-project/didmediator/streaming"
)

// Server wires C4/C6/C3/C7/health behind the route table of spec.md §6.
type Server struct {
	authService *auth.Service
	pipeline    *inbound.Pipeline
	store       mailbox.Store
	ws          *streaming.WSServer
	checker     *health.HealthChecker

	limits       mailbox.Limits
	maxBodyBytes int64
	corsOrigins  []string

	log logger.Logger
}

// Config bundles the dependencies and knobs Server needs, collected
// from the mediator's TOML config (SPEC_FULL.md §6).
type Config struct {
	AuthService  *auth.Service
	Pipeline     *inbound.Pipeline
	Store        mailbox.Store
	WS           *streaming.WSServer
	Checker      *health.HealthChecker
	Limits       mailbox.Limits
	MaxBodyBytes int64
	CORSOrigins  []string
}

// New constructs a Server ready for Handler().
func New(cfg Config) *Server {
	return &Server{
		authService:  cfg.AuthService,
		pipeline:     cfg.Pipeline,
		store:        cfg.Store,
		ws:           cfg.WS,
		checker:      cfg.Checker,
		limits:       cfg.Limits,
		maxBodyBytes: cfg.MaxBodyBytes,
		corsOrigins:  cfg.CORSOrigins,
		log:          logger.GetDefaultLogger(),
	}
}

// Handler builds the *http.ServeMux registering every route in
// spec.md §6, plus the ambient /health and /metrics routes
// SPEC_FULL.md adds.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /authenticate/challenge", s.withCORS(s.withSizeLimit(s.handleAuthChallenge)))
	mux.HandleFunc("POST /authenticate", s.withCORS(s.withSizeLimit(s.handleAuthenticate)))
	mux.HandleFunc("POST /inbound", s.withCORS(s.withSizeLimit(s.requireAuth(s.handleInbound))))
	mux.HandleFunc("POST /messages/list", s.withCORS(s.withSizeLimit(s.requireAuth(s.handleMessagesList))))
	mux.HandleFunc("POST /messages/fetch", s.withCORS(s.withSizeLimit(s.requireAuth(s.handleMessagesFetch))))
	mux.HandleFunc("POST /messages/delete", s.withCORS(s.withSizeLimit(s.requireAuth(s.handleMessagesDelete))))
	mux.HandleFunc("GET /ws", s.withCORS(s.requireAuth(s.handleWS)))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return mux
}
