package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskpilot/taskpilot/internal/auth"
	"github.com/taskpilot/taskpilot/internal/chat"
	"github.com/taskpilot/taskpilot/internal/task"
)

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Auth        *auth.Service      // Required
	Tokens      *auth.TokenManager // Required
	Tasks       task.Store         // Required
	Chat        *chat.Service      // Required
	Pool        *pgxpool.Pool      // Optional: nil skips the database readiness check
	CORSOrigins []string           // Allowed origins for CORS
	TrustProxy  bool               // Trust X-Real-IP/X-Forwarded-For headers (behind reverse proxy)
	RateBurst   int                // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates a new API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Auth == nil || cfg.Tokens == nil {
		return nil, errors.New("auth service and token manager are required")
	}
	if cfg.Tasks == nil {
		return nil, errors.New("task store is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("chat service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ah := &accountHandler{auth: cfg.Auth, logger: logger}
	th := &taskHandler{store: cfg.Tasks, logger: logger}
	ch := &chatHandler{chat: cfg.Chat, logger: logger}

	// Routes behind bearer auth.
	private := http.NewServeMux()
	private.HandleFunc("GET /api/v1/tasks", th.list)
	private.HandleFunc("POST /api/v1/tasks", th.create)
	private.HandleFunc("GET /api/v1/tasks/{id}", th.get)
	private.HandleFunc("PATCH /api/v1/tasks/{id}", th.update)
	private.HandleFunc("DELETE /api/v1/tasks/{id}", th.delete)
	private.HandleFunc("POST /api/v1/tasks/{id}/complete", th.complete)
	private.HandleFunc("POST /api/v1/chat", ch.send)
	private.HandleFunc("GET /api/v1/conversations/{id}/messages", ch.messages)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/register", ah.register)
	mux.HandleFunc("POST /api/v1/auth/login", ah.login)
	mux.Handle("/api/v1/", authMiddleware(cfg.Tokens, logger)(private))

	// Rate limiter: per-IP token bucket (1 token/sec refill)
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Build middleware stack (outermost first):
	//   Recovery → RequestID → Logging → CORS → RateLimit → Routes
	// RequestID must be before Logging so request_id is available in
	// log attributes. CORS must be before RateLimit so preflight
	// OPTIONS gets proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Top-level mux keeps health probes outside the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", health)
	topMux.Handle("GET /readyz", readiness(cfg.Pool))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
