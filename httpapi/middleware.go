package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/sage-x-project/didmediator/errs"
	"github.com/sage-x-project/didmediator/sessionctx"
)

type sessionKey struct{}

// withSession attaches sess to ctx for downstream handlers.
func withSession(ctx context.Context, sess sessionctx.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// sessionFromContext retrieves the Session a prior requireAuth call
// attached to the request.
func sessionFromContext(ctx context.Context) (sessionctx.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(sessionctx.Session)
	return sess, ok
}

// requireAuth validates the bearer token and builds a request-scoped
// Session (C8), rejecting with AuthFailed when absent or invalid
// (spec.md §4.4: "Subsequent requests carry Authorization: Bearer
// <access_token>; the bearer validation step populates a Session").
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			writeError(w, "", errs.New(errs.AuthFailed, "missing bearer token", nil))
			return
		}

		did, err := s.authService.Validate(strings.TrimPrefix(header, prefix))
		if err != nil {
			writeError(w, "", err)
			return
		}

		sess := sessionctx.New(did, s.limits)
		r = r.WithContext(withSession(r.Context(), sess))
		next(w, r)
	}
}

// withSizeLimit caps the request body at maxBytes, grounded on
// spec.md §6's http_size_limit config key.
func (s *Server) withSizeLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
		next(w, r)
	}
}

// withCORS applies the configured allow-origin policy. An empty
// corsOrigins allow-list means allow any origin (spec.md §6: "CORS is
// configurable; default allows any origin").
func (s *Server) withCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.corsAllowAny() {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && s.corsAllowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

func (s *Server) corsAllowAny() bool {
	return len(s.corsOrigins) == 0
}

func (s *Server) corsAllowed(origin string) bool {
	for _, o := range s.corsOrigins {
		if o == origin {
			return true
		}
	}
	return false
}
