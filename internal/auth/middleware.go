package auth

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware verifies "Authorization: Bearer <token>" and stores the session
// in the request context. With required=false requests without a header pass
// through anonymously; a bad token is always rejected and signs the monitor
// out.
func Middleware(v *Verifier, m *Monitor, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				if required {
					unauthorized(w, "missing bearer token")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				unauthorized(w, "authorization header must be 'Bearer <token>'")
				return
			}

			s, err := v.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				slog.WarnContext(r.Context(), "Rejected bearer token", "path", r.URL.Path, "error", err)
				if m != nil {
					m.SignOut()
				}
				unauthorized(w, "invalid or expired token")
				return
			}
			if m != nil {
				m.Observe(s)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="hotelpro"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
