package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/trackroom/trackroom/internal/domain"
)

// RequireRole returns a middleware that admits only authenticated sessions
// carrying one of the given roles. Link-borne principals never pass; admin
// and maintenance surfaces are session-only.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := PrincipalFromContext(r.Context())
			if !principal.IsSession() {
				writeErr(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !allowed[principal.Role] {
				writeErr(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeErr(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
