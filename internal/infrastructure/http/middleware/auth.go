package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trackroom/trackroom/internal/application/ports"
	"github.com/trackroom/trackroom/internal/domain"
)

// PrincipalResolver turns whatever credential the request carries into a
// domain.Principal and stores it in the context. It never rejects: a bad or
// absent credential resolves to anonymous and the authorization engine
// produces the denial, so every path gets the same error taxonomy.
//
// Credentials, in order: a session JWT in Authorization: Bearer, a bearer
// secret in the same header that is not a valid JWT, or a bare secret in
// the token query parameter (review and folder links arrive this way).
type PrincipalResolver struct {
	sessions ports.SessionIssuer
}

func NewPrincipalResolver(sessions ports.SessionIssuer) *PrincipalResolver {
	return &PrincipalResolver{sessions: sessions}
}

func (m *PrincipalResolver) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := m.resolve(r)
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func (m *PrincipalResolver) resolve(r *http.Request) domain.Principal {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		credential := strings.TrimPrefix(auth, "Bearer ")
		if userID, role, err := m.sessions.ValidateSession(credential); err == nil {
			if id, err := uuid.Parse(userID); err == nil {
				return domain.SessionPrincipal(domain.NewUserID(id), domain.Role(role))
			}
		}
		return domain.TokenPrincipal(credential)
	}
	if secret := r.URL.Query().Get("token"); secret != "" {
		return domain.TokenPrincipal(secret)
	}
	return domain.AnonymousPrincipal()
}
