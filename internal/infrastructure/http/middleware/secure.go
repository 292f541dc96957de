package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

// SecurityHeaders hardens every response for the rare case a browser renders
// one; review links and client folder links are opened in browsers. The CSP
// forbids everything since the API serves JSON, not pages. Development mode
// drops the checks that break plain-HTTP local runs.
func SecurityHeaders(isDevelopment bool) func(next http.Handler) http.Handler {
	s := secure.New(secure.Options{
		IsDevelopment:         isDevelopment,
		ContentTypeNosniff:    true,
		FrameDeny:             true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
		STSSeconds:            31536000,
		STSIncludeSubdomains:  true,
	})
	return s.Handler
}
