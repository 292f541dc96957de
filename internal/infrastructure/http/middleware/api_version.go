package middleware

import "net/http"

// HeaderAPIVersion advertises the deployed API revision on every response,
// so clients can detect a forced upgrade without a dedicated endpoint.
const HeaderAPIVersion = "X-Api-Version"

// APIVersion stamps responses with the deployed API revision. An empty
// version makes the middleware a pass-through.
func APIVersion(version string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if version == "" {
			return next
		}
		fn := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderAPIVersion, version)
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
