package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/zhouzirui/z-honeypot/backend/pkg/utils"
)

// APIKeyHeader carries the shared secret on every API request.
const APIKeyHeader = "x-api-key"

// APIKey rejects requests that do not present key in the x-api-key header or
// the apiKey query parameter. The query form exists for websocket clients,
// which cannot set headers. An empty key disables the check.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			if presented == "" {
				presented = r.URL.Query().Get("apiKey")
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				utils.RespondError(w, http.StatusUnauthorized, "invalid or missing api key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
