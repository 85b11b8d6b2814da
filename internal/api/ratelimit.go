package api

import (
	"encoding/json/v2"
	"net"
	"net/http"

	"github.com/pintree/pintree-admin/internal/ratelimit"
)

// codeRateLimited is returned with 429 responses. It is transport-level only,
// so it is not one of the domain error codes.
const codeRateLimited = "RATE_LIMITED"

// newImportLimiter creates a pacer admitting perMinute import uploads per
// client, with the full minute's allowance available as a burst.
func newImportLimiter(perMinute int) *ratelimit.Pacer {
	if perMinute <= 0 {
		return ratelimit.New(0, 1)
	}
	return ratelimit.New(float64(perMinute)/60, perMinute)
}

// importRateLimit rejects import uploads from clients over their allowance
// with 429 Too Many Requests. Every other request passes through.
func (s *Server) importRateLimit(limiter *ratelimit.Pacer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !limiter.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != importsPath {
				next.ServeHTTP(w, r)
				return
			}

			key := clientIP(r)
			if !limiter.Allow(key) {
				s.logger.Warn("import rate limit exceeded", "ip", key)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.MarshalWrite(w, newAPIError(http.StatusTooManyRequests, codeRateLimited,
					"too many imports, try again later", nil))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the host part of the request's remote address. The
// RealIP middleware has already applied X-Forwarded-For and X-Real-IP.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
