package middleware

import (
	"net/http"
	"time"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/pkg"

	log "github.com/sirupsen/logrus"
)

// LogRequest logs every request once it is served. It has to run inside the auth
// middleware to see the principal.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			begin := time.Now()
			resp := newResponseWriter(w)

			next.ServeHTTP(resp, r)

			fields := log.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   resp.statusCode,
				"ip":       pkg.ClientIP(r),
				"duration": time.Since(begin).String(),
			}
			p := caller.PrincipalFrom(r.Context())
			switch {
			case p.Operator:
				fields["principal"] = "operator"
			case p.UserID != "":
				fields["principal"] = p.UserID
			}

			entry := log.WithFields(fields)
			if resp.statusCode >= http.StatusInternalServerError {
				entry.Warnln("request served")
				return
			}
			entry.Debugln("request served")
		})
	}
}
