package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per principal on the routes it wraps.
// Requests without a principal share a bucket per client IP.
func RateLimit(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := rateLimiter.Allow(
				r.Context(),
				rateLimitKey(routerName, r),
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				log.Errorf("rate limit [%s]: %s", routerName, err)
				http.Error(w, "rate limit internal error", http.StatusInternalServerError)
				return
			}

			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.Inc()
			}
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			pkg.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"ok":    false,
				"error": fmt.Sprintf("rate limited, retry after %.1f seconds", res.RetryAfter.Seconds()),
			})
		})
	}
}

func rateLimitKey(routerName string, r *http.Request) string {
	p := caller.PrincipalFrom(r.Context())
	switch {
	case p.Operator:
		return routerName + "||operator"
	case p.UserID != "":
		return routerName + "||user||" + p.UserID
	default:
		return routerName + "||ip||" + pkg.ClientIP(r)
	}
}
