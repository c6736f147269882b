package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/dailymetrics/internal/telemetry/metrics"
	"github.com/2beens/dailymetrics/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type panicResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PanicRecovery answers a panicking handler with the API's 500 body, so clients of the
// derivation endpoints always get {ok:false, error}.
func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}

				routeName := "unknown"
				if route := mux.CurrentRoute(req); route != nil && route.GetName() != "" {
					routeName = route.GetName()
				}
				log.WithFields(log.Fields{
					"route":  routeName,
					"method": req.Method,
					"path":   req.URL.Path,
				}).Errorf("http: panic serving request: %v\n%s", r, debug.Stack())

				if metricsManager != nil {
					metricsManager.CounterHandleRequestPanic.Inc()
				}
				pkg.WriteJSON(respWriter, http.StatusInternalServerError, panicResponse{Error: "internal error"})
			}()

			next.ServeHTTP(respWriter, req)
		})
	}
}
