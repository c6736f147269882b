package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/telemetry/tracing"
	"github.com/2beens/dailymetrics/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mock.go -package=middleware

const OperatorSecretHeader = "X-Operator-Secret"

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (string, error)
}

type operatorVerifier interface {
	Verify(secret string) bool
}

type AuthMiddlewareHandler struct {
	sessions     sessionResolver
	operator     operatorVerifier
	allowedPaths map[string]bool
}

func NewAuthMiddlewareHandler(sessions sessionResolver, operator operatorVerifier) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		sessions: sessions,
		operator: operator,
		allowedPaths: map[string]bool{
			"/health": true,
		},
	}
}

// AuthCheck resolves the request credentials into a caller.Principal stored in the
// request context. Operator secret takes precedence over a bearer token.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			if secret := r.Header.Get(OperatorSecretHeader); secret != "" {
				if !h.operator.Verify(secret) {
					log.Warnf("[auth middleware] invalid operator secret from %s => %s", pkg.ClientIP(r), r.URL.Path)
					unauthorized(w)
					span.SetStatus(codes.Error, "invalid-operator-secret")
					return
				}
				span.SetStatus(codes.Ok, "ok-operator")
				next.ServeHTTP(w, r.WithContext(caller.WithPrincipal(ctx, caller.Principal{Operator: true})))
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				unauthorized(w)
				span.SetStatus(codes.Error, "missing-auth-token")
				return
			}

			userID, err := h.sessions.Resolve(ctx, token)
			if err != nil {
				log.Debugf("[failed session check] => %s: %s", r.URL.Path, err)
				unauthorized(w)
				span.SetStatus(codes.Error, "session-resolve-err")
				span.RecordError(err)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(caller.WithPrincipal(ctx, caller.Principal{UserID: userID})))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	pkg.WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"ok":    false,
		"error": caller.ErrUnauthenticated.Error(),
	})
}
