package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ogg1996/ggdevlog/internal/auth"
	"github.com/ogg1996/ggdevlog/internal/telemetry/tracing"
	"github.com/ogg1996/ggdevlog/pkg"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

// AccessGateHandler guards every mutating route behind the admin
// session cookie. Read routes stay public, so the gate has to look at
// the method as well as the path: GET /activity is open to anyone
// while POST /activity is admin-only.
type AccessGateHandler struct {
	tokenIssuer *auth.TokenIssuer

	// always public, any method
	openPaths map[string]bool
	// public for safe methods only
	readablePathPrefixes []string
}

func NewAccessGateHandler(tokenIssuer *auth.TokenIssuer) *AccessGateHandler {
	return &AccessGateHandler{
		tokenIssuer: tokenIssuer,
		openPaths: map[string]bool{
			"/auth/login":  true,
			"/auth/logout": true,

			"/":        true,
			"/version": true,
		},
		readablePathPrefixes: []string{
			"/board",
			"/post",
			"/introduce",
			"/activity",
		},
	}
}

func (h *AccessGateHandler) pathIsReadable(path string) bool {
	for _, prefix := range h.readablePathPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

func methodIsSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead:
		return true
	}
	return false
}

func (h *AccessGateHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			// browser preflight requests carry no cookies
			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if h.openPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "open-path")
				next.ServeHTTP(w, r)
				return
			}

			if methodIsSafe(r.Method) && h.pathIsReadable(r.URL.Path) {
				span.SetStatus(codes.Ok, "public-read")
				next.ServeHTTP(w, r)
				return
			}

			token := auth.SessionTokenFromRequest(r)
			claims, err := h.tokenIssuer.Verify(token)
			if err != nil {
				switch {
				case errors.Is(err, auth.ErrTokenMissing):
					log.Tracef("[missing token] [access gate] unauthorized => %s %s", r.Method, r.URL.Path)
					pkg.WriteFail(w, "인증 토큰 없음", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "missing-token")
				case errors.Is(err, auth.ErrTokenExpired):
					log.Tracef("[expired token] [access gate] unauthorized => %s %s", r.Method, r.URL.Path)
					pkg.WriteFail(w, "만료된 인증 토큰", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "expired-token")
				default:
					log.Tracef("[invalid token] [access gate] unauthorized => %s %s", r.Method, r.URL.Path)
					pkg.WriteFail(w, "유효하지 않은 인증 토큰", http.StatusUnauthorized)
					span.SetStatus(codes.Error, "invalid-token")
					span.RecordError(err)
				}
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}
