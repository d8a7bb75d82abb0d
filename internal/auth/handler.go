package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ogg1996/ggdevlog/internal/telemetry/metrics"
	"github.com/ogg1996/ggdevlog/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type loginRequest struct {
	Password string `json:"pw"`
}

type Handler struct {
	admin        *Admin
	tokenIssuer  *TokenIssuer
	throttle     *LoginThrottle
	cookieSecure bool
	instr        *metrics.Manager
}

type NewHandlerParams struct {
	Admin        *Admin
	TokenIssuer  *TokenIssuer
	Throttle     *LoginThrottle
	CookieSecure bool
	Instr        *metrics.Manager
}

func NewHandler(params NewHandlerParams) *Handler {
	return &Handler{
		admin:        params.Admin,
		tokenIssuer:  params.TokenIssuer,
		throttle:     params.Throttle,
		cookieSecure: params.CookieSecure,
		instr:        params.Instr,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/login", handler.handleLogin).Methods("POST", "OPTIONS").Name("login")
	router.HandleFunc("/logout", handler.handleLogout).Methods("POST", "OPTIONS").Name("logout")
	router.HandleFunc("/accessCheck", handler.handleAccessCheck).Methods("GET", "OPTIONS").Name("access-check")
}

func (handler *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	password, err := loginPasswordFromRequest(r)
	if err != nil {
		log.Warnf("login failed, read request: %s", err)
		pkg.WriteFail(w, "잘못된 요청", http.StatusBadRequest)
		return
	}

	clientKey, err := pkg.ReadUserIP(r)
	if err != nil {
		log.Warnf("login: read client ip: %s", err)
		clientKey = r.RemoteAddr
	}

	allowed, err := handler.throttle.Attempt(r.Context(), clientKey)
	if err != nil {
		log.Errorf("login failed, throttle check: %s", err)
		pkg.WriteFail(w, "서버 오류", http.StatusInternalServerError)
		return
	}
	if !allowed {
		log.Warnf("login throttled for client [%s]", clientKey)
		handler.instr.CounterRateLimitedRequests.Inc()
		pkg.WriteFail(w, "로그인 시도 횟수 초과", http.StatusTooManyRequests)
		return
	}

	if !handler.admin.VerifyPassword(password) {
		log.Warnf("wrong credentials from client [%s]", clientKey)
		handler.instr.CounterFailedLogins.Inc()
		pkg.WriteFail(w, "로그인 실패", http.StatusUnauthorized)
		return
	}

	token, err := handler.tokenIssuer.Issue(time.Now())
	if err != nil {
		log.Errorf("login failed, issue token: %s", err)
		pkg.WriteFail(w, "서버 오류", http.StatusInternalServerError)
		return
	}

	SetSessionCookie(w, token, handler.tokenIssuer.TTL(), handler.cookieSecure)
	handler.instr.CounterLogins.Inc()

	log.Tracef("admin logged in from [%s]", clientKey)
	pkg.WriteSuccess(w, "관리자 권한 승인", nil)
}

func (handler *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "POST, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	// session tokens are not tracked server-side, dropping the cookie
	// is all a logout can do
	ClearSessionCookie(w, handler.cookieSecure)
	pkg.WriteSuccess(w, "관리자 권한 해제", nil)
}

// handleAccessCheck only ever runs for an authenticated admin, the
// access gate rejects everyone else before the router is reached
func (handler *Handler) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Add("Allow", "GET, OPTIONS")
		w.WriteHeader(http.StatusOK)
		return
	}

	pkg.WriteSuccess(w, "접근 승인", nil)
}

func loginPasswordFromRequest(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return "", err
		}
		return r.Form.Get("pw"), nil
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil
		}
		return "", err
	}
	return req.Password, nil
}
