package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/creamcroissant/fpbrowser/internal/browser"
	"github.com/creamcroissant/fpbrowser/internal/fingerprint"
	"github.com/creamcroissant/fpbrowser/internal/service"
)

// ErrorBody 是失败响应体。
type ErrorBody struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	respondJSON(w, status, ErrorBody{Error: err.Error()})
}

// statusFor 把业务错误映射为 HTTP 状态码。
func statusFor(err error) int {
	var blacklist *fingerprint.BlacklistError
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &blacklist),
		errors.Is(err, ErrBadParams),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidLicense):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownCommand),
		errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrProfileNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNameExists),
		errors.Is(err, service.ErrUsernameExists),
		errors.Is(err, service.ErrProfileRunning),
		errors.Is(err, service.ErrDefaultGroup),
		errors.Is(err, service.ErrGroupNotEmpty),
		errors.Is(err, service.ErrGroupReadonly),
		errors.Is(err, service.ErrNotInRecycleBin),
		errors.Is(err, browser.ErrBrowsersRunning),
		errors.Is(err, browser.ErrKernelNotInstalled):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, service.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

type bearerKey struct{}

// withBearer 把 Authorization 头中的令牌放入上下文。
func withBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && strings.TrimSpace(token) != "" {
			r = r.WithContext(context.WithValue(r.Context(), bearerKey{}, strings.TrimSpace(token)))
		}
		next.ServeHTTP(w, r)
	})
}

// tokenFrom 优先使用参数中的令牌，其次是 Bearer 头。
func tokenFrom(ctx context.Context, explicit string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}
