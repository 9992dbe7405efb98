package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"vcontest/internal/app/service"
	"vcontest/internal/common"
	"vcontest/internal/platform/metrics"
)

// CookieConfig describes the session cookie issued after login.
type CookieConfig struct {
	Name     string
	Secure   bool
	Redirect string
}

type AuthHandler struct {
	authService *service.AuthService
	cookie      CookieConfig
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

func NewAuthHandler(authService *service.AuthService, cookie CookieConfig, m *metrics.Metrics, log logrus.FieldLogger) *AuthHandler {
	return &AuthHandler{authService: authService, cookie: cookie, metrics: m, log: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/authorize", h.authorize)
}

// authorize is the OAuth callback: it exchanges ?code= for a session cookie
// and redirects to the frontend.
func (h *AuthHandler) authorize(w http.ResponseWriter, r *http.Request) {
	result, err := h.authService.Login(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		h.metrics.ObserveOAuth(oauthResult(err))
		if common.HTTPStatusFromError(err) == http.StatusBadGateway {
			h.log.WithError(err).Warn("oauth exchange failed")
		}
		respondError(w, r, h.log, err)
		return
	}
	h.metrics.ObserveOAuth("success")

	maxAge := int(time.Until(result.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    result.SessionToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.log.WithField("internal_user_id", result.User.InternalUserID).Info("user signed in")

	redirect := h.cookie.Redirect
	if redirect == "" {
		redirect = "/"
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

func oauthResult(err error) string {
	switch common.HTTPStatusFromError(err) {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusBadGateway:
		return "upstream_error"
	default:
		return "error"
	}
}
