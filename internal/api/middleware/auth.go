package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/sirupsen/logrus"

	"vcontest/internal/common"
	"vcontest/internal/common/security"
)

type contextKey string

const UserIDCtxKey contextKey = "userID"

// SessionResolver is the identity store as seen by the request pipeline.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// TokenFromCookie looks for the sealed session in the named cookie.
func TokenFromCookie(name string) func(r *http.Request) string {
	return func(r *http.Request) string {
		cookie, err := r.Cookie(name)
		if err != nil {
			return ""
		}
		return cookie.Value
	}
}

// SessionPipeline verifies the session cookie and resolves it to a user. It
// never rejects a request: anything short of a live session leaves the request
// unauthenticated and route guards decide. Paths in bypass skip it entirely.
func SessionPipeline(tokens *security.SessionTokens, cookieName string, resolver SessionResolver, log logrus.FieldLogger, bypass []string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(bypass))
	for _, p := range bypass {
		skip[p] = true
	}
	stages := chi.Chain(
		SessionVerifier(tokens, cookieName),
		Authenticator(resolver, log),
	)

	return func(next http.Handler) http.Handler {
		withSession := stages.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			withSession.ServeHTTP(w, r)
		})
	}
}

// SessionVerifier decodes and verifies the session cookie and stores the
// result, token or error, for Authenticator.
func SessionVerifier(tokens *security.SessionTokens, cookieName string) func(http.Handler) http.Handler {
	return jwtauth.Verify(tokens.Auth(), TokenFromCookie(cookieName))
}

// Authenticator resolves the verified session claim against the identity store
// and stores the user id in the request context.
func Authenticator(resolver SessionResolver, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				if err != nil && !errors.Is(err, jwtauth.ErrNoTokenFound) {
					log.WithError(err).Debug("ignoring invalid session cookie")
				}
				next.ServeHTTP(w, r)
				return
			}

			sid, err := security.GetSessionIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			sub, err := security.GetUserIDFromClaims(claims)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.ResolveSession(r.Context(), sid)
			if err != nil {
				if !errors.Is(err, common.ErrUnauthorized) {
					log.WithError(err).Warn("session lookup failed, continuing unauthenticated")
				}
				next.ServeHTTP(w, r)
				return
			}

			// The cookie must name the user the store holds for the session.
			if userID != sub {
				log.WithField("internal_user_id", userID).Warn("session cookie subject does not match stored session")
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDCtxKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireUser rejects requests that carry no resolved identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserIDFromContext(r.Context()); !ok {
			common.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(string)
	return userID, ok && userID != ""
}
