package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"

	"vcontest/internal/domain/model"
)

// SessionTokens seals store-issued session tokens into signed cookies so forged
// or expired cookies are rejected before the identity store is consulted.
type SessionTokens struct {
	auth *jwtauth.JWTAuth
}

func NewSessionTokens(key []byte) *SessionTokens {
	return &SessionTokens{auth: jwtauth.New("HS256", key, nil)}
}

// Auth exposes the verifier used by the request pipeline.
func (s *SessionTokens) Auth() *jwtauth.JWTAuth {
	return s.auth
}

func (s *SessionTokens) Seal(session *model.Session) (string, error) {
	claims := jwt.MapClaims{
		"sub": session.InternalUserID,
		"sid": session.Token,
		"exp": session.ExpiresAt.Unix(),
		"iat": time.Now().Unix(),
	}
	_, tokenString, err := s.auth.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["sub"].(string)
	if !ok || id == "" {
		return "", errors.New("sub claim is missing or not a string")
	}
	return id, nil
}

func GetSessionIDFromClaims(claims jwt.MapClaims) (string, error) {
	sid, ok := claims["sid"].(string)
	if !ok || sid == "" {
		return "", errors.New("sid claim is missing or not a string")
	}
	return sid, nil
}
