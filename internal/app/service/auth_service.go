package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vcontest/internal/app/oauth"
	"vcontest/internal/common"
	"vcontest/internal/common/security"
	"vcontest/internal/domain/model"
	"vcontest/internal/domain/repository"
)

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	provider    oauth.Provider
	tokens      *security.SessionTokens
	sessionTTL  time.Duration
	now         func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	provider oauth.Provider,
	tokens *security.SessionTokens,
	sessionTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		provider:    provider,
		tokens:      tokens,
		sessionTTL:  sessionTTL,
		now:         time.Now,
	}
}

type LoginResult struct {
	User         *model.User
	SessionToken string // sealed, ready for the session cookie
	ExpiresAt    time.Time
}

// Login exchanges a provider authorization code for a new session. Provider
// failures are reported as common.ErrUpstream and never create a session.
func (s *AuthService) Login(ctx context.Context, code string) (*LoginResult, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, common.Errorf("authorization code is required: %w", common.ErrBadRequest)
	}

	providerToken, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrUpstream)
	}
	providerUserID, err := s.provider.FetchUserID(ctx, providerToken)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, common.ErrUpstream)
	}

	user, err := s.userRepo.EnsureUser(ctx, providerUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}

	session := &model.Session{
		Token:          security.NewSessionToken(),
		InternalUserID: user.InternalUserID,
		ExpiresAt:      s.now().Add(s.sessionTTL).Truncate(time.Second),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	sealed, err := s.tokens.Seal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to seal session: %w", err)
	}
	return &LoginResult{User: user, SessionToken: sealed, ExpiresAt: session.ExpiresAt}, nil
}

// ResolveSession maps a raw session token to its user. Unknown or expired
// sessions yield common.ErrUnauthorized.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (string, error) {
	session, err := s.sessionRepo.Find(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	return session.InternalUserID, nil
}
