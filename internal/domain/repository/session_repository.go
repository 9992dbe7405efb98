package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vcontest/internal/common"
	"vcontest/internal/common/security"
	"vcontest/internal/domain/model"
)

// SessionRepository is the identity store: it resolves session tokens to users.
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// Find returns the live session for token, or common.ErrNotFound when the
	// token is unknown or expired at now.
	Find(ctx context.Context, token string, now time.Time) (*model.Session, error)
}

type pgSessionRepository struct {
	db *sql.DB
}

func NewPgSessionRepository(db *sql.DB) SessionRepository {
	return &pgSessionRepository{db: db}
}

func (r *pgSessionRepository) Create(ctx context.Context, s *model.Session) error {
	query := `INSERT INTO internal_sessions (token_hash, internal_user_id, expires_at)
	          VALUES ($1, $2, $3)`
	if _, err := r.db.ExecContext(ctx, query, security.HashToken(s.Token), s.InternalUserID, s.ExpiresAt); err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("session token collision: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgSessionRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSessionRepository) Find(ctx context.Context, token string, now time.Time) (*model.Session, error) {
	query := `SELECT internal_user_id, expires_at FROM internal_sessions
	          WHERE token_hash = $1 AND expires_at > $2`
	s := &model.Session{Token: token}
	err := r.db.QueryRowContext(ctx, query, security.HashToken(token), now).Scan(&s.InternalUserID, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSessionRepository.Find: %w", err)
	}
	return s, nil
}
