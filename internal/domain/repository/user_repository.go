package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
)

type UserRepository interface {
	// EnsureUser returns the user linked to providerUserID, creating it on first sight.
	EnsureUser(ctx context.Context, providerUserID int64) (*model.User, error)
	FindByID(ctx context.Context, internalUserID string) (*model.User, error)
	// UpdateAtCoderUserID links (or with nil, unlinks) the user's AtCoder handle.
	UpdateAtCoderUserID(ctx context.Context, internalUserID string, atcoderUserID *string) error
}

// InternalUserIDFor derives the internal id from the provider's numeric id.
func InternalUserIDFor(providerUserID int64) string {
	return strconv.FormatInt(providerUserID, 10)
}

type pgUserRepository struct {
	db *sql.DB
}

func NewPgUserRepository(db *sql.DB) UserRepository {
	return &pgUserRepository{db: db}
}

func (r *pgUserRepository) EnsureUser(ctx context.Context, providerUserID int64) (*model.User, error) {
	internalID := InternalUserIDFor(providerUserID)
	query := `INSERT INTO internal_users (internal_user_id, provider_user_id)
	          VALUES ($1, $2)
	          ON CONFLICT (internal_user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, internalID, providerUserID); err != nil {
		return nil, fmt.Errorf("pgUserRepository.EnsureUser: %w", err)
	}
	return r.FindByID(ctx, internalID)
}

func (r *pgUserRepository) FindByID(ctx context.Context, internalUserID string) (*model.User, error) {
	query := `SELECT internal_user_id, provider_user_id, atcoder_user_id, created_at
	          FROM internal_users WHERE internal_user_id = $1`
	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, internalUserID).Scan(
		&user.InternalUserID, &user.ProviderUserID, &user.AtCoderUserID, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgUserRepository.FindByID: %w", err)
	}
	return user, nil
}

func (r *pgUserRepository) UpdateAtCoderUserID(ctx context.Context, internalUserID string, atcoderUserID *string) error {
	query := `UPDATE internal_users SET atcoder_user_id = $1 WHERE internal_user_id = $2`
	res, err := r.db.ExecContext(ctx, query, atcoderUserID, internalUserID)
	if err != nil {
		return fmt.Errorf("pgUserRepository.UpdateAtCoderUserID: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
