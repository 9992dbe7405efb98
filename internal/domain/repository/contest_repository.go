package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
)

type ContestRepository interface {
	Create(ctx context.Context, contest *model.Contest) error
	// Update overwrites all mutable fields of the contest owned by contest.OwnerUserID.
	Update(ctx context.Context, contest *model.Contest) error
	FindByID(ctx context.Context, id string) (*model.Contest, error)

	ListRecentPublic(ctx context.Context, limit int) ([]model.Contest, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]model.Contest, error)
	ListJoinedBy(ctx context.Context, internalUserID string) ([]model.Contest, error)

	ListProblems(ctx context.Context, contestID string) ([]model.ContestProblem, error)
	// ReplaceProblems atomically swaps the whole problem set of a contest.
	ReplaceProblems(ctx context.Context, contestID string, problems []model.ContestProblem) error

	ListParticipantHandles(ctx context.Context, contestID string) ([]string, error)
	// AddParticipant is a no-op when the membership already exists.
	AddParticipant(ctx context.Context, contestID, internalUserID string) error
	// RemoveParticipant is a no-op when there is no such membership.
	RemoveParticipant(ctx context.Context, contestID, internalUserID string) error
}

const contestColumns = `c.id, c.internal_user_id, c.title, c.memo, c.start_epoch_second,
	c.duration_second, c.penalty_second, c.mode, c.is_public, c.created_at`

const contestOrder = ` ORDER BY c.created_at DESC, c.id ASC`

type pgContestRepository struct {
	db *sql.DB
}

func NewPgContestRepository(db *sql.DB) ContestRepository {
	return &pgContestRepository{db: db}
}

func (r *pgContestRepository) Create(ctx context.Context, c *model.Contest) error {
	query := `INSERT INTO internal_virtual_contests
	            (id, internal_user_id, title, memo, start_epoch_second, duration_second, penalty_second, mode, is_public, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.OwnerUserID, c.Title, c.Memo, c.StartEpochSecond,
		c.DurationSecond, c.PenaltySecond, c.Mode, c.IsPublic, c.CreatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return fmt.Errorf("contest %s already exists: %w", c.ID, common.ErrConflict)
		}
		return fmt.Errorf("pgContestRepository.Create: %w", err)
	}
	return nil
}

func (r *pgContestRepository) Update(ctx context.Context, c *model.Contest) error {
	query := `UPDATE internal_virtual_contests SET
	            title = $1, memo = $2, start_epoch_second = $3, duration_second = $4,
	            penalty_second = $5, mode = $6, is_public = $7
	          WHERE id = $8 AND internal_user_id = $9`
	res, err := r.db.ExecContext(ctx, query, c.Title, c.Memo, c.StartEpochSecond, c.DurationSecond,
		c.PenaltySecond, c.Mode, c.IsPublic, c.ID, c.OwnerUserID)
	if err != nil {
		return fmt.Errorf("pgContestRepository.Update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgContestRepository.Update rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgContestRepository) FindByID(ctx context.Context, id string) (*model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM internal_virtual_contests c WHERE c.id = $1`
	c, err := scanContest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgContestRepository.FindByID: %w", err)
	}
	return c, nil
}

func (r *pgContestRepository) ListRecentPublic(ctx context.Context, limit int) ([]model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM internal_virtual_contests c
	          WHERE c.is_public = TRUE` + contestOrder + ` LIMIT $1`
	return r.listContests(ctx, "ListRecentPublic", query, limit)
}

func (r *pgContestRepository) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM internal_virtual_contests c
	          WHERE c.internal_user_id = $1` + contestOrder
	return r.listContests(ctx, "ListByOwner", query, ownerUserID)
}

func (r *pgContestRepository) ListJoinedBy(ctx context.Context, internalUserID string) ([]model.Contest, error) {
	query := `SELECT ` + contestColumns + ` FROM internal_virtual_contests c
	          JOIN internal_virtual_contest_participants p ON p.internal_virtual_contest_id = c.id
	          WHERE p.internal_user_id = $1` + contestOrder
	return r.listContests(ctx, "ListJoinedBy", query, internalUserID)
}

func (r *pgContestRepository) listContests(ctx context.Context, op, query string, args ...interface{}) ([]model.Contest, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.%s query: %w", op, err)
	}
	defer rows.Close()

	contests := []model.Contest{}
	for rows.Next() {
		c, err := scanContest(rows)
		if err != nil {
			return nil, fmt.Errorf("pgContestRepository.%s scan: %w", op, err)
		}
		contests = append(contests, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.%s rows.Err: %w", op, err)
	}
	return contests, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContest(row rowScanner) (*model.Contest, error) {
	c := &model.Contest{}
	err := row.Scan(&c.ID, &c.OwnerUserID, &c.Title, &c.Memo, &c.StartEpochSecond,
		&c.DurationSecond, &c.PenaltySecond, &c.Mode, &c.IsPublic, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *pgContestRepository) ListProblems(ctx context.Context, contestID string) ([]model.ContestProblem, error) {
	query := `SELECT problem_id, user_defined_point, user_defined_order
	          FROM internal_virtual_contest_items
	          WHERE internal_virtual_contest_id = $1
	          ORDER BY position ASC`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListProblems query: %w", err)
	}
	defer rows.Close()

	problems := []model.ContestProblem{}
	for rows.Next() {
		var p model.ContestProblem
		if err := rows.Scan(&p.ID, &p.Point, &p.Order); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListProblems scan: %w", err)
		}
		problems = append(problems, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListProblems rows.Err: %w", err)
	}
	return problems, nil
}

func (r *pgContestRepository) ReplaceProblems(ctx context.Context, contestID string, problems []model.ContestProblem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgContestRepository.ReplaceProblems begin: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM internal_virtual_contest_items WHERE internal_virtual_contest_id = $1`, contestID,
	); err != nil {
		return fmt.Errorf("pgContestRepository.ReplaceProblems delete: %w", err)
	}

	if len(problems) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO internal_virtual_contest_items
		    (internal_virtual_contest_id, problem_id, user_defined_point, user_defined_order, position)
		    VALUES ($1, $2, $3, $4, $5)`)
		if err != nil {
			return fmt.Errorf("pgContestRepository.ReplaceProblems prepare: %w", err)
		}
		defer stmt.Close()

		for i, p := range problems {
			if _, err := stmt.ExecContext(ctx, contestID, p.ID, p.Point, p.Order, i); err != nil {
				if common.IsUniqueViolation(err) {
					return fmt.Errorf("problem %s listed twice: %w", p.ID, common.ErrValidation)
				}
				return fmt.Errorf("pgContestRepository.ReplaceProblems insert %s: %w", p.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgContestRepository.ReplaceProblems commit: %w", err)
	}
	return nil
}

func (r *pgContestRepository) ListParticipantHandles(ctx context.Context, contestID string) ([]string, error) {
	query := `SELECT u.atcoder_user_id
	          FROM internal_virtual_contest_participants p
	          JOIN internal_users u ON u.internal_user_id = p.internal_user_id
	          WHERE p.internal_virtual_contest_id = $1 AND u.atcoder_user_id IS NOT NULL
	          ORDER BY u.atcoder_user_id ASC`
	rows, err := r.db.QueryContext(ctx, query, contestID)
	if err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListParticipantHandles query: %w", err)
	}
	defer rows.Close()

	handles := []string{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("pgContestRepository.ListParticipantHandles scan: %w", err)
		}
		handles = append(handles, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgContestRepository.ListParticipantHandles rows.Err: %w", err)
	}
	return handles, nil
}

func (r *pgContestRepository) AddParticipant(ctx context.Context, contestID, internalUserID string) error {
	query := `INSERT INTO internal_virtual_contest_participants (internal_virtual_contest_id, internal_user_id)
	          VALUES ($1, $2)
	          ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, contestID, internalUserID); err != nil {
		return fmt.Errorf("pgContestRepository.AddParticipant: %w", err)
	}
	return nil
}

func (r *pgContestRepository) RemoveParticipant(ctx context.Context, contestID, internalUserID string) error {
	query := `DELETE FROM internal_virtual_contest_participants
	          WHERE internal_virtual_contest_id = $1 AND internal_user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, contestID, internalUserID); err != nil {
		return fmt.Errorf("pgContestRepository.RemoveParticipant: %w", err)
	}
	return nil
}
