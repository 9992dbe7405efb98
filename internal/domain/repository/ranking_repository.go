package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
)

// RankingRepository reads the per-user counters that ingestion jobs maintain.
type RankingRepository interface {
	// Range returns rows ordered by value desc, user id asc, skipping offset rows.
	Range(ctx context.Context, kind model.RankingKind, offset, limit int) ([]model.RankingEntry, error)
	Value(ctx context.Context, kind model.RankingKind, userID string) (int64, error)
	CountGreater(ctx context.Context, kind model.RankingKind, value int64) (int64, error)
}

type rankingTable struct {
	table  string
	column string
}

// rankingTables is the only source of identifiers interpolated into SQL.
var rankingTables = map[model.RankingKind]rankingTable{
	model.RankingStreak:        {table: "max_streaks", column: "streak"},
	model.RankingAccepted:      {table: "accepted_count", column: "problem_count"},
	model.RankingRatedPointSum: {table: "rated_point_sum", column: "point_sum"},
}

func lookupRankingTable(kind model.RankingKind) (rankingTable, error) {
	t, ok := rankingTables[kind]
	if !ok {
		return rankingTable{}, fmt.Errorf("unknown ranking kind %q: %w", kind, common.ErrBadRequest)
	}
	return t, nil
}

type pgRankingRepository struct {
	db *sql.DB
}

func NewPgRankingRepository(db *sql.DB) RankingRepository {
	return &pgRankingRepository{db: db}
}

func (r *pgRankingRepository) Range(ctx context.Context, kind model.RankingKind, offset, limit int) ([]model.RankingEntry, error) {
	t, err := lookupRankingTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT user_id, %[2]s FROM %[1]s ORDER BY %[2]s DESC, user_id ASC OFFSET $1 LIMIT $2`,
		t.table, t.column)
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("pgRankingRepository.Range query: %w", err)
	}
	defer rows.Close()

	entries := []model.RankingEntry{}
	for rows.Next() {
		var e model.RankingEntry
		if err := rows.Scan(&e.UserID, &e.Value); err != nil {
			return nil, fmt.Errorf("pgRankingRepository.Range scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgRankingRepository.Range rows.Err: %w", err)
	}
	return entries, nil
}

func (r *pgRankingRepository) Value(ctx context.Context, kind model.RankingKind, userID string) (int64, error) {
	t, err := lookupRankingTable(kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1`, t.column, t.table)
	var v int64
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrNotFound
		}
		return 0, fmt.Errorf("pgRankingRepository.Value: %w", err)
	}
	return v, nil
}

func (r *pgRankingRepository) CountGreater(ctx context.Context, kind model.RankingKind, value int64) (int64, error) {
	t, err := lookupRankingTable(kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s > $1`, t.table, t.column)
	var n int64
	if err := r.db.QueryRowContext(ctx, query, value).Scan(&n); err != nil {
		return 0, fmt.Errorf("pgRankingRepository.CountGreater: %w", err)
	}
	return n, nil
}
