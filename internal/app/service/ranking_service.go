package service

import (
	"context"
	"fmt"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
	"vcontest/internal/domain/repository"
)

// RankingService serves leaderboards over externally maintained counters.
type RankingService struct {
	rankingRepo repository.RankingRepository
	maxWindow   int
}

func NewRankingService(rankingRepo repository.RankingRepository, maxWindow int) *RankingService {
	return &RankingService{rankingRepo: rankingRepo, maxWindow: maxWindow}
}

// Range returns the rows at positions [from, to) of the leaderboard ordered by
// value descending, then user id ascending. from >= to yields an empty page.
func (s *RankingService) Range(ctx context.Context, kind model.RankingKind, from, to int) ([]model.RankingEntry, error) {
	if from < 0 || to < 0 {
		return nil, common.Errorf("from and to must be non-negative: %w", common.ErrValidation)
	}
	if to-from > s.maxWindow {
		return nil, common.Errorf("requested %d rows, at most %d allowed: %w", to-from, s.maxWindow, common.ErrValidation)
	}
	if from >= to {
		return []model.RankingEntry{}, nil
	}
	entries, err := s.rankingRepo.Range(ctx, kind, from, to-from)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s ranking: %w", kind, err)
	}
	return entries, nil
}

// UserRank reports the user's value and the number of users strictly above it,
// so tied users share a rank.
func (s *RankingService) UserRank(ctx context.Context, kind model.RankingKind, userID string) (*model.UserRank, error) {
	if userID == "" {
		return nil, common.Errorf("user is required: %w", common.ErrValidation)
	}
	value, err := s.rankingRepo.Value(ctx, kind, userID)
	if err != nil {
		return nil, fmt.Errorf("%s ranking for %s: %w", kind, userID, err)
	}
	rank, err := s.rankingRepo.CountGreater(ctx, kind, value)
	if err != nil {
		return nil, fmt.Errorf("failed to rank %s: %w", userID, err)
	}
	return &model.UserRank{Count: value, Rank: rank}, nil
}
