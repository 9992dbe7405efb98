package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
	"vcontest/internal/domain/repository"
)

type ContestService struct {
	contestRepo repository.ContestRepository
	validator   *Validator
	maxProblems int
	recentLimit int
	now         func() time.Time
}

func NewContestService(
	contestRepo repository.ContestRepository,
	validator *Validator,
	maxProblems int,
	recentLimit int,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		validator:   validator,
		maxProblems: maxProblems,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

type CreateContestRequest struct {
	Title            string  `json:"title" validate:"max=255"`
	Memo             string  `json:"memo" validate:"max=8192"`
	StartEpochSecond int64   `json:"start_epoch_second"`
	DurationSecond   int64   `json:"duration_second" validate:"gte=0"`
	PenaltySecond    int64   `json:"penalty_second" validate:"gte=0"`
	IsPublic         *bool   `json:"is_public"`
	Mode             *string `json:"mode" validate:"omitempty,max=64"`
}

type UpdateContestRequest struct {
	ID string `json:"id" validate:"required"`
	CreateContestRequest
}

type ContestProblemRequest struct {
	ID    string `json:"id" validate:"required,max=255"`
	Point *int64 `json:"point"`
	Order *int64 `json:"order"`
}

type ReplaceProblemsRequest struct {
	ContestID string                  `json:"contest_id" validate:"required"`
	Problems  []ContestProblemRequest `json:"problems" validate:"dive"`
}

type MembershipRequest struct {
	ContestID string `json:"contest_id" validate:"required"`
}

type CreateContestResponse struct {
	ContestID string `json:"contest_id"`
}

func (r CreateContestRequest) isPublic() bool {
	return r.IsPublic == nil || *r.IsPublic
}

// Create registers a new contest owned by the caller and returns its id.
func (s *ContestService) Create(ctx context.Context, callerID string, req CreateContestRequest) (*CreateContestResponse, error) {
	if callerID == "" {
		return nil, common.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	contest := &model.Contest{
		ID:               uuid.NewString(),
		OwnerUserID:      callerID,
		Title:            req.Title,
		Memo:             req.Memo,
		StartEpochSecond: req.StartEpochSecond,
		DurationSecond:   req.DurationSecond,
		PenaltySecond:    req.PenaltySecond,
		Mode:             normalizeMode(req.Mode),
		IsPublic:         req.isPublic(),
		CreatedAt:        s.now().UTC(),
	}
	if err := s.contestRepo.Create(ctx, contest); err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}
	return &CreateContestResponse{ContestID: contest.ID}, nil
}

// Update overwrites every mutable field. Only the owner may update.
func (s *ContestService) Update(ctx context.Context, callerID string, req UpdateContestRequest) error {
	if callerID == "" {
		return common.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if _, err := s.ownedContest(ctx, callerID, req.ID); err != nil {
		return err
	}

	contest := &model.Contest{
		ID:               req.ID,
		OwnerUserID:      callerID,
		Title:            req.Title,
		Memo:             req.Memo,
		StartEpochSecond: req.StartEpochSecond,
		DurationSecond:   req.DurationSecond,
		PenaltySecond:    req.PenaltySecond,
		Mode:             normalizeMode(req.Mode),
		IsPublic:         req.isPublic(),
	}
	if err := s.contestRepo.Update(ctx, contest); err != nil {
		return fmt.Errorf("failed to update contest %s: %w", req.ID, err)
	}
	return nil
}

// ReplaceProblems swaps the contest's whole problem list. Only the owner may do it.
func (s *ContestService) ReplaceProblems(ctx context.Context, callerID string, req ReplaceProblemsRequest) error {
	if callerID == "" {
		return common.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if len(req.Problems) > s.maxProblems {
		return fmt.Errorf("a contest holds at most %d problems, got %d: %w", s.maxProblems, len(req.Problems), common.ErrValidation)
	}
	seen := make(map[string]struct{}, len(req.Problems))
	problems := make([]model.ContestProblem, 0, len(req.Problems))
	for _, p := range req.Problems {
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("problem %s listed twice: %w", p.ID, common.ErrValidation)
		}
		seen[p.ID] = struct{}{}
		problems = append(problems, model.ContestProblem{ID: p.ID, Point: p.Point, Order: p.Order})
	}

	if _, err := s.ownedContest(ctx, callerID, req.ContestID); err != nil {
		return err
	}
	if err := s.contestRepo.ReplaceProblems(ctx, req.ContestID, problems); err != nil {
		return fmt.Errorf("failed to replace problems of contest %s: %w", req.ContestID, err)
	}
	return nil
}

// ownedContest loads a contest and checks the caller owns it.
func (s *ContestService) ownedContest(ctx context.Context, callerID, contestID string) (*model.Contest, error) {
	contest, err := s.contestRepo.FindByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("contest %s: %w", contestID, err)
	}
	if contest.OwnerUserID != callerID {
		return nil, fmt.Errorf("contest %s is owned by another user: %w", contestID, common.ErrForbidden)
	}
	return contest, nil
}

// Get returns contest info, problems and participant handles. It does not
// consult visibility: private contests are reachable by id.
func (s *ContestService) Get(ctx context.Context, contestID string) (*model.ContestDetail, error) {
	contest, err := s.contestRepo.FindByID(ctx, contestID)
	if err != nil {
		return nil, fmt.Errorf("contest %s: %w", contestID, err)
	}
	problems, err := s.contestRepo.ListProblems(ctx, contestID)
	if err != nil {
		return nil, err
	}
	participants, err := s.contestRepo.ListParticipantHandles(ctx, contestID)
	if err != nil {
		return nil, err
	}
	return &model.ContestDetail{Info: *contest, Problems: problems, Participants: participants}, nil
}

// ListRecent returns public contests, newest first.
func (s *ContestService) ListRecent(ctx context.Context) ([]model.Contest, error) {
	return s.contestRepo.ListRecentPublic(ctx, s.recentLimit)
}

func (s *ContestService) ListOwned(ctx context.Context, callerID string) ([]model.Contest, error) {
	if callerID == "" {
		return nil, common.ErrUnauthorized
	}
	return s.contestRepo.ListByOwner(ctx, callerID)
}

func (s *ContestService) ListJoined(ctx context.Context, callerID string) ([]model.Contest, error) {
	if callerID == "" {
		return nil, common.ErrUnauthorized
	}
	return s.contestRepo.ListJoinedBy(ctx, callerID)
}

// Join adds the caller to the contest; joining twice is a no-op.
func (s *ContestService) Join(ctx context.Context, callerID string, req MembershipRequest) error {
	if callerID == "" {
		return common.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if _, err := s.contestRepo.FindByID(ctx, req.ContestID); err != nil {
		return fmt.Errorf("contest %s: %w", req.ContestID, err)
	}
	if err := s.contestRepo.AddParticipant(ctx, req.ContestID, callerID); err != nil {
		return fmt.Errorf("failed to join contest %s: %w", req.ContestID, err)
	}
	return nil
}

// Leave removes the caller from the contest; leaving a contest the caller is
// not in, or one that does not exist, is a no-op.
func (s *ContestService) Leave(ctx context.Context, callerID string, req MembershipRequest) error {
	if callerID == "" {
		return common.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return err
	}
	if err := s.contestRepo.RemoveParticipant(ctx, req.ContestID, callerID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to leave contest %s: %w", req.ContestID, err)
	}
	return nil
}

func normalizeMode(mode *string) *string {
	if mode == nil {
		return nil
	}
	m := strings.TrimSpace(*mode)
	if m == "" {
		return nil
	}
	return &m
}
