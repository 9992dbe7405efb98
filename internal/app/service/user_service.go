package service

import (
	"context"
	"fmt"
	"strings"

	"vcontest/internal/common"
	"vcontest/internal/domain/model"
	"vcontest/internal/domain/repository"
)

type UserService struct {
	userRepo  repository.UserRepository
	validator *Validator
}

func NewUserService(userRepo repository.UserRepository, validator *Validator) *UserService {
	return &UserService{userRepo: userRepo, validator: validator}
}

type UpdateUserRequest struct {
	AtCoderUserID string `json:"atcoder_user_id" validate:"max=64,excludesall=/?#"`
}

func (s *UserService) Get(ctx context.Context, callerID string) (*model.User, error) {
	if callerID == "" {
		return nil, common.ErrUnauthorized
	}
	user, err := s.userRepo.FindByID(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", callerID, err)
	}
	return user, nil
}

// UpdateAtCoderUserID links the caller's AtCoder handle; an empty handle unlinks it.
func (s *UserService) UpdateAtCoderUserID(ctx context.Context, callerID string, req UpdateUserRequest) error {
	if callerID == "" {
		return common.ErrUnauthorized
	}
	req.AtCoderUserID = strings.TrimSpace(req.AtCoderUserID)
	if err := s.validator.Struct(req); err != nil {
		return err
	}

	var handle *string
	if req.AtCoderUserID != "" {
		handle = &req.AtCoderUserID
	}
	if err := s.userRepo.UpdateAtCoderUserID(ctx, callerID, handle); err != nil {
		return fmt.Errorf("failed to update user %s: %w", callerID, err)
	}
	return nil
}
