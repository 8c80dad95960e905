package auth

import (
	"context"

	"github.com/carebridge/carelog-api/internal/model"
	"github.com/carebridge/carelog-api/internal/repository"
	"github.com/carebridge/carelog-api/pkg/auth"
	apperrors "github.com/carebridge/carelog-api/pkg/errors"
	"github.com/carebridge/carelog-api/pkg/security"
)

// Service authenticates users and issues access tokens. Authorization
// beyond role claims lives in the auth middleware.
type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	tokens *auth.TokenManager
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, tokens *auth.TokenManager) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(err)
		}
		return nil, err
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	token, err := s.tokens.Generate(user.ID, user.Role, user.CareRecipientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.LoginResponse{Token: token, User: user}, nil
}
