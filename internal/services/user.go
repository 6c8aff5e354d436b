package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cvforge/internal/auth"
	"cvforge/internal/models"
	"cvforge/internal/repositories"
)

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateInput struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type AdminUpdateInput struct {
	IsActive    *bool `json:"isActive"`
	IsSuperuser *bool `json:"isSuperuser"`
}

// UserService owns registration, authentication and account management.
type UserService struct {
	users  repositories.UserRepository
	hasher *auth.Hasher
	tokens *auth.TokenManager
	logger *zap.SugaredLogger
}

func NewUserService(users repositories.UserRepository, hasher *auth.Hasher, tokens *auth.TokenManager, logger *zap.SugaredLogger) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, logger: logger}
}

// Register validates the input, rejects username/email collisions with
// distinct errors and stores the user with a hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := auth.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := auth.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Username == in.Username {
			return nil, ErrUsernameExists
		}
		return nil, ErrEmailExists
	}

	hashed, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		IsActive: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Infow("user registered", "username", user.Username)
	return user, nil
}

// Login verifies credentials against the active user row and issues an
// access token.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, "", ErrIncorrectCredentials
		}
		return nil, "", err
	}
	if !s.hasher.Verify(password, user.Password) {
		return nil, "", ErrIncorrectCredentials
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UpdateMe applies a self-update, re-checking uniqueness for changed
// username/email, re-hashing a changed password and re-issuing the token.
func (s *UserService) UpdateMe(ctx context.Context, userID uuid.UUID, in UpdateInput) (*models.User, string, error) {
	user, err := s.users.GetByUUID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}

	if in.Username != nil && *in.Username != user.Username {
		if err := auth.ValidateUsername(*in.Username); err != nil {
			return nil, "", err
		}
		if err := s.checkConflict(ctx, *in.Username, "", userID); err != nil {
			return nil, "", err
		}
		user.Username = *in.Username
	}
	if in.Email != nil && *in.Email != user.Email {
		if err := auth.ValidateEmail(*in.Email); err != nil {
			return nil, "", err
		}
		if err := s.checkConflict(ctx, "", *in.Email, userID); err != nil {
			return nil, "", err
		}
		user.Email = *in.Email
	}
	if in.Password != nil {
		if err := auth.ValidatePassword(*in.Password); err != nil {
			return nil, "", err
		}
		hashed, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, "", err
		}
		user.Password = hashed
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) checkConflict(ctx context.Context, username, email string, selfID uuid.UUID) error {
	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return err
	}
	if existing == nil || existing.UUID == selfID {
		return nil
	}
	if username != "" && existing.Username == username {
		return ErrUsernameExists
	}
	return ErrEmailExists
}

func (s *UserService) DeleteMe(ctx context.Context, userID uuid.UUID) error {
	return s.users.Delete(ctx, userID)
}

// GetByUsername looks a user up regardless of the active flag (admin view).
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsernameAny(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateByUsername is the admin update: only the active and superuser flags
// can change.
func (s *UserService) UpdateByUsername(ctx context.Context, username string, in AdminUpdateInput) (*models.User, error) {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsSuperuser != nil {
		user.IsSuperuser = *in.IsSuperuser
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user %s: %w", username, err)
	}
	return user, nil
}

func (s *UserService) DeleteByUsername(ctx context.Context, username string) error {
	user, err := s.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	return s.users.Delete(ctx, user.UUID)
}

// FindOrCreateFromOAuth maps an external identity onto a local account,
// creating one with an unusable random password when none exists.
func (s *UserService) FindOrCreateFromOAuth(ctx context.Context, username, email string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, repositories.ErrRecordNotFound) {
		return nil, "", err
	}
	if user == nil || errors.Is(err, repositories.ErrRecordNotFound) {
		hashed, err := s.hasher.Hash(uuid.NewString())
		if err != nil {
			return nil, "", err
		}
		user = &models.User{
			Username: username,
			Email:    email,
			Password: hashed,
			IsActive: true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", err
		}
		s.logger.Infow("user created from oauth", "username", username)
	}
	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
