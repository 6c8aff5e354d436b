package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"cvforge/internal/auth"
	"cvforge/internal/models"
	"cvforge/internal/repositories"
)

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByUsernameAny(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	args := m.Called(ctx, username, email)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if u, ok := args.Get(0).(*models.User); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

var _ repositories.UserRepository = (*mockUserRepo)(nil)

func newUserService(repo repositories.UserRepository) *UserService {
	return NewUserService(
		repo,
		auth.NewHasher(bcrypt.MinCost),
		auth.NewTokenManager("test-secret", 30),
		zap.NewNop().Sugar(),
	)
}

func TestRegister(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("FindByUsernameOrEmail", mock.Anything, "john.doe", "john@example.com").Return(nil, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	svc := newUserService(repo)
	user, err := svc.Register(context.Background(), RegisterInput{
		Username: "john.doe",
		Email:    "john@example.com",
		Password: "Passw0rd!",
	})
	require.NoError(t, err)

	assert.Equal(t, "john.doe", user.Username)
	assert.True(t, user.IsActive)
	assert.False(t, user.IsSuperuser)
	// Stored password is a hash, never the plaintext.
	assert.NotEqual(t, "Passw0rd!", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("Passw0rd!")))
	repo.AssertExpectations(t)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("FindByUsernameOrEmail", mock.Anything, "john.doe", "other@example.com").
		Return(&models.User{Username: "john.doe", Email: "john@example.com"}, nil)

	svc := newUserService(repo)
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "john.doe",
		Email:    "other@example.com",
		Password: "Passw0rd!",
	})
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("FindByUsernameOrEmail", mock.Anything, "jane.doe", "john@example.com").
		Return(&models.User{Username: "john.doe", Email: "john@example.com"}, nil)

	svc := newUserService(repo)
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "jane.doe",
		Email:    "john@example.com",
		Password: "Passw0rd!",
	})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestRegisterInvalidInput(t *testing.T) {
	svc := newUserService(&mockUserRepo{})
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Username: "ab", Email: "a@b.co", Password: "Passw0rd!"})
	assert.ErrorIs(t, err, auth.ErrInvalidUsername)

	_, err = svc.Register(ctx, RegisterInput{Username: "john.doe", Email: "nope", Password: "Passw0rd!"})
	assert.ErrorIs(t, err, auth.ErrInvalidEmail)

	_, err = svc.Register(ctx, RegisterInput{Username: "john.doe", Email: "a@b.co", Password: "weak"})
	assert.ErrorIs(t, err, auth.ErrWeakPassword)
}

func TestLogin(t *testing.T) {
	hasher := auth.NewHasher(bcrypt.MinCost)
	hashed, err := hasher.Hash("Passw0rd!")
	require.NoError(t, err)

	stored := &models.User{UUID: uuid.New(), Username: "john.doe", Email: "john@example.com", Password: hashed, IsActive: true}

	repo := &mockUserRepo{}
	repo.On("GetByUsername", mock.Anything, "john.doe").Return(stored, nil)

	svc := newUserService(repo)
	user, token, err := svc.Login(context.Background(), "john.doe", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, stored.UUID, user.UUID)
	assert.NotEmpty(t, token)
}

func TestLoginWrongPassword(t *testing.T) {
	hasher := auth.NewHasher(bcrypt.MinCost)
	hashed, _ := hasher.Hash("Passw0rd!")

	repo := &mockUserRepo{}
	repo.On("GetByUsername", mock.Anything, "john.doe").
		Return(&models.User{Username: "john.doe", Password: hashed}, nil)

	svc := newUserService(repo)
	_, _, err := svc.Login(context.Background(), "john.doe", "Wr0ngPass!")
	assert.ErrorIs(t, err, ErrIncorrectCredentials)
}

func TestLoginUnknownOrInactiveUser(t *testing.T) {
	// Inactive users are filtered by the repository lookup, so both cases
	// surface as the same credentials error.
	repo := &mockUserRepo{}
	repo.On("GetByUsername", mock.Anything, "ghost").Return(nil, repositories.ErrRecordNotFound)

	svc := newUserService(repo)
	_, _, err := svc.Login(context.Background(), "ghost", "Passw0rd!")
	assert.ErrorIs(t, err, ErrIncorrectCredentials)
}

func TestUpdateMe(t *testing.T) {
	id := uuid.New()
	repo := &mockUserRepo{}
	repo.On("GetByUUID", mock.Anything, id).
		Return(&models.User{UUID: id, Username: "john.doe", Email: "john@example.com"}, nil)
	repo.On("FindByUsernameOrEmail", mock.Anything, "johnny", "").Return(nil, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	svc := newUserService(repo)
	username := "johnny"
	user, token, err := svc.UpdateMe(context.Background(), id, UpdateInput{Username: &username})
	require.NoError(t, err)
	assert.Equal(t, "johnny", user.Username)
	assert.NotEmpty(t, token, "self-update re-issues the token")
}

func TestUpdateMeUsernameConflict(t *testing.T) {
	id := uuid.New()
	repo := &mockUserRepo{}
	repo.On("GetByUUID", mock.Anything, id).
		Return(&models.User{UUID: id, Username: "john.doe", Email: "john@example.com"}, nil)
	repo.On("FindByUsernameOrEmail", mock.Anything, "taken", "").
		Return(&models.User{UUID: uuid.New(), Username: "taken"}, nil)

	svc := newUserService(repo)
	username := "taken"
	_, _, err := svc.UpdateMe(context.Background(), id, UpdateInput{Username: &username})
	assert.ErrorIs(t, err, ErrUsernameExists)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateByUsernameFlagsOnly(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByUsernameAny", mock.Anything, "john.doe").
		Return(&models.User{Username: "john.doe", IsActive: true}, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	svc := newUserService(repo)
	inactive := false
	superuser := true
	user, err := svc.UpdateByUsername(context.Background(), "john.doe", AdminUpdateInput{
		IsActive:    &inactive,
		IsSuperuser: &superuser,
	})
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.True(t, user.IsSuperuser)
}

func TestFindOrCreateFromOAuthNewUser(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "john@example.com").Return(nil, repositories.ErrRecordNotFound)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

	svc := newUserService(repo)
	user, token, err := svc.FindOrCreateFromOAuth(context.Background(), "john.doe", "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "john.doe", user.Username)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, user.Password, "oauth accounts get an unusable random password")
	assert.NotEmpty(t, token)
}

func TestFindOrCreateFromOAuthExistingUser(t *testing.T) {
	repo := &mockUserRepo{}
	repo.On("GetByEmail", mock.Anything, "john@example.com").
		Return(&models.User{Username: "john.doe", Email: "john@example.com"}, nil)

	svc := newUserService(repo)
	user, token, err := svc.FindOrCreateFromOAuth(context.Background(), "ignored", "john@example.com")
	require.NoError(t, err)
	assert.Equal(t, "john.doe", user.Username)
	assert.NotEmpty(t, token)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}
