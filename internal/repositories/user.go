package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cvforge/internal/models"
)

// ErrRecordNotFound is returned when a lookup matches no row.
var ErrRecordNotFound = gorm.ErrRecordNotFound

// UserRepository is the persistence contract the user service works against.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.User, error)
	// GetByUsername only returns active users; admin operations use
	// GetByUsernameAny which ignores the active flag.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByUsernameAny(ctx context.Context, username string) (*models.User, error)
	// FindByUsernameOrEmail returns a user matching either value, for
	// uniqueness checks during registration and updates.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByUsernameAny(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("username = ? OR email = ?", username, email).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) Delete(ctx context.Context, id uuid.UUID) error {
	// Owned CVs go with the user; sqlite test databases do not always
	// enforce the FK cascade, so the delete is explicit.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_uuid = ?", id).Delete(&models.Cv{}).Error; err != nil {
			return err
		}
		return tx.Where("uuid = ?", id).Delete(&models.User{}).Error
	})
}
