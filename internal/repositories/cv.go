package repositories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cvforge/internal/models"
)

// CvRepository covers the CV service's persistence needs. CVs are
// read-only after creation; there is no update operation.
type CvRepository interface {
	Create(ctx context.Context, cv *models.Cv) error
	GetByUUID(ctx context.Context, id uuid.UUID) (*models.Cv, error)
	GetAll(ctx context.Context) ([]models.Cv, error)
	GetAllByUser(ctx context.Context, userID uuid.UUID) ([]models.Cv, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type cvRepo struct {
	db *gorm.DB
}

func NewCvRepository(db *gorm.DB) CvRepository {
	return &cvRepo{db: db}
}

func (r *cvRepo) Create(ctx context.Context, cv *models.Cv) error {
	return r.db.WithContext(ctx).Create(cv).Error
}

func (r *cvRepo) GetByUUID(ctx context.Context, id uuid.UUID) (*models.Cv, error) {
	var cv models.Cv
	if err := r.db.WithContext(ctx).Where("uuid = ?", id).First(&cv).Error; err != nil {
		return nil, err
	}
	return &cv, nil
}

func (r *cvRepo) GetAll(ctx context.Context) ([]models.Cv, error) {
	var cvs []models.Cv
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&cvs).Error
	return cvs, err
}

func (r *cvRepo) GetAllByUser(ctx context.Context, userID uuid.UUID) ([]models.Cv, error) {
	var cvs []models.Cv
	err := r.db.WithContext(ctx).
		Where("user_uuid = ?", userID).
		Order("created_at DESC").
		Find(&cvs).Error
	return cvs, err
}

func (r *cvRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("uuid = ?", id).Delete(&models.Cv{}).Error
}
