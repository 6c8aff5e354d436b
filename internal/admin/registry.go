package admin

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cvforge/internal/auth"
	"cvforge/internal/models"
)

// DefaultResources registers the user and cv models. Users can be
// created and have their account flags edited; cvs are list, inspect
// and delete only since their content is produced by the generation
// pipeline.
func DefaultResources(hasher *auth.Hasher) []Resource {
	return []Resource{
		{
			Name:           "users",
			New:            func() any { return &models.User{} },
			NewSlice:       func() any { return &[]models.User{} },
			SearchColumns:  []string{"username", "email"},
			EditableFields: []string{"is_active", "is_superuser"},
			CanCreate:      true,
			BeforeCreate: func(record any) error {
				user, ok := record.(*models.User)
				if !ok {
					return errors.New("unexpected record type")
				}
				if err := auth.ValidateUsername(user.Username); err != nil {
					return err
				}
				if err := auth.ValidateEmail(user.Email); err != nil {
					return err
				}
				if err := auth.ValidatePassword(user.Password); err != nil {
					return err
				}
				hashed, err := hasher.Hash(user.Password)
				if err != nil {
					return err
				}
				user.Password = hashed
				return nil
			},
			BeforeDelete: func(tx *gorm.DB, id uuid.UUID) error {
				return tx.Where("user_uuid = ?", id).Delete(&models.Cv{}).Error
			},
		},
		{
			Name:          "cvs",
			New:           func() any { return &models.Cv{} },
			NewSlice:      func() any { return &[]models.Cv{} },
			SearchColumns: []string{"github_profile_link", "filename"},
		},
	}
}
