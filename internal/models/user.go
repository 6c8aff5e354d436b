package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	UUID        uuid.UUID `json:"uuid" gorm:"type:uuid;primaryKey"`
	Username    string    `json:"username" gorm:"size:128;uniqueIndex;not null"`
	Email       string    `json:"email" gorm:"size:128;uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"size:2048;not null"`
	IsActive    bool      `json:"isActive" gorm:"default:true"`
	IsSuperuser bool      `json:"isSuperuser" gorm:"default:false"`
	CreatedAt   time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Cvs []Cv `json:"-" gorm:"foreignKey:UserUUID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}
