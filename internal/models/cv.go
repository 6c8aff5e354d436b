package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JSONMap stores arbitrary structured CV content in a single JSON column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONMap")
	}
	return json.Unmarshal(data, m)
}

type Cv struct {
	UUID              uuid.UUID `json:"uuid" gorm:"type:uuid;primaryKey"`
	UserUUID          uuid.UUID `json:"userUuid" gorm:"type:uuid;index;not null"`
	GithubProfileLink string    `json:"githubProfileLink" gorm:"index;not null"`
	Filename          string    `json:"filename" gorm:"not null"`
	FullPath          string    `json:"fullPath" gorm:"not null"`
	JSONData          JSONMap   `json:"jsonData" gorm:"type:json"`
	CreatedAt         time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

func (Cv) TableName() string { return "cvs" }

func (c *Cv) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}
