package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserDocument is an uploaded case document after text extraction. The
// upload and extraction pipeline lives in a separate service; this table is
// read-only for the consultation core.
type UserDocument struct {
	Id          uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	UserId      uuid.UUID      `gorm:"type:uuid;not null;index"`
	Title       string         `gorm:"type:varchar(512);not null"`
	Content     string         `gorm:"type:text;not null"`
	Annotations string         `gorm:"type:text"` // user remarks attached at upload time
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (UserDocument) TableName() string {
	return "user_documents"
}
