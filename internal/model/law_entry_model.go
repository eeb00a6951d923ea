package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// LawEntry is one chunk of the curated corpus: a statute article, a judicial
// interpretation clause or a case-law digest paragraph.
type LawEntry struct {
	Id        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title     string          `gorm:"type:varchar(512);not null"`
	Content   string          `gorm:"type:text;not null"`
	Domain    string          `gorm:"type:varchar(64);index"` // e.g. labor_law
	SourceRef string          `gorm:"type:varchar(512)"`      // citation or official URL
	Embedding pgvector.Vector `gorm:"type:vector(1024)"`      // bge-m3 / jina-v3 dimensions
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt  `gorm:"index"`
}

func (LawEntry) TableName() string {
	return "law_entries"
}
