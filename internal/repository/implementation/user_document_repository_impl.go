package implementation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/mapper"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/model"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/userdocs"
)

// UserDocumentRepositoryImpl searches uploaded documents. It is constructed
// per user so the store contract stays user-agnostic; uuid.Nil selects the
// shared document library with no owner filter.
type UserDocumentRepositoryImpl struct {
	db     *gorm.DB
	userId uuid.UUID
	mapper *mapper.KnowledgeMapper
}

func NewUserDocumentRepository(db *gorm.DB, userId uuid.UUID) userdocs.Searcher {
	return &UserDocumentRepositoryImpl{
		db:     db,
		userId: userId,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *UserDocumentRepositoryImpl) SearchDocuments(ctx context.Context, query string, limit int) ([]userdocs.Document, error) {
	if limit <= 0 {
		limit = 5
	}

	tx := r.db.WithContext(ctx)
	if r.userId != uuid.Nil {
		tx = tx.Where("user_id = ?", r.userId)
	}

	var models []*model.UserDocument
	err := tx.
		Where("title ILIKE ? OR content ILIKE ? OR annotations ILIKE ?",
			"%"+query+"%", "%"+query+"%", "%"+query+"%").
		Order("updated_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	docs := make([]userdocs.Document, len(models))
	for i, m := range models {
		score := 0.5
		if m.Annotations != "" {
			// Annotated documents reflect what the user considers
			// decisive, surface them first.
			score = 0.7
		}
		docs[i] = r.mapper.ToUserDocument(m, score)
	}
	return docs, nil
}

func (r *UserDocumentRepositoryImpl) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
