package implementation

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/mapper"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/model"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/corpus"
)

type LawEntryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeMapper
}

func NewLawEntryRepository(db *gorm.DB) corpus.Searcher {
	return &LawEntryRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeMapper(),
	}
}

func (r *LawEntryRepositoryImpl) SearchByVector(ctx context.Context, vector []float32, domain string, limit int) ([]corpus.Entry, error) {
	if limit <= 0 {
		limit = 5
	}

	// Cosine distance in pgvector is 1 - cosine_similarity, so
	// 1 - (embedding <=> query_vector) = cosine_similarity.
	type result struct {
		model.LawEntry
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(vector)

	query := r.db.WithContext(ctx).
		Table("law_entries").
		Select("law_entries.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("deleted_at IS NULL")
	if domain != "" {
		query = query.Where("domain = ?", domain)
	}

	err := query.
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	entries := make([]corpus.Entry, len(results))
	for i, res := range results {
		entries[i] = r.mapper.ToCorpusEntry(&res.LawEntry, res.Similarity)
	}
	return entries, nil
}

func (r *LawEntryRepositoryImpl) SearchByKeyword(ctx context.Context, queryText, domain string, limit int) ([]corpus.Entry, error) {
	if limit <= 0 {
		limit = 5
	}

	var models []*model.LawEntry

	query := r.db.WithContext(ctx).Where("title ILIKE ? OR content ILIKE ?", "%"+queryText+"%", "%"+queryText+"%")
	if domain != "" {
		query = query.Where("domain = ?", domain)
	}

	if err := query.Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]corpus.Entry, len(models))
	for i, m := range models {
		// Keyword matches carry no comparable score, a flat mid value
		// keeps them below strong vector hits after merging.
		entries[i] = r.mapper.ToCorpusEntry(m, 0.5)
	}
	return entries, nil
}

func (r *LawEntryRepositoryImpl) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
