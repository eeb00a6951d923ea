package mapper

import (
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/model"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/corpus"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/knowledge/userdocs"
)

type KnowledgeMapper struct{}

func NewKnowledgeMapper() *KnowledgeMapper {
	return &KnowledgeMapper{}
}

func (m *KnowledgeMapper) ToCorpusEntry(entry *model.LawEntry, similarity float64) corpus.Entry {
	return corpus.Entry{
		ID:         entry.Id.String(),
		Title:      entry.Title,
		Content:    entry.Content,
		SourceRef:  entry.SourceRef,
		Similarity: similarity,
	}
}

func (m *KnowledgeMapper) ToUserDocument(doc *model.UserDocument, score float64) userdocs.Document {
	return userdocs.Document{
		ID:          doc.Id.String(),
		Title:       doc.Title,
		Excerpt:     excerpt(doc.Content, 600),
		Annotations: doc.Annotations,
		Score:       score,
	}
}

// excerpt truncates on a rune boundary so multibyte text is never split.
func excerpt(content string, maxRunes int) string {
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes]) + "…"
}
