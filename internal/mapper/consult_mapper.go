package mapper

import (
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/dto"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

type ConsultMapper struct{}

func NewConsultMapper() *ConsultMapper {
	return &ConsultMapper{}
}

func (m *ConsultMapper) ToClassificationDTO(c *store.Classification) *dto.ClassificationDTO {
	if c == nil {
		return nil
	}
	return &dto.ClassificationDTO{
		PrimaryType:        c.PrimaryType,
		SpecialistRole:     c.SpecialistRole,
		Confidence:         c.Confidence,
		RelevantLaws:       c.RelevantLaws,
		DirectQuestions:    c.DirectQuestions,
		SuggestedQuestions: c.SuggestedQuestions,
		Persona:            c.Persona,
		StrategicFocus:     c.StrategicFocus,
	}
}

func (m *ConsultMapper) ToSpecialistOutputDTO(o *store.SpecialistOutput) *dto.SpecialistOutputDTO {
	if o == nil {
		return nil
	}
	return &dto.SpecialistOutputDTO{
		Analysis:     o.Analysis,
		Advice:       o.Advice,
		RiskWarning:  o.RiskWarning,
		ActionSteps:  o.ActionSteps,
		RelevantLaws: o.RelevantLaws,
		RagTriggered: o.RagTriggered,
		RagSources:   o.RagSources,
	}
}

func (m *ConsultMapper) ToInspectResponse(sess *store.Session) *dto.SessionInspectResponse {
	return &dto.SessionInspectResponse{
		SessionId:        sess.ID,
		Phase:            string(sess.Phase),
		Decision:         string(sess.Decision),
		InSpecialistMode: sess.InSpecialistMode,
		LastQuestion:     sess.LastQuestion,
		Classification:   m.ToClassificationDTO(sess.Classification),
		SpecialistOutput: m.ToSpecialistOutputDTO(sess.SpecialistOutput),
		CreatedAt:        sess.CreatedAt,
		UpdatedAt:        sess.UpdatedAt,
	}
}
