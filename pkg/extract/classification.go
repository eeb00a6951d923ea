package extract

import (
	"encoding/json"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// classificationPayload mirrors the triage model's JSON output. Every field
// is optional; missing fields get explicit defaults instead of being read
// out of a loose map.
type classificationPayload struct {
	PrimaryType        string   `json:"primary_type"`
	CaseType           string   `json:"case_type"` // older prompt revision
	SpecialistRole     string   `json:"specialist_role"`
	Confidence         float64  `json:"confidence"`
	RelevantLaws       []string `json:"relevant_laws"`
	DirectQuestions    []string `json:"direct_questions"`
	SuggestedQuestions []string `json:"suggested_questions"`
	Persona            string   `json:"persona"`
	StrategicFocus     string   `json:"strategic_focus"`
}

const (
	defaultPrimaryType    = "general_consultation"
	defaultSpecialistRole = "综合法律顾问"
)

// Classification parses the triage model output into a classification
// snapshot. Parse failure is recoverable: the round proceeds with a default
// classification rather than aborting.
func (e *Extractor) Classification(raw string) *store.Classification {
	cleaned := stripReasoning(raw)

	frag := findJSONFragment(cleaned)
	if frag == "" {
		e.logf("[EXTRACT] No JSON in triage output, using default classification")
		return defaultClassification()
	}

	var payload classificationPayload
	if err := json.Unmarshal([]byte(frag), &payload); err != nil {
		e.logf("[EXTRACT] Triage JSON parse failed: %v", err)
		return defaultClassification()
	}

	c := &store.Classification{
		PrimaryType:        payload.PrimaryType,
		SpecialistRole:     payload.SpecialistRole,
		Confidence:         payload.Confidence,
		RelevantLaws:       payload.RelevantLaws,
		DirectQuestions:    payload.DirectQuestions,
		SuggestedQuestions: payload.SuggestedQuestions,
		Persona:            payload.Persona,
		StrategicFocus:     payload.StrategicFocus,
	}

	if c.PrimaryType == "" {
		c.PrimaryType = payload.CaseType
	}
	if c.PrimaryType == "" {
		c.PrimaryType = defaultPrimaryType
	}
	if c.SpecialistRole == "" {
		c.SpecialistRole = defaultSpecialistRole
	}
	if c.Confidence < 0 {
		c.Confidence = 0
	}
	if c.Confidence > 1 {
		c.Confidence = 1
	}

	return c
}

func defaultClassification() *store.Classification {
	return &store.Classification{
		PrimaryType:    defaultPrimaryType,
		SpecialistRole: defaultSpecialistRole,
		Confidence:     0,
	}
}
