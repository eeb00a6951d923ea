package dto

import "time"

// ConsultRequest creates a session or continues an existing one.
type ConsultRequest struct {
	SessionId                 string   `json:"session_id,omitempty"`
	Question                  string   `json:"question" validate:"required"`
	Context                   string   `json:"context,omitempty"`
	UserConfirmed             bool     `json:"user_confirmed,omitempty"`
	SelectedFollowUpQuestions []string `json:"selected_follow_up_questions,omitempty" validate:"max=10"`
	ResetSession              bool     `json:"reset_session,omitempty"`
}

type ConsultResponse struct {
	SessionId  string `json:"session_id"`
	TaskHandle string `json:"task_handle,omitempty"`
	UiAction   string `json:"ui_action"` // show_confirmation | async_processing
}

// DecisionRequest answers the confirmation gate.
type DecisionRequest struct {
	SessionId         string   `json:"session_id" validate:"required"`
	Action            string   `json:"action" validate:"required,oneof=confirm cancel"`
	SelectedQuestions []string `json:"selected_questions,omitempty" validate:"max=10"`
}

type DecisionResponse struct {
	SessionId  string `json:"session_id"`
	Phase      string `json:"phase"`
	TaskHandle string `json:"task_handle,omitempty"`
}

// StatusResponse is the polling contract. Exactly one of Classification or
// Result is populated depending on Status.
type StatusResponse struct {
	SessionId      string               `json:"session_id"`
	Status         string               `json:"status"` // processing | waiting_confirmation | completed | cancelled | unknown
	Classification *ClassificationDTO   `json:"classification,omitempty"`
	Result         *SpecialistOutputDTO `json:"result,omitempty"`
}

type ClassificationDTO struct {
	PrimaryType        string   `json:"primary_type"`
	SpecialistRole     string   `json:"specialist_role"`
	Confidence         float64  `json:"confidence"`
	RelevantLaws       []string `json:"relevant_laws,omitempty"`
	DirectQuestions    []string `json:"direct_questions,omitempty"`
	SuggestedQuestions []string `json:"suggested_questions,omitempty"`
	Persona            string   `json:"persona,omitempty"`
	StrategicFocus     string   `json:"strategic_focus,omitempty"`
}

type SpecialistOutputDTO struct {
	Analysis     string   `json:"analysis"`
	Advice       string   `json:"advice"`
	RiskWarning  string   `json:"risk_warning"`
	ActionSteps  []string `json:"action_steps,omitempty"`
	RelevantLaws []string `json:"relevant_laws,omitempty"`
	RagTriggered bool     `json:"rag_triggered"`
	RagSources   []string `json:"rag_sources,omitempty"`
}

// SessionInspectResponse exposes raw session state for support tooling.
type SessionInspectResponse struct {
	SessionId        string               `json:"session_id"`
	Phase            string               `json:"phase"`
	Decision         string               `json:"decision"`
	InSpecialistMode bool                 `json:"in_specialist_mode"`
	LastQuestion     string               `json:"last_question"`
	Classification   *ClassificationDTO   `json:"classification,omitempty"`
	SpecialistOutput *SpecialistOutputDTO `json:"specialist_output,omitempty"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// ConsultRoundMessage is the payload dispatched to the worker queue.
type ConsultRoundMessage struct {
	TaskId    string `json:"task_id"`
	SessionId string `json:"session_id"`
	Kind      string `json:"kind"` // triage | specialist
	Question  string `json:"question"`
	Context   string `json:"context,omitempty"`
}
