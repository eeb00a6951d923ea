package store

import "time"

// Phase is a named stage in a consultation session's lifecycle.
type Phase string

const (
	PhaseInitial             Phase = "initial"
	PhaseAssistant           Phase = "assistant"
	PhaseWaitingConfirmation Phase = "waiting_confirmation"
	PhaseSpecialist          Phase = "specialist"
	PhaseCompleted           Phase = "completed"
	PhaseCancelled           Phase = "cancelled"
	PhaseArchived            Phase = "archived"
)

// Decision records the user's answer to the confirmation gate.
type Decision string

const (
	DecisionNone      Decision = "none"
	DecisionConfirmed Decision = "confirmed"
	DecisionCancelled Decision = "cancelled"
)

// Classification is the triage snapshot produced once per round.
// It is immutable for the remainder of that round.
type Classification struct {
	PrimaryType        string   `json:"primary_type"`
	SpecialistRole     string   `json:"specialist_role"`
	Confidence         float64  `json:"confidence"`
	RelevantLaws       []string `json:"relevant_laws"`
	DirectQuestions    []string `json:"direct_questions"`
	SuggestedQuestions []string `json:"suggested_questions"`
	Persona            string   `json:"persona"`
	StrategicFocus     string   `json:"strategic_focus"`
}

// SpecialistOutput is the deep-tier result, written once per specialist round.
type SpecialistOutput struct {
	Analysis     string   `json:"analysis"`
	Advice       string   `json:"advice"`
	RiskWarning  string   `json:"risk_warning"`
	ActionSteps  []string `json:"action_steps"`
	RelevantLaws []string `json:"relevant_laws"`
	RagTriggered bool     `json:"rag_triggered"`
	RagSources   []string `json:"rag_sources"`
}

// Session is the consultation session state owned by the session store.
// It is mutated only by the phase router and the orchestrator.
type Session struct {
	ID               string            `json:"id"`
	Phase            Phase             `json:"phase"`
	Decision         Decision          `json:"decision"`
	InSpecialistMode bool              `json:"in_specialist_mode"`
	Classification   *Classification   `json:"classification,omitempty"`
	SpecialistOutput *SpecialistOutput `json:"specialist_output,omitempty"`
	LastQuestion     string            `json:"last_question"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Touch refreshes UpdatedAt. Every phase transition goes through here since
// UpdatedAt is the sole input to the sticky-routing time window.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// KnowledgeItem is a single retrieval result. RelevanceScore is comparable
// only within one aggregation call, never across stores or calls.
type KnowledgeItem struct {
	ID             string                 `json:"id"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	SourceStore    string                 `json:"source_store"`
	URL            string                 `json:"url,omitempty"`
	RelevanceScore float64                `json:"relevance_score"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// TaskHandle is the opaque reference returned by the dispatcher.
// Status is always derived from session state, never stored here.
type TaskHandle struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
}
