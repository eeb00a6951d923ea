package router

import (
	"log"
	"time"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/consult/phase"
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// StickyWindow is how long after the last transition a follow-up question is
// still treated as a continuation of the specialist round.
const StickyWindow = 30 * time.Minute

// Action tells the orchestrator what work the incoming request requires.
type Action string

const (
	ActionDispatchTriage     Action = "dispatch_triage"
	ActionDispatchSpecialist Action = "dispatch_specialist"
	ActionAwaitConfirmation  Action = "await_confirmation"
)

// Router computes the next phase for a session. It is a pure decision layer:
// it mutates the passed session in memory but never persists it.
type Router struct {
	window time.Duration
	now    func() time.Time
	logger *log.Logger
}

// NewRouter creates a phase router with the given sticky window. A zero
// window falls back to StickyWindow.
func NewRouter(window time.Duration, logger *log.Logger) *Router {
	if window <= 0 {
		window = StickyWindow
	}
	return &Router{
		window: window,
		now:    time.Now,
		logger: logger,
	}
}

// WithClock overrides the router's clock. Tests use this to probe the
// sticky-window boundary.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// StickyActive reports whether a follow-up on this session bypasses triage
// and re-enters the specialist tier directly. All five conditions must hold.
// A broken or zero timestamp makes the window check fail, which deactivates
// sticky routing; it is never an error.
func (r *Router) StickyActive(session *store.Session, resetRequested bool) bool {
	if session == nil || resetRequested {
		return false
	}
	if session.Decision != store.DecisionConfirmed {
		return false
	}
	if !session.InSpecialistMode {
		return false
	}
	if session.Phase != store.PhaseSpecialist && session.Phase != store.PhaseCompleted {
		return false
	}
	if session.UpdatedAt.IsZero() {
		return false
	}
	return r.now().Sub(session.UpdatedAt) <= r.window
}

// ApplySticky re-enters the specialist round for a follow-up question. The
// previous round's SpecialistOutput is cleared so the new answer cannot be
// confused with the old one; Classification is left untouched.
func (r *Router) ApplySticky(session *store.Session, question string) {
	session.SpecialistOutput = nil
	session.Phase = store.PhaseSpecialist
	session.LastQuestion = question
	session.Touch(r.now())
	if r.logger != nil {
		r.logger.Printf("[ROUTER] Sticky routing active for session %s, re-entering specialist", session.ID)
	}
}

// Decide maps the current session state plus the user-confirmed flag onto the
// work the orchestrator must dispatch.
func (r *Router) Decide(session *store.Session, userConfirmed bool) Action {
	if userConfirmed && session.Phase == store.PhaseWaitingConfirmation {
		return ActionDispatchSpecialist
	}
	if session.Phase == store.PhaseWaitingConfirmation {
		return ActionAwaitConfirmation
	}
	return ActionDispatchTriage
}

// allowed checks the phase graph before a setter mutates the session. A
// refused edge leaves the session untouched.
func (r *Router) allowed(session *store.Session, to store.Phase) bool {
	if phase.CanTransition(session.Phase, to) {
		return true
	}
	if r.logger != nil {
		r.logger.Printf("[ROUTER] Refusing transition %s -> %s for session %s", session.Phase, to, session.ID)
	}
	return false
}

// Confirm moves a waiting session into the specialist phase, reusing the
// existing classification. It reports false when the session's phase does not
// allow the move.
func (r *Router) Confirm(session *store.Session) bool {
	if !r.allowed(session, store.PhaseSpecialist) {
		return false
	}
	session.Decision = store.DecisionConfirmed
	session.InSpecialistMode = true
	session.Phase = store.PhaseSpecialist
	session.Touch(r.now())
	return true
}

// Cancel marks a waiting session cancelled. It reports false when the session
// is already in a terminal phase.
func (r *Router) Cancel(session *store.Session) bool {
	if !r.allowed(session, store.PhaseCancelled) {
		return false
	}
	session.Decision = store.DecisionCancelled
	session.Phase = store.PhaseCancelled
	session.Touch(r.now())
	return true
}

// BeginTriage moves a session into the triage round for a new question. It
// reports false for sessions whose phase has no path back to triage, such as
// cancelled or archived ones.
func (r *Router) BeginTriage(session *store.Session, question string) bool {
	if !r.allowed(session, store.PhaseAssistant) {
		return false
	}
	session.Phase = store.PhaseAssistant
	session.Decision = store.DecisionNone
	session.InSpecialistMode = false
	session.Classification = nil
	session.SpecialistOutput = nil
	session.LastQuestion = question
	session.Touch(r.now())
	return true
}

// CompleteTriage records the classification and parks the session at the
// confirmation gate. It reports false when the session moved out of the
// triage round while the work was in flight.
func (r *Router) CompleteTriage(session *store.Session, c *store.Classification) bool {
	if !r.allowed(session, store.PhaseWaitingConfirmation) {
		return false
	}
	session.Classification = c
	session.Phase = store.PhaseWaitingConfirmation
	session.Touch(r.now())
	return true
}

// CompleteSpecialist records the specialist output and finishes the round.
// The write is refused when the session was cancelled while the work was in
// flight; late results must never be applied to a cancelled session.
func (r *Router) CompleteSpecialist(session *store.Session, out *store.SpecialistOutput) bool {
	if phase.IsTerminal(session.Phase) || session.Decision == store.DecisionCancelled {
		if r.logger != nil {
			r.logger.Printf("[ROUTER] Dropping late specialist result for session %s (phase=%s)", session.ID, session.Phase)
		}
		return false
	}
	if !r.allowed(session, store.PhaseCompleted) {
		return false
	}
	session.SpecialistOutput = out
	session.Phase = store.PhaseCompleted
	session.Touch(r.now())
	return true
}
