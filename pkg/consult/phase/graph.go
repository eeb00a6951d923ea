package phase

import (
	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// transitions is the forward phase graph. Sessions only move along these
// edges; the sticky-routing short-circuit re-enters specialist directly and
// is validated separately by the router.
//
// The edges back to assistant are new-round re-entries: a question arriving
// after the sticky window lapsed starts a fresh triage round, and a session
// whose dispatch failed retries the triage round under the same id.
// Terminal phases have no way back to assistant without an explicit reset.
var transitions = map[store.Phase][]store.Phase{
	store.PhaseInitial:             {store.PhaseAssistant, store.PhaseWaitingConfirmation, store.PhaseCancelled},
	store.PhaseAssistant:           {store.PhaseAssistant, store.PhaseWaitingConfirmation, store.PhaseCancelled},
	store.PhaseWaitingConfirmation: {store.PhaseSpecialist, store.PhaseCancelled, store.PhaseArchived},
	store.PhaseSpecialist:          {store.PhaseAssistant, store.PhaseCompleted, store.PhaseCancelled},
	store.PhaseCompleted:           {store.PhaseAssistant, store.PhaseArchived},
	store.PhaseCancelled:           {store.PhaseArchived},
	store.PhaseArchived:            {},
}

// CanTransition reports whether moving from one phase to another follows the
// forward phase graph.
func CanTransition(from, to store.Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a session in this phase accepts no further rounds
// without an explicit reset.
func IsTerminal(p store.Phase) bool {
	return p == store.PhaseCancelled || p == store.PhaseArchived
}

// Valid reports whether p is a known phase value. Unknown values can appear
// when a persisted record was written by a newer build.
func Valid(p store.Phase) bool {
	_, ok := transitions[p]
	return ok
}
