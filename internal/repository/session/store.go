// Package session owns consultation session persistence. Two backends
// implement the same contract: an in-process cache for single-node
// deployments and Redis for horizontally scaled ones.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// ErrUnknownSession is returned when a caller supplies a session id that
// does not exist. Creation is reserved for an absent id; a client cannot
// mint sessions under ids of its own choosing.
var ErrUnknownSession = errors.New("unknown session id")

type Store interface {
	// GetOrCreate loads the session, or creates it in phase initial when
	// sessionID is empty. A supplied id that does not exist is
	// ErrUnknownSession. A reset request deletes and recreates under the
	// same id. isFollowUp is true only when the session already existed,
	// had left phase initial, and no reset was requested. previousOutput is
	// the specialist output the session carried before this call, if any.
	GetOrCreate(ctx context.Context, sessionID, question string, resetRequested bool) (sess *store.Session, isFollowUp bool, previousOutput *store.SpecialistOutput, err error)

	// Get returns (nil, nil) for an unknown id.
	Get(ctx context.Context, sessionID string) (*store.Session, error)

	Save(ctx context.Context, sess *store.Session) error
	Delete(ctx context.Context, sessionID string) error
}

func newSession(sessionID, question string, now time.Time) *store.Session {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &store.Session{
		ID:           sessionID,
		Phase:        store.PhaseInitial,
		Decision:     store.DecisionNone,
		LastQuestion: question,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// getOrCreate implements the shared contract semantics on top of a backend's
// primitive Get/Save/Delete.
func getOrCreate(ctx context.Context, s Store, sessionID, question string, resetRequested bool, now time.Time) (*store.Session, bool, *store.SpecialistOutput, error) {
	var existing *store.Session
	if sessionID != "" {
		var err error
		existing, err = s.Get(ctx, sessionID)
		if err != nil {
			return nil, false, nil, err
		}
		if existing == nil {
			return nil, false, nil, ErrUnknownSession
		}
	}

	if existing == nil {
		created := newSession(sessionID, question, now)
		if err := s.Save(ctx, created); err != nil {
			return nil, false, nil, err
		}
		return created, false, nil, nil
	}

	previousOutput := existing.SpecialistOutput

	if resetRequested {
		if err := s.Delete(ctx, existing.ID); err != nil {
			return nil, false, nil, err
		}
		created := newSession(existing.ID, question, now)
		if err := s.Save(ctx, created); err != nil {
			return nil, false, nil, err
		}
		return created, false, previousOutput, nil
	}

	isFollowUp := existing.Phase != store.PhaseInitial
	existing.LastQuestion = question
	return existing, isFollowUp, previousOutput, nil
}
