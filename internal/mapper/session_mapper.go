package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/store"
)

// SessionMapper converts a session to and from a flat string map, the
// storage-engine-neutral record layout used by the Redis backend. Nested
// snapshots are JSON-encoded into single fields.
type SessionMapper struct{}

func NewSessionMapper() *SessionMapper {
	return &SessionMapper{}
}

func (m *SessionMapper) ToFlatMap(sess *store.Session) (map[string]string, error) {
	flat := map[string]string{
		"id":                 sess.ID,
		"phase":              string(sess.Phase),
		"decision":           string(sess.Decision),
		"in_specialist_mode": strconv.FormatBool(sess.InSpecialistMode),
		"last_question":      sess.LastQuestion,
		"created_at":         sess.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":         sess.UpdatedAt.Format(time.RFC3339Nano),
	}

	if sess.Classification != nil {
		raw, err := json.Marshal(sess.Classification)
		if err != nil {
			return nil, fmt.Errorf("marshal classification: %w", err)
		}
		flat["classification"] = string(raw)
	}
	if sess.SpecialistOutput != nil {
		raw, err := json.Marshal(sess.SpecialistOutput)
		if err != nil {
			return nil, fmt.Errorf("marshal specialist output: %w", err)
		}
		flat["specialist_output"] = string(raw)
	}

	return flat, nil
}

func (m *SessionMapper) FromFlatMap(flat map[string]string) (*store.Session, error) {
	if flat["id"] == "" {
		return nil, fmt.Errorf("session record missing id")
	}

	sess := &store.Session{
		ID:           flat["id"],
		Phase:        store.Phase(flat["phase"]),
		Decision:     store.Decision(flat["decision"]),
		LastQuestion: flat["last_question"],
	}

	sess.InSpecialistMode, _ = strconv.ParseBool(flat["in_specialist_mode"])

	// An unparsable timestamp is left at zero. The sticky-routing window
	// check treats a zero UpdatedAt as inactive, never as an error.
	if ts, err := time.Parse(time.RFC3339Nano, flat["created_at"]); err == nil {
		sess.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, flat["updated_at"]); err == nil {
		sess.UpdatedAt = ts
	}

	if raw := flat["classification"]; raw != "" {
		var c store.Classification
		if err := json.Unmarshal([]byte(raw), &c); err != nil {
			return nil, fmt.Errorf("unmarshal classification: %w", err)
		}
		sess.Classification = &c
	}
	if raw := flat["specialist_output"]; raw != "" {
		var o store.SpecialistOutput
		if err := json.Unmarshal([]byte(raw), &o); err != nil {
			return nil, fmt.Errorf("unmarshal specialist output: %w", err)
		}
		sess.SpecialistOutput = &o
	}

	return sess, nil
}
