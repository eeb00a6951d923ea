package nats

import (
	"encoding/json"
	"testing"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/pkg/events"
)

func TestSubject(t *testing.T) {
	if got := Subject(events.TypeSpecialistCompleted); got != "consult.SPECIALIST_COMPLETED" {
		t.Errorf("Subject() = %q, want %q", got, "consult.SPECIALIST_COMPLETED")
	}
}

func TestEncodeEventAddsEnvelopeFields(t *testing.T) {
	event := events.NewTriageCompleted("s1", "labor_dispute", "劳动法专家", 0.9)

	data, err := encodeEvent(event)
	if err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal encoded event: %v", err)
	}
	if decoded["event_type"] != events.TypeTriageCompleted {
		t.Errorf("event_type = %v, want %s", decoded["event_type"], events.TypeTriageCompleted)
	}
	if decoded["occurred_at"] == nil {
		t.Error("occurred_at missing from encoded event")
	}
	if decoded["session_id"] != "s1" {
		t.Errorf("session_id = %v, want s1", decoded["session_id"])
	}
}

func TestEncodeEventLeavesPayloadUntouched(t *testing.T) {
	event := events.NewSpecialistCompleted("s1", true, 3)

	if _, err := encodeEvent(event); err != nil {
		t.Fatalf("encodeEvent() error = %v", err)
	}

	payload := event.Payload()
	if _, ok := payload["event_type"]; ok {
		t.Error("encoding must not write envelope keys into the event's own payload")
	}
	if _, ok := payload["occurred_at"]; ok {
		t.Error("encoding must not write envelope keys into the event's own payload")
	}
}
