package channel

import (
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	raw := []byte(`{
		"type": "RoutingMessage",
		"trackingId": "trk-1",
		"data": {
			"type": "AgentContactReserved",
			"agentId": "agent-1",
			"interactionId": "intx-1",
			"interaction": {
				"interactionId": "intx-1",
				"state": "new",
				"mediaType": "telephony",
				"participants": {
					"agent-1": {"pType": "Agent", "isWrapUp": true}
				}
			}
		}
	}`)

	env, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.Type != "RoutingMessage" {
		t.Errorf("Type = %q", env.Type)
	}
	if env.Keepalive {
		t.Error("Keepalive should be false")
	}
	if env.Data == nil {
		t.Fatal("Data should be present")
	}
	if env.Data.Type != EventContactReserved {
		t.Errorf("event type = %q", env.Data.Type)
	}
	if env.Data.ID() != "intx-1" {
		t.Errorf("ID() = %q", env.Data.ID())
	}
	if len(env.Data.Raw) == 0 {
		t.Error("raw payload should be retained")
	}

	p, ok := env.Data.Interaction.Participants["agent-1"]
	if !ok || !p.IsWrapUp {
		t.Error("participant wrap-up marker should survive parsing")
	}
}

func TestParseEnvelopeKeepalive(t *testing.T) {
	for _, raw := range []string{`{"keepalive": true}`, `{"keepalive": "true"}`} {
		env, err := ParseEnvelope([]byte(raw))
		if err != nil {
			t.Fatalf("ParseEnvelope(%s) failed: %v", raw, err)
		}
		if !env.Keepalive {
			t.Errorf("ParseEnvelope(%s): Keepalive should be true", raw)
		}
		if env.Data != nil {
			t.Error("keepalive frames carry no payload")
		}
	}
}

func TestParseEnvelopeNoData(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type": "Welcome"}`))
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.Data != nil {
		t.Error("Data should be nil")
	}
}

func TestParseEnvelopeErrors(t *testing.T) {
	if _, err := ParseEnvelope(nil); err != ErrEmptyEnvelope {
		t.Errorf("empty input: err = %v, want ErrEmptyEnvelope", err)
	}
	if _, err := ParseEnvelope([]byte(`{not json`)); err == nil {
		t.Error("malformed input should error")
	}
}

func TestEventIDFallsBackToInteraction(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{
		"data": {"type": "ContactEnded", "interaction": {"interactionId": "intx-7"}}
	}`))
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}
	if env.Data.ID() != "intx-7" {
		t.Errorf("ID() = %q, want intx-7", env.Data.ID())
	}
}

func TestKnownEventType(t *testing.T) {
	known := []EventType{
		EventContactOffered, EventContactReserved, EventContactAssigned,
		EventContactEnded, EventContactWrappedUp, EventConsultCreated,
		EventConferenceStarted, EventParticipantLeft, EventContactMerged,
		EventRecordingPaused, EventPostCallActivity,
	}
	for _, et := range known {
		if !KnownEventType(et) {
			t.Errorf("KnownEventType(%q) = false", et)
		}
	}
	if KnownEventType("SomethingElse") {
		t.Error("unknown type should not be known")
	}
}

func TestEventTaskData(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{
		"data": {
			"type": "AgentContactAssigned",
			"agentId": "agent-1",
			"trackingId": "trk-5",
			"mediaResourceId": "mr-1",
			"destAgentId": "agent-2",
			"reasonCode": 3,
			"interaction": {"interactionId": "intx-1"}
		}
	}`))
	if err != nil {
		t.Fatalf("ParseEnvelope failed: %v", err)
	}

	d := env.Data.TaskData()
	if d.Interaction.InteractionID != "intx-1" {
		t.Errorf("InteractionID = %q", d.Interaction.InteractionID)
	}
	if d.AgentID != "agent-1" || d.MediaResourceID != "mr-1" || d.DestAgentID != "agent-2" {
		t.Errorf("projection mismatch: %+v", d)
	}
	if d.TrackingID != "trk-5" || d.ReasonCode != 3 {
		t.Errorf("tracking projection mismatch: %+v", d)
	}
	if d.WrapUpRequired != nil {
		t.Error("projection must not invent client-only flags")
	}
}
