package channel

import (
	"encoding/json"
	"errors"

	"github.com/contactdesk/deskcore/contact"
)

// ErrEmptyEnvelope indicates a frame with no payload at all.
var ErrEmptyEnvelope = errors.New("empty envelope")

// EventType identifies one kind of routing notification. The set is closed:
// the registry's dispatcher switches over every member, so an unhandled
// kind is a visible gap rather than a silent default.
type EventType string

const (
	// Contact lifecycle
	EventContactOffered      EventType = "AgentOfferContact"
	EventContactReserved     EventType = "AgentContactReserved"
	EventContactAssigned     EventType = "AgentContactAssigned"
	EventContactAssignFailed EventType = "AgentContactAssignFailed"
	EventContactInviteFailed EventType = "AgentInviteFailed"
	EventContactUnassigned   EventType = "AgentContactUnassigned"
	EventContactEnded        EventType = "ContactEnded"
	EventContactHeld         EventType = "AgentContactHeld"
	EventContactUnheld       EventType = "AgentContactUnheld"
	EventContactRONA         EventType = "AgentOfferContactRona"
	EventContactWrapup       EventType = "AgentWrapup"
	EventContactWrappedUp    EventType = "AgentWrappedUp"
	EventContactMerged       EventType = "ContactMerged"

	// Consult
	EventConsultCreated  EventType = "AgentConsultCreated"
	EventConsultOffered  EventType = "AgentOfferConsult"
	EventConsultAccepted EventType = "AgentConsulting"
	EventConsultEnded    EventType = "AgentConsultEnded"
	EventConsultFailed   EventType = "AgentConsultFailed"
	EventCtqCancelled    EventType = "AgentCtqCancelled"
	EventCtqFailed       EventType = "AgentCtqFailed"

	// Conference
	EventConferenceEstablishing   EventType = "AgentConferenceEstablishing"
	EventConferenceStarted        EventType = "AgentConferenceStarted"
	EventConferenceFailed         EventType = "AgentConferenceFailed"
	EventConferenceEnded          EventType = "AgentConferenceEnded"
	EventConferenceTransferred    EventType = "AgentConferenceTransferred"
	EventConferenceTransferFailed EventType = "AgentConferenceTransferFailed"
	EventParticipantJoined        EventType = "ConferenceParticipantJoined"
	EventParticipantLeft          EventType = "ConferenceParticipantLeft"

	// Transfer
	EventBlindTransferred    EventType = "AgentBlindTransferred"
	EventBlindTransferFailed EventType = "AgentBlindTransferFailed"
	EventVteamTransferred    EventType = "AgentVteamTransferred"
	EventVteamTransferFailed EventType = "AgentVteamTransferFailed"

	// Outdial
	EventOutdialFailed EventType = "AgentOutdialFailed"

	// Recording
	EventRecordingPaused       EventType = "ContactRecordingPaused"
	EventRecordingPauseFailed  EventType = "ContactRecordingPauseFailed"
	EventRecordingResumed      EventType = "ContactRecordingResumed"
	EventRecordingResumeFailed EventType = "ContactRecordingResumeFailed"

	// Post-interaction
	EventPostCallActivity EventType = "PostCallActivity"
)

// knownEventTypes is the membership set for KnownEventType.
var knownEventTypes = map[EventType]bool{
	EventContactOffered:           true,
	EventContactReserved:          true,
	EventContactAssigned:          true,
	EventContactAssignFailed:      true,
	EventContactInviteFailed:      true,
	EventContactUnassigned:        true,
	EventContactEnded:             true,
	EventContactHeld:              true,
	EventContactUnheld:            true,
	EventContactRONA:              true,
	EventContactWrapup:            true,
	EventContactWrappedUp:         true,
	EventContactMerged:            true,
	EventConsultCreated:           true,
	EventConsultOffered:           true,
	EventConsultAccepted:          true,
	EventConsultEnded:             true,
	EventConsultFailed:            true,
	EventCtqCancelled:             true,
	EventCtqFailed:                true,
	EventConferenceEstablishing:   true,
	EventConferenceStarted:        true,
	EventConferenceFailed:         true,
	EventConferenceEnded:          true,
	EventConferenceTransferred:    true,
	EventConferenceTransferFailed: true,
	EventParticipantJoined:        true,
	EventParticipantLeft:          true,
	EventBlindTransferred:         true,
	EventBlindTransferFailed:      true,
	EventVteamTransferred:         true,
	EventVteamTransferFailed:      true,
	EventOutdialFailed:            true,
	EventRecordingPaused:          true,
	EventRecordingPauseFailed:     true,
	EventRecordingResumed:         true,
	EventRecordingResumeFailed:    true,
	EventPostCallActivity:         true,
}

// KnownEventType reports whether t is a member of the closed event set.
func KnownEventType(t EventType) bool {
	return knownEventTypes[t]
}

// Envelope is one parsed frame from the event stream.
type Envelope struct {
	Type       string        `json:"type,omitempty"`
	Keepalive  bool          `json:"keepalive,omitempty"`
	TrackingID string        `json:"trackingId,omitempty"`
	Data       *ContactEvent `json:"data,omitempty"`
}

// ContactEvent is the typed payload of a routing notification.
type ContactEvent struct {
	Type               EventType           `json:"type"`
	AgentID            string              `json:"agentId,omitempty"`
	TrackingID         string              `json:"trackingId,omitempty"`
	InteractionID      string              `json:"interactionId,omitempty"`
	MainInteractionID  string              `json:"mainInteractionId,omitempty"`
	ChildInteractionID string              `json:"childInteractionId,omitempty"`
	Interaction        contact.Interaction `json:"interaction,omitempty"`
	MediaResourceID    string              `json:"mediaResourceId,omitempty"`
	DestAgentID        string              `json:"destAgentId,omitempty"`
	QueueID            string              `json:"queueId,omitempty"`
	Owner              string              `json:"owner,omitempty"`
	Reason             string              `json:"reason,omitempty"`
	ReasonCode         int                 `json:"reasonCode,omitempty"`
	WrapupAuxCodeID    string              `json:"wrapUpAuxCodeId,omitempty"`
	WrapupReason       string              `json:"wrapUpReason,omitempty"`
	Raw                json.RawMessage     `json:"-"`
}

// ID returns the interaction id the event refers to, falling back to the
// embedded interaction record.
func (e *ContactEvent) ID() string {
	if e.InteractionID != "" {
		return e.InteractionID
	}
	return e.Interaction.InteractionID
}

// TaskData projects the event payload into client-side task data for
// reconciliation.
func (e *ContactEvent) TaskData() *contact.TaskData {
	return &contact.TaskData{
		Interaction:     e.Interaction,
		AgentID:         e.AgentID,
		MediaResourceID: e.MediaResourceID,
		DestAgentID:     e.DestAgentID,
		QueueID:         e.QueueID,
		TrackingID:      e.TrackingID,
		Reason:          e.Reason,
		ReasonCode:      e.ReasonCode,
	}
}

// ParseEnvelope parses one raw frame. The data payload, when present,
// keeps its raw bytes for diagnostics.
func ParseEnvelope(raw []byte) (*Envelope, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyEnvelope
	}

	var probe struct {
		Type       string          `json:"type"`
		Keepalive  json.RawMessage `json:"keepalive"`
		TrackingID string          `json:"trackingId"`
		Data       json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	env := &Envelope{
		Type:       probe.Type,
		TrackingID: probe.TrackingID,
		Keepalive:  isTruthy(probe.Keepalive),
	}

	if len(probe.Data) > 0 && string(probe.Data) != "null" {
		var data ContactEvent
		if err := json.Unmarshal(probe.Data, &data); err != nil {
			return nil, err
		}
		data.Raw = probe.Data
		env.Data = &data
	}
	return env, nil
}

// isTruthy accepts both boolean and string keep-alive markers; the stream
// historically sends "true" as a string.
func isTruthy(raw json.RawMessage) bool {
	switch string(raw) {
	case "true", `"true"`:
		return true
	default:
		return false
	}
}
