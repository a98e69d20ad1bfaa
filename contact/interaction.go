// Package contact holds the client-side data model for one customer
// interaction and the pure helpers that read it. Everything here is
// side-effect free; the task package owns mutation.
package contact

import "encoding/json"

// MediaType identifies the media of an interaction.
type MediaType string

const (
	MediaTelephony MediaType = "telephony"
	MediaChat      MediaType = "chat"
	MediaEmail     MediaType = "email"
	MediaSocial    MediaType = "social"
)

// ParticipantType classifies a participant entry.
type ParticipantType string

const (
	TypeAgent            ParticipantType = "Agent"
	TypeCustomer         ParticipantType = "Customer"
	TypeSupervisor       ParticipantType = "Supervisor"
	TypeVirtualAssistant ParticipantType = "VirtualAssistant"
	TypeDialNumber       ParticipantType = "DN"
	TypeEntryPointDN     ParticipantType = "EP-DN"
)

// Media leg kinds.
const (
	MTypeMainCall = "mainCall"
	MTypeConsult  = "consult"
)

// Interaction states the core distinguishes.
const (
	StateNew       = "new"
	StateConnected = "connected"
	StateConsult   = "consult"
	StateWrapUp    = "wrapUp"
)

// Outbound interaction kinds.
const (
	OutboundTypeOutdial  = "OUTDIAL"
	OutboundTypeCampaign = "CAMPAIGN"
)

// Contact directions.
const (
	DirectionInbound  = "INBOUND"
	DirectionOutbound = "OUTBOUND"
)

// RelationshipConsult marks an interaction created to consult another party.
const RelationshipConsult = "consult"

// Participant is one party on an interaction.
type Participant struct {
	ID           string          `json:"id,omitempty"`
	Type         ParticipantType `json:"pType,omitempty"`
	HasJoined    bool            `json:"hasJoined,omitempty"`
	HasLeft      bool            `json:"hasLeft,omitempty"`
	IsWrapUp     bool            `json:"isWrapUp,omitempty"`
	DN           string          `json:"dn,omitempty"`
	EntryPointID string          `json:"epId,omitempty"`
}

// MediaLeg is one communication path within an interaction, with its own
// participant set and hold state.
type MediaLeg struct {
	MediaResourceID string   `json:"mediaResourceId,omitempty"`
	MType           string   `json:"mType,omitempty"`
	Participants    []string `json:"participants,omitempty"`
	IsHold          bool     `json:"isHold,omitempty"`
	HoldTimestamp   int64    `json:"holdTimestamp,omitempty"`
}

// CallProcessingDetails carries routing, consult and outdial metadata.
type CallProcessingDetails struct {
	RelationshipType    string `json:"relationshipType,omitempty"`
	ParentInteractionID string `json:"parentInteractionId,omitempty"`
	OutdialType         string `json:"outdialType,omitempty"`
	IsTransferred       bool   `json:"isTransferred,omitempty"`
	QueueID             string `json:"queueId,omitempty"`
	EntryPointID        string `json:"entryPointId,omitempty"`
}

// Interaction is the backend's canonical record of one customer contact.
// At any converged state every media leg's participant id set is a subset
// of Participants' keys; transient payloads may violate this.
type Interaction struct {
	InteractionID         string                 `json:"interactionId,omitempty"`
	State                 string                 `json:"state,omitempty"`
	MediaType             MediaType              `json:"mediaType,omitempty"`
	ContactDirection      string                 `json:"contactDirection,omitempty"`
	OutboundType          string                 `json:"outboundType,omitempty"`
	Owner                 string                 `json:"owner,omitempty"`
	MainInteractionID     string                 `json:"mainInteractionId,omitempty"`
	Participants          map[string]Participant `json:"participants,omitempty"`
	Media                 map[string]MediaLeg    `json:"media,omitempty"`
	CallProcessingDetails CallProcessingDetails  `json:"callProcessingDetails,omitempty"`
}

// TaskData is the client-side aggregate for one interaction: the backend
// record plus client-only flags. The flags are pointers so a payload that
// does not mention them is distinguishable from one that sets them false.
type TaskData struct {
	Interaction     Interaction `json:"interaction"`
	AgentID         string      `json:"agentId,omitempty"`
	MediaResourceID string      `json:"mediaResourceId,omitempty"`
	DestAgentID     string      `json:"destAgentId,omitempty"`
	QueueID         string      `json:"queueId,omitempty"`
	TrackingID      string      `json:"trackingId,omitempty"`
	ReasonCode      int         `json:"reasonCode,omitempty"`
	Reason          string      `json:"reason,omitempty"`

	// ConsultDestination records what the agent dialed when starting a
	// consult. Display only; the transfer target is recomputed from the
	// live participants, never read back from here.
	ConsultDestination string `json:"consultDestination,omitempty"`

	// Client-only flags, preserved across merges unless explicitly set.
	WrapUpRequired         *bool `json:"wrapUpRequired,omitempty"`
	IsConsulted            *bool `json:"isConsulted,omitempty"`
	IsConsulting           *bool `json:"isConsulting,omitempty"`
	IsConferenceInProgress *bool `json:"isConferenceInProgress,omitempty"`
	IsAutoAnswering        *bool `json:"isAutoAnswering,omitempty"`
}

// Bool returns a pointer to b, for setting client-only flags.
func Bool(b bool) *bool {
	return &b
}

// BoolValue dereferences a client-only flag, treating absent as false.
func BoolValue(p *bool) bool {
	return p != nil && *p
}

// Clone returns a deep copy of the task data.
func (d *TaskData) Clone() *TaskData {
	if d == nil {
		return nil
	}
	out := *d
	out.Interaction = cloneInteraction(d.Interaction)
	out.WrapUpRequired = cloneBool(d.WrapUpRequired)
	out.IsConsulted = cloneBool(d.IsConsulted)
	out.IsConsulting = cloneBool(d.IsConsulting)
	out.IsConferenceInProgress = cloneBool(d.IsConferenceInProgress)
	out.IsAutoAnswering = cloneBool(d.IsAutoAnswering)
	return &out
}

func cloneInteraction(in Interaction) Interaction {
	out := in
	if in.Participants != nil {
		out.Participants = make(map[string]Participant, len(in.Participants))
		for k, v := range in.Participants {
			out.Participants[k] = v
		}
	}
	if in.Media != nil {
		out.Media = make(map[string]MediaLeg, len(in.Media))
		for k, v := range in.Media {
			leg := v
			if v.Participants != nil {
				leg.Participants = append([]string(nil), v.Participants...)
			}
			out.Media[k] = leg
		}
	}
	return out
}

func cloneBool(p *bool) *bool {
	if p == nil {
		return nil
	}
	b := *p
	return &b
}

// Marshal serializes the task data to JSON.
func (d *TaskData) Marshal() ([]byte, error) {
	return json.Marshal(d)
}

// UnmarshalTaskData deserializes task data from JSON.
func UnmarshalTaskData(data []byte) (*TaskData, error) {
	var d TaskData
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
