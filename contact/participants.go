package contact

import "strings"

// DestinationType classifies where a consult or transfer is routed.
type DestinationType string

const (
	DestinationAgent      DestinationType = "agent"
	DestinationDialNumber DestinationType = "dialNumber"
	DestinationEntryPoint DestinationType = "entryPoint"
	DestinationQueue      DestinationType = "queue"
)

// Destination is a resolved consult-transfer target.
type Destination struct {
	To   string
	Type DestinationType
}

// IsPrimary reports whether the agent owns the interaction, falling back to
// the task's own agent id when the owner is unset.
func IsPrimary(d *TaskData, agentID string) bool {
	if d == nil {
		return false
	}
	if d.Interaction.Owner != "" {
		return d.Interaction.Owner == agentID
	}
	return d.AgentID == agentID
}

// IsParticipantInMainInteraction reports whether any mainCall media leg
// lists the agent.
func IsParticipantInMainInteraction(d *TaskData, agentID string) bool {
	if d == nil {
		return false
	}
	for _, leg := range d.Interaction.Media {
		if leg.MType != MTypeMainCall {
			continue
		}
		for _, id := range leg.Participants {
			if id == agentID {
				return true
			}
		}
	}
	return false
}

// ParticipantNotInInteraction reports whether the agent is absent from the
// participant map, or present but marked as having left.
func ParticipantNotInInteraction(d *TaskData, agentID string) bool {
	if d == nil {
		return true
	}
	p, ok := d.Interaction.Participants[agentID]
	return !ok || p.HasLeft
}

// WrapUpRequired reports whether the acting agent's participant record
// marks the interaction as requiring wrap-up.
func WrapUpRequired(d *TaskData, agentID string) bool {
	if d == nil {
		return false
	}
	p, ok := d.Interaction.Participants[agentID]
	return ok && p.IsWrapUp
}

// IsConferenceInProgress reports whether at least two distinct
// non-customer, non-supervisor, non-virtual-assistant participants
// referenced by the mainCall leg have not left. Computed from the current
// payload; creation and conference reconciliation share this one
// implementation.
func IsConferenceInProgress(d *TaskData) bool {
	if d == nil {
		return false
	}
	count := 0
	seen := make(map[string]bool)
	for _, leg := range d.Interaction.Media {
		if leg.MType != MTypeMainCall {
			continue
		}
		for _, id := range leg.Participants {
			if seen[id] {
				continue
			}
			seen[id] = true
			p, ok := d.Interaction.Participants[id]
			if !ok || p.HasLeft {
				continue
			}
			switch p.Type {
			case TypeCustomer, TypeSupervisor, TypeVirtualAssistant:
				continue
			}
			count++
		}
	}
	return count >= 2
}

// IsSecondaryAgent reports whether this task tracks the consulted side of
// another interaction: a consult relationship with a parent interaction
// that differs from this one.
func IsSecondaryAgent(d *TaskData) bool {
	if d == nil {
		return false
	}
	cpd := d.Interaction.CallProcessingDetails
	return cpd.RelationshipType == RelationshipConsult &&
		cpd.ParentInteractionID != "" &&
		cpd.ParentInteractionID != d.Interaction.InteractionID
}

// IsSecondaryEPDNAgent is the telephony variant of IsSecondaryAgent: the
// agent was reached via an entry point/dial number consult.
func IsSecondaryEPDNAgent(d *TaskData) bool {
	return IsSecondaryAgent(d) && d.Interaction.MediaType == MediaTelephony
}

// IsAgentInitiatedOutdial reports whether the interaction is an
// agent-initiated outbound dial.
func IsAgentInitiatedOutdial(d *TaskData) bool {
	if d == nil {
		return false
	}
	return d.Interaction.OutboundType == OutboundTypeOutdial &&
		d.Interaction.MediaType == MediaTelephony
}

// IsAgentInitiatedDigitalOutbound reports whether the interaction is an
// agent-initiated, non-transferred digital outbound contact.
func IsAgentInitiatedDigitalOutbound(d *TaskData) bool {
	if d == nil {
		return false
	}
	return d.Interaction.MediaType != MediaTelephony &&
		d.Interaction.OutboundType == OutboundTypeOutdial &&
		d.Interaction.ContactDirection == DirectionOutbound &&
		!d.Interaction.CallProcessingDetails.IsTransferred
}

// ResolveConsultDestination recomputes the consult-transfer target from the
// participant graph. The consult leg's participants minus the acting agent
// yield the consulted party; when that party is not a direct participant
// entry but matches a dial-number-based entry (capacity-based-team
// routing), resolution goes through that entry's dial number. The reported
// false result means no destination could be resolved.
func ResolveConsultDestination(d *TaskData, agentID string) (Destination, bool) {
	if d == nil {
		return Destination{}, false
	}

	var other string
	for _, leg := range d.Interaction.Media {
		if leg.MType != MTypeConsult {
			continue
		}
		for _, id := range leg.Participants {
			if id != agentID && id != "" {
				other = id
				break
			}
		}
		if other != "" {
			break
		}
	}
	if other == "" {
		return Destination{}, false
	}

	p, ok := d.Interaction.Participants[other]
	if !ok {
		// Capacity-based-team consults list the dial number itself on the
		// consult leg rather than a participant key.
		for _, cand := range d.Interaction.Participants {
			if cand.DN != "" && cand.DN == other {
				return Destination{To: cand.DN, Type: DestinationDialNumber}, true
			}
		}
		return Destination{}, false
	}

	switch p.Type {
	case TypeDialNumber:
		to := p.DN
		if to == "" {
			to = other
		}
		return Destination{To: to, Type: DestinationDialNumber}, true
	case TypeEntryPointDN:
		to := p.EntryPointID
		if to == "" {
			to = other
		}
		return Destination{To: to, Type: DestinationEntryPoint}, true
	case "":
		return Destination{To: other, Type: DestinationAgent}, true
	default:
		return Destination{To: other, Type: DestinationType(strings.ToLower(string(p.Type)))}, true
	}
}
