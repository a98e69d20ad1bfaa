package contact

// Reconciliation is modeled as two explicit operations on TaskData:
// Replace is a total overwrite, Merge is a structural merge that preserves
// client-only flags and merges nested maps key-by-key. Both the command
// path and the notification path reconcile through these, in either order,
// and must converge to the same state.

// Replace returns a deep copy of incoming, discarding old entirely.
func Replace(incoming *TaskData) *TaskData {
	return incoming.Clone()
}

// Merge folds an event-sourced partial payload into the existing data.
// Rules:
//   - client-only flags (WrapUpRequired, IsConsulted, IsConsulting,
//     IsConferenceInProgress, IsAutoAnswering) keep their previous value
//     when incoming leaves them nil; a payload that didn't mention a flag
//     never resets it
//   - Interaction.Participants and Interaction.Media are merged key-by-key:
//     incoming entries win per key, keys absent from incoming survive
//   - scalar fields are replaced only when incoming carries a non-zero value
func Merge(old, incoming *TaskData) *TaskData {
	if old == nil {
		return incoming.Clone()
	}
	if incoming == nil {
		return old.Clone()
	}

	out := old.Clone()

	if incoming.AgentID != "" {
		out.AgentID = incoming.AgentID
	}
	if incoming.MediaResourceID != "" {
		out.MediaResourceID = incoming.MediaResourceID
	}
	if incoming.DestAgentID != "" {
		out.DestAgentID = incoming.DestAgentID
	}
	if incoming.QueueID != "" {
		out.QueueID = incoming.QueueID
	}
	if incoming.TrackingID != "" {
		out.TrackingID = incoming.TrackingID
	}
	if incoming.ReasonCode != 0 {
		out.ReasonCode = incoming.ReasonCode
	}
	if incoming.Reason != "" {
		out.Reason = incoming.Reason
	}
	if incoming.ConsultDestination != "" {
		out.ConsultDestination = incoming.ConsultDestination
	}

	if incoming.WrapUpRequired != nil {
		out.WrapUpRequired = cloneBool(incoming.WrapUpRequired)
	}
	if incoming.IsConsulted != nil {
		out.IsConsulted = cloneBool(incoming.IsConsulted)
	}
	if incoming.IsConsulting != nil {
		out.IsConsulting = cloneBool(incoming.IsConsulting)
	}
	if incoming.IsConferenceInProgress != nil {
		out.IsConferenceInProgress = cloneBool(incoming.IsConferenceInProgress)
	}
	if incoming.IsAutoAnswering != nil {
		out.IsAutoAnswering = cloneBool(incoming.IsAutoAnswering)
	}

	out.Interaction = mergeInteraction(out.Interaction, incoming.Interaction)
	return out
}

func mergeInteraction(old, incoming Interaction) Interaction {
	out := old

	if incoming.InteractionID != "" {
		out.InteractionID = incoming.InteractionID
	}
	if incoming.State != "" {
		out.State = incoming.State
	}
	if incoming.MediaType != "" {
		out.MediaType = incoming.MediaType
	}
	if incoming.ContactDirection != "" {
		out.ContactDirection = incoming.ContactDirection
	}
	if incoming.OutboundType != "" {
		out.OutboundType = incoming.OutboundType
	}
	if incoming.Owner != "" {
		out.Owner = incoming.Owner
	}
	if incoming.MainInteractionID != "" {
		out.MainInteractionID = incoming.MainInteractionID
	}

	out.CallProcessingDetails = mergeCPD(out.CallProcessingDetails, incoming.CallProcessingDetails)

	if len(incoming.Participants) > 0 {
		if out.Participants == nil {
			out.Participants = make(map[string]Participant, len(incoming.Participants))
		}
		for k, v := range incoming.Participants {
			out.Participants[k] = v
		}
	}
	if len(incoming.Media) > 0 {
		if out.Media == nil {
			out.Media = make(map[string]MediaLeg, len(incoming.Media))
		}
		for k, v := range incoming.Media {
			leg := v
			if v.Participants != nil {
				leg.Participants = append([]string(nil), v.Participants...)
			}
			out.Media[k] = leg
		}
	}

	return out
}

func mergeCPD(old, incoming CallProcessingDetails) CallProcessingDetails {
	out := old
	if incoming.RelationshipType != "" {
		out.RelationshipType = incoming.RelationshipType
	}
	if incoming.ParentInteractionID != "" {
		out.ParentInteractionID = incoming.ParentInteractionID
	}
	if incoming.OutdialType != "" {
		out.OutdialType = incoming.OutdialType
	}
	if incoming.IsTransferred {
		out.IsTransferred = true
	}
	if incoming.QueueID != "" {
		out.QueueID = incoming.QueueID
	}
	if incoming.EntryPointID != "" {
		out.EntryPointID = incoming.EntryPointID
	}
	return out
}
