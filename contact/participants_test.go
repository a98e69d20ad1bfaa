package contact

import "testing"

func TestIsPrimary(t *testing.T) {
	tests := []struct {
		name    string
		owner   string
		agentID string
		askFor  string
		want    bool
	}{
		{"owner matches", "agent-1", "agent-2", "agent-1", true},
		{"owner differs", "agent-1", "agent-1", "agent-2", false},
		{"owner unset, fallback matches", "", "agent-1", "agent-1", true},
		{"owner unset, fallback differs", "", "agent-1", "agent-2", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &TaskData{
				AgentID:     tt.agentID,
				Interaction: Interaction{Owner: tt.owner},
			}
			if got := IsPrimary(d, tt.askFor); got != tt.want {
				t.Errorf("IsPrimary = %v, want %v", got, tt.want)
			}
		})
	}

	if IsPrimary(nil, "agent-1") {
		t.Error("IsPrimary(nil) should be false")
	}
}

func TestIsParticipantInMainInteraction(t *testing.T) {
	d := &TaskData{
		Interaction: Interaction{
			Media: map[string]MediaLeg{
				"main":    {MType: MTypeMainCall, Participants: []string{"agent-1", "cust-1"}},
				"consult": {MType: MTypeConsult, Participants: []string{"agent-2"}},
			},
		},
	}

	if !IsParticipantInMainInteraction(d, "agent-1") {
		t.Error("agent-1 is on the main leg")
	}
	if IsParticipantInMainInteraction(d, "agent-2") {
		t.Error("agent-2 is only on the consult leg")
	}
}

func TestParticipantNotInInteraction(t *testing.T) {
	d := &TaskData{
		Interaction: Interaction{
			Participants: map[string]Participant{
				"agent-1": {Type: TypeAgent},
				"agent-2": {Type: TypeAgent, HasLeft: true},
			},
		},
	}

	if ParticipantNotInInteraction(d, "agent-1") {
		t.Error("agent-1 is present and has not left")
	}
	if !ParticipantNotInInteraction(d, "agent-2") {
		t.Error("agent-2 has left")
	}
	if !ParticipantNotInInteraction(d, "agent-3") {
		t.Error("agent-3 is absent")
	}
}

func TestWrapUpRequired(t *testing.T) {
	d := &TaskData{
		Interaction: Interaction{
			Participants: map[string]Participant{
				"agent-1": {Type: TypeAgent, IsWrapUp: true},
				"agent-2": {Type: TypeAgent},
			},
		},
	}
	if !WrapUpRequired(d, "agent-1") {
		t.Error("agent-1 record marks wrap-up")
	}
	if WrapUpRequired(d, "agent-2") {
		t.Error("agent-2 record does not mark wrap-up")
	}
	if WrapUpRequired(d, "missing") {
		t.Error("missing participant never requires wrap-up")
	}
}

func TestIsConferenceInProgress(t *testing.T) {
	tests := []struct {
		name         string
		participants map[string]Participant
		legParts     []string
		want         bool
	}{
		{
			"two agents",
			map[string]Participant{
				"a1": {Type: TypeAgent}, "a2": {Type: TypeAgent}, "c1": {Type: TypeCustomer},
			},
			[]string{"a1", "a2", "c1"},
			true,
		},
		{
			"one agent plus customer",
			map[string]Participant{
				"a1": {Type: TypeAgent}, "c1": {Type: TypeCustomer},
			},
			[]string{"a1", "c1"},
			false,
		},
		{
			"second agent has left",
			map[string]Participant{
				"a1": {Type: TypeAgent}, "a2": {Type: TypeAgent, HasLeft: true}, "c1": {Type: TypeCustomer},
			},
			[]string{"a1", "a2", "c1"},
			false,
		},
		{
			"supervisor and virtual assistant excluded",
			map[string]Participant{
				"a1": {Type: TypeAgent}, "s1": {Type: TypeSupervisor}, "v1": {Type: TypeVirtualAssistant},
			},
			[]string{"a1", "s1", "v1"},
			false,
		},
		{
			"agent and dial number party",
			map[string]Participant{
				"a1": {Type: TypeAgent}, "dn1": {Type: TypeDialNumber, DN: "1234"},
			},
			[]string{"a1", "dn1"},
			true,
		},
		{
			"duplicate leg references count once",
			map[string]Participant{
				"a1": {Type: TypeAgent}, "c1": {Type: TypeCustomer},
			},
			[]string{"a1", "a1", "c1"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &TaskData{
				Interaction: Interaction{
					Participants: tt.participants,
					Media: map[string]MediaLeg{
						"main": {MType: MTypeMainCall, Participants: tt.legParts},
					},
				},
			}
			if got := IsConferenceInProgress(d); got != tt.want {
				t.Errorf("IsConferenceInProgress = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsConferenceInProgressNoMainLeg(t *testing.T) {
	d := &TaskData{Interaction: Interaction{
		Media: map[string]MediaLeg{
			"consult": {MType: MTypeConsult, Participants: []string{"a1", "a2"}},
		},
		Participants: map[string]Participant{
			"a1": {Type: TypeAgent}, "a2": {Type: TypeAgent},
		},
	}}
	if IsConferenceInProgress(d) {
		t.Error("no mainCall leg means no conference")
	}
	if IsConferenceInProgress(&TaskData{}) {
		t.Error("empty interaction means no conference")
	}
}

func TestIsSecondaryAgent(t *testing.T) {
	tests := []struct {
		name   string
		cpd    CallProcessingDetails
		intxID string
		media  MediaType
		want   bool
		wantEP bool
	}{
		{
			"consult child",
			CallProcessingDetails{RelationshipType: RelationshipConsult, ParentInteractionID: "parent-1"},
			"child-1", MediaTelephony, true, true,
		},
		{
			"consult child, digital",
			CallProcessingDetails{RelationshipType: RelationshipConsult, ParentInteractionID: "parent-1"},
			"child-1", MediaChat, true, false,
		},
		{
			"parent equals self",
			CallProcessingDetails{RelationshipType: RelationshipConsult, ParentInteractionID: "intx-1"},
			"intx-1", MediaTelephony, false, false,
		},
		{
			"no consult relationship",
			CallProcessingDetails{ParentInteractionID: "parent-1"},
			"child-1", MediaTelephony, false, false,
		},
		{
			"no parent",
			CallProcessingDetails{RelationshipType: RelationshipConsult},
			"child-1", MediaTelephony, false, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &TaskData{Interaction: Interaction{
				InteractionID:         tt.intxID,
				MediaType:             tt.media,
				CallProcessingDetails: tt.cpd,
			}}
			if got := IsSecondaryAgent(d); got != tt.want {
				t.Errorf("IsSecondaryAgent = %v, want %v", got, tt.want)
			}
			if got := IsSecondaryEPDNAgent(d); got != tt.wantEP {
				t.Errorf("IsSecondaryEPDNAgent = %v, want %v", got, tt.wantEP)
			}
		})
	}
}

func TestResolveConsultDestination(t *testing.T) {
	tests := []struct {
		name         string
		participants map[string]Participant
		legs         map[string]MediaLeg
		wantTo       string
		wantType     DestinationType
		wantOK       bool
	}{
		{
			"consulted agent",
			map[string]Participant{
				"agent-1": {Type: TypeAgent},
				"agent-2": {Type: TypeAgent},
			},
			map[string]MediaLeg{
				"c": {MType: MTypeConsult, Participants: []string{"agent-1", "agent-2"}},
			},
			"agent-2", DestinationAgent, true,
		},
		{
			"dial number participant",
			map[string]Participant{
				"agent-1": {Type: TypeAgent},
				"dn-1":    {Type: TypeDialNumber, DN: "5551234"},
			},
			map[string]MediaLeg{
				"c": {MType: MTypeConsult, Participants: []string{"agent-1", "dn-1"}},
			},
			"5551234", DestinationDialNumber, true,
		},
		{
			"entry point participant",
			map[string]Participant{
				"agent-1": {Type: TypeAgent},
				"ep-1":    {Type: TypeEntryPointDN, EntryPointID: "ep-42"},
			},
			map[string]MediaLeg{
				"c": {MType: MTypeConsult, Participants: []string{"agent-1", "ep-1"}},
			},
			"ep-42", DestinationEntryPoint, true,
		},
		{
			"capacity-based team dial number match",
			map[string]Participant{
				"agent-1": {Type: TypeAgent},
				"cbt-1":   {Type: TypeDialNumber, DN: "5559999"},
			},
			map[string]MediaLeg{
				// The consult leg references the dial number itself, which
				// is not a participant key.
				"c": {MType: MTypeConsult, Participants: []string{"agent-1", "5559999"}},
			},
			"5559999", DestinationDialNumber, true,
		},
		{
			"no consult leg",
			map[string]Participant{"agent-1": {Type: TypeAgent}},
			map[string]MediaLeg{
				"m": {MType: MTypeMainCall, Participants: []string{"agent-1"}},
			},
			"", "", false,
		},
		{
			"consult leg with only self",
			map[string]Participant{"agent-1": {Type: TypeAgent}},
			map[string]MediaLeg{
				"c": {MType: MTypeConsult, Participants: []string{"agent-1"}},
			},
			"", "", false,
		},
		{
			"unknown party with no dial number match",
			map[string]Participant{"agent-1": {Type: TypeAgent}},
			map[string]MediaLeg{
				"c": {MType: MTypeConsult, Participants: []string{"agent-1", "ghost"}},
			},
			"", "", false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &TaskData{Interaction: Interaction{
				Participants: tt.participants,
				Media:        tt.legs,
			}}
			dest, ok := ResolveConsultDestination(d, "agent-1")
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if dest.To != tt.wantTo {
				t.Errorf("To = %q, want %q", dest.To, tt.wantTo)
			}
			if dest.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", dest.Type, tt.wantType)
			}
		})
	}
}
