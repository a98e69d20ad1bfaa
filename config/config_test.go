package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desk.toml")
	content := `
agent_id = "agent-1"
agent_profile_id = "profile-1"
team_id = "team-9"
device = "BROWSER"
auto_answer = true
outdial_entry_point_id = "ep-outdial"

[wrapup]
auto_wrapup = true
interval = 45000000000

[[wrapup.reasons]]
id = "aux-1"
name = "Resolved"

[[wrapup.reasons]]
id = "aux-2"
name = "Follow up"
is_default = true

[[idle_codes]]
id = "idle-1"
name = "Lunch"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if p.AgentID != "agent-1" {
		t.Errorf("AgentID = %q, want agent-1", p.AgentID)
	}
	if !p.AutoAnswer {
		t.Error("AutoAnswer should be true")
	}
	if !p.IsBrowserVoice() {
		t.Error("IsBrowserVoice should be true for BROWSER device")
	}
	if p.Wrapup.EffectiveInterval() != 45*time.Second {
		t.Errorf("EffectiveInterval = %v, want 45s", p.Wrapup.EffectiveInterval())
	}
	if len(p.IdleCodes) != 1 || p.IdleCodes[0].ID != "idle-1" {
		t.Errorf("IdleCodes = %+v", p.IdleCodes)
	}
}

func TestLoadFileMissingAgentID(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desk.toml")
	if err := os.WriteFile(path, []byte(`device = "BROWSER"`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := LoadFile(path); err != ErrMissingAgentID {
		t.Errorf("expected ErrMissingAgentID, got %v", err)
	}
}

func TestDeviceDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "desk.toml")
	if err := os.WriteFile(path, []byte(`agent_id = "a"`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	p, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if p.Device != DeviceBrowser {
		t.Errorf("Device = %q, want default BROWSER", p.Device)
	}
}

func TestEffectiveIntervalFallback(t *testing.T) {
	w := WrapupSettings{AutoWrapup: true}
	if w.EffectiveInterval() != DefaultAutoWrapupInterval {
		t.Errorf("EffectiveInterval = %v, want %v", w.EffectiveInterval(), DefaultAutoWrapupInterval)
	}
}

func TestResolveReason(t *testing.T) {
	tests := []struct {
		name    string
		reasons []WrapupReason
		wantID  string
		wantOK  bool
	}{
		{"default marked", []WrapupReason{{ID: "a"}, {ID: "b", IsDefault: true}}, "b", true},
		{"first available", []WrapupReason{{ID: "a"}, {ID: "b"}}, "a", true},
		{"none", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := WrapupSettings{Reasons: tt.reasons}.ResolveReason()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if r.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", r.ID, tt.wantID)
			}
		})
	}
}
