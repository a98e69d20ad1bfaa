// Package config loads the resolved desktop profile for an agent session.
// The core does not fetch profiles from a backend; it consumes the already
// resolved wrap-up, auto-answer, and idle-code configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultAutoWrapupInterval is used when the profile enables auto wrap-up
// but does not provide an interval.
const DefaultAutoWrapupInterval = 30 * time.Second

// Common errors.
var (
	ErrMissingAgentID = errors.New("profile missing agent id")
	ErrNoProfile      = errors.New("no profile file found")
)

// DeviceType identifies how the agent's voice leg is terminated.
type DeviceType string

const (
	// DeviceBrowser terminates the voice leg in the browser (local WebRTC call).
	DeviceBrowser DeviceType = "BROWSER"

	// DeviceExtension terminates the voice leg on a registered extension.
	DeviceExtension DeviceType = "EXTENSION"

	// DeviceAgentDN terminates the voice leg on an agent-provided dial number.
	DeviceAgentDN DeviceType = "AGENT_DN"
)

// Profile is the resolved desktop configuration for one agent session.
type Profile struct {
	AgentID        string     `toml:"agent_id"`
	AgentProfileID string     `toml:"agent_profile_id"`
	TeamID         string     `toml:"team_id"`
	Device         DeviceType `toml:"device"`

	// AutoAnswer enables automatic accept of offered telephony contacts.
	// Only effective for browser-terminated voice (see DeviceBrowser).
	AutoAnswer bool `toml:"auto_answer"`

	// OutdialEntryPointID is the entry point used for agent-initiated calls.
	OutdialEntryPointID string `toml:"outdial_entry_point_id"`

	Wrapup    WrapupSettings `toml:"wrapup"`
	IdleCodes []AuxCode      `toml:"idle_codes"`
}

// WrapupSettings holds the wrap-up configuration for the session.
type WrapupSettings struct {
	// AutoWrapup arms a timer on tasks that require wrap-up; when it fires,
	// the task submits the resolved wrap-up reason on the agent's behalf.
	AutoWrapup bool `toml:"auto_wrapup"`

	// Interval before auto wrap-up fires. Zero means DefaultAutoWrapupInterval.
	Interval time.Duration `toml:"interval"`

	Reasons []WrapupReason `toml:"reasons"`
}

// WrapupReason is one selectable wrap-up code.
type WrapupReason struct {
	ID        string `toml:"id"`
	Name      string `toml:"name"`
	IsDefault bool   `toml:"is_default"`
}

// AuxCode is an idle/auxiliary code available to the agent.
type AuxCode struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// EffectiveInterval returns the wrap-up timer interval with the fixed fallback.
func (w WrapupSettings) EffectiveInterval() time.Duration {
	if w.Interval <= 0 {
		return DefaultAutoWrapupInterval
	}
	return w.Interval
}

// ResolveReason picks the wrap-up reason auto wrap-up submits: the reason
// marked default if one exists, else the first available reason.
func (w WrapupSettings) ResolveReason() (WrapupReason, bool) {
	for _, r := range w.Reasons {
		if r.IsDefault {
			return r, true
		}
	}
	if len(w.Reasons) > 0 {
		return w.Reasons[0], true
	}
	return WrapupReason{}, false
}

// Validate checks required profile fields.
func (p *Profile) Validate() error {
	if p.AgentID == "" {
		return ErrMissingAgentID
	}
	return nil
}

// IsBrowserVoice reports whether the voice leg is browser-terminated.
func (p *Profile) IsBrowserVoice() bool {
	return p.Device == DeviceBrowser
}

// StandardPaths returns the profile file locations in order of priority.
func StandardPaths() []string {
	paths := []string{"desk.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "deskcore", "desk.toml"))
	}
	return paths
}

// Load loads the profile from the first available standard location.
func Load() (*Profile, string, error) {
	for _, path := range StandardPaths() {
		if _, err := os.Stat(path); err == nil {
			p, err := LoadFile(path)
			if err != nil {
				return nil, path, err
			}
			return p, path, nil
		}
	}
	return nil, "", ErrNoProfile
}

// LoadFile loads the profile from a specific file.
func LoadFile(path string) (*Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		return nil, err
	}
	if p.Device == "" {
		p.Device = DeviceBrowser
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
