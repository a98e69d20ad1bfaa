package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/contactdesk/deskcore/errors"
)

func TestNoopExporter(t *testing.T) {
	exp := NewNoopExporter()

	// Should not panic
	exp.LogEvent("test", map[string]interface{}{"key": "value"})

	if err := exp.Flush(); err != nil {
		t.Errorf("Flush() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestFileExporter(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "telemetry.jsonl")

	exp, err := NewFileExporter(path)
	if err != nil {
		t.Fatalf("NewFileExporter() error = %v", err)
	}
	defer exp.Close()

	exp.LogEvent("test_event", map[string]interface{}{"foo": "bar"})
	RecordCommand(exp, CommandFact{
		TaskID:    "intx-1",
		Operation: "hold",
		MediaType: "telephony",
		Duration:  time.Second,
	}, nil)

	exp.Flush()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if len(data) == 0 {
		t.Error("expected non-empty file")
	}

	// Should have two lines (plain event + command fact)
	lines := 0
	for _, b := range data {
		if b == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("expected 2 lines, got %d", lines)
	}
}

func TestNewExporter(t *testing.T) {
	tests := []struct {
		protocol string
		wantErr  bool
	}{
		{"noop", false},
		{"", false},
		{"unknown", true},
	}

	for _, tt := range tests {
		t.Run(tt.protocol, func(t *testing.T) {
			exp, err := NewExporter(tt.protocol, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if exp != nil {
				exp.Close()
			}
		})
	}
}

// captureExporter records facts in memory for assertions.
type captureExporter struct {
	events []Event
}

func (c *captureExporter) LogEvent(name string, data map[string]interface{}) {
	c.events = append(c.events, Event{Name: name, Data: data})
}
func (c *captureExporter) Flush() error { return nil }
func (c *captureExporter) Close() error { return nil }

func TestRecordCommandOutcomes(t *testing.T) {
	cap := &captureExporter{}

	RecordCommand(cap, CommandFact{TaskID: "intx-1", Operation: "accept"}, nil)
	RecordCommand(cap, CommandFact{TaskID: "intx-1", Operation: "consult", Destination: "agent-2"},
		errors.FromCode(errors.ErrCodeConsultFailed,
			errors.WithReasonCode(4010),
			errors.WithTrackingID("trk-1")))

	if len(cap.events) != 2 {
		t.Fatalf("events = %d, want 2", len(cap.events))
	}

	ok := cap.events[0]
	if ok.Name != FactCommandSucceeded {
		t.Errorf("first fact = %q", ok.Name)
	}
	if ok.Data["taskId"] != "intx-1" || ok.Data["operation"] != "accept" {
		t.Errorf("success data = %v", ok.Data)
	}
	if _, present := ok.Data["errorCode"]; present {
		t.Error("success fact must not carry an error code")
	}

	fail := cap.events[1]
	if fail.Name != FactCommandFailed {
		t.Errorf("second fact = %q", fail.Name)
	}
	if fail.Data["errorCode"] != errors.ErrCodeConsultFailed.String() {
		t.Errorf("errorCode = %v", fail.Data["errorCode"])
	}
	if fail.Data["reasonCode"] != 4010 {
		t.Errorf("reasonCode = %v", fail.Data["reasonCode"])
	}
	if fail.Data["trackingId"] != "trk-1" {
		t.Errorf("trackingId = %v", fail.Data["trackingId"])
	}
	if fail.Data["destination"] != "agent-2" {
		t.Errorf("destination = %v", fail.Data["destination"])
	}
}

func TestRecordHelpersTolerateNilExporter(t *testing.T) {
	// None of these may panic.
	RecordCommand(nil, CommandFact{}, nil)
	RecordTaskCreated(nil, "t", "e")
	RecordTaskRemoved(nil, "t", "e")
	RecordDrop(nil, "e", "r")
	RecordAutoWrapup(nil, "t", "r")
}
