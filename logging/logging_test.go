package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelInfo)

	// Debug should be filtered
	logger.Debug("debug message")
	if buf.Len() > 0 {
		t.Error("debug message should be filtered at INFO level")
	}

	// Info should pass
	logger.Info("info message")
	if buf.Len() == 0 {
		t.Error("info message should be logged")
	}

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Error("log should contain INFO level")
	}
	if !strings.Contains(output, "info message") {
		t.Error("log should contain the message")
	}
}

func TestLogger_WithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New().WithComponent("registry")
	logger.SetOutput(&buf)

	logger.Info("test message")

	output := buf.String()
	if !strings.Contains(output, "[registry]") {
		t.Errorf("expected component 'registry' in log, got: %s", output)
	}
}

func TestLogger_WithTrackingID(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	scoped := logger.WithTrackingID("trk-123")
	scoped.SetOutput(&buf)

	scoped.Info("correlated message")

	output := buf.String()
	if !strings.Contains(output, "trackingId=trk-123") {
		t.Errorf("expected trackingId in log, got: %s", output)
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.Info("with fields", map[string]interface{}{"task": "intx-1"})

	output := buf.String()
	if !strings.Contains(output, "task=intx-1") {
		t.Errorf("expected field in log, got: %s", output)
	}
}

func TestLogger_DroppedEnvelope(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)

	logger.DroppedEnvelope("AgentContactAssigned", "missing interactionId")

	output := buf.String()
	if !strings.Contains(output, "envelope_dropped") {
		t.Errorf("expected envelope_dropped entry, got: %s", output)
	}
	if !strings.Contains(output, "reason=missing interactionId") {
		t.Errorf("expected reason field, got: %s", output)
	}
}

func TestLogger_CommandResult(t *testing.T) {
	var buf bytes.Buffer
	logger := New()
	logger.SetOutput(&buf)
	logger.SetLevel(LevelDebug)

	logger.CommandResult("intx-1", "hold", 5*time.Millisecond, nil)
	if !strings.Contains(buf.String(), "command_ok") {
		t.Errorf("expected command_ok entry, got: %s", buf.String())
	}

	buf.Reset()
	logger.CommandResult("intx-1", "hold", 5*time.Millisecond, errTest)
	if !strings.Contains(buf.String(), "command_failed") {
		t.Errorf("expected command_failed entry, got: %s", buf.String())
	}
}

type testErr struct{}

func (testErr) Error() string { return "boom" }

var errTest = testErr{}
