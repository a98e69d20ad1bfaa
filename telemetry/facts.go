package telemetry

import (
	"time"

	"github.com/contactdesk/deskcore/errors"
)

// Fact names emitted by the task core.
const (
	FactCommandSucceeded = "task.command.succeeded"
	FactCommandFailed    = "task.command.failed"
	FactTaskCreated      = "task.created"
	FactTaskRemoved      = "task.removed"
	FactEnvelopeDropped  = "dispatch.envelope.dropped"
	FactAutoWrapup       = "task.wrapup.auto"
)

// CommandFact describes one command outcome for export.
type CommandFact struct {
	TaskID      string
	Operation   string
	MediaType   string
	Destination string
	Duration    time.Duration
}

// RecordCommand exports a success or failure fact for one command.
// Failures carry the structured error's code, category, tracking id,
// and numeric reason code so success and failure stay distinguishable
// downstream.
func RecordCommand(exp Exporter, fact CommandFact, err error) {
	if exp == nil {
		return
	}

	data := map[string]interface{}{
		"taskId":     fact.TaskID,
		"operation":  fact.Operation,
		"mediaType":  fact.MediaType,
		"durationMs": fact.Duration.Milliseconds(),
	}
	if fact.Destination != "" {
		data["destination"] = fact.Destination
	}

	if err == nil {
		exp.LogEvent(FactCommandSucceeded, data)
		return
	}

	data["error"] = err.Error()
	data["errorCode"] = errors.Code(err).String()
	data["errorCategory"] = errors.Category(err).String()
	if id := errors.TrackingID(err); id != "" {
		data["trackingId"] = id
	}
	if rc := errors.ReasonCode(err); rc != 0 {
		data["reasonCode"] = rc
	}
	exp.LogEvent(FactCommandFailed, data)
}

// RecordTaskCreated exports a task-creation fact.
func RecordTaskCreated(exp Exporter, taskID, eventType string) {
	if exp == nil {
		return
	}
	exp.LogEvent(FactTaskCreated, map[string]interface{}{
		"taskId":    taskID,
		"eventType": eventType,
	})
}

// RecordTaskRemoved exports a task-removal fact.
func RecordTaskRemoved(exp Exporter, taskID, eventType string) {
	if exp == nil {
		return
	}
	exp.LogEvent(FactTaskRemoved, map[string]interface{}{
		"taskId":    taskID,
		"eventType": eventType,
	})
}

// RecordDrop exports a dropped-envelope fact.
func RecordDrop(exp Exporter, eventType, reason string) {
	if exp == nil {
		return
	}
	exp.LogEvent(FactEnvelopeDropped, map[string]interface{}{
		"eventType": eventType,
		"reason":    reason,
	})
}

// RecordAutoWrapup exports an auto-wrap-up submission fact.
func RecordAutoWrapup(exp Exporter, taskID, reasonID string) {
	if exp == nil {
		return
	}
	exp.LogEvent(FactAutoWrapup, map[string]interface{}{
		"taskId":   taskID,
		"reasonId": reasonID,
	})
}
