package task

import (
	"context"
	"time"

	"github.com/contactdesk/deskcore/channel"
	"github.com/contactdesk/deskcore/contact"
	"github.com/contactdesk/deskcore/errors"
	"github.com/contactdesk/deskcore/request"
	"github.com/contactdesk/deskcore/telemetry"
)

// ConsultParams describe a consult request.
type ConsultParams struct {
	To               string                  `json:"to"`
	DestinationType  contact.DestinationType `json:"destinationType"`
	HoldParticipants bool                    `json:"holdParticipants"`
}

// TransferParams describe a direct transfer.
type TransferParams struct {
	To              string                  `json:"to"`
	DestinationType contact.DestinationType `json:"destinationType"`
}

// WrapupParams describe a wrap-up submission.
type WrapupParams struct {
	Reason    string `json:"wrapUpReason"`
	AuxCodeID string `json:"auxCodeId"`
}

// command runs one correlated request and reconciles its result. Every
// outcome, success or failure, lands in telemetry with the same fact
// shape.
func (t *Task) command(ctx context.Context, fact telemetry.CommandFact, d request.Descriptor) (*contact.TaskData, error) {
	start := time.Now()
	spanCtx, span := t.deps.Tracer.StartCommandSpan(ctx, fact.Operation)

	resp, err := t.deps.Requests.Request(spanCtx, d)
	if err == nil && resp.Event != nil {
		t.UpdateData(resp.Event.TaskData(), false)
	}

	snapshot := t.Data()
	fact.TaskID = t.id
	fact.MediaType = string(snapshot.Interaction.MediaType)
	fact.Duration = time.Since(start)

	telemetry.RecordCommand(t.deps.Exporter, fact, err)
	t.log.CommandResult(t.id, fact.Operation, fact.Duration, err)

	opts := telemetry.CommandSpanOptions{
		TaskID:      t.id,
		MediaType:   fact.MediaType,
		Destination: fact.Destination,
	}
	if err == nil && resp != nil {
		opts.TrackingID = resp.TrackingID
	}
	t.deps.Tracer.EndCommandSpan(span, opts, err)

	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// fail records a precondition failure that never reached the backend.
func (t *Task) fail(op, destination string, err *errors.Error) error {
	telemetry.RecordCommand(t.deps.Exporter, telemetry.CommandFact{
		TaskID:      t.id,
		Operation:   op,
		MediaType:   string(t.Data().Interaction.MediaType),
		Destination: destination,
	}, err)
	t.log.CommandResult(t.id, op, 0, err)
	return err
}

// resource builds the request path for one task operation.
func (t *Task) resource(op string) string {
	return t.id + "/" + op
}

// Accept picks up an offered task. Telephony under browser voice
// answers the local call; every other shape issues the remote accept. A
// local answer with no ringing call is logged and skipped, not failed.
func (t *Task) Accept(ctx context.Context) (*contact.TaskData, error) {
	data := t.Data()

	if data.Interaction.MediaType == contact.MediaTelephony && t.deps.Profile.IsBrowserVoice() {
		return t.acceptLocal(ctx)
	}

	return t.command(ctx, telemetry.CommandFact{Operation: "accept"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("accept"),
		InteractionID: t.id,
		Body:          map[string]string{"mediaResourceId": data.MediaResourceID},
		SuccessTypes:  []channel.EventType{channel.EventContactAssigned},
		FailureTypes:  []channel.EventType{channel.EventContactAssignFailed},
		FailureCode:   errors.ErrCodeAcceptFailed,
	})
}

// acceptLocal acquires a media stream and answers through the device.
func (t *Task) acceptLocal(ctx context.Context) (*contact.TaskData, error) {
	start := time.Now()
	op := "accept"

	stream, err := t.deps.Device.AcquireStream(ctx)
	if err != nil {
		werr := errors.WrapWithCode(err, errors.ErrCodeMediaError,
			"acquire local media", errors.WithTaskID(t.id))
		return nil, t.fail(op, "", werr)
	}

	if err := t.deps.Device.Answer(stream, t.id); err != nil {
		stream.Stop()
		if errors.Is(err, errors.ErrCodeNoLocalCall) {
			t.log.Info("no local call to answer, skipping", map[string]interface{}{
				"taskId": t.id,
			})
			return t.Data(), nil
		}
		werr := errors.WrapWithCode(err, errors.ErrCodeMediaError,
			"answer local call", errors.WithTaskID(t.id))
		return nil, t.fail(op, "", werr)
	}

	t.setStream(stream)
	t.deps.Device.OnDisconnect(t.id, func() {
		t.log.Info("local call disconnected", map[string]interface{}{"taskId": t.id})
		t.releaseStream()
	})

	snapshot := t.Data()
	telemetry.RecordCommand(t.deps.Exporter, telemetry.CommandFact{
		TaskID:    t.id,
		Operation: op,
		MediaType: string(snapshot.Interaction.MediaType),
		Duration:  time.Since(start),
	}, nil)
	t.log.CommandResult(t.id, op, time.Since(start), nil)
	return snapshot, nil
}

// Decline rejects an offered task. Telephony under browser voice
// declines the local call; a missing local call is logged and skipped.
func (t *Task) Decline(ctx context.Context) (*contact.TaskData, error) {
	data := t.Data()

	if data.Interaction.MediaType == contact.MediaTelephony && t.deps.Profile.IsBrowserVoice() {
		op := "decline"
		err := t.deps.Device.Decline(t.id)
		t.deps.Device.OnDisconnect(t.id, nil)
		t.releaseStream()
		if err != nil {
			if errors.Is(err, errors.ErrCodeNoLocalCall) {
				t.log.Info("no local call to decline, skipping", map[string]interface{}{
					"taskId": t.id,
				})
				return t.Data(), nil
			}
			werr := errors.WrapWithCode(err, errors.ErrCodeMediaError,
				"decline local call", errors.WithTaskID(t.id))
			return nil, t.fail(op, "", werr)
		}
		t.log.CommandResult(t.id, op, 0, nil)
		telemetry.RecordCommand(t.deps.Exporter, telemetry.CommandFact{
			TaskID:    t.id,
			Operation: op,
			MediaType: string(data.Interaction.MediaType),
		}, nil)
		return t.Data(), nil
	}

	return t.command(ctx, telemetry.CommandFact{Operation: "decline"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("decline"),
		InteractionID: t.id,
		Body:          map[string]string{"mediaResourceId": data.MediaResourceID},
		FailureCode:   errors.ErrCodeDeclineFailed,
	})
}

// Hold puts a media leg on hold. An empty mediaResourceID defaults to
// the task's own.
func (t *Task) Hold(ctx context.Context, mediaResourceID string) (*contact.TaskData, error) {
	data := t.Data()
	if mediaResourceID == "" {
		mediaResourceID = data.MediaResourceID
	}
	if mediaResourceID == "" {
		return nil, t.fail("hold", "", errors.MissingData(t.id))
	}

	return t.command(ctx, telemetry.CommandFact{Operation: "hold"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("hold"),
		InteractionID: t.id,
		Body:          map[string]string{"mediaResourceId": mediaResourceID},
		SuccessTypes:  []channel.EventType{channel.EventContactHeld},
		FailureCode:   errors.ErrCodeHoldFailed,
	})
}

// Resume takes a media leg off hold. An empty mediaResourceID defaults
// to the task's own.
func (t *Task) Resume(ctx context.Context, mediaResourceID string) (*contact.TaskData, error) {
	data := t.Data()
	if mediaResourceID == "" {
		mediaResourceID = data.MediaResourceID
	}
	if mediaResourceID == "" {
		return nil, t.fail("resume", "", errors.MissingData(t.id))
	}

	return t.command(ctx, telemetry.CommandFact{Operation: "resume"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("unhold"),
		InteractionID: t.id,
		Body:          map[string]string{"mediaResourceId": mediaResourceID},
		SuccessTypes:  []channel.EventType{channel.EventContactUnheld},
		FailureCode:   errors.ErrCodeResumeFailed,
	})
}

// Consult opens a consult leg to another party.
func (t *Task) Consult(ctx context.Context, p ConsultParams) (*contact.TaskData, error) {
	if p.To == "" || p.DestinationType == "" {
		return nil, t.fail("consult", p.To,
			errors.InvalidInput("consult requires a destination and type",
				errors.WithTaskID(t.id)))
	}

	_, err := t.command(ctx, telemetry.CommandFact{
		Operation:   "consult",
		Destination: p.To,
	}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("consult"),
		InteractionID: t.id,
		Body:          p,
		SuccessTypes:  []channel.EventType{channel.EventConsultCreated},
		FailureTypes:  []channel.EventType{channel.EventConsultFailed},
		FailureCode:   errors.ErrCodeConsultFailed,
	})
	if err != nil {
		return nil, err
	}

	t.setFlag(func(d *contact.TaskData) {
		d.IsConsulting = contact.Bool(true)
		d.ConsultDestination = p.To
	})
	return t.Data(), nil
}

// EndConsult closes the consult leg.
func (t *Task) EndConsult(ctx context.Context) (*contact.TaskData, error) {
	_, err := t.command(ctx, telemetry.CommandFact{Operation: "endConsult"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("consult/end"),
		InteractionID: t.id,
		Body:          map[string]bool{"isConsult": true},
		SuccessTypes:  []channel.EventType{channel.EventConsultEnded},
		FailureTypes:  []channel.EventType{channel.EventConsultFailed},
		FailureCode:   errors.ErrCodeConsultFailed,
	})
	if err != nil {
		return nil, err
	}

	t.setFlag(func(d *contact.TaskData) {
		d.IsConsulting = contact.Bool(false)
		d.ConsultDestination = ""
	})
	return t.Data(), nil
}

// ConsultTransfer hands the contact to the consulted party. The
// destination is never trusted from the caller; it is recomputed from
// the current participant graph, so a queue destination supplied
// upstream is overridden by the consulted agent, dial number, or entry
// point.
func (t *Task) ConsultTransfer(ctx context.Context) (*contact.TaskData, error) {
	data := t.Data()

	dest, ok := contact.ResolveConsultDestination(data, t.deps.Profile.AgentID)
	if !ok {
		return nil, t.fail("consultTransfer", "", errors.NoDestination(t.id))
	}

	return t.command(ctx, telemetry.CommandFact{
		Operation:   "consultTransfer",
		Destination: dest.To,
	}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("consult/transfer"),
		InteractionID: t.id,
		Body: map[string]string{
			"to":              dest.To,
			"destinationType": string(dest.Type),
		},
		FailureCode: errors.ErrCodeTransferFailed,
	})
}

// Transfer hands the contact directly to a queue or another party:
// queue destinations route through the virtual-team transfer primitive,
// everything else through blind transfer.
func (t *Task) Transfer(ctx context.Context, p TransferParams) (*contact.TaskData, error) {
	if p.To == "" || p.DestinationType == "" {
		return nil, t.fail("transfer", p.To,
			errors.InvalidInput("transfer requires a destination and type",
				errors.WithTaskID(t.id)))
	}

	d := request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("transfer"),
		InteractionID: t.id,
		Body:          p,
		SuccessTypes:  []channel.EventType{channel.EventBlindTransferred},
		FailureTypes:  []channel.EventType{channel.EventBlindTransferFailed},
		FailureCode:   errors.ErrCodeTransferFailed,
	}
	if p.DestinationType == contact.DestinationQueue {
		d.Resource = t.resource("vteam/transfer")
		d.SuccessTypes = []channel.EventType{channel.EventVteamTransferred}
		d.FailureTypes = []channel.EventType{channel.EventVteamTransferFailed}
	}

	return t.command(ctx, telemetry.CommandFact{
		Operation:   "transfer",
		Destination: p.To,
	}, d)
}

// ConsultConference merges the consulted party into the main call.
func (t *Task) ConsultConference(ctx context.Context) (*contact.TaskData, error) {
	_, err := t.command(ctx, telemetry.CommandFact{Operation: "consultConference"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("conference"),
		InteractionID: t.id,
		SuccessTypes:  []channel.EventType{channel.EventConferenceStarted},
		FailureTypes:  []channel.EventType{channel.EventConferenceFailed},
		FailureCode:   errors.ErrCodeConferenceFailed,
	})
	if err != nil {
		return nil, err
	}

	t.refreshConferenceFlag()
	return t.Data(), nil
}

// ExitConference drops this agent out of the conference.
func (t *Task) ExitConference(ctx context.Context) (*contact.TaskData, error) {
	return t.command(ctx, telemetry.CommandFact{Operation: "exitConference"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("conference/exit"),
		InteractionID: t.id,
		SuccessTypes:  []channel.EventType{channel.EventConferenceEnded},
		FailureTypes:  []channel.EventType{channel.EventConferenceFailed},
		FailureCode:   errors.ErrCodeConferenceFailed,
	})
}

// TransferConference leaves the conference running and hands ownership
// to the remaining agent.
func (t *Task) TransferConference(ctx context.Context) (*contact.TaskData, error) {
	return t.command(ctx, telemetry.CommandFact{Operation: "transferConference"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("conference/transfer"),
		InteractionID: t.id,
		SuccessTypes:  []channel.EventType{channel.EventConferenceTransferred},
		FailureTypes:  []channel.EventType{channel.EventConferenceTransferFailed},
		FailureCode:   errors.ErrCodeConferenceFailed,
	})
}

// End terminates the interaction for the customer and agent alike.
func (t *Task) End(ctx context.Context) (*contact.TaskData, error) {
	return t.command(ctx, telemetry.CommandFact{Operation: "end"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("end"),
		InteractionID: t.id,
		SuccessTypes:  []channel.EventType{channel.EventContactEnded},
		FailureCode:   errors.ErrCodeEndFailed,
	})
}

// Wrapup submits the wrap-up reason and closes out the task's
// after-call work. Both fields must be present and the task must carry
// interaction data before any request goes out; a pending auto-wrap-up
// timer is cancelled first.
func (t *Task) Wrapup(ctx context.Context, p WrapupParams) (*contact.TaskData, error) {
	if p.Reason == "" || p.AuxCodeID == "" {
		return nil, t.fail("wrapup", "",
			errors.InvalidInput("wrapup requires a reason and aux code",
				errors.WithTaskID(t.id)))
	}
	if t.Data().Interaction.InteractionID == "" {
		return nil, t.fail("wrapup", "", errors.MissingData(t.id))
	}

	t.clearAutoWrapup()

	return t.command(ctx, telemetry.CommandFact{Operation: "wrapup"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("wrapup"),
		InteractionID: t.id,
		Body:          p,
		SuccessTypes:  []channel.EventType{channel.EventContactWrappedUp},
		FailureCode:   errors.ErrCodeWrapupFailed,
	})
}

// PauseRecording pauses call recording.
func (t *Task) PauseRecording(ctx context.Context) (*contact.TaskData, error) {
	return t.command(ctx, telemetry.CommandFact{Operation: "pauseRecording"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("recording/pause"),
		InteractionID: t.id,
		SuccessTypes:  []channel.EventType{channel.EventRecordingPaused},
		FailureTypes:  []channel.EventType{channel.EventRecordingPauseFailed},
		FailureCode:   errors.ErrCodeRecordingFailed,
	})
}

// ResumeRecording resumes call recording.
func (t *Task) ResumeRecording(ctx context.Context, autoResumed bool) (*contact.TaskData, error) {
	return t.command(ctx, telemetry.CommandFact{Operation: "resumeRecording"}, request.Descriptor{
		Service:       "tasks",
		Resource:      t.resource("recording/resume"),
		InteractionID: t.id,
		Body:          map[string]bool{"autoResumed": autoResumed},
		SuccessTypes:  []channel.EventType{channel.EventRecordingResumed},
		FailureTypes:  []channel.EventType{channel.EventRecordingResumeFailed},
		FailureCode:   errors.ErrCodeRecordingFailed,
	})
}

// ToggleMute flips the local stream's mute state through the device.
func (t *Task) ToggleMute() error {
	stream := t.currentStream()
	if stream == nil {
		return t.fail("toggleMute", "", errors.NoLocalCall(t.id))
	}
	if err := t.deps.Device.Mute(stream); err != nil {
		werr := errors.WrapWithCode(err, errors.ErrCodeMediaError,
			"toggle mute", errors.WithTaskID(t.id))
		return t.fail("toggleMute", "", werr)
	}
	telemetry.RecordCommand(t.deps.Exporter, telemetry.CommandFact{
		TaskID:    t.id,
		Operation: "toggleMute",
		MediaType: string(t.Data().Interaction.MediaType),
	}, nil)
	return nil
}
