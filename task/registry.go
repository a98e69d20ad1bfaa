package task

import (
	"context"
	"sync"

	"github.com/contactdesk/deskcore/callcontrol"
	"github.com/contactdesk/deskcore/channel"
	"github.com/contactdesk/deskcore/contact"
	"github.com/contactdesk/deskcore/logging"
	"github.com/contactdesk/deskcore/telemetry"
)

// RegistryOptions configure a registry beyond its shared collaborators.
type RegistryOptions struct {
	// Observer sees every envelope before dispatch. The session wires
	// the request client's correlation here.
	Observer func(*channel.Envelope)

	// OnTaskCreated runs after a task is created and hydrated.
	OnTaskCreated func(*Task, *channel.ContactEvent)

	// OnTaskRemoved runs after a task is removed and released.
	OnTaskRemoved func(*Task, *channel.ContactEvent)

	// OnLocalCall runs when an incoming local call is correlated to a
	// task.
	OnLocalCall func(*Task, callcontrol.IncomingCall)
}

// Registry owns the live tasks of one session and translates every
// routing notification into exactly one of create, update, remove, or
// drop. Dispatch is serial: one notification is processed to completion
// before the next.
type Registry struct {
	deps    Deps
	channel channel.EventChannel
	opts    RegistryOptions
	log     *logging.Logger

	mu        sync.RWMutex
	tasks     map[string]*Task
	taskCalls map[string][]string         // task id -> mapped local call ids
	pending   []callcontrol.IncomingCall  // calls that arrived before their task

	// test seam: runs after a fire-and-forget auto answer settles
	autoAnswerDone func(*Task, error)
}

// NewRegistry creates a registry consuming ch.
func NewRegistry(ch channel.EventChannel, deps Deps, opts RegistryOptions) *Registry {
	deps = deps.withDefaults()
	return &Registry{
		deps:      deps,
		channel:   ch,
		opts:      opts,
		log:       deps.Logger.WithComponent("registry"),
		tasks:     make(map[string]*Task),
		taskCalls: make(map[string][]string),
	}
}

// Task returns the task tracking id, if any.
func (r *Registry) Task(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// Tasks returns a snapshot of the live task map.
func (r *Registry) Tasks() map[string]*Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*Task, len(r.tasks))
	for id, t := range r.tasks {
		out[id] = t
	}
	return out
}

// Run consumes the event feed and the device's incoming-call feed until
// the context is cancelled or the event feed closes. Notifications are
// processed serially; a failing envelope is dropped, never fatal.
func (r *Registry) Run(ctx context.Context) error {
	var incoming <-chan callcontrol.IncomingCall
	if r.deps.Device != nil {
		incoming = r.deps.Device.IncomingCalls()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case env, ok := <-r.channel.Events():
			if !ok {
				return nil
			}
			r.Dispatch(ctx, env)

		case call := <-incoming:
			r.handleIncomingCall(call)
		}
	}
}

// Dispatch processes one envelope: classify, reconcile, emit. Malformed
// or unknown input is logged and dropped so the loop keeps consuming.
func (r *Registry) Dispatch(ctx context.Context, env *channel.Envelope) {
	if env == nil || env.Keepalive {
		return
	}
	if r.opts.Observer != nil {
		r.opts.Observer(env)
	}
	if env.Data == nil {
		return
	}

	ev := env.Data
	if !channel.KnownEventType(ev.Type) {
		r.drop(string(ev.Type), "unknown event type")
		return
	}
	id := ev.ID()
	if id == "" {
		r.drop(string(ev.Type), "missing interaction id")
		return
	}

	_, span := r.deps.Tracer.StartDispatchSpan(ctx, string(ev.Type), id)
	defer r.deps.Tracer.EndDispatchSpan(span, nil)

	switch ev.Type {
	case channel.EventContactOffered, channel.EventContactReserved:
		task, created := r.ensureTask(ev)
		if !created {
			task.UpdateData(ev.TaskData(), false)
		}
		task.emit(ev)
		r.maybeAutoAnswer(ctx, task)

	case channel.EventConsultOffered:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		task.emit(ev)
		r.maybeAutoAnswer(ctx, task)

	case channel.EventContactMerged:
		r.handleMerged(ev)

	case channel.EventContactEnded:
		r.handleContactEnded(ev)

	case channel.EventContactWrappedUp:
		r.removeByEvent(ev)

	case channel.EventContactAssignFailed, channel.EventContactInviteFailed,
		channel.EventContactRONA:
		r.removeByEvent(ev)

	case channel.EventVteamTransferred:
		r.removeByEvent(ev)

	case channel.EventContactUnassigned:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		if task.Data().Interaction.State == contact.StateNew {
			r.remove(task, ev)
			return
		}
		task.emit(ev)

	case channel.EventConsultEnded, channel.EventCtqCancelled:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		task.setFlag(func(d *contact.TaskData) {
			d.IsConsulting = contact.Bool(false)
			d.IsConsulted = contact.Bool(false)
			d.ConsultDestination = ""
		})
		if contact.IsSecondaryEPDNAgent(task.Data()) {
			r.remove(task, ev)
			return
		}
		task.emit(ev)

	case channel.EventConferenceEnded:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		data := task.Data()
		agentID := r.deps.Profile.AgentID
		if !contact.IsPrimary(data, agentID) && !contact.IsParticipantInMainInteraction(data, agentID) {
			r.remove(task, ev)
			return
		}
		task.refreshConferenceFlag()
		task.emit(ev)

	case channel.EventParticipantLeft:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		data := task.Data()
		agentID := r.deps.Profile.AgentID
		if contact.ParticipantNotInInteraction(data, agentID) &&
			!contact.IsPrimary(data, agentID) &&
			!contact.IsParticipantInMainInteraction(data, agentID) {
			r.remove(task, ev)
			return
		}
		task.refreshConferenceFlag()
		task.emit(ev)

	case channel.EventConferenceEstablishing, channel.EventConferenceStarted,
		channel.EventConferenceFailed, channel.EventConferenceTransferred,
		channel.EventConferenceTransferFailed, channel.EventParticipantJoined:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		task.refreshConferenceFlag()
		task.emit(ev)

	case channel.EventConsultAccepted:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		task.setFlag(func(d *contact.TaskData) { d.IsConsulted = contact.Bool(true) })
		task.emit(ev)

	case channel.EventContactAssigned, channel.EventContactHeld,
		channel.EventContactUnheld, channel.EventContactWrapup,
		channel.EventConsultCreated, channel.EventConsultFailed,
		channel.EventCtqFailed, channel.EventBlindTransferred,
		channel.EventBlindTransferFailed, channel.EventVteamTransferFailed,
		channel.EventOutdialFailed, channel.EventRecordingPaused,
		channel.EventRecordingPauseFailed, channel.EventRecordingResumed,
		channel.EventRecordingResumeFailed, channel.EventPostCallActivity:
		task, ok := r.update(ev)
		if !ok {
			return
		}
		task.emit(ev)
	}
}

// ensureTask returns the task for the event, creating it when absent.
// Created reports whether this call created it.
func (r *Registry) ensureTask(ev *channel.ContactEvent) (*Task, bool) {
	id := ev.ID()

	r.mu.Lock()
	if existing, ok := r.tasks[id]; ok {
		r.mu.Unlock()
		return existing, false
	}

	adopted, localPresent := r.adoptPendingCallLocked(id, ev)
	td := ev.TaskData()
	if td.Interaction.InteractionID == "" {
		td.Interaction.InteractionID = id
	}
	task := newTask(td, r.deps, localPresent)
	r.tasks[id] = task
	r.mu.Unlock()

	r.log.TaskCreated(id, string(ev.Type))
	telemetry.RecordTaskCreated(r.deps.Exporter, id, string(ev.Type))
	if r.opts.OnTaskCreated != nil {
		r.opts.OnTaskCreated(task, ev)
	}
	if localPresent && r.opts.OnLocalCall != nil {
		r.opts.OnLocalCall(task, adopted)
	}
	return task, true
}

// update reconciles the event into an existing task. A notification for
// an untracked interaction is dropped.
func (r *Registry) update(ev *channel.ContactEvent) (*Task, bool) {
	task, ok := r.Task(ev.ID())
	if !ok {
		r.drop(string(ev.Type), "no task for interaction "+ev.ID())
		return nil, false
	}
	task.UpdateData(ev.TaskData(), false)
	return task, true
}

// handleContactEnded applies the end-of-contact state rules: an
// interaction that progressed past new, for a non-secondary agent, is
// kept pending wrap-up; everything else is removed.
func (r *Registry) handleContactEnded(ev *channel.ContactEvent) {
	task, ok := r.update(ev)
	if !ok {
		return
	}

	data := task.Data()
	if data.Interaction.State != contact.StateNew && !contact.IsSecondaryEPDNAgent(data) {
		task.setFlag(func(d *contact.TaskData) {
			d.WrapUpRequired = contact.Bool(true)
		})
		task.armAutoWrapup()
		task.emit(ev)
		return
	}
	r.remove(task, ev)
}

// handleMerged removes the absorbed child first, then creates or
// updates the surviving merged interaction.
func (r *Registry) handleMerged(ev *channel.ContactEvent) {
	if ev.ChildInteractionID != "" {
		if child, ok := r.Task(ev.ChildInteractionID); ok {
			r.remove(child, ev)
		}
	}

	task, created := r.ensureTask(ev)
	if !created {
		task.UpdateData(ev.TaskData(), false)
	}
	task.emit(ev)
}

// removeByEvent removes the event's task, dropping the notification
// when the task is unknown.
func (r *Registry) removeByEvent(ev *channel.ContactEvent) {
	task, ok := r.update(ev)
	if !ok {
		return
	}
	r.remove(task, ev)
}

// remove releases a task's local resources, unmaps its calls, drops it
// from the map, and only then emits the terminal event. Cleanup runs on
// every removal path, not just the orderly ones.
func (r *Registry) remove(task *Task, ev *channel.ContactEvent) {
	task.release()

	r.mu.Lock()
	for _, callID := range r.taskCalls[task.id] {
		if r.deps.Device != nil {
			r.deps.Device.UnmapCall(callID)
		}
	}
	delete(r.taskCalls, task.id)
	delete(r.tasks, task.id)
	r.mu.Unlock()

	r.log.TaskRemoved(task.id, string(ev.Type))
	telemetry.RecordTaskRemoved(r.deps.Exporter, task.id, string(ev.Type))

	task.emit(ev)
	if r.opts.OnTaskRemoved != nil {
		r.opts.OnTaskRemoved(task, ev)
	}
}

// Release drops a task without a terminal notification, freeing its
// timer, stream, and call mappings. Teardown paths use it when the
// backend will never send the closing event.
func (r *Registry) Release(task *Task) {
	task.release()

	r.mu.Lock()
	for _, callID := range r.taskCalls[task.id] {
		if r.deps.Device != nil {
			r.deps.Device.UnmapCall(callID)
		}
	}
	delete(r.taskCalls, task.id)
	delete(r.tasks, task.id)
	r.mu.Unlock()

	r.log.TaskRemoved(task.id, "released")
	telemetry.RecordTaskRemoved(r.deps.Exporter, task.id, "released")
}

// maybeAutoAnswer accepts the task on the agent's behalf when its
// derivation marked it auto-answering. The accept runs on its own
// goroutine and never blocks dispatch. The flag is cleared on either
// outcome so a duplicate offer never launches a second accept; a
// failed accept is not retried.
func (r *Registry) maybeAutoAnswer(ctx context.Context, task *Task) {
	if !contact.BoolValue(task.Data().IsAutoAnswering) {
		return
	}
	task.setFlag(func(d *contact.TaskData) {
		d.IsAutoAnswering = contact.Bool(false)
	})

	go func() {
		_, err := task.Accept(context.WithoutCancel(ctx))
		if err != nil {
			r.log.Error("auto answer failed", map[string]interface{}{
				"taskId": task.id,
				"error":  err.Error(),
			})
		}
		if r.autoAnswerDone != nil {
			r.autoAnswerDone(task, err)
		}
	}()
}

// handleIncomingCall correlates a local call to the one telephony task
// currently lacking a mapped call; a call with no such task is cached
// for the next telephony task created.
func (r *Registry) handleIncomingCall(call callcontrol.IncomingCall) {
	if r.deps.Device != nil {
		if _, mapped := r.deps.Device.GetTaskIDForCall(call.CallID); mapped {
			return
		}
	}

	r.mu.Lock()
	var target *Task
	for _, t := range r.tasks {
		if t.Data().Interaction.MediaType != contact.MediaTelephony {
			continue
		}
		if len(r.taskCalls[t.id]) > 0 {
			continue
		}
		target = t
		break
	}
	if target == nil {
		r.pending = append(r.pending, call)
		r.mu.Unlock()
		r.log.Info("caching local call with no task yet", map[string]interface{}{
			"callId": call.CallID,
		})
		return
	}
	r.mapCallLocked(call.CallID, target.id)
	r.mu.Unlock()

	if r.opts.OnLocalCall != nil {
		r.opts.OnLocalCall(target, call)
	}
}

// adoptPendingCallLocked maps the oldest cached local call to a newly
// created telephony task. Reports whether a call was adopted. Caller
// holds r.mu.
func (r *Registry) adoptPendingCallLocked(taskID string, ev *channel.ContactEvent) (callcontrol.IncomingCall, bool) {
	if len(r.pending) == 0 || ev.Interaction.MediaType != contact.MediaTelephony {
		return callcontrol.IncomingCall{}, false
	}
	call := r.pending[0]
	r.pending = r.pending[1:]
	r.mapCallLocked(call.CallID, taskID)
	return call, true
}

// mapCallLocked records the correlation in the device table and the
// registry's mirror. Caller holds r.mu.
func (r *Registry) mapCallLocked(callID, taskID string) {
	if r.deps.Device != nil {
		r.deps.Device.MapCallToTask(callID, taskID)
	}
	r.taskCalls[taskID] = append(r.taskCalls[taskID], callID)
}

// drop logs and records one discarded envelope.
func (r *Registry) drop(eventType, reason string) {
	r.log.DroppedEnvelope(eventType, reason)
	telemetry.RecordDrop(r.deps.Exporter, eventType, reason)
}
