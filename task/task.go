// Package task implements the per-interaction command surface and the
// registry that maps routing notifications onto task creation, update,
// and removal. Tasks reconcile three state sources: the backend record,
// the asynchronous event stream, and local call resources. Command and
// notification paths both reconcile through the contact package, so
// applying them in either order converges.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/contactdesk/deskcore/callcontrol"
	"github.com/contactdesk/deskcore/channel"
	"github.com/contactdesk/deskcore/config"
	"github.com/contactdesk/deskcore/contact"
	"github.com/contactdesk/deskcore/logging"
	"github.com/contactdesk/deskcore/request"
	"github.com/contactdesk/deskcore/telemetry"
	"github.com/contactdesk/deskcore/wrapup"
)

// autoWrapupSubmitTimeout bounds the wrap-up request the timer submits
// on the agent's behalf.
const autoWrapupSubmitTimeout = 30 * time.Second

// Deps are the collaborators shared by every task in one session.
type Deps struct {
	Profile  *config.Profile
	Requests request.Client
	Device   callcontrol.Device
	Logger   *logging.Logger
	Exporter telemetry.Exporter
	Tracer   *telemetry.Tracer
}

// withDefaults fills optional collaborators.
func (d Deps) withDefaults() Deps {
	if d.Profile == nil {
		d.Profile = &config.Profile{}
	}
	if d.Logger == nil {
		d.Logger = logging.New()
	}
	if d.Exporter == nil {
		d.Exporter = telemetry.NewNoopExporter()
	}
	if d.Tracer == nil {
		d.Tracer = telemetry.NewNoopTracer()
	}
	return d
}

// Handler observes notifications re-emitted on a task.
type Handler func(*channel.ContactEvent)

// Task holds one interaction's client-visible state and executes the
// agent's commands against it.
type Task struct {
	id   string
	deps Deps
	log  *logging.Logger

	mu   sync.Mutex
	data *contact.TaskData

	// wrapupMu guards the autoWrapup field itself; the timer has its own
	// locking. Dispatch arms the timer while commands clear and query it,
	// so field access needs the same interleaving safety as data.
	wrapupMu   sync.Mutex
	autoWrapup *wrapup.Timer

	streamMu sync.Mutex
	stream   callcontrol.MediaStream

	handlerMu   sync.Mutex
	handlers    map[channel.EventType][]Handler
	anyHandlers []Handler
}

// newTask builds a task from its first notification payload. The
// derived flags are computed before the task becomes visible, so no
// observer can see it without them. localCallPresent reports whether
// the device already holds a local call for this interaction.
func newTask(data *contact.TaskData, deps Deps, localCallPresent bool) *Task {
	deps = deps.withDefaults()

	data = data.Clone()
	agentID := deps.Profile.AgentID

	data.WrapUpRequired = contact.Bool(contact.WrapUpRequired(data, agentID))
	data.IsConferenceInProgress = contact.Bool(contact.IsConferenceInProgress(data))
	data.IsAutoAnswering = contact.Bool(deriveAutoAnswering(data, deps.Profile, localCallPresent))

	t := &Task{
		id:       data.Interaction.InteractionID,
		deps:     deps,
		log:      deps.Logger.WithComponent("task"),
		data:     data,
		handlers: make(map[channel.EventType][]Handler),
	}

	if contact.BoolValue(data.WrapUpRequired) {
		t.armAutoWrapup()
	}
	return t
}

// deriveAutoAnswering computes whether the registry should accept this
// task on the agent's behalf: auto-answer telephony under browser voice
// with no local call already ringing, or any agent-initiated outbound.
func deriveAutoAnswering(d *contact.TaskData, p *config.Profile, localCallPresent bool) bool {
	if d.Interaction.MediaType == contact.MediaTelephony &&
		p.AutoAnswer && p.IsBrowserVoice() && !localCallPresent {
		return true
	}
	if contact.IsAgentInitiatedOutdial(d) {
		return true
	}
	return contact.IsAgentInitiatedDigitalOutbound(d)
}

// ID returns the interaction id this task tracks.
func (t *Task) ID() string {
	return t.id
}

// Data returns a snapshot of the task data. Callers must treat it as
// read-only relative to the task; it shares nothing with live state.
func (t *Task) Data() *contact.TaskData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.data.Clone()
}

// UpdateData reconciles incoming data into the task. With overwrite the
// data is replaced wholesale; otherwise it is merged, preserving
// client-only flags the payload did not mention and folding nested maps
// key-by-key. Returns the resulting snapshot. The replace path is for
// callers restoring a complete snapshot (hydration after reconnect);
// notification and command reconciliation always merge.
func (t *Task) UpdateData(incoming *contact.TaskData, overwrite bool) *contact.TaskData {
	t.mu.Lock()
	defer t.mu.Unlock()
	if overwrite {
		t.data = contact.Replace(incoming)
	} else {
		t.data = contact.Merge(t.data, incoming)
	}
	return t.data.Clone()
}

// refreshConferenceFlag recomputes the conference derivation from the
// current payload. Creation and conference reconciliation share the one
// implementation in the contact package.
func (t *Task) refreshConferenceFlag() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.IsConferenceInProgress = contact.Bool(contact.IsConferenceInProgress(t.data))
}

// setFlag sets one client-only flag on the live data.
func (t *Task) setFlag(set func(*contact.TaskData)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	set(t.data)
}

// --- Event emission ---

// On registers a handler for one notification type.
func (t *Task) On(et channel.EventType, h Handler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.handlers[et] = append(t.handlers[et], h)
}

// OnAny registers a handler for every notification on this task.
func (t *Task) OnAny(h Handler) {
	t.handlerMu.Lock()
	defer t.handlerMu.Unlock()
	t.anyHandlers = append(t.anyHandlers, h)
}

// emit re-emits one physical notification on this task. The registry
// calls it exactly once per dispatched envelope.
func (t *Task) emit(ev *channel.ContactEvent) {
	t.handlerMu.Lock()
	typed := append([]Handler(nil), t.handlers[ev.Type]...)
	any := append([]Handler(nil), t.anyHandlers...)
	t.handlerMu.Unlock()

	for _, h := range typed {
		h(ev)
	}
	for _, h := range any {
		h(ev)
	}
}

// --- Auto wrap-up ---

// armAutoWrapup starts the auto-wrap-up timer when the profile enables
// it. Re-arming restarts the interval; the timer never double-fires.
func (t *Task) armAutoWrapup() {
	settings := t.deps.Profile.Wrapup
	if !settings.AutoWrapup {
		return
	}
	t.wrapupMu.Lock()
	if t.autoWrapup == nil {
		t.autoWrapup = wrapup.New(settings.EffectiveInterval(), t.submitAutoWrapup)
	}
	timer := t.autoWrapup
	t.wrapupMu.Unlock()
	timer.Start()
}

// submitAutoWrapup runs when the timer fires: it submits the profile's
// resolved wrap-up reason on the agent's behalf.
func (t *Task) submitAutoWrapup() {
	reason, ok := t.deps.Profile.Wrapup.ResolveReason()
	if !ok {
		t.log.Warn("auto wrap-up fired with no configured reasons", map[string]interface{}{
			"taskId": t.id,
		})
		return
	}

	telemetry.RecordAutoWrapup(t.deps.Exporter, t.id, reason.ID)

	ctx, cancel := context.WithTimeout(context.Background(), autoWrapupSubmitTimeout)
	defer cancel()

	if _, err := t.Wrapup(ctx, WrapupParams{Reason: reason.Name, AuxCodeID: reason.ID}); err != nil {
		t.log.Error("auto wrap-up submission failed", map[string]interface{}{
			"taskId": t.id,
			"error":  err.Error(),
		})
	}
}

// AutoWrapupActive reports whether the auto-wrap-up timer is running.
func (t *Task) AutoWrapupActive() bool {
	timer := t.wrapupTimer()
	return timer != nil && timer.Running()
}

// AutoWrapupTimeLeft returns the remaining time before auto wrap-up
// fires, zero when idle.
func (t *Task) AutoWrapupTimeLeft() time.Duration {
	timer := t.wrapupTimer()
	if timer == nil {
		return 0
	}
	return timer.TimeLeft()
}

// clearAutoWrapup cancels a pending auto wrap-up. Idempotent.
func (t *Task) clearAutoWrapup() {
	if timer := t.wrapupTimer(); timer != nil {
		timer.Clear()
	}
}

func (t *Task) wrapupTimer() *wrapup.Timer {
	t.wrapupMu.Lock()
	defer t.wrapupMu.Unlock()
	return t.autoWrapup
}

// --- Local media ---

// setStream stores the local media stream acquired for answering.
func (t *Task) setStream(s callcontrol.MediaStream) {
	t.streamMu.Lock()
	defer t.streamMu.Unlock()
	t.stream = s
}

func (t *Task) currentStream() callcontrol.MediaStream {
	t.streamMu.Lock()
	defer t.streamMu.Unlock()
	return t.stream
}

// releaseStream stops and drops the local media stream, if any.
func (t *Task) releaseStream() {
	t.streamMu.Lock()
	s := t.stream
	t.stream = nil
	t.streamMu.Unlock()
	if s != nil {
		s.Stop()
	}
}

// release frees every local resource the task holds. The registry calls
// it on every removal path; it must stay safe to call more than once.
func (t *Task) release() {
	t.clearAutoWrapup()
	if t.deps.Device != nil {
		t.deps.Device.OnDisconnect(t.id, nil)
	}
	t.releaseStream()
}
