// Package session composes one agent session: it owns the event
// channel, the request client, the task registry, and the teardown
// order between them. There is no process-wide instance; a session is
// explicitly constructed and its lifetime belongs to whoever built it.
package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/contactdesk/deskcore/callcontrol"
	"github.com/contactdesk/deskcore/channel"
	"github.com/contactdesk/deskcore/config"
	deskerrors "github.com/contactdesk/deskcore/errors"
	"github.com/contactdesk/deskcore/logging"
	"github.com/contactdesk/deskcore/request"
	"github.com/contactdesk/deskcore/task"
	"github.com/contactdesk/deskcore/telemetry"
)

// DefaultCloseTimeout bounds Close when the caller's context has no
// deadline of its own.
const DefaultCloseTimeout = 10 * time.Second

// Teardown phases, lowest first.
const (
	phaseDispatch  = 10 // stop consuming notifications
	phaseTasks     = 20 // cancel timers, release calls and streams
	phaseChannel   = 30 // close the event feed
	phaseTelemetry = 40 // flush and close the exporter
)

// ErrClosed is returned by operations on a closed session.
var ErrClosed = errors.New("session closed")

// Options configure a session. Profile, Channel, and Requests are
// required; the rest default to quiet implementations.
type Options struct {
	Profile  *config.Profile
	Channel  channel.EventChannel
	Requests request.Client
	Device   callcontrol.Device
	Logger   *logging.Logger
	Exporter telemetry.Exporter
	Tracer   *telemetry.Tracer

	// Registry hooks, passed through unchanged.
	OnTaskCreated func(*task.Task, *channel.ContactEvent)
	OnTaskRemoved func(*task.Task, *channel.ContactEvent)
	OnLocalCall   func(*task.Task, callcontrol.IncomingCall)
}

// observer is implemented by request clients that settle against the
// event feed.
type observer interface {
	Observe(*channel.Envelope)
}

// teardownStep is one named phase of Close.
type teardownStep struct {
	name  string
	phase int
	fn    func(context.Context) error
}

// Session is the composition root for one agent's task lifecycle.
type Session struct {
	opts     Options
	log      *logging.Logger
	registry *task.Registry

	runStarted atomic.Bool
	runDone    chan struct{}

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}

	steps []teardownStep
}

// New validates the options and builds a session. Run must be called
// before notifications flow.
func New(opts Options) (*Session, error) {
	if opts.Profile == nil {
		return nil, errors.New("session requires a profile")
	}
	if err := opts.Profile.Validate(); err != nil {
		return nil, err
	}
	if opts.Channel == nil {
		return nil, errors.New("session requires an event channel")
	}
	if opts.Requests == nil {
		return nil, errors.New("session requires a request client")
	}
	if opts.Logger == nil {
		opts.Logger = logging.New()
	}
	if opts.Exporter == nil {
		opts.Exporter = telemetry.NewNoopExporter()
	}
	if opts.Tracer == nil {
		opts.Tracer = telemetry.NewNoopTracer()
	}

	s := &Session{
		opts:    opts,
		log:     opts.Logger.WithComponent("session"),
		runDone: make(chan struct{}),
		closed:  make(chan struct{}),
	}

	regOpts := task.RegistryOptions{
		OnTaskCreated: opts.OnTaskCreated,
		OnTaskRemoved: opts.OnTaskRemoved,
		OnLocalCall:   opts.OnLocalCall,
	}
	if obs, ok := opts.Requests.(observer); ok {
		regOpts.Observer = obs.Observe
	}

	s.registry = task.NewRegistry(opts.Channel, task.Deps{
		Profile:  opts.Profile,
		Requests: opts.Requests,
		Device:   opts.Device,
		Logger:   opts.Logger,
		Exporter: opts.Exporter,
		Tracer:   opts.Tracer,
	}, regOpts)

	s.registerTeardown()
	return s, nil
}

// registerTeardown wires the phased close order: stop dispatch, release
// task resources, close the feed, flush telemetry.
func (s *Session) registerTeardown() {
	s.steps = []teardownStep{
		{"dispatch", phaseDispatch, func(ctx context.Context) error {
			if !s.runStarted.Load() {
				return nil
			}
			select {
			case <-s.runDone:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		}},
		{"tasks", phaseTasks, func(ctx context.Context) error {
			for _, t := range s.registry.Tasks() {
				s.registry.Release(t)
			}
			return nil
		}},
		{"channel", phaseChannel, func(ctx context.Context) error {
			return s.opts.Channel.Close()
		}},
		{"telemetry", phaseTelemetry, func(ctx context.Context) error {
			if err := s.opts.Exporter.Flush(); err != nil {
				return err
			}
			return s.opts.Exporter.Close()
		}},
	}
	sort.SliceStable(s.steps, func(i, j int) bool {
		return s.steps[i].phase < s.steps[j].phase
	})
}

// Run consumes the event feed until the session closes, the context is
// cancelled, or the feed ends. It blocks; callers usually run it on its
// own goroutine.
func (s *Session) Run(ctx context.Context) error {
	if !s.runStarted.CompareAndSwap(false, true) {
		return errors.New("session already running")
	}
	defer close(s.runDone)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.closed:
			cancel()
		case <-runCtx.Done():
		}
	}()

	err := s.registry.Run(runCtx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Task returns the live task for an interaction id.
func (s *Session) Task(id string) (*task.Task, bool) {
	return s.registry.Task(id)
}

// Tasks returns a snapshot of the live tasks.
func (s *Session) Tasks() map[string]*task.Task {
	return s.registry.Tasks()
}

// StartOutdial places an agent-initiated call through the configured
// outdial entry point. The resulting task arrives through the event
// feed like any other offered contact; outdial failure notifications
// are dispatched by the registry.
func (s *Session) StartOutdial(ctx context.Context, destination string) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	if destination == "" {
		return deskerrors.InvalidInput("outdial requires a destination")
	}
	if s.opts.Profile.OutdialEntryPointID == "" {
		return deskerrors.InvalidInput("profile has no outdial entry point")
	}

	_, err := s.opts.Requests.Request(ctx, request.Descriptor{
		Service:  "dialer",
		Resource: "outdial",
		Body: map[string]string{
			"destination":  destination,
			"entryPointId": s.opts.Profile.OutdialEntryPointID,
			"origin":       s.opts.Profile.AgentID,
			"direction":    "OUTBOUND",
		},
		FailureTypes: []channel.EventType{channel.EventOutdialFailed},
		FailureCode:  deskerrors.ErrCodeOutdialFailed,
	})
	if err != nil {
		s.log.Error("outdial failed", map[string]interface{}{
			"destination": destination,
			"error":       err.Error(),
		})
		return err
	}

	s.log.Info("outdial placed", map[string]interface{}{"destination": destination})
	return nil
}

// Close tears the session down in phases. It runs at most once; later
// calls return the first result. A context without a deadline gets
// DefaultCloseTimeout.
func (s *Session) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.closed)

		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, DefaultCloseTimeout)
			defer cancel()
		}

		for _, step := range s.steps {
			if err := step.fn(ctx); err != nil {
				s.log.Error("teardown step failed", map[string]interface{}{
					"step":  step.name,
					"error": err.Error(),
				})
				if s.closeErr == nil {
					s.closeErr = err
				}
			}
		}
	})
	return s.closeErr
}

// Done is closed once Close has been initiated.
func (s *Session) Done() <-chan struct{} {
	return s.closed
}
