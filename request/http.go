package request

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/contactdesk/deskcore/channel"
	"github.com/contactdesk/deskcore/errors"
	"github.com/contactdesk/deskcore/logging"
)

// HTTPConfig holds HTTP client configuration.
type HTTPConfig struct {
	// BaseURL is the routing-service root, without a trailing slash.
	BaseURL string

	// Client is the underlying HTTP client. Nil means a client with
	// DefaultTimeout.
	Client *http.Client

	// Header is applied to every request (authorization and the like).
	Header http.Header

	// DefaultTimeout bounds requests whose descriptor sets none.
	DefaultTimeout time.Duration

	Logger *logging.Logger
}

// HTTPClient issues commands over HTTP and settles them against the
// event feed. The session routes every incoming envelope through
// Observe; requests that named success types wait for their
// notification there.
type HTTPClient struct {
	config HTTPConfig
	http   *http.Client
	log    *logging.Logger
	binder *binder
}

// NewHTTPClient creates a correlated HTTP request client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	httpc := cfg.Client
	if httpc == nil {
		httpc = &http.Client{Timeout: DefaultTimeout}
	}
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}
	return &HTTPClient{
		config: cfg,
		http:   httpc,
		log:    log.WithComponent("request"),
		binder: newBinder(),
	}
}

// Observe feeds one incoming envelope to the correlation table. The
// owner of the event channel calls this for every envelope, before or
// after dispatching it; order relative to dispatch does not matter.
func (c *HTTPClient) Observe(env *channel.Envelope) {
	c.binder.observe(env)
}

// Request issues the command and waits for its outcome.
func (c *HTTPClient) Request(ctx context.Context, d Descriptor) (*Response, error) {
	trackingID := uuid.NewString()

	// Bind before issuing so a notification racing the HTTP response
	// cannot slip past.
	var b *bind
	if len(d.SuccessTypes) > 0 || len(d.FailureTypes) > 0 {
		b = newBind(d)
		c.binder.add(d.InteractionID, b)
		defer c.binder.remove(d.InteractionID, b)
	}

	if err := c.send(ctx, d, trackingID); err != nil {
		return nil, err
	}

	if b == nil || len(d.SuccessTypes) == 0 {
		return &Response{TrackingID: trackingID}, nil
	}

	timer := time.NewTimer(c.effectiveTimeout(d))
	defer timer.Stop()

	select {
	case out := <-b.done:
		if out.failed {
			return nil, c.rejection(d, out.event, trackingID)
		}
		return &Response{Event: out.event, TrackingID: trackingID}, nil

	case <-timer.C:
		c.log.Warn("request timed out", map[string]interface{}{
			"service":       d.Service,
			"resource":      d.Resource,
			"interactionId": d.InteractionID,
			"trackingId":    trackingID,
		})
		return nil, errors.Timeout("no outcome notification received",
			errors.WithTrackingID(trackingID),
			errors.WithTaskID(d.InteractionID))

	case <-ctx.Done():
		return nil, errors.Wrap(ctx.Err(), "request aborted",
			errors.WithTrackingID(trackingID),
			errors.WithTaskID(d.InteractionID))
	}
}

// send performs the HTTP exchange and normalizes transport and
// rejection failures.
func (c *HTTPClient) send(ctx context.Context, d Descriptor, trackingID string) error {
	method := d.Method
	if method == "" {
		method = http.MethodPost
	}

	var body io.Reader
	if d.Body != nil {
		payload, err := json.Marshal(d.Body)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrCodeInvalidInput,
				"marshal request body", errors.WithTrackingID(trackingID))
		}
		body = bytes.NewReader(payload)
	}

	url := c.config.BaseURL + "/" + strings.Trim(d.Service, "/") + "/" + strings.Trim(d.Resource, "/")

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeInvalidInput,
			"build request", errors.WithTrackingID(trackingID))
	}
	for k, vs := range c.config.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if d.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Tracking-Id", trackingID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return errors.Wrap(ctx.Err(), "request aborted",
				errors.WithTrackingID(trackingID))
		}
		return errors.WrapWithCode(err, errors.ErrCodeNetworkErr,
			"routing service unreachable",
			errors.WithTrackingID(trackingID))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return errors.New(d.failureCode(), "routing service rejected the request",
			errors.WithTrackingID(trackingID),
			errors.WithTaskID(d.InteractionID),
			errors.WithReasonCode(resp.StatusCode),
			errors.WithDetails(json.RawMessage(payload)))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}

// rejection builds the error for a failure notification.
func (c *HTTPClient) rejection(d Descriptor, ev *channel.ContactEvent, trackingID string) *errors.Error {
	msg := d.failureCode().Description()
	opts := []errors.Option{
		errors.WithTrackingID(trackingID),
		errors.WithTaskID(d.InteractionID),
	}
	if ev != nil {
		if ev.Reason != "" {
			msg = ev.Reason
		}
		if ev.TrackingID != "" {
			opts[0] = errors.WithTrackingID(ev.TrackingID)
		}
		opts = append(opts, errors.WithReasonCode(ev.ReasonCode))
		if len(ev.Raw) > 0 {
			opts = append(opts, errors.WithDetails(ev.Raw))
		}
	}
	return errors.New(d.failureCode(), msg, opts...)
}

func (c *HTTPClient) effectiveTimeout(d Descriptor) time.Duration {
	if d.Timeout > 0 {
		return d.Timeout
	}
	return c.config.DefaultTimeout
}

var _ Client = (*HTTPClient)(nil)
