package codecraft

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/xostack/codecraft/gemini"
	"github.com/xostack/codecraft/validate"
)

// DefaultTimeout bounds a single model call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Model is the handle used to reach the generative endpoint: one text
// instruction in, free text out.
type Model interface {
	Generate(ctx context.Context, instruction string) (string, error)
	Close() error
}

// Dialer creates a Model for a credential and model name.
type Dialer func(ctx context.Context, credential, model string, logger zerolog.Logger) (Model, error)

// CredentialFunc returns the current API key. It is called once per
// request and its result is never stored or logged by this package.
type CredentialFunc func() string

// DialGemini is the default Dialer.
func DialGemini(ctx context.Context, credential, model string, logger zerolog.Logger) (Model, error) {
	c, err := gemini.NewClient(ctx, credential, model, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client turns a validated prompt and framework into generated code via a
// single model call.
//
// Construction and initialization are separate: NewClient only records
// settings, and the model handle is dialed by Initialize, either
// explicitly or lazily on the first Generate.
type Client struct {
	credentials CredentialFunc
	modelName   string
	timeout     time.Duration
	dial        Dialer
	log         zerolog.Logger

	mu    sync.Mutex
	model Model
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithModel overrides the model identifier. Empty keeps the default.
func WithModel(name string) ClientOption {
	return func(c *Client) { c.modelName = name }
}

// WithTimeout bounds each model call. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDialer replaces the model constructor.
func WithDialer(d Dialer) ClientOption {
	return func(c *Client) {
		if d != nil {
			c.dial = d
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient creates an uninitialized Client.
func NewClient(credentials CredentialFunc, opts ...ClientOption) *Client {
	c := &Client{
		credentials: credentials,
		timeout:     DefaultTimeout,
		dial:        DialGemini,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Initialize dials the model handle if it has not been dialed yet.
// Subsequent calls are no-ops.
func (c *Client) Initialize(ctx context.Context, credential string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model != nil {
		return nil
	}

	if err := validate.Credential(credential); err != nil {
		return &Error{Kind: InitializationError, Err: err}
	}

	m, err := c.dial(ctx, credential, c.modelName, c.log)
	if err != nil {
		c.log.Error().Str("cause", Redact(err.Error(), credential)).Msg("model initialization failed")
		return &Error{Kind: InitializationError, Err: fmt.Errorf("dial model: %w", err)}
	}
	c.model = m
	c.log.Debug().Str("model", c.modelName).Msg("model handle initialized")
	return nil
}

// Initialized reports whether the model handle exists.
func (c *Client) Initialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model != nil
}

// Generate builds the instruction for prompt and framework, sends it to
// the model and extracts the code from the reply.
//
// The call blocks until the model answers, ctx is done or the client
// timeout elapses. Failures are returned as *Error with Kind
// GenerationError (Timeout set on deadline) or InitializationError.
func (c *Client) Generate(ctx context.Context, prompt string, framework validate.Framework) (string, error) {
	credential := ""
	if c.credentials != nil {
		credential = c.credentials()
	}
	if err := c.Initialize(ctx, credential); err != nil {
		return "", err
	}

	c.mu.Lock()
	model := c.model
	c.mu.Unlock()

	instruction := BuildInstruction(prompt, framework)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reply, err := call(callCtx, model, instruction)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		c.log.Error().
			Str("framework", string(framework)).
			Bool("timeout", timedOut).
			Dur("elapsed", time.Since(start)).
			Str("cause", Redact(err.Error(), credential)).
			Msg("generation failed")
		return "", &Error{Kind: GenerationError, Timeout: timedOut, Err: err}
	}

	code, fenced := extractCode(reply)
	if !fenced {
		c.log.Debug().Msg("no fenced code block in reply, returning raw text")
	}
	c.log.Debug().
		Str("framework", string(framework)).
		Int("bytes", len(code)).
		Dur("elapsed", time.Since(start)).
		Msg("generation complete")
	return code, nil
}

// call runs model.Generate but returns as soon as ctx is done, even if
// the model ignores cancellation.
func call(ctx context.Context, model Model, instruction string) (string, error) {
	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := model.Generate(ctx, instruction)
		done <- result{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() != nil && !errors.Is(r.err, ctx.Err()) {
			return "", fmt.Errorf("%w: %v", ctx.Err(), r.err)
		}
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Close releases the model handle. The client can be initialized again
// afterwards.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.model == nil {
		return nil
	}
	err := c.model.Close()
	c.model = nil
	return err
}
