// Package orchestrator sequences a generation request: admission,
// validation, then the model call, and tracks the result as a State.
//
// One submission at a time is a precondition. A caller must not invoke
// Submit while the state is Loading (a UI typically disables its trigger);
// overlapping calls are not queued or rejected here.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/xostack/codecraft"
	"github.com/xostack/codecraft/validate"
)

// Admitter decides whether another request may start now.
type Admitter interface {
	TryAcquire() bool
}

// Generator produces code for a validated prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, framework validate.Framework) (string, error)
}

// Orchestrator owns the request state machine for one session.
type Orchestrator struct {
	limiter     Admitter
	generator   Generator
	credentials codecraft.CredentialFunc
	observer    func(State)
	log         zerolog.Logger
	sessionID   string

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Every line carries the session id.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// WithObserver registers fn to be called after every state transition.
// fn runs synchronously on the submitting goroutine.
func WithObserver(fn func(State)) Option {
	return func(o *Orchestrator) { o.observer = fn }
}

// New creates an Orchestrator in the Idle state.
func New(limiter Admitter, generator Generator, credentials codecraft.CredentialFunc, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		limiter:     limiter,
		generator:   generator,
		credentials: credentials,
		log:         zerolog.Nop(),
		sessionID:   uuid.NewString(),
		state:       Idle{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With().Str("session", o.sessionID).Logger()
	return o
}

// SessionID identifies this orchestrator in logs.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Reset returns to Idle, discarding the last artifact or error.
func (o *Orchestrator) Reset() {
	o.transition(Idle{})
}

// Submit runs one generation request and returns the artifact or a
// *codecraft.Error. Checks run cheapest first: rate limit, credential,
// prompt. None of them touches the network.
func (o *Orchestrator) Submit(ctx context.Context, prompt string, framework validate.Framework) (string, error) {
	if !o.limiter.TryAcquire() {
		o.log.Warn().Msg("rate limit exceeded")
		return "", o.fail(&codecraft.Error{Kind: codecraft.RateLimited})
	}

	credential := ""
	if o.credentials != nil {
		credential = o.credentials()
	}
	if err := validate.Credential(credential); err != nil {
		o.log.Warn().Msg("credential missing or placeholder")
		return "", o.fail(codecraft.FromValidation(err))
	}

	sanitized, err := validate.Prompt(prompt)
	if err != nil {
		o.log.Debug().Err(err).Msg("prompt rejected")
		return "", o.fail(codecraft.FromValidation(err))
	}

	o.transition(Loading{})
	o.log.Info().Str("framework", string(framework)).Int("prompt_len", len(sanitized)).Msg("generating component")

	start := time.Now()
	code, err := o.generate(ctx, sanitized, framework)
	if err != nil {
		o.log.Error().Str("kind", codecraft.KindOf(err).String()).Dur("elapsed", time.Since(start)).Msg("generation failed")
		return "", o.fail(err)
	}

	o.log.Info().Int("bytes", len(code)).Dur("elapsed", time.Since(start)).Msg("component generated")
	o.transition(Ready{Code: code})
	return code, nil
}

// generate calls the generator and converts panics and foreign errors
// into a GenerationError so the state never stays Loading.
func (o *Orchestrator) generate(ctx context.Context, prompt string, framework validate.Framework) (code string, err error) {
	defer func() {
		if r := recover(); r != nil {
			code = ""
			err = &codecraft.Error{Kind: codecraft.GenerationError, Err: fmt.Errorf("generator panic: %v", r)}
		}
	}()

	code, err = o.generator.Generate(ctx, prompt, framework)
	if err != nil && codecraft.KindOf(err) == 0 {
		err = &codecraft.Error{Kind: codecraft.GenerationError, Err: err}
	}
	return code, err
}

func (o *Orchestrator) fail(err error) error {
	o.transition(Failed{Err: err})
	return err
}

func (o *Orchestrator) transition(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()

	o.log.Debug().Str("state", s.Name()).Msg("state changed")
	if o.observer != nil {
		o.observer(s)
	}
}
