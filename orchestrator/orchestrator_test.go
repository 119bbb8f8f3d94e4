package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/xostack/codecraft"
	"github.com/xostack/codecraft/ratelimit"
	"github.com/xostack/codecraft/validate"
)

const (
	testKey    = "sk-real-key-0042"
	testPrompt = "A responsive pricing table with three plans"
)

// mockGenerator counts calls and answers with a canned result.
type mockGenerator struct {
	mu      sync.Mutex
	calls   int
	prompts []string
	code    string
	err     error
	panics  bool
}

func (m *mockGenerator) Generate(ctx context.Context, prompt string, framework validate.Framework) (string, error) {
	m.mu.Lock()
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.panics {
		panic("boom")
	}
	return m.code, m.err
}

func (m *mockGenerator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// fakeModel is a codecraft.Model used to drive a real codecraft.Client.
type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) Generate(ctx context.Context, instruction string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeModel) Close() error { return nil }

func key(k string) codecraft.CredentialFunc { return func() string { return k } }

func recordStates(dst *[]string) Option {
	return WithObserver(func(s State) { *dst = append(*dst, s.Name()) })
}

func TestNew_StartsIdle(t *testing.T) {
	o := New(ratelimit.New(1, time.Minute), &mockGenerator{}, key(testKey))

	if _, ok := o.State().(Idle); !ok {
		t.Errorf("Expected Idle, got %s", o.State().Name())
	}
	if o.SessionID() == "" {
		t.Error("Expected a session id")
	}
}

func TestSubmit_Success(t *testing.T) {
	gen := &mockGenerator{code: "<div>ok</div>"}
	var states []string
	o := New(ratelimit.New(10, time.Minute), gen, key(testKey), recordStates(&states))

	code, err := o.Submit(context.Background(), "  "+testPrompt+"  ", validate.HTMLTailwind)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if code != "<div>ok</div>" {
		t.Errorf("Expected '<div>ok</div>', got '%s'", code)
	}

	ready, ok := o.State().(Ready)
	if !ok || ready.Code != code {
		t.Errorf("Expected Ready with the artifact, got %#v", o.State())
	}
	if strings.Join(states, ",") != "loading,ready" {
		t.Errorf("Expected transitions loading,ready, got %v", states)
	}
	if gen.prompts[0] != testPrompt {
		t.Errorf("Expected the sanitized (trimmed) prompt, got '%s'", gen.prompts[0])
	}
}

func TestSubmit_RateLimitedMakesNoCall(t *testing.T) {
	gen := &mockGenerator{code: "<p/>"}
	limiter := ratelimit.New(2, time.Minute)
	limiter.TryAcquire()
	limiter.TryAcquire()

	var states []string
	o := New(limiter, gen, key(testKey), recordStates(&states))

	_, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS)
	if !errors.Is(err, codecraft.ErrRateLimited) {
		t.Fatalf("Expected RateLimited, got %v", err)
	}
	if gen.callCount() != 0 {
		t.Errorf("Expected zero generator calls, got %d", gen.callCount())
	}
	failed, ok := o.State().(Failed)
	if !ok || !errors.Is(failed.Err, codecraft.ErrRateLimited) {
		t.Errorf("Expected Failed(RateLimited), got %#v", o.State())
	}
	if strings.Join(states, ",") != "failed" {
		t.Errorf("Expected a single transition to failed, got %v", states)
	}
}

func TestSubmit_RateLimitedWithRealClient(t *testing.T) {
	model := &fakeModel{reply: "```html\n<p/>\n```"}
	client := codecraft.NewClient(key(testKey), codecraft.WithDialer(
		func(ctx context.Context, credential, name string, logger zerolog.Logger) (codecraft.Model, error) {
			return model, nil
		}))
	o := New(ratelimit.New(1, time.Minute), client, key(testKey))

	if _, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS); err != nil {
		t.Fatalf("First submit: unexpected error %v", err)
	}
	if _, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS); !errors.Is(err, codecraft.ErrRateLimited) {
		t.Fatalf("Second submit: expected RateLimited, got %v", err)
	}
	if model.calls != 1 {
		t.Errorf("Expected exactly one network call, got %d", model.calls)
	}
}

func TestSubmit_InvalidCredential(t *testing.T) {
	for _, cred := range []string{"", validate.PlaceholderCredential} {
		gen := &mockGenerator{}
		o := New(ratelimit.New(10, time.Minute), gen, key(cred))

		_, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS)
		if !errors.Is(err, codecraft.ErrInvalidCredential) {
			t.Errorf("credential %q: expected InvalidCredential, got %v", cred, err)
		}
		if gen.callCount() != 0 {
			t.Errorf("credential %q: expected no generator call", cred)
		}
	}
}

func TestSubmit_InvalidPrompt(t *testing.T) {
	tests := []struct {
		prompt string
		want   error
	}{
		{"", codecraft.ErrEmptyPrompt},
		{"   ", codecraft.ErrEmptyPrompt},
		{"short", codecraft.ErrTooShort},
		{strings.Repeat("x", 1001), codecraft.ErrTooLong},
	}

	for _, tt := range tests {
		gen := &mockGenerator{}
		o := New(ratelimit.New(10, time.Minute), gen, key(testKey))

		_, err := o.Submit(context.Background(), tt.prompt, validate.HTMLCSS)
		if !errors.Is(err, tt.want) {
			t.Errorf("prompt len %d: expected %v, got %v", len(tt.prompt), tt.want, err)
		}
		if _, ok := o.State().(Failed); !ok {
			t.Errorf("prompt len %d: expected Failed state, got %s", len(tt.prompt), o.State().Name())
		}
		if gen.callCount() != 0 {
			t.Errorf("prompt len %d: expected no generator call", len(tt.prompt))
		}
	}
}

func TestSubmit_NetworkErrorHidesCredential(t *testing.T) {
	var logs bytes.Buffer
	model := &fakeModel{err: errors.New("Post https://example/?key=" + testKey + ": connection reset")}
	client := codecraft.NewClient(key(testKey),
		codecraft.WithLogger(zerolog.New(&logs)),
		codecraft.WithDialer(func(ctx context.Context, credential, name string, logger zerolog.Logger) (codecraft.Model, error) {
			return model, nil
		}))

	var states []string
	o := New(ratelimit.New(10, time.Minute), client, key(testKey),
		recordStates(&states),
		WithLogger(zerolog.New(&logs).Level(zerolog.DebugLevel)))

	_, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS)
	if !errors.Is(err, codecraft.ErrGeneration) {
		t.Fatalf("Expected GenerationError, got %v", err)
	}
	if strings.Contains(err.Error(), testKey) {
		t.Error("Expected surfaced message to omit the credential")
	}
	failed, ok := o.State().(Failed)
	if !ok || strings.Contains(failed.Err.Error(), testKey) {
		t.Errorf("Expected Failed state without credential, got %#v", o.State())
	}
	if strings.Contains(logs.String(), testKey) {
		t.Error("Expected logs to omit the credential")
	}
	if !strings.Contains(logs.String(), "connection reset") {
		t.Error("Expected the redacted cause to be logged")
	}
	if strings.Join(states, ",") != "loading,failed" {
		t.Errorf("Expected transitions loading,failed, got %v", states)
	}
}

func TestSubmit_InitializationError(t *testing.T) {
	client := codecraft.NewClient(key(testKey), codecraft.WithDialer(
		func(ctx context.Context, credential, name string, logger zerolog.Logger) (codecraft.Model, error) {
			return nil, errors.New("unreachable")
		}))
	o := New(ratelimit.New(10, time.Minute), client, key(testKey))

	_, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS)
	if !errors.Is(err, codecraft.ErrInitialization) {
		t.Fatalf("Expected InitializationError, got %v", err)
	}
	if _, ok := o.State().(Failed); !ok {
		t.Errorf("Expected Failed, got %s", o.State().Name())
	}
}

func TestSubmit_ForeignErrorAndPanicNeverLeaveLoading(t *testing.T) {
	gens := []*mockGenerator{
		{err: errors.New("plain error")},
		{panics: true},
	}
	for i, gen := range gens {
		o := New(ratelimit.New(10, time.Minute), gen, key(testKey))

		_, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS)
		if !errors.Is(err, codecraft.ErrGeneration) {
			t.Errorf("case %d: expected GenerationError, got %v", i, err)
		}
		if _, ok := o.State().(Failed); !ok {
			t.Errorf("case %d: expected Failed, got %s", i, o.State().Name())
		}
	}
}

func TestSubmit_RecoversAfterFailure(t *testing.T) {
	gen := &mockGenerator{err: errors.New("flaky")}
	o := New(ratelimit.New(10, time.Minute), gen, key(testKey))

	if _, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS); err == nil {
		t.Fatal("Expected first submit to fail")
	}

	gen.mu.Lock()
	gen.err, gen.code = nil, "<main/>"
	gen.mu.Unlock()

	code, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS)
	if err != nil || code != "<main/>" {
		t.Fatalf("Expected second submit to succeed, got %q, %v", code, err)
	}
	if _, ok := o.State().(Ready); !ok {
		t.Errorf("Expected Ready, got %s", o.State().Name())
	}
}

func TestReset(t *testing.T) {
	o := New(ratelimit.New(10, time.Minute), &mockGenerator{code: "<a/>"}, key(testKey))
	if _, err := o.Submit(context.Background(), testPrompt, validate.HTMLCSS); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	o.Reset()
	if _, ok := o.State().(Idle); !ok {
		t.Errorf("Expected Idle after Reset, got %s", o.State().Name())
	}
}
