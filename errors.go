package codecraft

import (
	"errors"
	"strings"

	"github.com/xostack/codecraft/validate"
)

// Kind classifies why a submission did not produce an artifact.
type Kind int

const (
	RateLimited Kind = iota + 1
	EmptyPrompt
	TooShort
	TooLong
	InvalidCredential
	InitializationError
	GenerationError
)

var kindNames = map[Kind]string{
	RateLimited:         "RateLimited",
	EmptyPrompt:         "EmptyPrompt",
	TooShort:            "TooShort",
	TooLong:             "TooLong",
	InvalidCredential:   "InvalidCredential",
	InitializationError: "InitializationError",
	GenerationError:     "GenerationError",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// message is the user-facing text for k. It never includes provider
// payloads or credential material.
func (k Kind) message() string {
	switch k {
	case RateLimited:
		return "Rate limit exceeded. Please wait before making another request."
	case EmptyPrompt:
		return "Please describe your component first"
	case TooShort:
		return "Please provide a more detailed description (at least 10 characters)"
	case TooLong:
		return "Description is too long (maximum 1000 characters)"
	case InvalidCredential:
		return "API key is missing or invalid. Please check your .env file."
	case InitializationError:
		return "Failed to initialize the generation client. Please check your API key."
	case GenerationError:
		return "Failed to generate component. Please try again."
	default:
		return "Something went wrong while generating code"
	}
}

// Error is the failure type returned by Client and the orchestrator.
//
// Error() yields a stable, user-safe message. The underlying cause is
// reachable through errors.Unwrap for logging; pass it through Redact
// before writing it anywhere.
type Error struct {
	Kind    Kind
	Timeout bool // GenerationError only: the model did not answer in time
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == GenerationError && e.Timeout {
		return "The model did not respond in time. Please try again."
	}
	return e.Kind.message()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same Kind, so the sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (!t.Timeout || e.Timeout)
}

var (
	ErrRateLimited       = &Error{Kind: RateLimited}
	ErrEmptyPrompt       = &Error{Kind: EmptyPrompt}
	ErrTooShort          = &Error{Kind: TooShort}
	ErrTooLong           = &Error{Kind: TooLong}
	ErrInvalidCredential = &Error{Kind: InvalidCredential}
	ErrInitialization    = &Error{Kind: InitializationError}
	ErrGeneration        = &Error{Kind: GenerationError}
	ErrGenerationTimeout = &Error{Kind: GenerationError, Timeout: true}
)

// KindOf returns the Kind carried by err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// FromValidation maps a validate package error onto the error taxonomy.
func FromValidation(err error) *Error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, validate.ErrEmptyPrompt):
		return &Error{Kind: EmptyPrompt, Err: err}
	case errors.Is(err, validate.ErrTooShort):
		return &Error{Kind: TooShort, Err: err}
	case errors.Is(err, validate.ErrTooLong):
		return &Error{Kind: TooLong, Err: err}
	case errors.Is(err, validate.ErrMissingCredential):
		return &Error{Kind: InvalidCredential, Err: err}
	default:
		return &Error{Kind: GenerationError, Err: err}
	}
}

// Redact replaces every occurrence of secret in s. Secrets shorter than
// four characters are left alone to avoid mangling ordinary text.
func Redact(s, secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) < 4 {
		return s
	}
	return strings.ReplaceAll(s, secret, "[REDACTED]")
}
