package release

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why part of a run produced no data.
type ErrorKind string

const (
	// ErrKindCredentials is a soft condition: the provider is not configured.
	ErrKindCredentials ErrorKind = "credentials"
	ErrKindTransport   ErrorKind = "transport"
	ErrKindDataQuality ErrorKind = "data_quality"
	ErrKindPersistence ErrorKind = "persistence"
	ErrKindFatal       ErrorKind = "fatal"
)

// Failure is a classified error scoped to one provider operation.
type Failure struct {
	Provider string
	Kind     ErrorKind
	Op       string
	Err      error
}

func (f *Failure) Error() string {
	if f == nil {
		return "failure"
	}
	msg := string(f.Kind)
	if f.Provider != "" {
		msg = f.Provider + ": " + msg
	}
	if f.Op != "" {
		msg += " (" + f.Op + ")"
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

func NewFailure(provider string, kind ErrorKind, op string, err error) *Failure {
	return &Failure{Provider: provider, Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of a wrapped Failure, or ErrKindFatal for anything else.
func KindOf(err error) ErrorKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return ErrKindFatal
}

// Recovered turns a recovered panic value into a fatal failure.
func Recovered(provider, op string, v any) *Failure {
	if err, ok := v.(error); ok {
		return NewFailure(provider, ErrKindFatal, op, fmt.Errorf("panic: %w", err))
	}
	return NewFailure(provider, ErrKindFatal, op, fmt.Errorf("panic: %v", v))
}
