package llm

import (
	"errors"
	"fmt"
)

// Kind classifies why a call to the provider failed.
type Kind string

const (
	KindConfiguration       Kind = "configuration"
	KindUnsupportedProvider Kind = "unsupported_provider"
	KindTransport           Kind = "transport"
	KindUpstream            Kind = "upstream"
	KindParse               Kind = "parse"
)

// Error is returned by Client for every failure. StatusCode is set for KindUpstream only.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Kind, true
	}
	return "", false
}

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
