package models

import (
	"errors"
	"fmt"
)

// Validation error kinds. Match them with errors.Is.
var (
	ErrInvalidKind      = errors.New("invalid project kind")
	ErrInvalidTarget    = errors.New("invalid deployment target")
	ErrInvalidPath      = errors.New("invalid path")
	ErrMissingReadme    = errors.New("missing readme")
	ErrMissingArchive   = errors.New("missing archive")
	ErrAmbiguousArchive = errors.New("ambiguous archive")
)

// Remote error kinds. Match them with errors.Is.
var (
	ErrLookupFailed          = errors.New("page lookup failed")
	ErrInconsistentPageState = errors.New("inconsistent page state")
	ErrCreateFailed          = errors.New("page create failed")
	ErrUploadFailed          = errors.New("media upload failed")
	ErrLinkFailed            = errors.New("media link failed")
	ErrMalformedResponse     = errors.New("malformed response")
)

// ValidationError is a local, pre-flight failure.
type ValidationError struct {
	Kind error
	Msg  string
	Err  error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Invalidf builds a ValidationError of the given kind.
func Invalidf(kind error, format string, args ...any) error {
	return &ValidationError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// RemoteError is a failure while talking to the WordPress REST API.
type RemoteError struct {
	Kind error
	// Step names the remote call that failed, e.g. "create page".
	Step string
	Msg  string
	Err  error
}

func (e *RemoteError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Step != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Step)
	}
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the kind and the underlying cause.
func (e *RemoteError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
