// Package failure defines the typed outcomes reported by the generation and
// transcription pipelines.
package failure

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindConfig         Kind = "config"
	KindTransport      Kind = "transport"
	KindEmptyResult    Kind = "empty_result"
	KindTranscode      Kind = "transcode"
	KindRecognition    Kind = "recognition"
	KindCancelled      Kind = "cancelled"
	KindInvalidRequest Kind = "invalid_request"
)

// Error is a failure of a given kind raised by operation Op.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Sentinels for errors.Is.
var (
	ErrConfig         = &Error{Kind: KindConfig}
	ErrTransport      = &Error{Kind: KindTransport}
	ErrEmptyResult    = &Error{Kind: KindEmptyResult}
	ErrTranscode      = &Error{Kind: KindTranscode}
	ErrRecognition    = &Error{Kind: KindRecognition}
	ErrCancelled      = &Error{Kind: KindCancelled}
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
)

// New wraps err as a failure of the given kind.
func New(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a failure from a formatted message.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// KindOf returns the kind of the first failure in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
