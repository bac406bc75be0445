// File: internal/service/errors.go
package service

import (
	"errors"
	"fmt"
)

// Kind classifies operation failures. Kinds are stable wire values; the CLI
// and the tool server surface them verbatim so callers can branch without
// parsing messages.
type Kind string

const (
	KindLoginTimeout      Kind = "AUTH_LOGIN_TIMEOUT"
	KindLoginFailed       Kind = "AUTH_LOGIN_FAILED"
	KindNotLoggedIn       Kind = "AUTH_NOT_LOGGED_IN"
	KindBrowserLaunch     Kind = "BROWSER_LAUNCH"
	KindNavigation        Kind = "BROWSER_NAVIGATION"
	KindFeedNotFound      Kind = "FEED_NOT_FOUND"
	KindFeedParse         Kind = "FEED_PARSE"
	KindPublishValidation Kind = "PUBLISH_VALIDATION"
	KindInvalidMedia      Kind = "PUBLISH_INVALID_MEDIA"
	KindPublishFlow       Kind = "PUBLISH_FLOW"
	KindCompletionTimeout Kind = "COMPLETION_TIMEOUT"
	KindElementNotFound   Kind = "ELEMENT_NOT_FOUND"
	KindNoteParse         Kind = "NOTE_PARSE"
	KindDeleteFailed      Kind = "DELETE_FAILED"
	KindDownloadDetail    Kind = "DOWNLOAD_DETAIL"
	KindDownloadFetch     Kind = "DOWNLOAD_FETCH"
	KindUserNotFound      Kind = "USER_NOT_FOUND"
	KindInternal          Kind = "INTERNAL"
)

// OpError is the domain error type. It carries the operation name and
// structured context so a failure is diagnosable from the envelope alone,
// without re-running with verbose tracing.
type OpError struct {
	Kind    Kind
	Op      string
	Msg     string
	Context map[string]interface{}
	Err     error
}

func (e *OpError) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Err != nil && e.Msg != "" {
		return fmt.Sprintf("%s: %s: %s: %v", e.Kind, e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, msg)
}

func (e *OpError) Unwrap() error { return e.Err }

// E builds a plain OpError.
func E(kind Kind, op, msg string) *OpError {
	return &OpError{Kind: kind, Op: op, Msg: msg}
}

// Wrap builds an OpError around a cause.
func Wrap(kind Kind, op, msg string, err error) *OpError {
	return &OpError{Kind: kind, Op: op, Msg: msg, Err: err}
}

// WithContext attaches a structured context value and returns the error for
// chaining.
func (e *OpError) WithContext(key string, value interface{}) *OpError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// KindOf extracts the Kind from an error chain, defaulting to KindInternal.
func KindOf(err error) Kind {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	return KindInternal
}
