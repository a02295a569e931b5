package errs

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType tags an error for event payloads and logs.
type ErrorType string

const (
	TypeNotFound   ErrorType = "not_found"
	TypeValidation ErrorType = "validation_error"
	TypeTemplate   ErrorType = "template_error"
	TypeConnection ErrorType = "connection_error"
	TypeTimeout    ErrorType = "timeout_error"
	TypeHTTP       ErrorType = "http_error"
	TypeSizeLimit  ErrorType = "size_limit_error"
)

// ConfigNotFoundError is returned when a webhook id has no stored configuration.
type ConfigNotFoundError struct {
	ID string
}

func NewConfigNotFound(id string) *ConfigNotFoundError {
	return &ConfigNotFoundError{ID: id}
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("webhook not found: %s", e.ID)
}

type ValidateError struct {
	err     error
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields"`
}

func NewValidateError(err error) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  make(map[string]interface{}),
	}
}

func NewValidateFieldsError(err error, fields map[string]interface{}) *ValidateError {
	return &ValidateError{
		err:     err,
		Message: err.Error(),
		Fields:  fields,
	}
}

func (e *ValidateError) Error() string {
	return e.err.Error()
}

func (e *ValidateError) Unwrap() error {
	return e.err
}

// TemplateError is an expression evaluation failure tagged with the field
// path it occurred at, e.g. "payload.metadata.timestamp".
type TemplateError struct {
	Path string
	err  error
}

func NewTemplateError(path string, err error) *TemplateError {
	return &TemplateError{Path: path, err: err}
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error at %s: %s", e.Path, e.err)
}

func (e *TemplateError) Unwrap() error {
	return e.err
}

// TransportError is a connection-level failure: refused, DNS, timeout.
type TransportError struct {
	err error
}

func NewTransportError(err error) *TransportError {
	return &TransportError{err: err}
}

func (e *TransportError) Error() string {
	return e.err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.err
}

func (e *TransportError) Timeout() bool {
	return errors.Is(e.err, context.DeadlineExceeded)
}

// ServerError is a 5xx response.
type ServerError struct {
	StatusCode int
}

func NewServerError(statusCode int) *ServerError {
	return &ServerError{StatusCode: statusCode}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: HTTP %d", e.StatusCode)
}

// SizeLimitError is returned when a response declares a body larger than
// the configured cap.
type SizeLimitError struct {
	Limit    int64
	Declared int64
}

func NewSizeLimitError(limit, declared int64) *SizeLimitError {
	return &SizeLimitError{Limit: limit, Declared: declared}
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("response size (%d bytes) exceeds maximum allowed (%d bytes)", e.Declared, e.Limit)
}

// DispatchError is the call-failed outcome handed to the caller.
type DispatchError struct {
	WebhookID string
	Attempts  int
	err       error
}

func NewDispatchError(webhookID string, attempts int, err error) *DispatchError {
	return &DispatchError{
		WebhookID: webhookID,
		Attempts:  attempts,
		err:       err,
	}
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("webhook %s failed after %d attempts: %s", e.WebhookID, e.Attempts, e.err)
}

func (e *DispatchError) Unwrap() error {
	return e.err
}

// Retryable reports whether err may succeed on a later attempt.
// Transport failures and 5xx responses are retryable; everything else
// ends the retry loop.
func Retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var se *ServerError
	return errors.As(err, &se)
}

// TypeOf maps err onto the event payload error type.
func TypeOf(err error) ErrorType {
	var (
		nf *ConfigNotFoundError
		ve *ValidateError
		tp *TemplateError
		tr *TransportError
		se *ServerError
		sl *SizeLimitError
	)
	switch {
	case errors.As(err, &nf):
		return TypeNotFound
	case errors.As(err, &ve):
		return TypeValidation
	case errors.As(err, &tp):
		return TypeTemplate
	case errors.As(err, &tr):
		if tr.Timeout() {
			return TypeTimeout
		}
		return TypeConnection
	case errors.As(err, &se):
		return TypeHTTP
	case errors.As(err, &sl):
		return TypeSizeLimit
	}
	return TypeConnection
}
