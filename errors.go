package grokit

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// ErrorCode represents the category of an error.
type ErrorCode int

const (
	// ErrUnknown indicates an unknown error.
	ErrUnknown ErrorCode = iota
	// ErrMissingCredentials indicates the auth or csrf token was not supplied.
	ErrMissingCredentials
	// ErrConversationCreation indicates the server did not return a conversation id.
	ErrConversationCreation
	// ErrTransport indicates a request failed or returned a non-success status.
	ErrTransport
	// ErrUnsupportedMedia indicates a fetched attachment is not an image.
	ErrUnsupportedMedia
	// ErrTurn indicates the turn submission was rejected by the server.
	ErrTurn
	// ErrDecode indicates a response body could not be decoded.
	ErrDecode
	// ErrCanceled indicates the request was canceled or timed out.
	ErrCanceled
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrMissingCredentials:
		return "missing_credentials_error"
	case ErrConversationCreation:
		return "conversation_creation_error"
	case ErrTransport:
		return "transport_error"
	case ErrUnsupportedMedia:
		return "unsupported_media_error"
	case ErrTurn:
		return "turn_error"
	case ErrDecode:
		return "decode_error"
	case ErrCanceled:
		return "canceled_error"
	default:
		return "unknown_error"
	}
}

// Error is the error type returned by every client operation.
type Error struct {
	// Code is the error category.
	Code ErrorCode
	// Message is a human-readable error message.
	Message string
	// Cause is the underlying error, if any.
	Cause error
	// StatusCode is the HTTP status of the failed response, or 0.
	StatusCode int
	// Body is the raw response body of the failed response, if read.
	Body string
	// Status is the canonical classification of StatusCode.
	Status codes.Code
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the failure looks transient. The client itself
// never retries; this is a hint for callers.
func (e *Error) IsRetryable() bool {
	switch e.Status {
	case codes.ResourceExhausted, codes.Unavailable, codes.DeadlineExceeded, codes.Internal:
		return true
	default:
		return false
	}
}

// IsRateLimit reports whether the server rejected the request for quota reasons.
func (e *Error) IsRateLimit() bool {
	return e.Status == codes.ResourceExhausted
}

// IsAuth reports whether the failure was caused by bad or missing credentials.
func (e *Error) IsAuth() bool {
	return e.Code == ErrMissingCredentials || e.Status == codes.Unauthenticated || e.Status == codes.PermissionDenied
}

// Sentinel errors for errors.Is checks.
var (
	ErrMissingCredentialsSentinel   = &Error{Code: ErrMissingCredentials}
	ErrConversationCreationSentinel = &Error{Code: ErrConversationCreation}
	ErrTransportSentinel            = &Error{Code: ErrTransport}
	ErrUnsupportedMediaSentinel     = &Error{Code: ErrUnsupportedMedia}
	ErrTurnSentinel                 = &Error{Code: ErrTurn}
	ErrDecodeSentinel               = &Error{Code: ErrDecode}
	ErrCanceledSentinel             = &Error{Code: ErrCanceled}
)

// Is implements errors.Is for Error matching by code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// StatusFromHTTP maps an HTTP status to its canonical code.
func StatusFromHTTP(status int) codes.Code {
	if status >= 200 && status < 300 {
		return codes.OK
	}
	switch status {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.Aborted
	case http.StatusRequestEntityTooLarge:
		return codes.OutOfRange
	case http.StatusUnsupportedMediaType:
		return codes.InvalidArgument
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case 499:
		return codes.Canceled
	case http.StatusNotImplemented:
		return codes.Unimplemented
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return codes.Unavailable
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	}
	if status >= 500 {
		return codes.Internal
	}
	return codes.Unknown
}

// newStatusError builds an error of the given code for a non-success response.
func newStatusError(code ErrorCode, message string, status int, body []byte) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		StatusCode: status,
		Body:       string(body),
		Status:     StatusFromHTTP(status),
	}
}

// fromRequestError converts a transport-level failure (no response) to an Error.
func fromRequestError(err error, message string) *Error {
	if err == nil {
		return nil
	}
	var gErr *Error
	if errors.As(err, &gErr) {
		return gErr
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status := codes.Canceled
		if errors.Is(err, context.DeadlineExceeded) {
			status = codes.DeadlineExceeded
		}
		return &Error{Code: ErrCanceled, Message: message, Cause: err, Status: status}
	}
	return &Error{Code: ErrTransport, Message: message, Cause: err, Status: codes.Unavailable}
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	var gErr *Error
	if errors.As(err, &gErr) {
		return &Error{
			Code:       gErr.Code,
			Message:    message + ": " + gErr.Message,
			Cause:      gErr.Cause,
			StatusCode: gErr.StatusCode,
			Body:       gErr.Body,
			Status:     gErr.Status,
		}
	}
	return fmt.Errorf("%s: %w", message, err)
}
