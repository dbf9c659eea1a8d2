package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// EmptyRequest indicates the peer sent nothing parseable (blank, one line, no head terminator)
	EmptyRequest ErrorCode = "EMPTY_REQUEST"
	// MalformedRequestLine indicates the request line is not METHOD SP PATH SP VERSION
	MalformedRequestLine ErrorCode = "MALFORMED_REQUEST_LINE"
	// MalformedHeader indicates a head line without the ": " separator
	MalformedHeader ErrorCode = "MALFORMED_HEADER"
	// RequestTooLarge indicates the read cap was reached before the head terminator
	RequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"
	// ReadFailed indicates the socket read failed
	ReadFailed ErrorCode = "READ_FAILED"
	// WriteFailed indicates a socket write or flush failed
	WriteFailed ErrorCode = "WRITE_FAILED"
	// ResponseAlreadyWritten indicates a second response form on the same request
	ResponseAlreadyWritten ErrorCode = "RESPONSE_ALREADY_WRITTEN"
	// StreamAborted indicates a file read failed after the 200 header was sent
	StreamAborted ErrorCode = "STREAM_ABORTED"
	// BindFailed indicates the listener could not bind its address
	BindFailed ErrorCode = "BIND_FAILED"
	// UnknownServerMethod indicates an unrecognized --method value
	UnknownServerMethod ErrorCode = "UNKNOWN_SERVER_METHOD"
	// DuplicateEndpoint indicates two handlers registered under one key
	DuplicateEndpoint ErrorCode = "DUPLICATE_ENDPOINT"
	// InvalidHandler indicates a registration without a callback
	InvalidHandler ErrorCode = "INVALID_HANDLER"
	// RegistrySealed indicates registration after the listener started
	RegistrySealed ErrorCode = "REGISTRY_SEALED"
	// InvalidManifest indicates a route manifest could not be loaded
	InvalidManifest ErrorCode = "INVALID_MANIFEST"
	// InvalidConfig indicates configuration failed to load or validate
	InvalidConfig ErrorCode = "INVALID_CONFIG"
	// SnapshotFailed indicates the cache snapshot could not be read or written
	SnapshotFailed ErrorCode = "SNAPSHOT_FAILED"
	// HandlerFailed indicates a registered handler returned an error or panicked
	HandlerFailed ErrorCode = "HANDLER_FAILED"
)

// Error represents a coded error with an optional underlying cause
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error     // Underlying error (not exported to JSON)
}

// New creates a new coded error
func New(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new coded error without a cause and a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf returns the code of the first coded error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var coded *Error
	if stderrors.As(err, &coded) {
		return coded.Code
	}
	return ""
}

// HasCode reports whether err's chain contains a coded error with the given code.
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var coded *Error
		if !stderrors.As(err, &coded) {
			return false
		}
		if coded.Code == code {
			return true
		}
		err = coded.cause
	}
	return false
}
