package client

import "errors"

// FailureKind tells transport failures apart from application failures
type FailureKind string

const (
	// TransportFailure means the service could not be reached or the exchange broke off
	TransportFailure FailureKind = "transport_failure"
	// ApplicationFailure means the service answered with a non-2xx status or an undecodable body
	ApplicationFailure FailureKind = "application_failure"
)

// RequestFailedError is returned by every Client operation that fails.
// Its message is the human readable reason of the operation.
type RequestFailedError struct {
	Op         Op
	Kind       FailureKind
	StatusCode int
	Err        error
}

// Error implements the error interface
func (e *RequestFailedError) Error() string {
	return e.Op.Reason()
}

// Unwrap returns the underlying cause
func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// IsRequestFailed reports whether err is a RequestFailedError and returns it
func IsRequestFailed(err error) (*RequestFailedError, bool) {
	var rf *RequestFailedError
	if errors.As(err, &rf) {
		return rf, true
	}
	return nil, false
}

func transportFailure(op Op, err error) *RequestFailedError {
	return &RequestFailedError{Op: op, Kind: TransportFailure, Err: err}
}

func applicationFailure(op Op, status int, err error) *RequestFailedError {
	return &RequestFailedError{Op: op, Kind: ApplicationFailure, StatusCode: status, Err: err}
}
