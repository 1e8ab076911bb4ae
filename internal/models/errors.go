package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("file not found")
	ErrAuthFailure      = errors.New("repository credentials rejected")
	ErrTransport        = errors.New("transport error")
	ErrBlockNotFound    = errors.New("data block not found")
	ErrMalformedLiteral = errors.New("malformed literal")
	ErrEvalTimeout      = errors.New("literal evaluation timed out")
	ErrSchemaViolation  = errors.New("schema violation")
	ErrVersionConflict  = errors.New("version conflict: collection has been modified")
	ErrDuplicateID      = errors.New("duplicate record id")
	ErrUnauthorized     = errors.New("caller is not an authorized editor")
	ErrUnknownKind      = errors.New("unknown collection kind")
	ErrRecordNotFound   = errors.New("record not found")
	ErrUnsupported      = errors.New("operation not supported by this backend")
)

// TransportError wraps a network or HTTP level failure talking to the
// remote store. It matches ErrTransport with errors.Is.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}
