package database

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolExhausted is returned when no connection became free within the
	// pool's acquire timeout. It is transient; callers may retry.
	ErrPoolExhausted = errors.New("connection pool exhausted")
	// ErrPoolClosed is returned by Acquire after Disconnect or Shutdown.
	ErrPoolClosed = errors.New("connection pool closed")
)

// ErrorKind classifies the storage failure wrapped by an AccessError.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindDuplicateKey
	KindMissingReference
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicateKey:
		return "duplicate_key"
	case KindMissingReference:
		return "missing_reference"
	default:
		return "other"
	}
}

// AccessError wraps a lower-level storage failure with the attempted operation
// and the engine's own state code.
type AccessError struct {
	Op    string
	Table string
	// Code is the engine state code: the SQLite extended result code or the Postgres SQLSTATE.
	Code string
	Kind ErrorKind
	Err  error
}

func (e *AccessError) Error() string {
	code := e.Code
	if code == "" {
		code = "n/a"
	}
	return fmt.Sprintf("%s on %s failed (%s, code %s): %v", e.Op, e.Table, e.Kind, code, e.Err)
}

func (e *AccessError) Unwrap() error {
	return e.Err
}

// NewAccessError classifies err with the dialect and wraps it.
func NewAccessError(d Dialect, table, op string, err error) *AccessError {
	code, kind := d.Classify(err)
	return &AccessError{Op: op, Table: table, Code: code, Kind: kind, Err: err}
}

// IsDuplicateKey reports whether err is an AccessError caused by a primary key or unique violation.
func IsDuplicateKey(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr) && accessErr.Kind == KindDuplicateKey
}

// IsMissingReference reports whether err is an AccessError caused by a foreign key violation.
func IsMissingReference(err error) bool {
	var accessErr *AccessError
	return errors.As(err, &accessErr) && accessErr.Kind == KindMissingReference
}

// InitialisationError reports a failure to bring the pool up.
type InitialisationError struct {
	Reason string
	Err    error
}

func (e *InitialisationError) Error() string {
	if e.Err == nil {
		return "database initialisation failed: " + e.Reason
	}
	return fmt.Sprintf("database initialisation failed: %s: %v", e.Reason, e.Err)
}

func (e *InitialisationError) Unwrap() error {
	return e.Err
}

// ShutdownError reports a failure while halting the engine or closing the pool.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	return fmt.Sprintf("database shutdown failed: %v", e.Err)
}

func (e *ShutdownError) Unwrap() error {
	return e.Err
}
