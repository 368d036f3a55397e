package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned when an operation needs an open connection.
	ErrNotConnected = errors.New("database connection not established")

	// ErrConnectionStringRequired is returned by adapters that cannot build a DSN from parts.
	ErrConnectionStringRequired = errors.New("connection string is required")
)

// ConnectionError reports a failure to open or acquire a backend connection.
// It is fatal to a whole Execute call.
type ConnectionError struct {
	Driver string
	Err    error
}

func (e *ConnectionError) Error() string {
	if e.Driver == "" {
		return fmt.Sprintf("connection failed: %v", e.Err)
	}
	return fmt.Sprintf("connection failed (%s): %v", e.Driver, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StatementError reports a backend failure for one statement of a batch.
type StatementError struct {
	Index int
	Query string
	Err   error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement %d failed: %v", e.Index, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }
