package pool

import "errors"

var (
	// ErrInvalidLocator is returned when a locator cannot be parsed as a connection string.
	ErrInvalidLocator = errors.New("invalid locator")

	// ErrFailedToCreatePool is returned when pool construction or the initial ping fails.
	ErrFailedToCreatePool = errors.New("failed to create connection pool")

	// ErrManagerClosed is returned when acquiring from a manager that has been shut down.
	ErrManagerClosed = errors.New("pool manager is closed")
)
