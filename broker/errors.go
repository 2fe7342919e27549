package broker

import "errors"

var (
	// ErrShuttingDown names the state of a broker that has begun an
	// immediate shutdown. No function in this package returns it.
	ErrShuttingDown = errors.New("broker: shutting down")

	// ErrConnectionGone names an operation that targets a connection that
	// has already been reaped. No function in this package returns it.
	ErrConnectionGone = errors.New("broker: connection gone")
)
