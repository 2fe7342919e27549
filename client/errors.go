package client

import "errors"

// Sentinel errors surfaced by handle operations. Protocol-level outcomes
// that the broker itself reports (InvalidService, DuplicateObject, ...)
// are carried as typed Result values on the matching reply, not as
// errors, mirroring the broker's own OperationError taxonomy.
var (
	// ErrClosed is returned by any handle operation issued after the
	// client has shut down or the connection has gone away.
	ErrClosed = errors.New("client: closed")

	// ErrAborted is returned to a caller whose in-flight function call
	// never produced a result: the callee disconnected, or the call was
	// cancelled locally.
	ErrAborted = errors.New("client: call aborted")

	// ErrUnavailable is returned by QueryIntrospection when no
	// connected peer has registered the requested type id.
	ErrUnavailable = errors.New("client: introspection unavailable")

	// ErrDuplicateObject is returned by CreateObject when the uuid is
	// already live on this connection.
	ErrDuplicateObject = errors.New("client: duplicate object")

	// ErrInvalidObject is returned by any operation naming an object
	// cookie the broker no longer recognizes.
	ErrInvalidObject = errors.New("client: invalid object")

	// ErrDuplicateService is returned by CreateService when the uuid is
	// already live on the owning object.
	ErrDuplicateService = errors.New("client: duplicate service")

	// ErrInvalidService is returned by any operation naming a service
	// cookie the broker no longer recognizes.
	ErrInvalidService = errors.New("client: invalid service")

	// ErrInvalidChannel is returned by any operation naming a channel
	// cookie the broker no longer recognizes.
	ErrInvalidChannel = errors.New("client: invalid channel")

	// ErrAlreadyClaimed is returned by ClaimChannelEnd when the
	// requested end already has an owner.
	ErrAlreadyClaimed = errors.New("client: channel end already claimed")

	// ErrInvalidBusListener is returned by any operation naming a bus
	// listener cookie the broker no longer recognizes.
	ErrInvalidBusListener = errors.New("client: invalid bus listener")

	// ErrAlreadyStarted is returned by StartBusListener on a listener
	// that is already running.
	ErrAlreadyStarted = errors.New("client: bus listener already started")

	// ErrNotStarted is returned by StopBusListener on a listener that
	// isn't running.
	ErrNotStarted = errors.New("client: bus listener not started")

	// ErrInvalidFunction is returned by Call when the callee has no such
	// function.
	ErrInvalidFunction = errors.New("client: invalid function")

	// ErrInvalidArgs is returned by Call when the callee rejected the
	// argument value.
	ErrInvalidArgs = errors.New("client: invalid arguments")
)
