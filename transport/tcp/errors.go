package tcp

import "errors"

var (
	ErrConnectionClosed        = errors.New("tcp: connection closed")
	ErrConnectionPoolExhausted = errors.New("tcp: connection pool exhausted")
	ErrInvalidAddress          = errors.New("tcp: invalid address")
	ErrListenerClosed          = errors.New("tcp: listener closed")
	ErrConnectionNotFound      = errors.New("tcp: connection not found")
	ErrInvalidPoolConfig       = errors.New("tcp: invalid pool configuration")
	ErrPoolClosed              = errors.New("tcp: pool closed")
)
