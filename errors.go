package redlist

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfig    = errors.New("redlist: invalid config")
	ErrServer           = errors.New("redlist: server error")
	ErrInvalidQueueName = errors.New("redlist: invalid queue name")
	ErrMalformedMessage = errors.New("redlist: malformed message")
	ErrNoQueues         = errors.New("redlist: no queues given")
)

// ConfigError reports connection parameters that cannot be used.
// It is returned before any network activity and is not retryable.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return "redlist: invalid config: " + e.Msg
}

func (e *ConfigError) Is(target error) bool { return target == ErrInvalidConfig }

// ServerError wraps any failure reported by the store while running Op.
type ServerError struct {
	Op  string
	Err error
}

func (e *ServerError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("redlist: %s command has failed", e.Op)
	}
	return fmt.Sprintf("redlist: %s command has failed: %v", e.Op, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

func (e *ServerError) Is(target error) bool { return target == ErrServer }

func serverError(op string, err error) error {
	return &ServerError{Op: op, Err: err}
}
