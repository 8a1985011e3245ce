package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// SchedulerError defines the interface for scheduler-specific errors
type SchedulerError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

type schedulerError struct {
	code      string
	message   string
	temporary bool
}

func (e *schedulerError) Error() string {
	return fmt.Sprintf("scheduler error [%s]: %s", e.code, e.message)
}

func (e *schedulerError) Code() string { return e.code }

func (e *schedulerError) Message() string { return e.message }

func (e *schedulerError) Temporary() bool { return e.temporary }

const (
	ErrSchedulerNotRunning     = "scheduler_not_running"
	ErrSchedulerAlreadyRunning = "scheduler_already_running"
	ErrInvalidConfiguration    = "invalid_configuration"
	ErrPurgeFailed             = "purge_failed"
	ErrShutdownTimeout         = "shutdown_timeout"
)

// PurgeError is returned when a retention pass fails.
type PurgeError struct {
	schedulerError
	Cutoff time.Time
	cause  error
}

func (e *PurgeError) Unwrap() error { return e.cause }

type ShutdownError struct {
	schedulerError
	TimeoutSeconds int
}

type ConfigurationError struct {
	schedulerError
	Field string
	Value interface{}
}

func NewSchedulerError(code, message string) error {
	return &schedulerError{code: code, message: message}
}

func NewPurgeError(cutoff time.Time, err error) error {
	return &PurgeError{
		schedulerError: schedulerError{
			code:      ErrPurgeFailed,
			message:   fmt.Sprintf("failed to purge activity before %s: %v", cutoff.Format(time.RFC3339), err),
			temporary: true,
		},
		Cutoff: cutoff,
		cause:  err,
	}
}

func NewShutdownError(message string, timeoutSeconds int) error {
	return &ShutdownError{
		schedulerError: schedulerError{code: ErrShutdownTimeout, message: message},
		TimeoutSeconds: timeoutSeconds,
	}
}

func NewConfigurationError(field string, value interface{}, message string) error {
	return &ConfigurationError{
		schedulerError: schedulerError{
			code:    ErrInvalidConfiguration,
			message: fmt.Sprintf("invalid configuration for field %s (value: %v): %s", field, value, message),
		},
		Field: field,
		Value: value,
	}
}

// IsTemporaryError reports whether the next pass may succeed.
func IsTemporaryError(err error) bool {
	var schedErr SchedulerError
	if errors.As(err, &schedErr) {
		return schedErr.Temporary()
	}
	return false
}

func IsConfigurationError(err error) bool {
	var schedErr SchedulerError
	if errors.As(err, &schedErr) {
		return schedErr.Code() == ErrInvalidConfiguration
	}
	return false
}
