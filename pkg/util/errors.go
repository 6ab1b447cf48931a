// Package util provides logging helpers and common error types.
package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for connection and input failures
var (
	ErrNotConnected     = errors.New("not connected to any switch")
	ErrConnectionLost   = errors.New("connection lost")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrConnectTimeout   = errors.New("connection timed out")
	ErrCommandFailed    = errors.New("command failed")
	ErrValidationFailed = errors.New("validation failed")
	ErrNotFound         = errors.New("resource not found")
)

// AuthError reports credentials rejected by the device.
type AuthError struct {
	Host string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: check username and password", e.Host)
}

func (e *AuthError) Unwrap() error {
	return ErrAuthFailed
}

// ConnectTimeoutError reports a device unreachable or slow during open.
type ConnectTimeoutError struct {
	Host string
	Err  error
}

func (e *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("connection timed out: verify that %s is reachable", e.Host)
}

func (e *ConnectTimeoutError) Unwrap() error {
	return ErrConnectTimeout
}

// CommandError reports a config or show command that failed mid-execution.
// Output holds whatever the device returned before the failure.
type CommandError struct {
	Command string
	Output  string
	Err     error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command failed: %v", e.Err)
	if e.Command != "" {
		msg = fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return ErrCommandFailed
}

// ConnectionLostError reports a liveness check that failed on an operation
// which assumed an existing session. Distinct from ErrNotConnected, which is
// a precondition failure.
type ConnectionLostError struct {
	Host string
}

func (e *ConnectionLostError) Error() string {
	return "connection lost: please reconnect to the switch"
}

func (e *ConnectionLostError) Unwrap() error {
	return ErrConnectionLost
}

// ValidationError represents one or more topology validation failures
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return "validation failed: " + e.Errors[0]
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

// NewValidationError creates a validation error from messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}
