package agentmux

import (
	"errors"
	"fmt"
	"strconv"
)

// Sentinel errors for client and manager operations.
var (
	// ErrUnavailable indicates a client cannot start (no adapter for the
	// agent type, binary not found).
	ErrUnavailable = errors.New("agentmux: agent unavailable")

	// ErrNotReady indicates an operation that requires a ready client was
	// attempted in another state.
	ErrNotReady = errors.New("agentmux: client not ready")

	// ErrSessionBusy indicates a prompt is already in flight for the session.
	// The caller must wait for the current prompt to complete and retry.
	ErrSessionBusy = errors.New("agentmux: session busy")

	// ErrUnknownSession indicates the session id is not registered.
	ErrUnknownSession = errors.New("agentmux: unknown session")

	// ErrUnknownClient indicates the client id is not registered.
	ErrUnknownClient = errors.New("agentmux: unknown client")

	// ErrClientStopped indicates the request was rejected because the client
	// was stopped while it was outstanding.
	ErrClientStopped = errors.New("agentmux: client stopped")

	// ErrCancelled indicates the request was superseded by cancellation.
	ErrCancelled = errors.New("agentmux: cancelled")

	// ErrPermissionNotFound indicates no pending permission has the given id.
	ErrPermissionNotFound = errors.New("agentmux: permission not found")

	// ErrAlreadyResolved indicates the permission was resolved before.
	// Resolution is exactly-once.
	ErrAlreadyResolved = errors.New("agentmux: permission already resolved")

	// ErrDisposed indicates the manager has been disposed.
	ErrDisposed = errors.New("agentmux: manager disposed")
)

// SpawnError indicates the agent executable could not be launched.
// Fatal to the one client only.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("agentmux: spawn %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// HandshakeError indicates the initialize handshake failed (version or
// capability mismatch, early exit). Fatal to the one client only.
type HandshakeError struct {
	Err error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("agentmux: handshake: %v", e.Err)
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// TransportError indicates the subprocess stream closed or became unreadable.
// It fails every request outstanding on that client.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("agentmux: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError is a well-formed JSON-RPC error response from the agent.
// Surfaced to the caller of the specific request; the client remains usable.
type ProtocolError struct {
	Method  string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("agentmux: %s: rpc error %d: %s", e.Method, e.Code, e.Message)
}

// ExitError represents a subprocess that exited with a non-zero status.
// Code semantics: positive = exit status, negative (-1) = signal-killed.
// Wraps the underlying error so errors.As reaches *exec.ExitError.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "agentmux: exit status " + strconv.Itoa(e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode extracts the exit code from an error chain containing *ExitError.
// Returns (0, false) if the chain has none.
func ExitCode(err error) (int, bool) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
