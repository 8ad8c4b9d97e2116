// Package errors provides a structured error taxonomy for prediagent.
// It defines the error codes and categories the transport-negotiating
// client and the agent server use to decide between falling through to the
// next candidate, surfacing a remote error verbatim, and giving up.
//
// # Error Categories
//
// Errors are classified into four categories:
//
//   - Transient: Temporary failures where retry may succeed (network issues, etc.)
//   - Permanent: Failures where retry will not help (invalid input, not found, etc.)
//   - Remote: Errors reported by the remote agent itself, surfaced verbatim
//   - Internal: Unexpected errors indicating bugs or system failures
//
// # Usage
//
// Create a new error:
//
//	err := errors.Unavailable("no usable response")
//
// Wrap an existing error with context:
//
//	wrapped := errors.Wrap(err, "fetching agent card")
//
// Check a specific code:
//
//	if errors.Is(err, errors.ErrCodeUnavailable) {
//	    // nothing answered
//	}
//
// # JSON Serialization
//
// All errors support JSON serialization for cross-agent communication:
//
//	data, err := json.Marshal(agentErr)
package errors
