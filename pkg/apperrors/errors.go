// Package apperrors defines the domain error taxonomy shared by every
// writer, the projector, and the gateway, so a single mapping layer
// (pkg/httpkit) can translate any of them into the standard HTTP envelope.
package apperrors

import "fmt"

// NotFoundError indicates a requested entity does not exist.
type NotFoundError struct {
	EntityType string
	ID         string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.EntityType, e.ID)
}

// ConflictError indicates a uniqueness or optimistic-concurrency violation.
type ConflictError struct {
	EntityType string
	Reason     string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s conflict: %s", e.EntityType, e.Reason)
}

// ValidationError indicates the request violates an input invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// LifecycleError indicates the operation is disallowed in the entity's
// current lifecycle state.
type LifecycleError struct {
	EntityType string
	State      string
	Operation  string
}

func (e LifecycleError) Error() string {
	return fmt.Sprintf("cannot %s %s in state %s", e.Operation, e.EntityType, e.State)
}

// LockedError indicates the resource is exclusively held by another saga.
type LockedError struct {
	EntityType string
	ID         string
	HolderSaga string
}

func (e LockedError) Error() string {
	return fmt.Sprintf("%s %s is locked by saga %s", e.EntityType, e.ID, e.HolderSaga)
}

// UpstreamUnavailableError indicates a dependency timed out, refused the
// connection, or tripped a circuit breaker.
type UpstreamUnavailableError struct {
	Upstream string
	Cause    error
}

func (e UpstreamUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("upstream %s unavailable", e.Upstream)
	}

	return fmt.Sprintf("upstream %s unavailable: %v", e.Upstream, e.Cause)
}

func (e UpstreamUnavailableError) Unwrap() error { return e.Cause }

// GatewayTimeoutError indicates an upstream call exceeded its read timeout.
type GatewayTimeoutError struct {
	Upstream string
}

func (e GatewayTimeoutError) Error() string {
	return fmt.Sprintf("upstream %s timed out", e.Upstream)
}

// BadGatewayError indicates the gateway's call to an upstream failed at
// the transport level (connection refused, DNS failure, reset) or the
// upstream itself returned a 5xx, distinct from a timeout or an open
// circuit breaker.
type BadGatewayError struct {
	Upstream string
	Cause    error
}

func (e BadGatewayError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("bad gateway to upstream %s", e.Upstream)
	}

	return fmt.Sprintf("bad gateway to upstream %s: %v", e.Upstream, e.Cause)
}

func (e BadGatewayError) Unwrap() error { return e.Cause }

// UnauthorizedError indicates missing or invalid credentials.
type UnauthorizedError struct {
	Reason string
}

func (e UnauthorizedError) Error() string { return e.Reason }

// ForbiddenError indicates the caller's role does not permit the operation.
type ForbiddenError struct {
	Role      string
	Operation string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s cannot %s", e.Role, e.Operation)
}

// Code returns the stable error-kind code used in the HTTP envelope and in
// BPMN-error reporting; it is independent of any particular message text.
func Code(err error) string {
	switch err.(type) {
	case NotFoundError:
		return "NOT_FOUND"
	case ConflictError:
		return "CONFLICT"
	case ValidationError:
		return "VALIDATION_ERROR"
	case LifecycleError:
		return "LIFECYCLE_ERROR"
	case LockedError:
		return "LOCKED"
	case UpstreamUnavailableError:
		return "SERVICE_UNAVAILABLE"
	case GatewayTimeoutError:
		return "GATEWAY_TIMEOUT"
	case BadGatewayError:
		return "BAD_GATEWAY"
	case UnauthorizedError:
		return "UNAUTHORIZED"
	case ForbiddenError:
		return "FORBIDDEN"
	default:
		return "INTERNAL_ERROR"
	}
}
