// Package httpkit provides the chi middleware stack and the standardized
// JSON error envelope shared by every HTTP-facing component.
package httpkit

import (
	"encoding/json"
	"net/http"

	"github.com/productcatalog/platform/pkg/apperrors"
)

// Envelope is the standardized error body every component returns on
// failure: {"error": {"code": ..., "message": ...}}.
type Envelope struct {
	Error EnvelopeError `json:"error"`
}

// EnvelopeError is the body of Envelope.
type EnvelopeError struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WriteError maps err to the HTTP status table and writes the standard
// envelope, stamping the correlation id so a client can correlate the
// response with server-side logs.
func WriteError(w http.ResponseWriter, err error, correlationID string) {
	status := statusFor(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(Envelope{
		Error: EnvelopeError{
			Code:          apperrors.Code(err),
			Message:       err.Error(),
			CorrelationID: correlationID,
		},
	})
}

func statusFor(err error) int {
	switch err.(type) {
	case apperrors.NotFoundError:
		return http.StatusNotFound
	case apperrors.ConflictError:
		return http.StatusConflict
	case apperrors.ValidationError:
		return http.StatusUnprocessableEntity
	case apperrors.LifecycleError:
		return http.StatusUnprocessableEntity
	case apperrors.LockedError:
		return http.StatusLocked
	case apperrors.UpstreamUnavailableError:
		return http.StatusServiceUnavailable
	case apperrors.GatewayTimeoutError:
		return http.StatusGatewayTimeout
	case apperrors.BadGatewayError:
		return http.StatusBadGateway
	case apperrors.UnauthorizedError:
		return http.StatusUnauthorized
	case apperrors.ForbiddenError:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
