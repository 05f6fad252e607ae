// Package transport defines the ingestion RPC boundary and its error
// taxonomy, including the retryability rules the submitter relies on to
// decide whether a failed batch is kept or cleared.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/eventsink/pkg/eventsink/event"
)

// PutEventsInput is one batch submission request.
type PutEventsInput struct {
	Events        []event.Event `json:"events"`
	ClientContext string        `json:"clientContext,omitempty"`
}

// PutEventsOutput is the service acknowledgement for a delivered batch.
type PutEventsOutput struct {
	RequestID string `json:"requestId,omitempty"`
}

// Transport submits event batches to the ingestion service.
// Implementations return *Error for service-reported failures so callers
// can classify retryability; any other error is treated as a network-layer
// failure.
type Transport interface {
	PutEvents(ctx context.Context, in *PutEventsInput) (*PutEventsOutput, error)
}

// Error is a failed submission as reported by the ingestion service.
// A zero StatusCode means the request never produced an HTTP response
// (connection failure, timeout).
type Error struct {
	StatusCode int
	Code       string
	Message    string
	RequestID  string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.StatusCode == 0:
		return fmt.Sprintf("put events: %s", e.Message)
	case e.Code != "":
		return fmt.Sprintf("put events: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
	default:
		return fmt.Sprintf("put events: HTTP %d: %s", e.StatusCode, e.Message)
	}
}

// permanentBadRequestCodes are 400 error codes meaning the request itself is
// malformed and resubmitting the same batch can never succeed.
var permanentBadRequestCodes = map[string]bool{
	"BadRequestException":    true,
	"SerializationException": true,
	"ValidationException":    true,
}

// Retryable reports whether a failed submission may succeed on a later
// attempt.
//
// Failures without a status code (network-layer errors, including errors
// that are not *Error at all) are always retryable. A 400 is retryable
// unless it carries one of the permanent request-error codes. Any other
// status is permanent: the service answered and the answer will not change
// for the same payload.
func Retryable(err error) bool {
	var te *Error
	if !errors.As(err, &te) {
		return true
	}
	if te.StatusCode == 0 {
		return true
	}
	return te.StatusCode == 400 && !permanentBadRequestCodes[te.Code]
}
