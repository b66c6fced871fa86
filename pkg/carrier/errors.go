package carrier

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure an adapter can surface.
type ErrorKind string

const (
	// KindCredential means token acquisition with the provider failed.
	KindCredential ErrorKind = "credential"

	// KindProviderResponse means the provider answered with an error status.
	KindProviderResponse ErrorKind = "provider_response"

	// KindProviderUnreachable means no response was received at all.
	KindProviderUnreachable ErrorKind = "provider_unreachable"

	// KindRequestConstruction means the request failed before it was sent.
	KindRequestConstruction ErrorKind = "request_construction"
)

// Error is the error type every adapter failure is translated into.
// It always carries the carrier id and a human-readable message.
type Error struct {
	Kind       ErrorKind
	CarrierID  string
	Message    string
	StatusCode int    // set for provider_response
	Body       string // raw provider body, set for provider_response
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", e.CarrierID, e.Message, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s (%s)", e.CarrierID, e.Message, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on kind so callers can test categories with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewCredentialError reports a failed token acquisition.
func NewCredentialError(carrierID, message string, cause error) *Error {
	return &Error{Kind: KindCredential, CarrierID: carrierID, Message: message, Cause: cause}
}

// NewResponseError reports a non-2xx provider response, retaining status and body.
func NewResponseError(carrierID string, status int, body string) *Error {
	return &Error{
		Kind:       KindProviderResponse,
		CarrierID:  carrierID,
		Message:    fmt.Sprintf("provider returned status %d", status),
		StatusCode: status,
		Body:       body,
	}
}

// NewUnreachableError reports a request that got no response.
func NewUnreachableError(carrierID string, cause error) *Error {
	return &Error{Kind: KindProviderUnreachable, CarrierID: carrierID, Message: "no response from provider", Cause: cause}
}

// NewConstructionError reports a client-side failure before send.
func NewConstructionError(carrierID, message string, cause error) *Error {
	return &Error{Kind: KindRequestConstruction, CarrierID: carrierID, Message: message, Cause: cause}
}

// Sentinel errors shared across the carrier layer.
var (
	// ErrCarrierNotFound indicates the requested carrier is not registered.
	ErrCarrierNotFound = errors.New("carrier not found")

	// ErrTrackingNotFound indicates the carrier does not recognize the tracking number.
	ErrTrackingNotFound = errors.New("tracking number not found")
)
