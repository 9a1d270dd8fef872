package imagery

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means geocoding produced no match. It is a normal outcome.
	ErrNotFound = errors.New("location not found")
	// ErrUnavailable means the network origin could not be located.
	ErrUnavailable = errors.New("network origin location unavailable")
	// ErrNoCoverage means the imagery API has no capture for the point and date.
	ErrNoCoverage = errors.New("no imagery coverage for location and date")
	// ErrEmptyInput is returned when an animation is requested with zero frames.
	ErrEmptyInput = errors.New("no frames to render")

	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrRangeTooLong      = errors.New("date range has too many samples")
	ErrNoLocation        = errors.New("no location selected")
	ErrNoRecord          = errors.New("no imagery record fetched")
	ErrNoArtifact        = errors.New("no animation rendered")
	ErrArchiveDisabled   = errors.New("record archive is disabled")
)

// TransportError wraps a network-level failure reaching an upstream service.
// It is distinct from ErrNoCoverage: the question could not be asked.
type TransportError struct {
	Service string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Service, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeliveryError is returned when a notification could not be transmitted.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %q failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Outcome tags the result of an operation so callers can branch on a value.
type Outcome string

const (
	OutcomeOK          Outcome = "ok"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeUnavailable Outcome = "unavailable"
	OutcomeNoCoverage  Outcome = "no_coverage"
	OutcomeTransport   Outcome = "transport_error"
	OutcomeEmptyInput  Outcome = "empty_input"
	OutcomeDelivery    Outcome = "delivery_error"
	OutcomeInvalid     Outcome = "invalid"
	OutcomePrecond     Outcome = "precondition"
	OutcomeInternal    Outcome = "internal"
)

// Classify maps err onto its Outcome. A nil error is OutcomeOK.
func Classify(err error) Outcome {
	var (
		transportErr *TransportError
		deliveryErr  *DeliveryError
	)
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, ErrNoCoverage):
		return OutcomeNoCoverage
	case errors.Is(err, ErrEmptyInput):
		return OutcomeEmptyInput
	case errors.As(err, &deliveryErr):
		return OutcomeDelivery
	case errors.As(err, &transportErr):
		return OutcomeTransport
	case errors.Is(err, ErrInvalidCoordinate), errors.Is(err, ErrRangeTooLong):
		return OutcomeInvalid
	case errors.Is(err, ErrNoLocation), errors.Is(err, ErrNoRecord),
		errors.Is(err, ErrNoArtifact), errors.Is(err, ErrArchiveDisabled):
		return OutcomePrecond
	default:
		return OutcomeInternal
	}
}
