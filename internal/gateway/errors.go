package gateway

import (
	"errors"
	"fmt"

	"github.com/nhle/planhub/internal/model"
)

// TransportError indicates the remote store was unreachable or failed
// internally (network error, timeout, 5xx).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsTransport reports whether err (or any error in its chain) is a
// TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// ValidationError indicates the payload was rejected by server-side
// constraints.
type ValidationError struct {
	Kind   model.Kind
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error (%s.%s): %s", e.Kind, e.Field, e.Reason)
	}
	return fmt.Sprintf("validation error (%s): %s", e.Kind, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates the mutated id no longer exists server-side.
type NotFoundError struct {
	Kind model.Kind
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
