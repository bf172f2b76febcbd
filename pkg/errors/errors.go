// Package errors provides the domain error types shared by brandlens packages.
//
// Sentinel errors describe conditions callers branch on with errors.Is.
// UnitError (see unit.go) is the structured form a failed evaluation unit
// carries into its result.
//
// Usage:
//
//	import blerrors "github.com/otherjamesbrown/brandlens/pkg/errors"
//
//	if blerrors.IsNotFound(err) {
//	    // handle unknown run
//	}
package errors

import "errors"

var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates a malformed target, text, or request.
	ErrInvalidInput = errors.New("invalid input")

	// ErrClassification indicates a unit could not be evaluated.
	ErrClassification = errors.New("classification failed")

	// ErrEncoding indicates unit text is not valid UTF-8.
	ErrEncoding = errors.New("unexpected encoding")

	// ErrAggregation indicates a batch could not be summarized.
	ErrAggregation = errors.New("aggregation failed")

	// ErrUnavailable indicates an external collaborator could not be reached.
	ErrUnavailable = errors.New("unavailable")

	// ErrInvalidState indicates the operation is not valid for the current state.
	ErrInvalidState = errors.New("invalid state")
)

// IsNotFound reports whether any error in err's chain is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidInput reports whether any error in err's chain is ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsClassification reports whether any error in err's chain is ErrClassification.
func IsClassification(err error) bool {
	return errors.Is(err, ErrClassification)
}

// IsUnavailable reports whether any error in err's chain is ErrUnavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// IsInvalidState reports whether any error in err's chain is ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}
