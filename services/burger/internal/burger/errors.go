package burger

import (
	"errors"

	"github.com/appetiteclub/burger/services/burger/internal/auth"
)

var (
	ErrMissingBun          = errors.New("select a bun for the order")
	ErrMissingFilling      = errors.New("add a filling before placing the order")
	ErrSubmitInProgress    = errors.New("order submission already in progress")
	ErrOrderNotDismissed   = errors.New("close the placed order before submitting another")
	ErrOrderCreatorMissing = errors.New("order creator not configured")
	ErrUnknownIngredient   = errors.New("unknown ingredient")
	ErrCatalogNotLoaded    = errors.New("ingredient catalog not loaded")
)

// ValidationError is a failure detected before any network call. The user
// can always recover from it by changing the selection or signing in.
type ValidationError struct {
	Kind error
}

func (e *ValidationError) Error() string {
	return e.Kind.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func newValidationError(kind error) error {
	return &ValidationError{Kind: kind}
}

// IsValidation reports whether err is a pre-network validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// validateForOrder checks the submission preconditions in order: credential,
// bun, fillings.
func validateForOrder(accessToken string, build Build) error {
	if accessToken == "" {
		return newValidationError(auth.ErrUnauthenticated)
	}
	if build.Bun == nil {
		return newValidationError(ErrMissingBun)
	}
	if len(build.Fillings) == 0 {
		return newValidationError(ErrMissingFilling)
	}
	return nil
}
