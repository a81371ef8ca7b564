package shared

import (
	"errors"
	"fmt"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Provider failure classes
	ErrQuotaExhausted = fmt.Errorf("quota exhausted")
	ErrTransient      = fmt.Errorf("transient provider error")
	ErrNotFound       = fmt.Errorf("resource not found")
	ErrInvalidQuery   = fmt.Errorf("invalid search query")
	ErrAlreadyPresent = fmt.Errorf("video already in playlist")
	ErrPermanent      = fmt.Errorf("permanent provider error")

	// Input validation errors
	ErrInvalidReference = fmt.Errorf("invalid playlist reference")
	ErrMissingArgument  = fmt.Errorf("missing required argument")
	ErrInvalidArgument  = fmt.Errorf("invalid argument")
	ErrInvalidFlag      = fmt.Errorf("invalid flag value")
)

// IsFatal reports whether err halts a conversion run: configuration,
// authentication and quota failures.
func IsFatal(err error) bool {
	for _, target := range []error{
		ErrMissingConfig, ErrInvalidConfig, ErrMissingCredentials,
		ErrAuthFailed, ErrNotAuthenticated, ErrRefreshFailed,
		ErrQuotaExhausted,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is worth retrying at the call site.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
