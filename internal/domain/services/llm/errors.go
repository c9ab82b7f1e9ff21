package llm

import (
	"errors"

	"chatprojects/internal/domain"
)

// permanentError marks a failure that another attempt cannot fix
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying (bad key, unknown model, rejected request).
// Providers wrap client-side API errors with it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err, or anything it wraps, was marked Permanent
// or is a validation failure
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, domain.ErrValidation)
}

// IsClientStatus reports whether an HTTP status from a provider means the
// request itself is wrong. 408 and 429 are retryable.
func IsClientStatus(code int) bool {
	return code >= 400 && code < 500 && code != 408 && code != 429
}
