package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthorized means the session is no longer valid. Callers tear the
// session down and re-authenticate; they never retry.
var ErrUnauthorized = errors.New("session is not authorized")

// ErrMalformed is returned when a response does not have the shape the
// method promises.
var ErrMalformed = errors.New("malformed response")

// DenialError is an expected business refusal, such as a duplicate
// account name. The user can act on the message.
type DenialError struct {
	Op      string
	Message string
}

func (e *DenialError) Error() string {
	return fmt.Sprintf("%s denied: %s", e.Op, e.Message)
}

// TransientError is a failed call that may succeed if the user tries
// again. It is never retried automatically.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsDenial reports whether err is a business denial.
func IsDenial(err error) bool {
	var d *DenialError
	return errors.As(err, &d)
}

// IsTransient reports whether err is a retryable failure.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
