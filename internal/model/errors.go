package model

import "errors"

var (
	// ErrConfiguration marks a missing credential or required setting.
	// It is fatal: raised at construction time and aborts the whole run.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks a missing input file or store row. Reported per
	// item; never aborts a batch.
	ErrNotFound = errors.New("not found")

	// ErrMalformedOutput marks a model response that does not parse as the
	// expected JSON or lacks the expected marker section.
	ErrMalformedOutput = errors.New("malformed model output")

	// ErrTransientStore marks a remote store call that failed in a way
	// worth retrying with backoff.
	ErrTransientStore = errors.New("transient store error")

	// ErrTimeout marks a remote call that exceeded its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// ProviderError carries details of a failed remote API call.
type ProviderError struct {
	Code       string
	Message    string
	Retryable  bool
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return ""
	}
	return e.Code + ": " + e.Message
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsRetryable reports whether err is a provider error flagged retryable or a
// transient store error.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrTransientStore) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
