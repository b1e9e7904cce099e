package imagegen

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every ValidateConfig failure so the API
// boundary can map config mistakes to a client error.
var ErrInvalidConfig = errors.New("invalid generation config")

// TransientError marks an upstream failure worth retrying: rate limits,
// quota exhaustion, temporary unavailability.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError marks a failure that retrying cannot fix: safety rejections,
// malformed responses, a response with no image data.
type TerminalError struct {
	Err error
}

func (e *TerminalError) Error() string { return e.Err.Error() }
func (e *TerminalError) Unwrap() error { return e.Err }

// SourceImageError reports an unreadable refine source. It is terminal for
// its slot only.
type SourceImageError struct {
	Path string
	Err  error
}

func (e *SourceImageError) Error() string {
	return fmt.Sprintf("source image %s unreadable: %v", e.Path, e.Err)
}

func (e *SourceImageError) Unwrap() error { return e.Err }

// IsTransient reports whether err should be retried.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
