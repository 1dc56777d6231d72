package secret

import (
	"errors"
	"fmt"
)

var (
	// ErrSecretNotConfigured indicates no source produced a value for a secret.
	ErrSecretNotConfigured = errors.New("secret: not configured")

	// ErrSourceUnavailable indicates a source had nothing to offer and the
	// next source should be tried.
	ErrSourceUnavailable = errors.New("secret: source unavailable")

	// ErrInvalidDefinition indicates a malformed Config.
	ErrInvalidDefinition = errors.New("secret: invalid definition")

	// ErrUnsetVariable is returned by ExpandStrict for a ${NAME} reference to
	// an unset variable.
	ErrUnsetVariable = errors.New("secret: unset variable")
)

// NotConfiguredError reports the secret that could not be resolved.
type NotConfiguredError struct {
	Name string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("secret: %q is not configured", e.Name)
}

// Is reports whether target is ErrSecretNotConfigured.
func (e *NotConfiguredError) Is(target error) bool {
	return target == ErrSecretNotConfigured
}

// FileUnreadableError reports a configured secret file that could not be read.
// It matches both ErrSourceUnavailable and the underlying I/O error.
type FileUnreadableError struct {
	Name string
	Path string
	Err  error
}

func (e *FileUnreadableError) Error() string {
	return fmt.Sprintf("secret: read file %q for %q: %v", e.Path, e.Name, e.Err)
}

func (e *FileUnreadableError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}
