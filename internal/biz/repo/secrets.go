package repo

import (
	"context"
	"fmt"
)

// SecretRepo fetches opaque secret values from an upstream secret store.
type SecretRepo interface {
	GetSecretValue(ctx context.Context, name string) (string, error)
}

// SecretUnavailableError indicates the upstream store returned no value or
// failed outright for the named secret. Fatal at startup: the process cannot
// log in or construct outbound clients without its credentials.
type SecretUnavailableError struct {
	Name string
	Err  error
}

func (e *SecretUnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("secret %q unavailable", e.Name)
	}
	return fmt.Sprintf("secret %q unavailable: %v", e.Name, e.Err)
}

func (e *SecretUnavailableError) Unwrap() error { return e.Err }
