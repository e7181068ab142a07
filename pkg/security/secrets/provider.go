package secrets

import "context"

// Provider retrieves secrets from one backend.
type Provider interface {
	// GetSecret returns the value of the named secret.
	GetSecret(ctx context.Context, name string) (string, error)

	// Provider returns the provider name (env, file).
	Provider() string
}
