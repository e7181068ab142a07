package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// secretRefRegex matches ${secret:name} references.
var secretRefRegex = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Resolver looks secrets up in its providers in order.
type Resolver struct {
	providers []Provider
}

// NewResolver creates a resolver over providers. The first provider that
// returns a value wins.
func NewResolver(providers ...Provider) *Resolver {
	return &Resolver{providers: providers}
}

// GetSecret returns the named secret from the first provider that has it.
func (r *Resolver) GetSecret(ctx context.Context, name string) (string, error) {
	var lastErr error
	for _, p := range r.providers {
		value, err := p.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			slog.Debug("provider failed to get secret",
				"provider", p.Provider(),
				"name", name,
				"error", err,
			)
			continue
		}
		slog.Debug("secret retrieved", "provider", p.Provider(), "name", name)
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("secret not found: %q (no providers configured)", name)
}

// Resolve replaces every ${secret:name} reference in input. References
// that cannot be resolved are left in place and reported together.
func (r *Resolver) Resolve(ctx context.Context, input string) (string, error) {
	var errs []string

	output := secretRefRegex.ReplaceAllStringFunc(input, func(match string) string {
		name := secretRefRegex.FindStringSubmatch(match)[1]
		value, err := r.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}
	return output, nil
}

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return secretRefRegex.MatchString(s)
}
