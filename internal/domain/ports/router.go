package ports

import "context"

// ProfileSpec describes a PPPoE profile to create on the router
type ProfileSpec struct {
	Name      string
	RateLimit string
	Comment   string
}

// RouterControlPlane wraps the router's PPPoE secret, profile and session
// commands. Every call is independently fallible; lookup misses are reported
// as domain.ErrNotFound rather than failures.
type RouterControlPlane interface {
	// FindSecretByName resolves a PPPoE secret to its router-side identifier.
	// Callers prefer addressing the secret by this identifier over its name.
	FindSecretByName(ctx context.Context, name string) (string, error)
	// SetSecretProfile rebinds a secret (addressed by identifier or name) to
	// the given profile, recording an operator comment
	SetSecretProfile(ctx context.Context, idOrName, profile, comment string) error
	// ListActiveSessions returns identifiers of live PPPoE sessions for a user
	ListActiveSessions(ctx context.Context, name string) ([]string, error)
	// DropSession forcibly terminates a session so a profile change takes
	// effect immediately instead of on next reconnect
	DropSession(ctx context.Context, id string) error
	FindProfile(ctx context.Context, name string) (string, error)
	CreateProfile(ctx context.Context, spec ProfileSpec) error
}
