package ports

import "context"

// Secret represents a retrieved secret with metadata
type Secret struct {
	Value    string
	Version  string
	Metadata map[string]string
}

// SecretSource retrieves deploy-time secrets (database URL, gateway server
// key, cron shared secret) from a secret management backend.
// Implementations are responsible for authentication and caching.
type SecretSource interface {
	// GetSecret retrieves a secret by its path/name.
	// Path format depends on implementation:
	//   - AWS: "netbilling/midtrans/server_key" or a full ARN
	//   - local: an environment variable name
	GetSecret(ctx context.Context, path string) (*Secret, error)
}
