package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/domain/ports"
)

// envSecretSource implements SecretSource from process environment variables.
// WARNING: development only. Use AWS Secrets Manager in production.
type envSecretSource struct {
	logger *zap.Logger
}

// NewEnvSecretSource creates a secret source backed by environment variables
func NewEnvSecretSource(logger *zap.Logger) ports.SecretSource {
	return &envSecretSource{logger: logger}
}

// GetSecret reads the secret from the environment. The path may be an env
// variable name directly, or an AWS-style path like "netbilling/midtrans/
// server_key" which maps to NETBILLING_MIDTRANS_SERVER_KEY.
func (s *envSecretSource) GetSecret(ctx context.Context, path string) (*ports.Secret, error) {
	name := envName(path)

	value, ok := os.LookupEnv(name)
	if !ok {
		s.logger.Debug("Secret not set in environment",
			zap.String("path", path),
			zap.String("env", name),
		)
		return nil, fmt.Errorf("secret not found: %s", path)
	}

	return &ports.Secret{
		Value:   value,
		Version: "env",
	}, nil
}

func envName(path string) string {
	name := strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(path)
	return strings.ToUpper(name)
}
