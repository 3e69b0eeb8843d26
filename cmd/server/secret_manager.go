package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/adiwena/netbilling/internal/adapters/secrets"
	"github.com/adiwena/netbilling/internal/config"
	"github.com/adiwena/netbilling/internal/domain/ports"
)

// initSecretSource initializes the secret source backend.
// Supports:
//   - AWS Secrets Manager (production): SECRETS_BACKEND=aws and AWS_REGION
//   - Environment variables (development): default when SECRETS_BACKEND is not set
func initSecretSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) ports.SecretSource {
	switch cfg.Secrets.Backend {
	case "aws":
		source, err := secrets.NewAWSSecretSource(ctx, secrets.DefaultAWSConfig(cfg.Secrets.AWSRegion), logger)
		if err != nil {
			logger.Fatal("Failed to initialize AWS Secrets Manager",
				zap.Error(err),
				zap.String("region", cfg.Secrets.AWSRegion),
			)
		}
		return source
	case "env":
		return secrets.NewEnvSecretSource(logger)
	default:
		logger.Warn("Unknown SECRETS_BACKEND, falling back to environment variables",
			zap.String("backend", cfg.Secrets.Backend),
		)
		return secrets.NewEnvSecretSource(logger)
	}
}

// resolveMidtransServerKey prefers the directly configured key, then the
// secret source path.
func resolveMidtransServerKey(ctx context.Context, cfg *config.Config, source ports.SecretSource, logger *zap.Logger) string {
	if cfg.Midtrans.ServerKey != "" {
		return cfg.Midtrans.ServerKey
	}

	secret, err := source.GetSecret(ctx, cfg.Midtrans.ServerKeyPath)
	if err != nil {
		logger.Warn("Midtrans server key unavailable, online payments disabled",
			zap.String("path", cfg.Midtrans.ServerKeyPath),
			zap.Error(err),
		)
		return ""
	}
	return secret.Value
}
