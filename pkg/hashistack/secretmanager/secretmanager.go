package secretmanager

import (
	"os"

	vault "github.com/hashicorp/vault-client-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("secretmanager", fx.Provide(ProvideVault))

// ProvideVault builds a Vault client from VAULT_ADDR / VAULT_TOKEN.
// Vault is optional: without an address the client is nil and config
// loading falls back to plain environment values.
func ProvideVault() (*vault.Client, error) {
	if os.Getenv("VAULT_ADDR") == "" {
		zap.L().Warn("vault address not set, secret overlay disabled")
		return nil, nil
	}

	return vault.New(vault.WithEnvironment())
}
