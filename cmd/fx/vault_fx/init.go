package vault_fx

import (
	"log"
	"os"

	"go.uber.org/fx"
	"keyshop/pkg/vault"
)

var Module = fx.Provide(provideVault)

// provideVault builds the AEAD cipher every license key passes through.
// VAULT_KEY takes a 64-hex-char key directly; VAULT_PASSPHRASE plus
// VAULT_SALT derives one via scrypt. Neither being set is a startup error,
// not a fallback: running without a vault would mean plaintext keys at rest.
func provideVault() *vault.Vault {
	if hexKey := os.Getenv("VAULT_KEY"); hexKey != "" {
		v, err := vault.New(hexKey)
		if err != nil {
			log.Fatalf("Failed to initialize key vault: %v", err)
		}
		return v
	}

	v, err := vault.NewFromPassphrase(os.Getenv("VAULT_PASSPHRASE"), os.Getenv("VAULT_SALT"))
	if err != nil {
		log.Fatalf("Failed to initialize key vault: %v", err)
	}
	return v
}
