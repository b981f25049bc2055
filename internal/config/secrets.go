// internal/config/secrets.go
//
// `vault:` secret references.
//
// Context
// -------
// Secret-bearing fields may hold a reference instead of a value:
//
//	database:
//	  password: "vault:secret/autoconfig#db_password"
//
// The part before “#” is the KV-v2 path (mount first), the part after is
// the key inside the secret.  ResolveSecrets swaps every reference for the
// fetched value.  Plain values pass through untouched.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VaultPrefix marks a secret reference.
const VaultPrefix = "vault:"

// SecretTTL is how long fetched secrets stay cached in the Vault client.
const SecretTTL = 10 * time.Minute

// SecretGetter fetches one key of a KV-v2 secret.  *vault.Client
// satisfies it.
type SecretGetter interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// HasSecretRefs reports whether any field needs Vault.
func (c *Config) HasSecretRefs() bool {
	for _, p := range c.secretFields() {
		if strings.HasPrefix(*p, VaultPrefix) {
			return true
		}
	}
	return false
}

// ResolveSecrets replaces every `vault:` reference using g.
func (c *Config) ResolveSecrets(ctx context.Context, g SecretGetter) error {
	for _, p := range c.secretFields() {
		if !strings.HasPrefix(*p, VaultPrefix) {
			continue
		}
		path, key, err := parseRef(*p)
		if err != nil {
			return err
		}
		val, err := g.GetKV(ctx, path, key, SecretTTL)
		if err != nil {
			return fmt.Errorf("resolve %s#%s: %w", path, key, err)
		}
		*p = val
	}
	return nil
}

func (c *Config) secretFields() []*string {
	return []*string{&c.Database.DSN, &c.Database.Password}
}

func parseRef(ref string) (path, key string, err error) {
	body := strings.TrimPrefix(ref, VaultPrefix)
	path, key, ok := strings.Cut(body, "#")
	if !ok || path == "" || key == "" {
		return "", "", fmt.Errorf("malformed secret reference %q, want vault:<path>#<key>", ref)
	}
	return path, key, nil
}
