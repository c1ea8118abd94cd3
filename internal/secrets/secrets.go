// Package secrets fetches Arbox credentials or tokens from an env file or
// HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	vault "github.com/hashicorp/vault/api"
	"github.com/joho/godotenv"

	"github.com/five82/arbox/internal/arbox"
)

// Keys understood by Resolve.
const (
	KeyEmail        = "email"
	KeyPassword     = "password"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// ErrNoSecrets is returned when neither a token pair nor credentials are present.
var ErrNoSecrets = errors.New("no arbox credentials or tokens found")

// Source yields a key-value mapping with at least email/password or
// access_token/refresh_token.
type Source interface {
	Lookup(ctx context.Context) (map[string]string, error)
}

var (
	_ Source = EnvSource{}
	_ Source = VaultSource{}
)

// envKeys maps process environment names to secret keys.
var envKeys = map[string]string{
	"ARBOX_EMAIL":         KeyEmail,
	"ARBOX_PASSWORD":      KeyPassword,
	"ARBOX_ACCESS_TOKEN":  KeyAccessToken,
	"ARBOX_REFRESH_TOKEN": KeyRefreshToken,
}

// EnvSource reads ARBOX_* variables. Values from File are used unless the
// process environment sets the same variable. A missing File is ignored.
type EnvSource struct {
	File string
}

func (s EnvSource) Lookup(ctx context.Context) (map[string]string, error) {
	fileValues := map[string]string{}
	if file := strings.TrimSpace(s.File); file != "" {
		values, err := godotenv.Read(file)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read env file %s: %w", file, err)
		}
		if values != nil {
			fileValues = values
		}
	}

	out := make(map[string]string, len(envKeys))
	for envName, key := range envKeys {
		value, ok := os.LookupEnv(envName)
		if !ok {
			value = fileValues[envName]
		}
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	return out, nil
}

// VaultSource reads a KV v2 secret at Mount/Path. Address and Token default to
// VAULT_ADDR and VAULT_TOKEN.
type VaultSource struct {
	Address string
	Token   string
	Mount   string
	Path    string
}

func (s VaultSource) Lookup(ctx context.Context) (map[string]string, error) {
	cfg := vault.DefaultConfig()
	if cfg.Error != nil {
		return nil, fmt.Errorf("vault config: %w", cfg.Error)
	}
	if addr := strings.TrimSpace(s.Address); addr != "" {
		cfg.Address = addr
	}
	client, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client: %w", err)
	}

	token := strings.TrimSpace(s.Token)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("VAULT_TOKEN"))
	}
	if token == "" {
		return nil, fmt.Errorf("vault token is not set")
	}
	client.SetToken(token)

	secret, err := client.KVv2(s.Mount).Get(ctx, s.Path)
	if err != nil {
		return nil, fmt.Errorf("read vault secret %s/%s: %w", s.Mount, s.Path, err)
	}

	out := make(map[string]string, len(secret.Data))
	for key, value := range secret.Data {
		if text, ok := value.(string); ok && strings.TrimSpace(text) != "" {
			out[key] = strings.TrimSpace(text)
		}
	}
	return out, nil
}

// Resolve splits a secret mapping into a token pair or credentials. A full
// token pair wins over credentials; otherwise both email and password must be
// present.
func Resolve(values map[string]string) (arbox.Credentials, arbox.TokenPair, error) {
	tokens := arbox.TokenPair{
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
	}
	if tokens.AccessToken != "" && tokens.RefreshToken != "" {
		return arbox.Credentials{}, tokens, nil
	}
	creds := arbox.Credentials{
		Email:    values[KeyEmail],
		Password: values[KeyPassword],
	}
	if creds.Email != "" && creds.Password != "" {
		return creds, arbox.TokenPair{}, nil
	}
	return arbox.Credentials{}, arbox.TokenPair{}, ErrNoSecrets
}
