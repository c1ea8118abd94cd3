package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures the settings arbox needs to reach the API and its secrets.
type Config struct {
	BaseURL          string        `validate:"required,url"`
	Timeout          time.Duration `validate:"gt=0"`
	LocationBoxID    int           `validate:"gte=0"`
	BoxID            int           `validate:"gte=0"`
	MembershipUserID int           `validate:"gte=0"`
	LogLevel         string        `validate:"oneof=debug info warn error"`
	LogFile          string
	Secrets          Secrets
}

// Secrets selects where credentials or tokens come from.
type Secrets struct {
	Source       string `validate:"oneof=env vault"`
	EnvFile      string
	VaultAddress string `validate:"omitempty,url"`
	VaultMount   string
	VaultPath    string
}

const (
	defaultConfigPath = "~/.config/arbox/config.toml"
	defaultBaseURL    = "https://apiappv2.arboxapp.com"
	defaultTimeout    = 15 * time.Second
	defaultLogLevel   = "info"
	defaultLogFile    = "~/.local/state/arbox/arbox.log"
	defaultSource     = "env"
	defaultEnvFile    = ".env"
	defaultVaultMount = "secret"
	defaultVaultPath  = "arbox"
)

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		BaseURL:  defaultBaseURL,
		Timeout:  defaultTimeout,
		LogLevel: defaultLogLevel,
		LogFile:  mustExpand(defaultLogFile),
		Secrets: Secrets{
			Source:     defaultSource,
			EnvFile:    defaultEnvFile,
			VaultMount: defaultVaultMount,
			VaultPath:  defaultVaultPath,
		},
	}
}

// Load locates and parses the arbox config, falling back to defaults when missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL          string `toml:"base_url"`
		TimeoutSeconds   int    `toml:"timeout_seconds"`
		LocationBoxID    int    `toml:"location_box_id"`
		BoxID            int    `toml:"box_id"`
		MembershipUserID int    `toml:"membership_user_id"`
		LogLevel         string `toml:"log_level"`
		LogFile          string `toml:"log_file"`
		Secrets          struct {
			Source       string `toml:"source"`
			EnvFile      string `toml:"env_file"`
			VaultAddress string `toml:"vault_address"`
			VaultMount   string `toml:"vault_mount"`
			VaultPath    string `toml:"vault_path"`
		} `toml:"secrets"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.BaseURL = orDefault(raw.BaseURL, defaultBaseURL)
	if raw.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	cfg.LocationBoxID = raw.LocationBoxID
	cfg.BoxID = raw.BoxID
	cfg.MembershipUserID = raw.MembershipUserID
	cfg.LogLevel = strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel))
	cfg.LogFile = mustExpand(orDefault(raw.LogFile, defaultLogFile))

	cfg.Secrets.Source = strings.ToLower(orDefault(raw.Secrets.Source, defaultSource))
	cfg.Secrets.EnvFile = orDefault(raw.Secrets.EnvFile, defaultEnvFile)
	cfg.Secrets.VaultAddress = strings.TrimSpace(raw.Secrets.VaultAddress)
	cfg.Secrets.VaultMount = orDefault(raw.Secrets.VaultMount, defaultVaultMount)
	cfg.Secrets.VaultPath = orDefault(raw.Secrets.VaultPath, defaultVaultPath)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
