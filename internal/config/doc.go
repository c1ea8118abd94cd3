// Package config loads the arbox TOML configuration.
//
// The file lives at ~/.config/arbox/config.toml unless a path is given. A
// missing file is not an error: Load returns Default(). Present fields are
// trimmed, empty ones fall back to defaults, and the result is validated.
//
// Example:
//
//	base_url = "https://apiappv2.arboxapp.com"
//	timeout_seconds = 15
//	location_box_id = 12
//	box_id = 34
//	membership_user_id = 56
//	log_level = "info"
//	log_file = "~/.local/state/arbox/arbox.log"
//
//	[secrets]
//	source = "env"        # or "vault"
//	env_file = ".env"
//	vault_address = "https://vault.example.com:8200"
//	vault_mount = "secret"
//	vault_path = "arbox"
//
// The request headers sent to Arbox are fixed and deliberately not part of
// the configuration.
package config
