// Package config loads and validates the TOML configuration shared by the
// daemon and the CLI. Values omitted from the file fall back to defaults, and
// relative paths are expanded against the user's home directory.
package config
