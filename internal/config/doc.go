// Package config loads and validates the reel TOML configuration file.
package config
