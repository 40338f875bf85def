// Package config loads nanocode settings.
//
// Values are layered: built-in defaults, then an optional YAML, TOML or JSON
// file named by NANOCODE_CONFIG, then NANOCODE_* environment variables (and
// MODEL). Credentials are never read from files; provider API keys come from the
// environment only.
package config
