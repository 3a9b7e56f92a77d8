// Package config resolves Brick's runtime configuration from multiple sources
// (environment variables, a JSON or YAML settings file, CLI flags) with
// precedence: CLI flags > settings file > Environment variables > Defaults.
// The settings file and the CLI switches are applied through the settings
// store, so their tolerant parsing rules hold here too.
package config
