package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brickapp/brick/internal/platform"
	"github.com/brickapp/brick/internal/settings"
)

const (
	defaultListen         = "127.0.0.1:9876"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultSettingsFile   = "brick.json"
)

// Environment variables consulted by Load.
const (
	EnvConfig      = "BRICK_CONFIG"
	EnvLogSeverity = "BRICK_LOG_SEVERITY"
	EnvListen      = "BRICK_LISTEN"
	EnvOrigin      = "BRICK_ALLOWED_ORIGIN"
)

// Config aggregates the resolved settings with the runtime knobs of the
// external API server.
// Precedence: CLI flags > settings file > Environment variables > Defaults
type Config struct {
	Settings *settings.Settings
	// SettingsFile is the file the settings layer was read from, empty when
	// no file was applied.
	SettingsFile string
	// Diagnostics lists input skipped while applying the settings file.
	Diagnostics []settings.Diagnostic

	Listen               string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int

	// AllowedOrigin is the only browser origin allowed to call the external
	// API. Empty refuses every cross-origin request.
	AllowedOrigin string
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Switches       settings.Switches
	LogSeverity    *string
	Listen         *string
	AllowedOrigin  *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load resolves configuration with precedence:
// CLI flags > settings file > Environment variables > Defaults
//
// opts are passed to settings.New, so a logger given with settings.WithLogger
// sees skipped client scripts while the settings file is applied.
func Load(provider platform.Provider, overrides *CLIOverrides, opts ...settings.Option) (Config, error) {
	cfg := defaultConfig(provider, opts...)

	applyEnvConfig(&cfg)

	explicit := ""
	if overrides != nil {
		explicit = overrides.ConfigFile
	}
	if err := applySettingsFile(&cfg, resolveSettingsFile(provider, explicit)); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultSettingsPath returns ~/.config/brick/brick.json for provider.
func DefaultSettingsPath(provider platform.Provider) string {
	return filepath.Join(provider.HomeDir(), ".config", settings.AppName, defaultSettingsFile)
}

func defaultConfig(provider platform.Provider, opts ...settings.Option) Config {
	return Config{
		Settings:             settings.New(provider, opts...),
		Listen:               defaultListen,
		ShutdownGracePeriod:  5 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

type settingsFile struct {
	path     string
	required bool
}

// resolveSettingsFile picks the explicit path, then $BRICK_CONFIG, then the
// default location. Only the default location may be missing.
func resolveSettingsFile(provider platform.Provider, explicit string) settingsFile {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return settingsFile{path: explicit, required: true}
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfig)); env != "" {
		return settingsFile{path: env, required: true}
	}
	return settingsFile{path: DefaultSettingsPath(provider)}
}

// applySettingsFile feeds the file through Settings.UpdateFromJSON. YAML files
// are converted to JSON first so both formats share the same key handling.
func applySettingsFile(cfg *Config, file settingsFile) error {
	path := cfg.Settings.NormalizePath(file.path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !file.required {
			return nil
		}
		return fmt.Errorf("read settings file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		converted, convErr := yamlToJSON(data)
		if convErr != nil {
			cfg.SettingsFile = path
			cfg.Diagnostics = []settings.Diagnostic{{Index: -1, Reason: "malformed document: " + convErr.Error()}}
			return nil
		}
		data = converted
	}

	cfg.SettingsFile = path
	cfg.Diagnostics = cfg.Settings.UpdateFromJSON(data)
	return nil
}

// yamlToJSON re-encodes a YAML document as JSON. Scalars YAML would resolve
// to timestamps keep the text the user wrote, so an unquoted date stays a
// string instead of turning into an RFC 3339 value.
func yamlToJSON(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if node.IsZero() {
		return []byte("null"), nil
	}
	keepTimestampText(&node)

	var doc any
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert YAML to JSON: %w", err)
	}
	return out, nil
}

func keepTimestampText(node *yaml.Node) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!timestamp" {
		node.Tag = "!!str"
	}
	for _, child := range node.Content {
		keepTimestampText(child)
	}
}

// applyEnvConfig applies environment variable configuration. Invalid values
// are ignored.
func applyEnvConfig(cfg *Config) {
	if raw := strings.TrimSpace(os.Getenv(EnvLogSeverity)); raw != "" {
		if sev, err := settings.ParseLogSeverity(raw); err == nil {
			cfg.Settings.LogSeverity = sev
		}
	}

	if listen := strings.TrimSpace(os.Getenv(EnvListen)); listen != "" {
		cfg.Listen = listen
	}

	if origin := strings.TrimSpace(os.Getenv(EnvOrigin)); origin != "" {
		cfg.AllowedOrigin = origin
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	cfg.Settings.UpdateFromCommandLine(overrides.Switches)

	if overrides.LogSeverity != nil && *overrides.LogSeverity != "" {
		sev, err := settings.ParseLogSeverity(*overrides.LogSeverity)
		if err != nil {
			return fmt.Errorf("parse log severity: %w", err)
		}
		cfg.Settings.LogSeverity = sev
	}

	if overrides.Listen != nil && *overrides.Listen != "" {
		cfg.Listen = *overrides.Listen
	}

	if overrides.AllowedOrigin != nil && *overrides.AllowedOrigin != "" {
		cfg.AllowedOrigin = *overrides.AllowedOrigin
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit rps must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit burst must be >= 0")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	return nil
}
