package settings

import (
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/brickapp/brick/internal/platform"
)

// AppName is the directory segment used below the platform cache directory.
const AppName = "brick"

const (
	cacheSuffix   = "cef"
	logFileSuffix = "runtime.log"
)

// Recognized document keys. The two switch names are shared with the
// command line.
const (
	KeyAppToken             = "app-token"
	KeyProfilePath          = "profile-path"
	KeyCachePath            = "cache-path"
	KeyLogFile              = "log-file"
	KeyResourceDir          = "resource-dir"
	KeyDownloadDir          = "download-dir"
	KeyIgnoreCertErrors     = "ignore-certificate-errors"
	KeyStartMinimized       = "minimized"
	KeyAutoAway             = "auto-away"
	KeyExternalAPI          = "external-api"
	KeyHideOnDelete         = "hide-on-delete"
	KeyExtendedStatus       = "extended-status"
	KeyImplicitFileDownload = "implicit-file-download"
	KeyAutoDownload         = "auto-download"
	KeyClientScripts        = "client-scripts"
)

// Settings is the in-memory settings record. It is not safe for concurrent
// mutation; build and update it during startup, then hand out Clone copies.
type Settings struct {
	AppToken    string
	ProfilePath string
	CachePath   string
	LogFile     string
	ResourceDir string
	DownloadDir string

	IgnoreCertificateErrors bool
	StartMinimized          bool
	AutoAway                bool
	ExternalAPI             bool
	HideOnDelete            bool
	ExtendedStatus          bool
	ImplicitFileDownload    bool
	AutoDownload            bool

	LogSeverity LogSeverity

	// ClientScripts maps "<hash>.js" ids to absolute script paths.
	ClientScripts map[string]string

	platform platform.Provider
	logger   *zap.Logger
}

// Option configures optional collaborators of Settings.
type Option func(*Settings)

// WithLogger routes update warnings to logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns Settings populated with defaults. Directory defaults are
// derived from provider.
func New(provider platform.Provider, opts ...Option) *Settings {
	cacheDir := provider.CacheDir()

	s := &Settings{
		CachePath:   filepath.Join(cacheDir, AppName, cacheSuffix),
		LogFile:     filepath.Join(cacheDir, AppName, logFileSuffix),
		DownloadDir: provider.DefaultDownloadDir(),

		AutoAway:       true,
		ExternalAPI:    true,
		HideOnDelete:   true,
		ExtendedStatus: true,

		LogSeverity:   SeverityDefault,
		ClientScripts: make(map[string]string),

		platform: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromJSON returns defaults overlaid with document, the one-call form of
// New followed by UpdateFromJSON.
func NewFromJSON(provider platform.Provider, document []byte, opts ...Option) (*Settings, []Diagnostic) {
	s := New(provider, opts...)
	return s, s.UpdateFromJSON(document)
}

// Clone returns a deep copy of s sharing the same collaborators.
func (s *Settings) Clone() *Settings {
	out := *s
	out.ClientScripts = make(map[string]string, len(s.ClientScripts))
	for id, path := range s.ClientScripts {
		out.ClientScripts[id] = path
	}
	return &out
}

// ClientScript returns the path registered under id.
func (s *Settings) ClientScript(id string) (string, bool) {
	path, ok := s.ClientScripts[id]
	return path, ok
}

// ClientScriptIDs returns the registered client-script ids in sorted order.
func (s *Settings) ClientScriptIDs() []string {
	ids := make([]string, 0, len(s.ClientScripts))
	for id := range s.ClientScripts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
