package platform

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/subosito/gotenv"
)

const (
	userDirsFile     = "user-dirs.dirs"
	downloadDirKey   = "XDG_DOWNLOAD_DIR"
	defaultDownloads = "Downloads"
)

// Provider resolves platform directories. Implementations are expected to be
// infallible and return a best-effort fallback instead of an error.
type Provider interface {
	HomeDir() string
	CacheDir() string
	DefaultDownloadDir() string
}

// OS resolves directories from the running user's environment.
type OS struct{}

// NewOS returns a Provider backed by the operating system.
func NewOS() OS {
	return OS{}
}

// HomeDir returns the user's home directory, or "." when it cannot be resolved.
func (OS) HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return home
}

// CacheDir returns the user cache directory ($XDG_CACHE_HOME or ~/.cache).
func (p OS) CacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		return filepath.Join(p.HomeDir(), ".cache")
	}
	return dir
}

// DefaultDownloadDir returns XDG_DOWNLOAD_DIR from user-dirs.dirs, falling
// back to ~/Downloads.
func (p OS) DefaultDownloadDir() string {
	home := p.HomeDir()
	fallback := filepath.Join(home, defaultDownloads)

	dir, ok := readUserDir(p.configDir(), downloadDirKey, home)
	if !ok {
		return fallback
	}
	return dir
}

func (p OS) configDir() string {
	if dir := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); dir != "" {
		return dir
	}
	return filepath.Join(p.HomeDir(), ".config")
}

// readUserDir looks up key in <configDir>/user-dirs.dirs. Values are written
// by xdg-user-dirs-update as "$HOME/..." and are expanded against home.
func readUserDir(configDir, key, home string) (string, bool) {
	f, err := os.Open(filepath.Join(configDir, userDirsFile))
	if err != nil {
		return "", false
	}
	defer f.Close()

	env, err := gotenv.StrictParse(f)
	if err != nil {
		return "", false
	}

	raw := strings.TrimSpace(env[key])
	if raw == "" {
		return "", false
	}

	value := os.Expand(raw, func(name string) string {
		if name == "HOME" {
			return home
		}
		return os.Getenv(name)
	})
	if !filepath.IsAbs(value) {
		return "", false
	}
	return filepath.Clean(value), true
}

// Static is a Provider with fixed values, used by tests and by embedders that
// resolve directories themselves.
type Static struct {
	Home      string
	Cache     string
	Downloads string
}

// HomeDir implements Provider.
func (s Static) HomeDir() string { return s.Home }

// CacheDir implements Provider.
func (s Static) CacheDir() string { return s.Cache }

// DefaultDownloadDir implements Provider.
func (s Static) DefaultDownloadDir() string { return s.Downloads }

// HashString returns the 64-bit FNV-1a hash of s.
func HashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}
