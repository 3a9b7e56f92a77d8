// Package platform resolves the per-user directories Brick derives its default
// settings from (home, cache and download directories) and provides the
// stable string hash used to name client scripts.
package platform
