package settings

import (
	"encoding/json"
	"fmt"
	"sort"
)

type document struct {
	AppToken                string   `json:"app-token"`
	ProfilePath             string   `json:"profile-path"`
	CachePath               string   `json:"cache-path"`
	LogFile                 string   `json:"log-file"`
	ResourceDir             string   `json:"resource-dir"`
	DownloadDir             string   `json:"download-dir"`
	IgnoreCertificateErrors bool     `json:"ignore-certificate-errors"`
	StartMinimized          bool     `json:"minimized"`
	AutoAway                bool     `json:"auto-away"`
	ExternalAPI             bool     `json:"external-api"`
	HideOnDelete            bool     `json:"hide-on-delete"`
	ExtendedStatus          bool     `json:"extended-status"`
	ImplicitFileDownload    bool     `json:"implicit-file-download"`
	AutoDownload            bool     `json:"auto-download"`
	ClientScripts           []string `json:"client-scripts"`
}

// DumpJSON encodes s using the same keys UpdateFromJSON recognizes. Client
// scripts are emitted as a sorted list of paths.
func (s *Settings) DumpJSON() ([]byte, error) {
	scripts := make([]string, 0, len(s.ClientScripts))
	for _, path := range s.ClientScripts {
		scripts = append(scripts, path)
	}
	sort.Strings(scripts)

	doc := document{
		AppToken:                s.AppToken,
		ProfilePath:             s.ProfilePath,
		CachePath:               s.CachePath,
		LogFile:                 s.LogFile,
		ResourceDir:             s.ResourceDir,
		DownloadDir:             s.DownloadDir,
		IgnoreCertificateErrors: s.IgnoreCertificateErrors,
		StartMinimized:          s.StartMinimized,
		AutoAway:                s.AutoAway,
		ExternalAPI:             s.ExternalAPI,
		HideOnDelete:            s.HideOnDelete,
		ExtendedStatus:          s.ExtendedStatus,
		ImplicitFileDownload:    s.ImplicitFileDownload,
		AutoDownload:            s.AutoDownload,
		ClientScripts:           scripts,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	return data, nil
}
