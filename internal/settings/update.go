package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/brickapp/brick/internal/platform"
)

const clientScriptExt = ".js"

// Diagnostic describes a piece of input skipped during an update.
type Diagnostic struct {
	// Key is the document key, empty for document-level problems.
	Key string
	// Index is the array position for client-script entries, -1 otherwise.
	Index  int
	Reason string
}

func (d Diagnostic) String() string {
	switch {
	case d.Key == "":
		return d.Reason
	case d.Index >= 0:
		return fmt.Sprintf("%s[%d]: %s", d.Key, d.Index, d.Reason)
	default:
		return fmt.Sprintf("%s: %s", d.Key, d.Reason)
	}
}

type stringField struct {
	key   string
	field func(*Settings) *string
}

type boolField struct {
	key   string
	field func(*Settings) *bool
}

// app-token has always been stored in ProfilePath; profile-path is applied
// after it and wins when both are present.
var stringFields = []stringField{
	{KeyAppToken, func(s *Settings) *string { return &s.ProfilePath }},
	{KeyProfilePath, func(s *Settings) *string { return &s.ProfilePath }},
	{KeyCachePath, func(s *Settings) *string { return &s.CachePath }},
	{KeyLogFile, func(s *Settings) *string { return &s.LogFile }},
	{KeyResourceDir, func(s *Settings) *string { return &s.ResourceDir }},
	{KeyDownloadDir, func(s *Settings) *string { return &s.DownloadDir }},
}

var boolFields = []boolField{
	{KeyIgnoreCertErrors, func(s *Settings) *bool { return &s.IgnoreCertificateErrors }},
	{KeyStartMinimized, func(s *Settings) *bool { return &s.StartMinimized }},
	{KeyAutoAway, func(s *Settings) *bool { return &s.AutoAway }},
	{KeyExternalAPI, func(s *Settings) *bool { return &s.ExternalAPI }},
	{KeyHideOnDelete, func(s *Settings) *bool { return &s.HideOnDelete }},
	{KeyExtendedStatus, func(s *Settings) *bool { return &s.ExtendedStatus }},
	{KeyImplicitFileDownload, func(s *Settings) *bool { return &s.ImplicitFileDownload }},
	{KeyAutoDownload, func(s *Settings) *bool { return &s.AutoDownload }},
}

// UpdateFromJSON overlays the recognized keys of a JSON object onto s.
//
// A document that does not parse as a JSON object leaves s unchanged. Keys
// that are absent or carry the wrong JSON type keep their current value, as
// do strings that are not valid UTF-8. Every skipped input is returned as a
// Diagnostic; the update itself never fails.
func (s *Settings) UpdateFromJSON(document []byte) []Diagnostic {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(document, &root); err != nil {
		s.log().Debug("settings document ignored", zap.Error(err))
		return []Diagnostic{{Index: -1, Reason: "malformed document: " + err.Error()}}
	}

	var diags []Diagnostic
	skip := func(key, reason string) {
		s.log().Debug("settings key skipped", zap.String("key", key), zap.String("reason", reason))
		diags = append(diags, Diagnostic{Key: key, Index: -1, Reason: reason})
	}

	for _, f := range stringFields {
		raw, ok := root[f.key]
		if !ok {
			continue
		}
		value, reason := decodeString(raw)
		if reason != "" {
			skip(f.key, reason)
			continue
		}
		*f.field(s) = s.NormalizePath(value)
	}

	for _, f := range boolFields {
		raw, ok := root[f.key]
		if !ok {
			continue
		}
		v := decodeValue(raw)
		value, ok := v.(bool)
		if !ok {
			skip(f.key, mismatch("boolean", v))
			continue
		}
		*f.field(s) = value
	}

	if raw, ok := root[KeyClientScripts]; ok {
		// null leaves scripts nil; [] decodes to an empty slice.
		var scripts []json.RawMessage
		if err := json.Unmarshal(raw, &scripts); err != nil || scripts == nil {
			skip(KeyClientScripts, mismatch("array", decodeValue(raw)))
		} else {
			diags = append(diags, s.addClientScripts(scripts)...)
		}
	}

	return diags
}

func (s *Settings) addClientScripts(scripts []json.RawMessage) []Diagnostic {
	if s.ClientScripts == nil {
		s.ClientScripts = make(map[string]string, len(scripts))
	}

	var diags []Diagnostic
	for i, script := range scripts {
		value, reason := decodeString(script)
		if reason != "" {
			s.log().Warn("strange client script, skipping", zap.Int("index", i), zap.ByteString("value", script))
			diags = append(diags, Diagnostic{Key: KeyClientScripts, Index: i, Reason: reason})
			continue
		}

		path := s.NormalizePath(value)
		if !strings.HasPrefix(path, string(os.PathSeparator)) {
			s.log().Warn("can't load client script, skipping", zap.String("path", path))
			diags = append(diags, Diagnostic{Key: KeyClientScripts, Index: i, Reason: fmt.Sprintf("path %q is not absolute", path)})
			continue
		}

		s.ClientScripts[ClientScriptID(path)] = path
	}
	return diags
}

// decodeValue decodes a raw value that is already known to be valid JSON.
func decodeValue(raw json.RawMessage) any {
	var v any
	_ = json.Unmarshal(raw, &v)
	return v
}

// decodeString returns the string held by raw, or the reason it is unusable.
// encoding/json would substitute U+FFFD for invalid bytes, which yields a
// path that does not exist, so such strings are refused instead.
func decodeString(raw json.RawMessage) (string, string) {
	v := decodeValue(raw)
	value, ok := v.(string)
	if !ok {
		return "", mismatch("string", v)
	}
	if !utf8.Valid(raw) {
		return "", "string is not valid UTF-8"
	}
	return value, ""
}

func mismatch(want string, got any) string {
	return fmt.Sprintf("expected %s, got %s", want, jsonType(got))
}

// ClientScriptID derives the stable id a client script is registered under.
func ClientScriptID(path string) string {
	return strconv.FormatUint(platform.HashString(path), 10) + clientScriptExt
}

// NormalizePath expands a leading "~" to the home directory. Empty input and
// any other value are returned unchanged.
func (s *Settings) NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	if path[0] == '~' {
		return s.provider().HomeDir() + path[1:]
	}
	return path
}

func (s *Settings) provider() platform.Provider {
	if s.platform == nil {
		return platform.NewOS()
	}
	return s.platform
}

func (s *Settings) log() *zap.Logger {
	if s.logger == nil {
		return zap.NewNop()
	}
	return s.logger
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
