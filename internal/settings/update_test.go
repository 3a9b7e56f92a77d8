package settings

import (
	"bytes"
	"strconv"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brickapp/brick/internal/platform"
)

func TestUpdateFromJSONBooleanKeys(t *testing.T) {
	keys := map[string]func(*Settings) bool{
		KeyIgnoreCertErrors:     func(s *Settings) bool { return s.IgnoreCertificateErrors },
		KeyStartMinimized:       func(s *Settings) bool { return s.StartMinimized },
		KeyAutoAway:             func(s *Settings) bool { return s.AutoAway },
		KeyExternalAPI:          func(s *Settings) bool { return s.ExternalAPI },
		KeyHideOnDelete:         func(s *Settings) bool { return s.HideOnDelete },
		KeyExtendedStatus:       func(s *Settings) bool { return s.ExtendedStatus },
		KeyImplicitFileDownload: func(s *Settings) bool { return s.ImplicitFileDownload },
		KeyAutoDownload:         func(s *Settings) bool { return s.AutoDownload },
	}

	for key, get := range keys {
		t.Run(key, func(t *testing.T) {
			s := New(testPlatform)

			s.UpdateFromJSON([]byte(`{"` + key + `": true}`))
			if !get(s) {
				t.Fatalf("expected true after explicit true")
			}

			s.UpdateFromJSON([]byte(`{}`))
			if !get(s) {
				t.Fatalf("expected absent key to keep true")
			}

			s.UpdateFromJSON([]byte(`{"` + key + `": false}`))
			if get(s) {
				t.Fatalf("expected false after explicit false")
			}

			diags := s.UpdateFromJSON([]byte(`{"` + key + `": "not-a-bool"}`))
			if get(s) {
				t.Fatalf("expected type mismatch to keep false")
			}
			if len(diags) != 1 || diags[0].Key != key {
				t.Fatalf("expected one diagnostic for %s, got %v", key, diags)
			}
		})
	}
}

func TestUpdateFromJSONPathKeys(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	diags := s.UpdateFromJSON([]byte(`{
		"profile-path": "~/profile",
		"cache-path": "/var/cache/brick",
		"log-file": "~/brick.log",
		"resource-dir": "relative/res",
		"download-dir": ""
	}`))

	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if s.ProfilePath != "/home/tester/profile" {
		t.Fatalf("unexpected profile path %s", s.ProfilePath)
	}
	if s.CachePath != "/var/cache/brick" {
		t.Fatalf("unexpected cache path %s", s.CachePath)
	}
	if s.LogFile != "/home/tester/brick.log" {
		t.Fatalf("unexpected log file %s", s.LogFile)
	}
	if s.ResourceDir != "relative/res" {
		t.Fatalf("unexpected resource dir %s", s.ResourceDir)
	}
	if s.DownloadDir != "" {
		t.Fatalf("expected empty download dir, got %s", s.DownloadDir)
	}
}

func TestUpdateFromJSONStringTypeMismatch(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	before := s.CachePath

	diags := s.UpdateFromJSON([]byte(`{"cache-path": 42, "log-file": null}`))

	if s.CachePath != before {
		t.Fatalf("expected cache path to be unchanged, got %s", s.CachePath)
	}
	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	if got := diags[0].String(); got != "cache-path: expected string, got number" {
		t.Fatalf("unexpected diagnostic %q", got)
	}
	if got := diags[1].String(); got != "log-file: expected string, got null" {
		t.Fatalf("unexpected diagnostic %q", got)
	}
}

func TestUpdateFromJSONAppTokenStoresProfilePath(t *testing.T) {
	t.Parallel()

	t.Run("app-token alone", func(t *testing.T) {
		s := New(testPlatform)
		s.UpdateFromJSON([]byte(`{"app-token": "~/token-profile"}`))

		if s.ProfilePath != "/home/tester/token-profile" {
			t.Fatalf("expected app-token to land in profile path, got %q", s.ProfilePath)
		}
		if s.AppToken != "" {
			t.Fatalf("expected app token field untouched, got %q", s.AppToken)
		}
	})

	t.Run("profile-path wins", func(t *testing.T) {
		s := New(testPlatform)
		s.UpdateFromJSON([]byte(`{"profile-path": "/p", "app-token": "/t"}`))

		if s.ProfilePath != "/p" {
			t.Fatalf("expected profile-path to take precedence, got %q", s.ProfilePath)
		}
	})
}

func TestUpdateFromJSONClientScripts(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	s := New(testPlatform, WithLogger(zap.New(core)))

	diags := s.UpdateFromJSON([]byte(`{"client-scripts": ["/a/b.user.js", "relative.js", 42]}`))

	if len(s.ClientScripts) != 1 {
		t.Fatalf("expected exactly one script, got %v", s.ClientScripts)
	}
	id := strconv.FormatUint(platform.HashString("/a/b.user.js"), 10) + ".js"
	if got := s.ClientScripts[id]; got != "/a/b.user.js" {
		t.Fatalf("expected script under %s, got %v", id, s.ClientScripts)
	}

	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	if diags[0].Index != 1 || diags[1].Index != 2 {
		t.Fatalf("expected diagnostics for elements 1 and 2, got %v", diags)
	}
	if logs.Len() != 2 {
		t.Fatalf("expected 2 warnings, got %d", logs.Len())
	}
}

func TestUpdateFromJSONClientScriptsExpandsHome(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	s.UpdateFromJSON([]byte(`{"client-scripts": ["~/scripts/x.js", "~/scripts/x.js"]}`))

	want := "/home/tester/scripts/x.js"
	if len(s.ClientScripts) != 1 {
		t.Fatalf("expected duplicates to collapse, got %v", s.ClientScripts)
	}
	if got, ok := s.ClientScript(ClientScriptID(want)); !ok || got != want {
		t.Fatalf("expected %s, got %q", want, got)
	}
}

func TestUpdateFromJSONClientScriptsNotArray(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	diags := s.UpdateFromJSON([]byte(`{"client-scripts": "/a.js"}`))

	if len(s.ClientScripts) != 0 {
		t.Fatalf("expected no scripts, got %v", s.ClientScripts)
	}
	if len(diags) != 1 || diags[0].Key != KeyClientScripts || diags[0].Index != -1 {
		t.Fatalf("unexpected diagnostics %v", diags)
	}
}

func TestUpdateFromJSONClientScriptsNullOrEmpty(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	if diags := s.UpdateFromJSON([]byte(`{"client-scripts": null}`)); len(diags) != 1 || diags[0].Reason != "expected array, got null" {
		t.Fatalf("expected null to be a type mismatch, got %v", diags)
	}
	if diags := s.UpdateFromJSON([]byte(`{"client-scripts": []}`)); len(diags) != 0 {
		t.Fatalf("expected empty array to be accepted, got %v", diags)
	}
	if s.ClientScripts == nil || len(s.ClientScripts) != 0 {
		t.Fatalf("expected empty script map, got %v", s.ClientScripts)
	}
}

func TestUpdateFromJSONRejectsInvalidUTF8(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	s := New(testPlatform, WithLogger(zap.New(core)))
	before := s.DownloadDir

	doc := []byte("{\"download-dir\": \"/dl/\xff\", \"client-scripts\": [\"/ok.js\", \"/bad\xfe.js\"]}")
	diags := s.UpdateFromJSON(doc)

	if s.DownloadDir != before {
		t.Fatalf("expected download dir untouched, got %q", s.DownloadDir)
	}
	if len(s.ClientScripts) != 1 {
		t.Fatalf("expected only the valid script, got %v", s.ClientScripts)
	}
	if _, ok := s.ClientScript(ClientScriptID("/ok.js")); !ok {
		t.Fatalf("expected /ok.js to be registered, got %v", s.ClientScripts)
	}

	if len(diags) != 2 {
		t.Fatalf("expected 2 diagnostics, got %v", diags)
	}
	if diags[0].Key != KeyDownloadDir || diags[0].Reason != "string is not valid UTF-8" {
		t.Fatalf("unexpected path diagnostic %v", diags[0])
	}
	if diags[1].Key != KeyClientScripts || diags[1].Index != 1 || diags[1].Reason != "string is not valid UTF-8" {
		t.Fatalf("unexpected script diagnostic %v", diags[1])
	}
	if logs.FilterMessage("strange client script, skipping").Len() != 1 {
		t.Fatalf("expected the invalid script to be logged")
	}
}

func TestUpdateFromJSONMalformedDocument(t *testing.T) {
	t.Parallel()

	documents := []string{
		`{"auto-away": false, "cache-path": "/x"`,
		`not json`,
		`["auto-away"]`,
		``,
	}

	for _, doc := range documents {
		s := New(testPlatform)
		s.UpdateFromJSON([]byte(`{"minimized": true, "client-scripts": ["/keep.js"]}`))
		before := mustDump(t, s)

		diags := s.UpdateFromJSON([]byte(doc))

		if after := mustDump(t, s); !bytes.Equal(before, after) {
			t.Fatalf("document %q changed settings:\n%s\n%s", doc, before, after)
		}
		if len(diags) != 1 || diags[0].Key != "" {
			t.Fatalf("expected a single document-level diagnostic for %q, got %v", doc, diags)
		}
	}
}

func TestUpdateFromJSONIsIdempotent(t *testing.T) {
	t.Parallel()

	doc := []byte(`{
		"profile-path": "~/p",
		"auto-away": false,
		"implicit-file-download": true,
		"client-scripts": ["/one.js", "/two.js"]
	}`)

	once := New(testPlatform)
	once.UpdateFromJSON(doc)

	twice := New(testPlatform)
	twice.UpdateFromJSON(doc)
	twice.UpdateFromJSON(doc)

	if a, b := mustDump(t, once), mustDump(t, twice); !bytes.Equal(a, b) {
		t.Fatalf("expected identical state:\n%s\n%s", a, b)
	}
	if len(twice.ClientScripts) != 2 {
		t.Fatalf("expected scripts to be overwritten per key, got %v", twice.ClientScripts)
	}
}

func TestUpdateFromJSONIgnoresUnknownKeys(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	before := mustDump(t, s)

	if diags := s.UpdateFromJSON([]byte(`{"log-severity": "verbose", "theme": "dark"}`)); len(diags) != 0 {
		t.Fatalf("expected unknown keys to be ignored silently, got %v", diags)
	}
	if after := mustDump(t, s); !bytes.Equal(before, after) {
		t.Fatalf("expected unknown keys to change nothing")
	}
	if s.LogSeverity != SeverityDefault {
		t.Fatalf("expected severity untouched, got %s", s.LogSeverity)
	}
}

func TestUpdateFromJSONOnZeroValue(t *testing.T) {
	t.Parallel()

	var s Settings
	s.UpdateFromJSON([]byte(`{"client-scripts": ["/z.js"], "auto-away": true}`))

	if !s.AutoAway || len(s.ClientScripts) != 1 {
		t.Fatalf("expected zero-value settings to accept updates, got %+v", s)
	}
}

func TestNormalizePath(t *testing.T) {
	t.Parallel()

	s := New(testPlatform)
	cases := map[string]string{
		"":         "",
		"~":        "/home/tester",
		"~/x":      "/home/tester/x",
		"~other":   "/home/testerother",
		"/abs/y":   "/abs/y",
		"rel/z":    "rel/z",
		"/path/~x": "/path/~x",
	}

	for in, want := range cases {
		if got := s.NormalizePath(in); got != want {
			t.Fatalf("NormalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDiagnosticString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		d    Diagnostic
		want string
	}{
		{Diagnostic{Index: -1, Reason: "malformed document"}, "malformed document"},
		{Diagnostic{Key: "auto-away", Index: -1, Reason: "expected boolean, got string"}, "auto-away: expected boolean, got string"},
		{Diagnostic{Key: "client-scripts", Index: 3, Reason: "expected string, got number"}, "client-scripts[3]: expected string, got number"},
	}
	for _, tc := range cases {
		if got := tc.d.String(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
