// Package settings holds Brick's application settings: paths, feature
// toggles, the log severity and the client scripts injected into the web
// view. A Settings value is built with defaults derived from the platform
// directories and then updated in place from a JSON document and from
// command-line switches, in that order.
//
// Updates are tolerant. A malformed document, a key with the wrong JSON type
// or a bad client-script entry never fails the update; the offending input is
// skipped and reported as a Diagnostic.
package settings
