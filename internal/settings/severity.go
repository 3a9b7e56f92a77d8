package settings

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSeverity is returned by ParseLogSeverity for unrecognized names.
var ErrUnknownSeverity = errors.New("unknown log severity")

// LogSeverity mirrors the log levels understood by the embedded browser runtime.
type LogSeverity int

const (
	SeverityDefault LogSeverity = iota
	SeverityVerbose
	SeverityInfo
	SeverityWarning
	SeverityError
	SeverityFatal
	SeverityDisable
)

var severityNames = map[LogSeverity]string{
	SeverityDefault: "default",
	SeverityVerbose: "verbose",
	SeverityInfo:    "info",
	SeverityWarning: "warning",
	SeverityError:   "error",
	SeverityFatal:   "fatal",
	SeverityDisable: "disable",
}

var severityAliases = map[string]LogSeverity{
	"":      SeverityDefault,
	"debug": SeverityVerbose,
	"warn":  SeverityWarning,
}

func (l LogSeverity) String() string {
	if name, ok := severityNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LogSeverity(%d)", int(l))
}

// ParseLogSeverity parses a case-insensitive severity name.
func ParseLogSeverity(raw string) (LogSeverity, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if sev, ok := severityAliases[name]; ok {
		return sev, nil
	}
	for sev, candidate := range severityNames {
		if candidate == name {
			return sev, nil
		}
	}
	return SeverityDefault, fmt.Errorf("%w: %q", ErrUnknownSeverity, raw)
}
