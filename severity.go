package stash

import "strings"

// Severity is the level attached to a single message.
type Severity int8

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (s Severity) IsValid() bool {
	return s >= SeverityDebug && s <= SeverityFatal
}

// ParseSeverity converts a level name ("debug", "INFO", ...) into a
// Severity. Unknown names return ErrInvalidSeverity.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return SeverityDebug, nil
	case "INFO", "":
		return SeverityInfo, nil
	case "WARN", "WARNING":
		return SeverityWarn, nil
	case "ERROR":
		return SeverityError, nil
	case "FATAL":
		return SeverityFatal, nil
	default:
		return SeverityInfo, newError(ErrCodeInvalidSeverity, "unknown severity "+name, map[string]any{"severity": name})
	}
}
