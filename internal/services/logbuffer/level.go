package logbuffer

import "strings"

// Level is an operational log severity
type Level string

const (
	LevelError     Level = "ERROR"
	LevelWarning   Level = "WARNING"
	LevelInfo      Level = "INFO"
	LevelDetection Level = "DETECTION"
	LevelDecision  Level = "DECISION"
)

// Levels lists every known level in display order
var Levels = []Level{LevelError, LevelWarning, LevelInfo, LevelDetection, LevelDecision}

// String returns the string representation of Level
func (l Level) String() string {
	return string(l)
}

// IsValid checks if the level is one of the five known levels
func (l Level) IsValid() bool {
	switch l {
	case LevelError, LevelWarning, LevelInfo, LevelDetection, LevelDecision:
		return true
	default:
		return false
	}
}

// ParseLevel matches a level name case-insensitively.
func ParseLevel(s string) (Level, bool) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	return l, l.IsValid()
}
