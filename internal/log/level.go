package log

import (
	"log/slog"
	"strings"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

type levelInfo struct {
	name    string
	slog    slog.Level
	aliases []string
}

var levels = [...]levelInfo{
	LevelDebug: {"DEBUG", slog.LevelDebug, []string{"debug", "trace"}},
	LevelInfo:  {"INFO", slog.LevelInfo, []string{"info"}},
	LevelWarn:  {"WARN", slog.LevelWarn, []string{"warn", "warning"}},
	LevelError: {"ERROR", slog.LevelError, []string{"error"}},
}

func (l Level) valid() bool { return l >= LevelDebug && l <= LevelError }

func (l Level) String() string {
	if !l.valid() {
		return "UNKNOWN"
	}
	return levels[l].name
}

// ToSlogLevel maps l onto slog. Unknown levels log at info.
func (l Level) ToSlogLevel() slog.Level {
	if !l.valid() {
		return slog.LevelInfo
	}
	return levels[l].slog
}

// ParseLevel reads a level name from config or flags. Unrecognised input is info.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, info := range levels {
		for _, alias := range info.aliases {
			if s == alias {
				return Level(l)
			}
		}
	}
	return LevelInfo
}
