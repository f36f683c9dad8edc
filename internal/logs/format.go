// Package logs writes application logs as daily text files, parses them back
// for the log viewer, and streams new entries to websocket clients.
package logs

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"
)

// TimeLayout is the timestamp layout of a log line, always UTC.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Level names used in log lines and filters. LevelAll matches everything.
const (
	LevelAll   = "ALL"
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// ParsedLog is one log line split into its parts.
type ParsedLog struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Module  string `json:"module"`
	Message string `json:"message"`
	Raw     string `json:"raw"`
}

var lineRE = regexp.MustCompile(`^\[([^\]]+)\] \[(DEBUG|INFO|WARN|ERROR)\] \[([^\]]*)\] (.*)$`)

// FormatLine renders "[time] [LEVEL] [module] message".
func FormatLine(t time.Time, level, module, message string) string {
	return fmt.Sprintf("[%s] [%s] [%s] %s", t.UTC().Format(TimeLayout), level, module, message)
}

// ParseLine splits a raw line. It reports false for lines that are not in
// the log format, such as continuation lines of a multi-line message.
func ParseLine(raw string) (ParsedLog, bool) {
	raw = strings.TrimRight(raw, "\r\n")
	m := lineRE.FindStringSubmatch(raw)
	if m == nil {
		return ParsedLog{Raw: raw}, false
	}
	return ParsedLog{Time: m[1], Level: m[2], Module: m[3], Message: m[4], Raw: raw}, true
}

// LevelName maps a slog level to a log line level.
func LevelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return LevelError
	case l >= slog.LevelWarn:
		return LevelWarn
	case l >= slog.LevelInfo:
		return LevelInfo
	default:
		return LevelDebug
	}
}

var ErrUnknownLevel = errors.New("unknown log level")

// NormalizeLevel upper-cases a filter value; empty means LevelAll.
func NormalizeLevel(level string) (string, error) {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return LevelAll, nil
	case LevelAll, LevelDebug, LevelInfo, LevelWarn, LevelError:
		return l, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownLevel, level)
	}
}
