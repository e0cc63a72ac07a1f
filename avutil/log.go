//go:build !ios && !android && (amd64 || arm64)

package avutil

import (
	"fmt"
	"strings"
)

// LogLevel is an av_log verbosity level.
type LogLevel int32

const (
	LogQuiet   LogLevel = -8
	LogPanic   LogLevel = 0
	LogFatal   LogLevel = 8
	LogError   LogLevel = 16
	LogWarning LogLevel = 24
	LogInfo    LogLevel = 32
	LogVerbose LogLevel = 40
	LogDebug   LogLevel = 48
	LogTrace   LogLevel = 56
)

var logLevelNames = map[string]LogLevel{
	"quiet":   LogQuiet,
	"panic":   LogPanic,
	"fatal":   LogFatal,
	"error":   LogError,
	"warning": LogWarning,
	"info":    LogInfo,
	"verbose": LogVerbose,
	"debug":   LogDebug,
	"trace":   LogTrace,
}

// ParseLogLevel accepts the names used by the ffmpeg CLI's -loglevel.
func ParseLogLevel(s string) (LogLevel, error) {
	if l, ok := logLevelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LogQuiet, fmt.Errorf("avutil: unknown log level %q", s)
}

func (l LogLevel) String() string {
	for name, v := range logLevelNames {
		if v == l {
			return name
		}
	}
	return fmt.Sprintf("LogLevel(%d)", int32(l))
}

// SetLogLevel sets FFmpeg's process-wide log level.
func SetLogLevel(level LogLevel) {
	if avLogSetLevel != nil {
		avLogSetLevel(int32(level))
	}
}

// GetLogLevel returns FFmpeg's current log level.
func GetLogLevel() LogLevel {
	if avLogGetLevel == nil {
		return LogInfo
	}
	return LogLevel(avLogGetLevel())
}
