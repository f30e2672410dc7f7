package session

import "time"

// LogLevel tags a log entry. Warnings record recovered per-asset failures;
// errors record fatal run failures.
type LogLevel string

const (
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LogEntry is one timestamped message in the append-only workflow log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   LogLevel  `json:"level"`
	Message string    `json:"message"`
}
