package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/iesahq/portal/core"
)

// NewConfig returns a self-contained config for tests; nothing is read from
// the environment.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:         "IESA Portal",
		Env:             "TEST",
		Build:           "test",
		Debug:           false,
		TestMode:        true,
		SecretKey:       "secret",
		FrontendBaseURL: "http://localhost:3000",
		DefaultFromName: "IESA",
		DefaultFromAddr: "noreply@localhost",
		Server: core.ServerConfig{
			Host:               "localhost",
			Addr:               ":0",
			ShutdownTimeout:    5 * time.Second,
			JWTExpirationDelta: 10 * time.Minute,
		},
		Backend: core.BackendConfig{
			BaseURL: "http://localhost:9000",
			Timeout: 5 * time.Second,
		},
	}
}

// Logger is a core.Logger that records messages in memory.
type Logger struct {
	mu   sync.Mutex
	logs []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{}
}

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := level + ": " + msg
	for _, arg := range args {
		entry += fmt.Sprintf(" %+v", arg)
	}
	l.logs = append(l.logs, entry)
}

func (l *Logger) Logs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	logs := make([]string, len(l.logs))
	copy(logs, l.logs)
	return logs
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }
