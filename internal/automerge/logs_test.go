package automerge

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// observeLogs replaces the global logger with a logger that records all
// messages.
// Loggers must be created after calling it.
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	t.Cleanup(zap.ReplaceGlobals(zap.New(core).Named(t.Name())))

	return logs
}

func countLevel(logs *observer.ObservedLogs, lvl zapcore.Level) int {
	var cnt int

	for _, e := range logs.All() {
		if e.Level == lvl {
			cnt++
		}
	}

	return cnt
}

func countMsgPrefix(logs *observer.ObservedLogs, prefix string) int {
	var cnt int

	for _, e := range logs.All() {
		if strings.HasPrefix(e.Message, prefix) {
			cnt++
		}
	}

	return cnt
}
