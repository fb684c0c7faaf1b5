package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// DebugLogger is the unified logger every package reports through. Messages
// are tagged with their component; components ending in _WARN or _ERROR are
// raised to that level.
type DebugLogger struct {
	logger  *slog.Logger
	verbose bool

	mu     sync.Mutex
	counts map[string]uint64 // messages per component
}

// NewDebugLogger creates a logger writing text records to w. debug lowers the
// level to Debug; verbose also lets per-frame messages through.
func NewDebugLogger(w io.Writer, debug, verbose bool) *DebugLogger {
	level := slog.LevelInfo
	if debug || verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &DebugLogger{
		logger:  slog.New(handler),
		verbose: verbose,
		counts:  make(map[string]uint64),
	}
}

// Logger returns the underlying slog logger
func (dl *DebugLogger) Logger() *slog.Logger {
	return dl.logger
}

func levelFor(component string) slog.Level {
	switch {
	case strings.HasSuffix(component, "_ERROR"):
		return slog.LevelError
	case strings.HasSuffix(component, "_WARN"):
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// debugMsg is the main unified debug function
func (dl *DebugLogger) debugMsg(component, message string) {
	dl.mu.Lock()
	dl.counts[component]++
	dl.mu.Unlock()

	dl.logger.Log(context.Background(), levelFor(component), message, "component", component)
}

// debugMsgVerbose only outputs with -debug-verbose
func (dl *DebugLogger) debugMsgVerbose(component, message string) {
	if !dl.verbose {
		return
	}
	dl.debugMsg(component, message)
}

// Counts returns how many messages each component has logged
func (dl *DebugLogger) Counts() map[string]uint64 {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	out := make(map[string]uint64, len(dl.counts))
	for k, v := range dl.counts {
		out[k] = v
	}
	return out
}

// Global debug logger instance
var globalDebugLogger *DebugLogger

// debugMsg is the global convenience function for unified debug logging
func debugMsg(component, message string) {
	if globalDebugLogger != nil {
		globalDebugLogger.debugMsg(component, message)
	} else {
		// Fallback if logger not initialized
		fmt.Printf("[%s][%s] %s\n", time.Now().Format("15:04:05.000"), component, message)
	}
}

// debugMsgVerbose only outputs if debug-verbose flag is enabled
func debugMsgVerbose(component, message string) {
	if globalDebugLogger != nil {
		globalDebugLogger.debugMsgVerbose(component, message)
	}
}
