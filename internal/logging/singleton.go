package logging

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	mu           sync.RWMutex
)

// InitLogger builds the process-wide logger from config.
// Calling it again replaces the previous instance and closes its file.
func InitLogger(config *LogConfig) error {
	logger, err := NewLogger(config)
	if err != nil {
		return err
	}

	mu.Lock()
	previous := globalLogger
	globalLogger = logger
	mu.Unlock()

	if previous != nil {
		previous.Close()
	}
	return nil
}

// GetGlobalLogger returns the process-wide logger.
// Before InitLogger is called it returns an info-level stdout logger.
func GetGlobalLogger() *Logger {
	mu.RLock()
	logger := globalLogger
	mu.RUnlock()
	if logger != nil {
		return logger
	}

	mu.Lock()
	defer mu.Unlock()
	if globalLogger == nil {
		globalLogger = New(os.Stdout, LevelInfo)
	}
	return globalLogger
}
