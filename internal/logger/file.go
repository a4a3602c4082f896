package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogFileConfig describes where a run's log file should live and how its
// filename should be built.
type LogFileConfig struct {
	Prefix         string
	LogDir         string
	WorkflowLogDir string
	WorkflowName   string
	RequestID      string
}

// OpenLogFile prepares cfg's log directory and opens a new, uniquely named
// log file inside it.
func OpenLogFile(cfg LogFileConfig) (*os.File, error) {
	dir, err := prepareLogDirectory(cfg)
	if err != nil {
		return nil, fmt.Errorf("logger: prepare log directory: %w", err)
	}
	return openFile(filepath.Join(dir, generateLogFilename(cfg)))
}

func prepareLogDirectory(cfg LogFileConfig) (string, error) {
	base := cfg.WorkflowLogDir
	if base == "" {
		base = cfg.LogDir
	}
	dir := filepath.Join(base, sanitizeName(cfg.WorkflowName))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}

func generateLogFilename(cfg LogFileConfig) string {
	timestamp := time.Now().Format("20060102.15:04:05.000")
	requestID := cfg.RequestID
	if len(requestID) > 8 {
		requestID = requestID[:8]
	}
	return fmt.Sprintf("%s%s.%s.%s.log", cfg.Prefix, sanitizeName(cfg.WorkflowName), timestamp, requestID)
}

func sanitizeName(name string) string {
	return strings.ReplaceAll(name, " ", "_")
}

func openFile(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0644)
}
