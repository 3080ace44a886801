package config

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// InitLogging points the standard logger at stdout, tee'd into LOG_FILE when
// one is configured. The returned file, if any, must be closed by the caller.
func InitLogging(path string) (*os.File, io.Writer) {
	log.SetFlags(log.LstdFlags | log.LUTC)
	if path == "" {
		log.SetOutput(os.Stdout)
		return nil, os.Stdout
	}

	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create log directory: %v", err)
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("Warning: Failed to open log file: %v", err)
		log.SetOutput(os.Stdout)
		return nil, os.Stdout
	}

	w := io.MultiWriter(os.Stdout, logFile)
	log.SetOutput(w)
	return logFile, w
}
