package internal

import (
	"log"
	"os"
)

// NewLogger returns a component-prefixed logger writing to stdout.
func NewLogger(component string) *log.Logger {
	prefix := "jirahook"
	if component != "" {
		prefix = prefix + "/" + component
	}
	return log.New(os.Stdout, prefix+" ", log.LstdFlags|log.Lmicroseconds)
}

// WithRequestID returns a logger that carries the request ID in its prefix,
// so every line for one delivery is correlatable.
func WithRequestID(logger *log.Logger, requestID string) *log.Logger {
	if logger == nil {
		logger = log.Default()
	}
	if requestID == "" {
		return logger
	}
	return log.New(logger.Writer(), logger.Prefix()+"rid="+requestID+" ", logger.Flags())
}
