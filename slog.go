package eurekabot

import (
	"fmt"
	"log"
	"os"
)

// SLogger is the operational logging interface used throughout eurekabot. Debug lines
// are only written when debug is enabled
type SLogger interface {
	Printf(format string, v ...interface{})

	Debugf(format string, v ...interface{})
}

type sLogger struct {
	logger *log.Logger
	debug  bool
}

// NewSLogger creates a new logger writing to the given standard library logger
func NewSLogger(log *log.Logger, debug bool) (l *sLogger) {
	sl := new(sLogger)
	sl.debug = debug
	sl.logger = log
	return sl
}

// NewDefaultSLogger creates a new logger writing to stdout with the eurekabot prefix
func NewDefaultSLogger(debug bool) (l *sLogger) {
	return NewSLogger(log.New(os.Stdout, "eurekabot: ", log.Lshortfile|log.LstdFlags), debug)
}

// Debugf logs a debug line if the logger is in debug mode
func (sl *sLogger) Debugf(format string, v ...interface{}) {
	if sl.debug {
		sl.logger.Output(2, fmt.Sprintf(format, v...))
	}
}

// Printf logs a line by delegating the call to Output
func (sl *sLogger) Printf(format string, v ...interface{}) {
	sl.logger.Output(2, fmt.Sprintf(format, v...))
}
