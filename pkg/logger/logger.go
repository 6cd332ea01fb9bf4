package logger

import (
	"fmt"
	"log"
	"os"
)

var std = log.New(os.Stdout, "[leadform] ", log.LstdFlags)

// Init sets up the printf-style logger used during startup
func Init() {
	std.SetOutput(os.Stdout)
}

// Info logs a formatted informational message
func Info(format string, args ...interface{}) {
	zlog.Info().Msg(fmt.Sprintf(format, args...))
}

// Warn logs a formatted warning
func Warn(format string, args ...interface{}) {
	zlog.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs a formatted error
func Error(format string, args ...interface{}) {
	zlog.Error().Msg(fmt.Sprintf(format, args...))
}

// Fatal logs a formatted message and exits
func Fatal(format string, args ...interface{}) {
	std.Fatalf(format, args...)
}
