// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logger holds the process-wide structured logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Logger is the global logger. It writes to stderr at Info level until
// Configure is called.
var Logger *log.Logger

// out is the destination of Logger, shared by component loggers.
var out io.Writer = os.Stderr

// file is the log file opened by Configure, closed when replaced.
var file *os.File

// EnvLevel is the environment variable consulted when no level is given.
const EnvLevel = "SPIKING_LOG_LEVEL"

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetTimeFormat("")
	Logger.SetLevel(log.InfoLevel)
}

// Configure sets the level and the destination of the global logger.
// An empty level falls back to EnvLevel and then to "info"; an empty file
// name logs to stderr. A file opened by an earlier call is closed.
func Configure(level string, fname string) error {
	if level == "" {
		level = strings.ToLower(os.Getenv(EnvLevel))
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	var output io.Writer = os.Stderr
	var f *os.File
	if fname != "" {
		f, err = os.OpenFile(fname, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return err
		}
		output = f
	}
	closeFile()
	file = f
	out = output
	Logger = log.New(output)
	Logger.SetTimeFormat("")
	Logger.SetLevel(lvl)
	return nil
}

func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}

// SetOutput redirects the global logger, keeping its level. A file opened
// by Configure is closed.
func SetOutput(w io.Writer) {
	lvl := Logger.GetLevel()
	closeFile()
	out = w
	Logger = log.New(w)
	Logger.SetTimeFormat("")
	Logger.SetLevel(lvl)
}

// ParseLevel converts a level name to a log level. Empty means info.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel, nil
	case "", "info":
		return log.InfoLevel, nil
	case "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	}
	return log.InfoLevel, fmt.Errorf("logger: unknown level %q", level)
}

// Debug logs a debug message with optional key-value pairs.
func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

// Info logs an info message with optional key-value pairs.
func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

// Warn logs a warning message with optional key-value pairs.
func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}

// NewComponentLogger returns a logger that prefixes every line with the
// component name. It writes where the global logger writes, at its level
// at the time of the call.
func NewComponentLogger(component string) *log.Logger {
	styles := log.DefaultStyles()
	styles.Keys["step"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	cl := log.NewWithOptions(out, log.Options{Prefix: component})
	cl.SetStyles(styles)
	cl.SetLevel(Logger.GetLevel())
	return cl
}
