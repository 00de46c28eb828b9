// Copyright (C) 2025 Creditor Corp. Group.
// See LICENSE for copying information.

// Package logger provides structured zerolog loggers for wallet components.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// Component names used across the wallet.
const (
	ComponentTxBuilder = "txbuilder"
	ComponentWallet    = "wallet"
	ComponentChainAPI  = "chainapi"
	ComponentStorage   = "storage"
	ComponentKeyring   = "keyring"
)

// New creates logger writing JSON or colored console output with provided level.
func New(w io.Writer, level string, jsonOutput bool) zerolog.Logger {
	if jsonOutput {
		return NewJSONLogger(w, level)
	}

	return NewConsoleLogger(w, level)
}

// NewConsoleLogger creates a colored console logger.
func NewConsoleLogger(w io.Writer, level string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}

	return zerolog.New(output).Level(parseLevel(level)).With().Timestamp().Logger()
}

// NewJSONLogger creates a structured JSON logger.
func NewJSONLogger(w io.Writer, level string) zerolog.Logger {
	return zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger()
}

// Component returns a logger with a component field.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// parseLevel converts a string level to zerolog.Level, info by default.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// RestyLogger is a logger accepted by resty client.
type RestyLogger interface {
	Errorf(format string, v ...any)
	Warnf(format string, v ...any)
	Debugf(format string, v ...any)
}

type restyAdapter struct {
	log zerolog.Logger
}

// RestyAdapter adapts zerolog logger to the resty client logger.
func RestyAdapter(l zerolog.Logger) RestyLogger {
	return &restyAdapter{log: Component(l, "resty")}
}

func (r *restyAdapter) Errorf(format string, v ...any) {
	r.log.Error().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r *restyAdapter) Warnf(format string, v ...any) {
	r.log.Warn().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (r *restyAdapter) Debugf(format string, v ...any) {
	r.log.Debug().Msg(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
