// SPDX-License-Identifier: MIT
// SPDX-FileCopyrightText: Ryan Johnson

// Package proxylog adapts the proxy's dependency-free rfb.Logger
// interface to go.uber.org/zap, the structured logger the production
// binary actually runs with. Keeping the adapter out of the root package
// lets every codec and relay file depend on rfb.Logger without pulling
// zap into code that does not need it.
package proxylog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tenthirtyam/rfbproxy"
)

// ZapLogger implements rfb.Logger by forwarding to a *zap.SugaredLogger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// New wraps z as an rfb.Logger.
func New(z *zap.Logger) *ZapLogger {
	return &ZapLogger{sugar: z.Sugar()}
}

// NewFromLevel builds a production zap configuration at the given level
// (a zap level name such as "debug", "info", "warn", or "error"; a name
// zap does not recognize falls back to "info") and wraps it as an
// rfb.Logger.
func NewFromLevel(level string) (*ZapLogger, error) {
	var zl zapcore.Level
	if err := zl.Set(level); err != nil {
		zl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zl)
	cfg.EncoderConfig.TimeKey = "ts"

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

func toZapArgs(fields []rfb.Field) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		args = append(args, f.Key, f.Value)
	}
	return args
}

// Debug implements rfb.Logger.
func (l *ZapLogger) Debug(msg string, fields ...rfb.Field) {
	l.sugar.Debugw(msg, toZapArgs(fields)...)
}

// Info implements rfb.Logger.
func (l *ZapLogger) Info(msg string, fields ...rfb.Field) {
	l.sugar.Infow(msg, toZapArgs(fields)...)
}

// Warn implements rfb.Logger.
func (l *ZapLogger) Warn(msg string, fields ...rfb.Field) {
	l.sugar.Warnw(msg, toZapArgs(fields)...)
}

// Error implements rfb.Logger.
func (l *ZapLogger) Error(msg string, fields ...rfb.Field) {
	l.sugar.Errorw(msg, toZapArgs(fields)...)
}

// With implements rfb.Logger.
func (l *ZapLogger) With(fields ...rfb.Field) rfb.Logger {
	return &ZapLogger{sugar: l.sugar.With(toZapArgs(fields)...)}
}

// Sync flushes any buffered log entries, per zap's convention of calling
// Sync before process exit.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
