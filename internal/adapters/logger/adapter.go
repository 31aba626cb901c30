// Package logger provides adapters for the logging interface.
package logger

import (
	"context"

	golog "github.com/MyCarrier-DevOps/goLibMyCarrier/logger"
)

// ComponentField is the field that identifies the emitting component.
const ComponentField = "component"

// ZapAdapter adapts a goLibMyCarrier logger to the application's logging interface.
type ZapAdapter struct {
	log golog.Logger
}

// NewZapAdapter creates a new ZapAdapter wrapping the given logger.
func NewZapAdapter(log golog.Logger) *ZapAdapter {
	return &ZapAdapter{log: log}
}

// Named returns an adapter that tags every record with the component name.
func (a *ZapAdapter) Named(component string) *ZapAdapter {
	return &ZapAdapter{log: a.log.WithFields(map[string]interface{}{ComponentField: component})}
}

// Info logs an info message.
func (a *ZapAdapter) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	a.log.Info(ctx, msg, fields)
}

// Debug logs a debug message.
func (a *ZapAdapter) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	a.log.Debug(ctx, msg, fields)
}

// Warn logs a warning message.
func (a *ZapAdapter) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	a.log.Warn(ctx, msg, fields)
}

// Error logs an error message.
func (a *ZapAdapter) Error(ctx context.Context, msg string, err error, fields map[string]interface{}) {
	a.log.Error(ctx, msg, err, fields)
}
