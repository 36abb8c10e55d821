// Package events carries batch progress messages from the orchestrator to
// whoever is watching: the structured log, and any live stream subscribers.
package events

import (
	"context"
	"time"

	"github.com/scoutdeck/enricher/internal/logger"
)

// Event levels.
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Event is one progress message tied to a job.
type Event struct {
	JobID   string    `json:"job_id"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Emitter receives progress events. Emit must never block the batch loop.
type Emitter interface {
	Emit(ctx context.Context, event Event)
}

// LogEmitter writes events to the structured log.
type LogEmitter struct {
	logger logger.Interface
}

// NewLogEmitter creates an emitter backed by the given logger.
func NewLogEmitter(log logger.Interface) *LogEmitter {
	return &LogEmitter{logger: log}
}

// Emit logs the event at its level.
func (e *LogEmitter) Emit(_ context.Context, event Event) {
	fields := []any{"job_id", event.JobID}
	switch event.Level {
	case LevelError:
		e.logger.Error(event.Message, fields...)
	case LevelWarn:
		e.logger.Warn(event.Message, fields...)
	default:
		e.logger.Info(event.Message, fields...)
	}
}

// Multi fans one event out to several emitters in order.
type Multi []Emitter

// Emit forwards the event to every emitter.
func (m Multi) Emit(ctx context.Context, event Event) {
	for _, e := range m {
		e.Emit(ctx, event)
	}
}

// Info builds an informational event stamped with the current time.
func Info(jobID, message string) Event {
	return Event{JobID: jobID, Level: LevelInfo, Message: message, Time: time.Now()}
}

// Warn builds a warning event.
func Warn(jobID, message string) Event {
	return Event{JobID: jobID, Level: LevelWarn, Message: message, Time: time.Now()}
}

// Error builds an error event.
func Error(jobID, message string) Event {
	return Event{JobID: jobID, Level: LevelError, Message: message, Time: time.Now()}
}
