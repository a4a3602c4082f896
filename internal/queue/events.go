package queue

import (
	"log/slog"
	"time"
)

// Event is one point in a job's lifecycle, matching the custom Celery
// event payload shape: job identity, the worker that reported it, and a
// duration that is only known once the job has finished.
type Event struct {
	UID        string
	JobType    JobType
	EventType  EventType
	Hostname   string
	PID        int
	Name       string
	WorkflowID string
	Time       time.Time
	Duration   *time.Duration
}

// EventSink receives job lifecycle events. Publish must not block the
// caller for long — a worker loop publishes synchronously between jobs.
type EventSink interface {
	Publish(Event)
}

// ChannelSink fans events out to a buffered channel for a consumer to
// drain, the Go analogue of the source's event_stream generator. A full
// channel drops the event rather than blocking the worker loop.
type ChannelSink struct {
	ch chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer size.
func NewChannelSink(buffer int) *ChannelSink {
	return &ChannelSink{ch: make(chan Event, buffer)}
}

// Publish sends e to the channel, dropping it if the channel is full.
func (s *ChannelSink) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}

// Events returns the channel events are published to.
func (s *ChannelSink) Events() <-chan Event {
	return s.ch
}

// LogSink publishes events as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink writing through logger.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs e at Info level.
func (s *LogSink) Publish(e Event) {
	args := []any{
		"event", string(e.EventType),
		"job_type", string(e.JobType),
		"name", e.Name,
		"workflow_id", e.WorkflowID,
	}
	if e.Duration != nil {
		args = append(args, "duration", e.Duration.String())
	}
	s.logger.Info("job event", args...)
}
