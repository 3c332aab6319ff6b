package runner

import (
	"sync"

	"go.uber.org/zap"

	"taskmill/internal/core"
)

// NopReporter discards all progress signals.
type NopReporter struct{}

func (NopReporter) TaskStarted(core.TaskID)          {}
func (NopReporter) TaskProgress(core.TaskID, string) {}
func (NopReporter) TaskFinished(core.TaskID, string) {}

// LogReporter forwards progress signals to a structured logger.
type LogReporter struct {
	Logger *zap.Logger
}

func NewLogReporter(logger *zap.Logger) *LogReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) TaskStarted(id core.TaskID) {
	r.Logger.Info("task started", zap.String("task_id", id.String()))
}

func (r *LogReporter) TaskProgress(id core.TaskID, message string) {
	r.Logger.Info("task progress", zap.String("task_id", id.String()), zap.String("message", message))
}

func (r *LogReporter) TaskFinished(id core.TaskID, status string) {
	r.Logger.Info("task finished", zap.String("task_id", id.String()), zap.String("status", status))
}

// ReportEvent is one recorded progress signal.
type ReportEvent struct {
	Kind    string // "started", "progress", "finished"
	TaskID  core.TaskID
	Message string
}

// RecordingReporter is a concurrency-safe in-memory reporter used by
// tests to observe the signal sequence.
type RecordingReporter struct {
	mu     sync.Mutex
	events []ReportEvent
}

func NewRecordingReporter() *RecordingReporter { return &RecordingReporter{} }

func (r *RecordingReporter) record(e ReportEvent) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *RecordingReporter) TaskStarted(id core.TaskID) {
	r.record(ReportEvent{Kind: "started", TaskID: id})
}

func (r *RecordingReporter) TaskProgress(id core.TaskID, message string) {
	r.record(ReportEvent{Kind: "progress", TaskID: id, Message: message})
}

func (r *RecordingReporter) TaskFinished(id core.TaskID, status string) {
	r.record(ReportEvent{Kind: "finished", TaskID: id, Message: status})
}

// Events returns a point-in-time copy of all recorded signals.
func (r *RecordingReporter) Events() []ReportEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]ReportEvent, len(r.events))
	copy(cp, r.events)
	return cp
}

// safeReporter wraps a reporter so that a buggy implementation can never
// fail or panic the task it is observing.
type safeReporter struct {
	inner core.Reporter
}

func (s safeReporter) guard(f func()) {
	if s.inner == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	f()
}

func (s safeReporter) TaskStarted(id core.TaskID) {
	s.guard(func() { s.inner.TaskStarted(id) })
}

func (s safeReporter) TaskProgress(id core.TaskID, message string) {
	s.guard(func() { s.inner.TaskProgress(id, message) })
}

func (s safeReporter) TaskFinished(id core.TaskID, status string) {
	s.guard(func() { s.inner.TaskFinished(id, status) })
}
