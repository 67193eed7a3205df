// Package audit records the lifecycle events of a planning request —
// when it arrived, when a repair round ran, when the degrade level
// slipped — as a background-drained event log, adapted from the
// teacher's internal/security/audit.go AuditLogger (channel-buffered
// async writer). The rule-engine and threat-detection half of that
// file has no analog here: this package has nothing to alert on, only
// a trail to keep for /diagnostics.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Category groups events the same way the teacher's EventType field
// did, narrowed to what this pipeline actually produces.
type Category string

const (
	CategoryPlan      Category = "plan"
	CategoryClarify   Category = "clarify"
	CategoryRepair    Category = "repair"
	CategoryDegrade   Category = "degrade"
	CategoryRateLimit Category = "rate_limit"
	CategoryAuth      Category = "auth"
)

// Event is one audit record. Details is a free-form bag so callers
// don't need a new struct per event shape.
type Event struct {
	Timestamp time.Time              `json:"timestamp"`
	Category  Category               `json:"category"`
	Action    string                 `json:"action"`
	SessionID string                 `json:"session_id,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// Storage persists or forwards events. Recent backs GET /diagnostics'
// recent-events list.
type Storage interface {
	Store(event Event) error
	Recent(limit int) []Event
}

// Logger buffers events on a channel and drains them on a background
// goroutine, same shape as the teacher's AuditLogger.Start/processEvents
// split — logging never blocks the request path on the sink.
type Logger struct {
	events   chan Event
	storage  Storage
	tracer   trace.Tracer
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewLogger builds a logger around storage. Call Start before
// recording events and Stop during shutdown to drain the channel.
func NewLogger(storage Storage) *Logger {
	return &Logger{
		events:   make(chan Event, 1000),
		storage:  storage,
		tracer:   otel.Tracer("audit.logger"),
		stopChan: make(chan struct{}),
	}
}

// Start begins draining the event channel in the background.
func (l *Logger) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	go l.processEvents()
}

// Stop halts the drain goroutine.
func (l *Logger) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopChan)
}

// Record enqueues an event. It never blocks: a full buffer drops the
// event and logs that it did, rather than stalling the request path.
func (l *Logger) Record(ctx context.Context, category Category, action string, sessionID, requestID string, details map[string]interface{}) {
	_, span := l.tracer.Start(ctx, "audit_logger.record")
	defer span.End()

	event := Event{
		Timestamp: time.Now(),
		Category:  category,
		Action:    action,
		SessionID: sessionID,
		RequestID: requestID,
		Details:   details,
	}

	span.SetAttributes(
		attribute.String("audit.category", string(category)),
		attribute.String("audit.action", action),
	)

	select {
	case l.events <- event:
	default:
		log.Printf("audit: event queue full, dropping %s/%s for request %s", category, action, requestID)
	}
}

func (l *Logger) processEvents() {
	for {
		select {
		case event := <-l.events:
			if err := l.storage.Store(event); err != nil {
				log.Printf("audit: failed to store event: %v", err)
			}
		case <-l.stopChan:
			for {
				select {
				case event := <-l.events:
					if err := l.storage.Store(event); err != nil {
						log.Printf("audit: failed to store event: %v", err)
					}
				default:
					return
				}
			}
		}
	}
}

// Recent returns the most recently stored events, newest first.
func (l *Logger) Recent(limit int) []Event {
	return l.storage.Recent(limit)
}
