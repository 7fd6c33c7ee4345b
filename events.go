package goAuthClient

import (
	"context"
	"time"

	"github.com/MrEthical07/goAuthClient/internal/events"
)

// Event is a session lifecycle record delivered to an [EventSink].
type Event = events.Event

// EventSink receives events from the Manager's background dispatcher.
type EventSink = events.Sink

type (
	NoOpSink       = events.NoOpSink
	ChannelSink    = events.ChannelSink
	JSONWriterSink = events.JSONWriterSink
)

var (
	NewChannelSink    = events.NewChannelSink
	NewJSONWriterSink = events.NewJSONWriterSink
)

const (
	EventSessionRestored    = "session.restored"
	EventSessionLogin       = "session.login"
	EventSessionRegister    = "session.register"
	EventSessionLogout      = "session.logout"
	EventSessionInvalidated = "session.invalidated"
	EventStorageWarning     = "storage.warning"
)

func (m *Manager) emit(ctx context.Context, eventType string, success bool, userID string, err error, metadata func() map[string]string) {
	if m == nil || m.events == nil {
		return
	}

	ev := Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	if metadata != nil {
		ev.Metadata = metadata()
	}
	m.events.Emit(ctx, ev)
}
