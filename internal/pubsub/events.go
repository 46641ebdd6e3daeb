// Package pubsub fans loader and watcher events out to subscribers.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	LoadedEvent  EventType = "loaded"  // a model was loaded and registered
	ChangedEvent EventType = "changed" // model text changed on disk
	ClearedEvent EventType = "cleared" // a loader dropped its models
	LogEvent     EventType = "log"     // a formatted log line
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
