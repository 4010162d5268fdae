package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/udisondev/synesthesia/internal/config"
	"github.com/udisondev/synesthesia/internal/model"
)

// writeTimeout bounds a single WriteMessages call.
const writeTimeout = 2 * time.Second

// ErrEventFields is returned for an event missing required fields.
var ErrEventFields = errors.New("event missing required fields")

// MessageWriter is the subset of *kafka.Writer used by Publisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher sends events for one spawner session.
// Callbacks run on the spawner thread; with an async writer they never block it.
type Publisher struct {
	writer    MessageWriter
	source    string
	sessionID string

	lastTotal int
}

// NewWriter builds an async kafka writer for cfg. Delivery errors are logged.
func NewWriter(cfg config.Analytics) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(msgs []kafka.Message, err error) {
			if err != nil {
				slog.Warn("analytics delivery failed", "messages", len(msgs), "topic", cfg.Topic, "error", err)
			}
		},
	}
}

// NewPublisher creates a publisher with a fresh session ID.
func NewPublisher(w MessageWriter, source string) *Publisher {
	return &Publisher{
		writer:    w,
		source:    source,
		sessionID: uuid.NewString(),
	}
}

// SessionID returns the session ID stamped on every event.
func (p *Publisher) SessionID() string {
	return p.sessionID
}

// Publish marshals the event and writes it keyed by session ID.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.EventID == "" || event.EventType == "" || event.SessionID == "" {
		return fmt.Errorf("%w: event_id=%q, event_type=%q, session_id=%q",
			ErrEventFields, event.EventID, event.EventType, event.SessionID)
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: msg,
	}); err != nil {
		return fmt.Errorf("writing %s: %w", event.EventType, err)
	}
	return nil
}

// SessionStarted publishes the session start. Errors are logged.
func (p *Publisher) SessionStarted(payload SessionStarted) {
	p.emit(EventSessionStarted, payload)
}

// LocationsExtended is a sequence OnExtended callback. It publishes the
// locations added since the previous call.
func (p *Publisher) LocationsExtended(locations []model.Vector) {
	added := len(locations) - p.lastTotal
	if added <= 0 {
		p.lastTotal = len(locations)
		return
	}
	payload := LocationsExtended{
		Total:     len(locations),
		Added:     added,
		Locations: slices.Clone(locations[p.lastTotal:]),
	}
	p.lastTotal = len(locations)
	p.emit(EventLocationsExtended, payload)
}

func (p *Publisher) emit(eventType string, payload any) {
	event := NewEvent(eventType, p.source, p.sessionID, payload)
	if err := p.Publish(context.Background(), event); err != nil {
		slog.Warn("analytics publish failed", "event", eventType, "error", err)
	}
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("closing analytics writer: %w", err)
	}
	return nil
}
