// Package events publishes entry lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"example.com/carbonbuddy/internal/domain"
)

// EntryLogged is the payload of an entry.logged event.
type EntryLogged struct {
	EntryID     string    `json:"entry_id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	City        string    `json:"city,omitempty"`
	EmissionsKg float64   `json:"emissions_kg"`
	CreatedAt   time.Time `json:"created_at"`
}

// KafkaPublisher writes entry events to a single topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Compression:  kafka.Snappy,
			Async:        false,
		},
	}
}

// PublishEntryLogged implements domain.EntryPublisher. Messages are keyed by
// user so one user's entries stay ordered within a partition.
func (p *KafkaPublisher) PublishEntryLogged(ctx context.Context, entry domain.ActivityEntry) error {
	payload, err := json.Marshal(EntryLogged{
		EntryID:     entry.ID,
		UserID:      entry.UserID,
		Date:        entry.Date,
		Category:    entry.Category,
		Subcategory: entry.Subcategory,
		City:        entry.City,
		EmissionsKg: entry.EmissionsKg,
		CreatedAt:   entry.CreatedAt,
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(entry.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("entry.logged")},
		},
	})
}

// Close releases the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
