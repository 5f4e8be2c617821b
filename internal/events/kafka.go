// Package events contains the out-of-process observers registered on the
// hook dispatcher: a Kafka lifecycle publisher and an Elasticsearch audit
// indexer. Both are best-effort; failures are logged, never propagated.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/super-skeleton/auth-service/internal/hooks"
	"github.com/super-skeleton/auth-service/internal/logging"
)

// lifecycleRecord is the wire shape published per event. One-time secrets
// (verification/reset tokens) are deliberately not forwarded to the broker.
type lifecycleRecord struct {
	Event     string    `json:"event"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Method    string    `json:"method,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Observe registers the publisher for every lifecycle event.
func (p *KafkaPublisher) Observe(d *hooks.Dispatcher) {
	for _, e := range []hooks.Event{
		hooks.EventUserRegistered,
		hooks.EventUserLoggedIn,
		hooks.EventPasswordResetRequested,
		hooks.EventPasswordResetCompleted,
		hooks.EventVerificationResent,
		hooks.EventUserLoggedOut,
	} {
		e := e
		d.On(e, func(ctx context.Context, payload hooks.Payload) {
			p.publish(ctx, e, payload)
		})
	}
}

func (p *KafkaPublisher) publish(ctx context.Context, e hooks.Event, payload hooks.Payload) {
	rec := lifecycleRecord{
		Event:     string(e),
		Method:    payload.Method,
		Timestamp: time.Now().UTC(),
	}
	if payload.User != nil {
		rec.UserID = payload.User.ID
		rec.Email = payload.User.Email
	} else {
		rec.UserID = payload.UserID
	}

	data, err := json.Marshal(rec)
	if err != nil {
		logging.FromContext(ctx).Error("kafka_marshal_failed", "event", string(e), "error", err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := kafka.Message{Key: []byte(rec.UserID), Value: data}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "event", string(e), "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
