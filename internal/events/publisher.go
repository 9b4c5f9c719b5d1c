package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/naramarket/naramarket-mcp/internal/config"
	"github.com/naramarket/naramarket-mcp/internal/model"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// CallPublisher emits every upstream call record as a JSON message keyed by
// call id.
type CallPublisher struct {
	w messageWriter
}

func NewCallPublisher(cfg config.KafkaConfig) *CallPublisher {
	return &CallPublisher{w: &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (p *CallPublisher) Record(ctx context.Context, rec *model.CallRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode call record: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(rec.ID.String()),
		Value: data,
		Time:  rec.CalledAt,
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish call %s: %w", rec.ID, err)
	}
	return nil
}

func (p *CallPublisher) Close() error {
	return p.w.Close()
}
