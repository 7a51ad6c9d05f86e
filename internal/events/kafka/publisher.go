package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
)

// Publisher writes ledger events as JSON. The topic is chosen per message.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a writer that flushes every message on its own.
// Publish is called once per commit and waits for the flush, so batching
// would only add latency.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			BatchSize:              1,
			BatchTimeout:           time.Millisecond,
			AllowAutoTopicCreation: true,
		},
	}
}

// Publish sends event to topic, keyed so that one identity's events share a partition.
func (p *Publisher) Publish(ctx context.Context, topic string, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx,
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: data,
		},
	)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ interfaces.EventPublisher = (*Publisher)(nil)
