package transfer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models"
	"github.com/sheikh-saqib/shared-wallet-ledger/internal/models/events"
	"github.com/shopspring/decimal"
)

const TopicPayouts = "ledger.payouts"

// KafkaTransferer hands payouts to a downstream payout system over Kafka.
// WriteMessages blocks until every in-sync replica has the message, so a
// nil error means the request is durable.
type KafkaTransferer struct {
	writer *kafka.Writer
	now    func() time.Time
}

func NewKafkaTransferer(brokers []string) *KafkaTransferer {
	return &KafkaTransferer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        TopicPayouts,
			Balancer:     &kafka.Hash{},
			BatchSize:    1,
			BatchTimeout: time.Millisecond,
			RequiredAcks: kafka.RequireAll,
		},
		now: time.Now,
	}
}

func (k *KafkaTransferer) Release(ctx context.Context, to models.Identity, amount decimal.Decimal) error {
	data, err := json.Marshal(events.PayoutRequested{
		ID:          uuid.New().String(),
		To:          to.String(),
		Amount:      amount,
		RequestedAt: k.now().UTC(),
	})
	if err != nil {
		return err
	}

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(to.String()),
		Value: data,
	})
}

func (k *KafkaTransferer) Close() error {
	return k.writer.Close()
}

var _ interfaces.Transferer = (*KafkaTransferer)(nil)
