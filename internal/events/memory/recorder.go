package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/shared-wallet-ledger/internal/interfaces"
	"go.uber.org/zap"
)

// Record is one published event.
type Record struct {
	Topic string
	Key   string
	Event any
}

// Recorder keeps every published event in order and logs it. It is used
// when no broker is configured.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	logger  *zap.Logger
}

func NewRecorder(logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{logger: logger}
}

func (r *Recorder) Publish(ctx context.Context, topic string, key string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, Record{Topic: topic, Key: key, Event: event})
	r.logger.Debug("event recorded", zap.String("topic", topic), zap.String("key", key), zap.Any("event", event))
	return nil
}

// Records returns a copy of everything published so far.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := make([]Record, len(r.records))
	copy(copied, r.records)
	return copied
}

var _ interfaces.EventPublisher = (*Recorder)(nil)
