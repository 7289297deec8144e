// Package kafka publishes completed allocations to a sink topic for
// downstream consumers (the incidence store loader, notebooks).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/config"
	"github.com/euphoricking/malaria-incidence-nigeria/internal/domain"
)

// Writer produces one message per state allocation to the sink topic.
// It implements pipeline.Exporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Export publishes every state record of the allocation in a single
// WriteMessages call. Message keys are state names so per-state ordering is
// preserved across runs.
func (w *Writer) Export(ctx context.Context, alloc *domain.Allocation) error {
	if len(alloc.States) == 0 {
		return nil
	}

	msgs := make([]kafkago.Message, len(alloc.States))
	for i := range alloc.States {
		msg, err := serializeToMessage(alloc, alloc.States[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}

	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish allocation %s: %w", alloc.RunID, err)
	}
	w.logger.Info("allocation published", "run_id", alloc.RunID, "states", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// allocationMessage is the wire form of one state's allocation.
type allocationMessage struct {
	RunID             string  `json:"run_id"`
	NationalIncidence float64 `json:"national_incidence"`
	domain.StateRecord
}

// serializeToMessage marshals one state record into a Kafka message.
func serializeToMessage(alloc *domain.Allocation, state domain.StateRecord) (kafkago.Message, error) {
	data, err := json.Marshal(allocationMessage{
		RunID:             alloc.RunID,
		NationalIncidence: alloc.NationalIncidence,
		StateRecord:       state,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize allocation for %s: %w", state.State, err)
	}
	return kafkago.Message{
		Key:   []byte(state.State),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(alloc.RunID)},
			{Key: "generated_at", Value: []byte(alloc.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
