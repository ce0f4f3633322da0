package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// KafkaSource consumes domains from one or more topics as part of a consumer
// group. Batches close when they reach batchSize or when the time window
// elapses, whichever comes first.
type KafkaSource struct {
	reader    *kafka.Reader
	batchSize int
	window    time.Duration
}

// NewKafkaSource connects a consumer group reader over the given topics.
func NewKafkaSource(brokers []string, groupID string, topics []string, batchSize int, window time.Duration) (*KafkaSource, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers")
	}
	if len(topics) == 0 {
		return nil, errors.New("no kafka topics")
	}
	if batchSize < 1 {
		return nil, errors.Errorf("batch size %d, need at least 1", batchSize)
	}
	if window <= 0 {
		return nil, errors.Errorf("time window %v, need a positive duration", window)
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &KafkaSource{reader: reader, batchSize: batchSize, window: window}, nil
}

// ReadBatch collects messages until the batch fills or the window closes. An
// empty window yields an empty batch and a nil error so the workflow keeps
// polling.
func (s *KafkaSource) ReadBatch(ctx context.Context) ([]string, error) {
	wctx, cancel := context.WithTimeout(ctx, s.window)
	defer cancel()

	batch := make([]string, 0, s.batchSize)
	for len(batch) < s.batchSize {
		msg, err := s.reader.ReadMessage(wctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			return nil, errors.Wrap(err, "reading kafka message")
		}
		domain := strings.TrimSpace(string(msg.Value))
		if domain == "" {
			continue
		}
		batch = append(batch, domain)
	}
	return batch, nil
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

// KafkaDestination publishes enriched records to a topic, one message per
// domain.
type KafkaDestination struct {
	writer *kafka.Writer
	delim  string
}

// NewKafkaDestination connects a producer for the given topic.
func NewKafkaDestination(brokers []string, topic, delim string) (*KafkaDestination, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers")
	}
	if topic == "" {
		return nil, errors.New("no kafka topic")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaDestination{writer: writer, delim: delim}, nil
}

func (d *KafkaDestination) WriteBatch(ctx context.Context, recs []Enriched) error {
	if len(recs) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(recs))
	for i, rec := range recs {
		msgs[i] = kafka.Message{
			Key:   []byte(rec.Domain),
			Value: []byte(rec.Line(d.delim)),
		}
	}
	return errors.Wrap(d.writer.WriteMessages(ctx, msgs...), "publishing kafka batch")
}

func (d *KafkaDestination) Close() error {
	return d.writer.Close()
}
