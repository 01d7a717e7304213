package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// ProducerConfig is read from the environment with a KAFKA_ prefix. An
// empty broker list disables publishing.
type ProducerConfig struct {
	Brokers      []string      `env:"BROKERS" envSeparator:","`
	BatchSize    int           `env:"BATCH_SIZE" envDefault:"10"`
	Linger       time.Duration `env:"LINGER" envDefault:"10ms"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"5s"`
	Compression  string        `env:"COMPRESSION" envDefault:"snappy"`
}

var codecs = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// codec returns the writer compression. "none" and "" disable it.
func (c ProducerConfig) codec() (kafka.Compression, error) {
	name := strings.ToLower(c.Compression)
	if name == "" || name == "none" {
		return 0, nil
	}
	if codec, ok := codecs[name]; ok {
		return codec, nil
	}
	return 0, fmt.Errorf("kafka: unknown compression %q", c.Compression)
}

// Validate reports a configuration the writer cannot run with.
func (c ProducerConfig) Validate() error {
	_, err := c.codec()
	return err
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes events synchronously: Publish returns once the brokers
// acknowledged the message or the write failed.
type Producer struct {
	writer  messageWriter
	brokers []string
	logger  *slog.Logger
}

func NewProducer(cfg ProducerConfig, logger *slog.Logger) (*Producer, error) {
	codec, err := cfg.codec()
	if err != nil {
		return nil, err
	}
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.Linger,
		WriteTimeout:           cfg.WriteTimeout,
		Compression:            codec,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newProducerWithWriter(w, cfg.Brokers, logger), nil
}

func newProducerWithWriter(w messageWriter, brokers []string, logger *slog.Logger) *Producer {
	return &Producer{writer: w, brokers: brokers, logger: logger}
}

// Publish writes event to topic keyed by event.Key, so events about the same
// entity stay ordered. The trace context of ctx is injected into the headers.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	msg, err := encode(ctx, topic, event)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	writeSeconds.WithLabelValues(topic).Observe(time.Since(start).Seconds())

	log := p.logger.With(slog.String("topic", topic), slog.String("event_id", event.ID))
	if err != nil {
		writesTotal.WithLabelValues(topic, resultError).Inc()
		log.ErrorContext(ctx, "event write failed", slog.String("error", err.Error()))
		return fmt.Errorf("write to %s: %w", topic, err)
	}
	writesTotal.WithLabelValues(topic, resultOK).Inc()
	log.DebugContext(ctx, "event written", slog.String("key", event.Key))
	return nil
}

func encode(ctx context.Context, topic string, event *Event) (kafka.Message, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	headers := event.headers()
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: &headers})
	return kafka.Message{Topic: topic, Key: []byte(event.Key), Value: body, Headers: headers}, nil
}

// Ping succeeds when any broker answers a metadata request.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}
	errs := make([]error, 0, len(p.brokers))
	for _, addr := range p.brokers {
		if err := probe(ctx, addr); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
			continue
		}
		return nil
	}
	return fmt.Errorf("kafka ping: %w", errors.Join(errs...))
}

func probe(ctx context.Context, addr string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Brokers()
	return err
}

// Close flushes buffered messages.
func (p *Producer) Close() error {
	return p.writer.Close()
}
