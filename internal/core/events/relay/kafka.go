package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/frahmantamala/gogotime/internal/core/events"
)

var ErrQueueFull = errors.New("event relay queue is full")

// MessageWriter is the subset of *kafka.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewKafkaWriter(brokers []string, topic string, logger *slog.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error("kafka writer error", "detail", fmt.Sprintf(msg, args...))
		}),
	}
}

type Config struct {
	Workers      int
	QueueSize    int
	WriteTimeout time.Duration
}

type envelope struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	AggregateID string      `json:"aggregate_id"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Data        interface{} `json:"data"`
}

// Relay forwards bus events to a Kafka topic from a bounded worker pool.
// Events are keyed by aggregate id so one record's events stay ordered
// within a partition.
type Relay struct {
	writer       MessageWriter
	logger       *slog.Logger
	jobs         chan events.Event
	workers      int
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
	stop   sync.Once
}

func NewRelay(writer MessageWriter, cfg Config, logger *slog.Logger) *Relay {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Relay{
		writer:       writer,
		logger:       logger,
		jobs:         make(chan events.Event, cfg.QueueSize),
		workers:      cfg.Workers,
		writeTimeout: cfg.WriteTimeout,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (r *Relay) Start() {
	r.once.Do(func() {
		for i := 0; i < r.workers; i++ {
			r.wg.Add(1)
			go r.work(i)
		}
		r.logger.Info("event relay worker pool started",
			"workers", r.workers,
			"queue_size", cap(r.jobs))
	})
}

func (r *Relay) work(id int) {
	defer r.wg.Done()
	for {
		select {
		case event, ok := <-r.jobs:
			if !ok {
				return
			}
			if err := r.Send(r.ctx, event); err != nil {
				r.logger.Error("failed to relay event",
					"worker_id", id,
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		case <-r.ctx.Done():
			r.logger.Debug("relay worker shutting down", "worker_id", id)
			return
		}
	}
}

// Handle is an events.Handler; it enqueues without blocking the publisher.
func (r *Relay) Handle(_ context.Context, event events.Event) error {
	select {
	case r.jobs <- event:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s", ErrQueueFull, event.EventID())
	}
}

// Send writes one event synchronously.
func (r *Relay) Send(ctx context.Context, event events.Event) error {
	msg, err := Message(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, r.writeTimeout)
	defer cancel()
	if err := r.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write event %s: %w", event.EventID(), err)
	}
	r.logger.Debug("event relayed", "event_type", event.EventType(), "event_id", event.EventID())
	return nil
}

func (r *Relay) Shutdown() error {
	var err error
	r.stop.Do(func() {
		r.cancel()
		r.wg.Wait()
		err = r.writer.Close()
		r.logger.Info("event relay stopped")
	})
	return err
}

func Message(event events.Event) (kafka.Message, error) {
	body, err := json.Marshal(envelope{
		ID:          event.EventID(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		OccurredAt:  event.OccurredAt(),
		Data:        event.Payload(),
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode event %s: %w", event.EventID(), err)
	}
	return kafka.Message{
		Key:   []byte(event.AggregateID()),
		Value: body,
		Time:  event.OccurredAt(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType())},
			{Key: "event_id", Value: []byte(event.EventID())},
		},
	}, nil
}
