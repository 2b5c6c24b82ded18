package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/segmentio/kafka-go"

	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/core/events/relay"
)

type fakeWriter struct {
	mu         sync.Mutex
	messages   []kafka.Message
	shouldFail bool
	closed     bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.shouldFail {
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

var _ = Describe("Relay", func() {
	var (
		writer *fakeWriter
		r      *relay.Relay
		logger *slog.Logger
		event  events.Event
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		writer = &fakeWriter{}
		r = relay.NewRelay(writer, relay.Config{Workers: 2, QueueSize: 4}, logger)
		event = events.NewTimesheetEntryStatusChangedEvent(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "draft", "submitted")
	})

	It("encodes events keyed by aggregate id", func() {
		msg, err := relay.Message(event)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(msg.Key)).To(Equal(event.AggregateID()))

		var body map[string]interface{}
		Expect(json.Unmarshal(msg.Value, &body)).To(Succeed())
		Expect(body["type"]).To(Equal(events.EventTypeTimesheetEntrySubmitted))
		Expect(body["id"]).To(Equal(event.EventID()))
	})

	It("delivers queued events through the worker pool", func() {
		r.Start()
		Expect(r.Handle(context.Background(), event)).To(Succeed())
		Eventually(writer.count).Should(Equal(1))
		Expect(r.Shutdown()).To(Succeed())
		Expect(writer.closed).To(BeTrue())
	})

	It("rejects events when the queue is full", func() {
		for i := 0; i < 4; i++ {
			Expect(r.Handle(context.Background(), event)).To(Succeed())
		}
		err := r.Handle(context.Background(), event)
		Expect(errors.Is(err, relay.ErrQueueFull)).To(BeTrue())
	})

	It("returns writer failures from Send", func() {
		writer.shouldFail = true
		Expect(r.Send(context.Background(), event)).To(HaveOccurred())
	})

	It("forwards bus events when subscribed to all types", func() {
		bus := events.NewEventBus(logger)
		bus.Subscribe(events.AllEvents, r.Handle)
		r.Start()

		Expect(bus.Publish(context.Background(), event)).To(Succeed())
		bus.Wait()
		Eventually(writer.count).Should(Equal(1))
		Expect(r.Shutdown()).To(Succeed())
	})
})
