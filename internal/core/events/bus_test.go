package events_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/gogotime/internal/core/events"
)

var _ = Describe("EventBus", func() {
	var (
		bus    *events.EventBus
		logger *slog.Logger
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		bus = events.NewEventBus(logger)
	})

	It("delivers to typed and wildcard subscribers", func() {
		var typed, all int32
		bus.Subscribe(events.EventTypeLeaveRequestApproved, func(context.Context, events.Event) error {
			atomic.AddInt32(&typed, 1)
			return nil
		})
		bus.Subscribe(events.AllEvents, func(context.Context, events.Event) error {
			atomic.AddInt32(&all, 1)
			return nil
		})

		ev := events.NewLeaveRequestDecidedEvent(uuid.New(), uuid.New(), uuid.New(), uuid.New(), "approved")
		Expect(ev.EventType()).To(Equal(events.EventTypeLeaveRequestApproved))
		Expect(bus.Publish(context.Background(), ev)).To(Succeed())
		bus.Wait()

		Expect(atomic.LoadInt32(&typed)).To(Equal(int32(1)))
		Expect(atomic.LoadInt32(&all)).To(Equal(int32(1)))
	})

	It("returns handler errors from PublishSync", func() {
		bus.Subscribe(events.EventTypeUserAnonymized, func(context.Context, events.Event) error {
			return errors.New("boom")
		})
		err := bus.PublishSync(context.Background(), events.NewUserAnonymizedEvent(uuid.New(), uuid.New(), uuid.New()))
		Expect(err).To(HaveOccurred())
	})

	It("issues increasing event ids", func() {
		a := events.NewEventID()
		b := events.NewEventID()
		Expect(a).To(HaveLen(26))
		Expect(b > a).To(BeTrue())
	})
})
