package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/core/events/relay"
	"github.com/frahmantamala/gogotime/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Manage events: publish test events through the bus and, when enabled, the Kafka relay`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long:  `Publish a test event to the event bus for testing and debugging`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(args[0])
	},
}

var (
	eventData    string
	eventToKafka bool
)

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	if eventToKafka {
		config, err := loadConfig(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		r := relay.NewRelay(relay.NewKafkaWriter(config.Kafka.BrokerList(), config.Kafka.Topic, logger), relay.Config{}, logger)
		eventBus.Subscribe(eventType, r.Send)
		defer func() {
			if err := r.Shutdown(); err != nil {
				logger.Error("failed to stop relay", "error", err)
			}
		}()
	}

	testEvent := events.NewBaseEvent(eventType, "cli", map[string]interface{}{
		"message": eventData,
		"source":  "cli-command",
	})

	logger.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	if err := eventBus.PublishSync(context.Background(), testEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	logger.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")
	publishEventCmd.Flags().BoolVar(&eventToKafka, "kafka", false, "Also forward the event through the Kafka relay")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
