package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/gogotime/internal/auth"
	authPostgres "github.com/frahmantamala/gogotime/internal/auth/postgres"
	"github.com/frahmantamala/gogotime/internal/session"
	sessionPostgres "github.com/frahmantamala/gogotime/internal/session/postgres"
	"github.com/frahmantamala/gogotime/pkg/logger"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers such as the session purger and the event consumer.`,
}

var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Start expired session purger",
	Long:  `Periodically delete sessions that expired or were revoked longer ago than the retention window`,
	Run: func(cmd *cobra.Command, args []string) {
		startSessionWorker()
	},
}

// Event consumer command
var eventWorkerCmd = &cobra.Command{
	Use:   "events",
	Short: "Start event consumer",
	Long:  `Consume domain events relayed to Kafka and log them`,
	Run: func(cmd *cobra.Command, args []string) {
		startEventWorker()
	},
}

var (
	purgeInterval time.Duration
	retention     time.Duration
	consumerGroup string
)

func startSessionWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(config.Env, logger.Options{
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
	})

	sqlDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init db: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	db, err := initGorm(sqlDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init gorm: %v\n", err)
		os.Exit(1)
	}

	policy := auth.NewAuthorizer(auth.NewRolePermissionService(authPostgres.NewGrantRepository(sqlDB), log), log)
	sessions := session.NewService(sessionPostgres.NewSessionRepository(db), nil, policy, config.Session.TouchInterval, log)

	interval := getDurationFlag(purgeInterval, config.Session.PurgeInterval)
	keep := getDurationFlag(retention, config.Session.Retention)

	log.Info("starting session purger", "interval", interval, "retention", keep)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions.RunPurger(ctx, interval, keep)
	log.Info("session purger shutdown complete")
}

func startEventWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(config.Env, logger.Options{
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
	})

	if !config.Kafka.Enabled {
		log.Warn("kafka is disabled; nothing to consume")
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: config.Kafka.BrokerList(),
		Topic:   config.Kafka.Topic,
		GroupID: consumerGroup,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("event consumer started. Waiting for events...", "topic", config.Kafka.Topic, "group", consumerGroup)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			log.Error("failed to read event", "error", err)
			continue
		}
		log.Info("received event",
			"key", string(msg.Key),
			"partition", msg.Partition,
			"offset", msg.Offset,
			"payload", string(msg.Value))
	}

	log.Info("event consumer shutdown complete")
}

func getDurationFlag(flagValue, configValue time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	sessionWorkerCmd.Flags().DurationVar(&purgeInterval, "interval", 0, "Purge interval (overrides config)")
	sessionWorkerCmd.Flags().DurationVar(&retention, "retention", 0, "How long dead sessions are kept (overrides config)")
	eventWorkerCmd.Flags().StringVar(&consumerGroup, "group", "gogotime-events", "Kafka consumer group")

	workerCmd.AddCommand(sessionWorkerCmd)
	workerCmd.AddCommand(eventWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
