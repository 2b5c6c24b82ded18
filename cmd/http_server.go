package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/gogotime/internal"
	"github.com/frahmantamala/gogotime/internal/actioncode"
	actioncodePostgres "github.com/frahmantamala/gogotime/internal/actioncode/postgres"
	"github.com/frahmantamala/gogotime/internal/auth"
	authPostgres "github.com/frahmantamala/gogotime/internal/auth/postgres"
	"github.com/frahmantamala/gogotime/internal/core/events"
	"github.com/frahmantamala/gogotime/internal/core/events/relay"
	"github.com/frahmantamala/gogotime/internal/leave"
	leavePostgres "github.com/frahmantamala/gogotime/internal/leave/postgres"
	"github.com/frahmantamala/gogotime/internal/permission"
	permissionPostgres "github.com/frahmantamala/gogotime/internal/permission/postgres"
	"github.com/frahmantamala/gogotime/internal/session"
	"github.com/frahmantamala/gogotime/internal/session/cache"
	sessionPostgres "github.com/frahmantamala/gogotime/internal/session/postgres"
	"github.com/frahmantamala/gogotime/internal/timesheet"
	timesheetPostgres "github.com/frahmantamala/gogotime/internal/timesheet/postgres"
	"github.com/frahmantamala/gogotime/internal/transport"
	"github.com/frahmantamala/gogotime/internal/transport/rest"
	"github.com/frahmantamala/gogotime/internal/user"
	userPostgres "github.com/frahmantamala/gogotime/internal/user/postgres"
	"github.com/frahmantamala/gogotime/pkg/logger"
)

const version = "1.0.0"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	EventBus *events.EventBus
	Relay    *relay.Relay
	Sessions *session.Service
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	log := deps.Logger

	purgeCtx, stopPurger := context.WithCancel(context.Background())
	go deps.Sessions.RunPurger(purgeCtx, deps.Config.Session.PurgeInterval, deps.Config.Session.Retention)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	log.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			stopPurger()
			os.Exit(1)
		}
	}

	stopPurger()
	deps.close()
	log.Info("Server stopped")
}

func (d *Dependencies) close() {
	d.EventBus.Wait()
	if d.Relay != nil {
		if err := d.Relay.Shutdown(); err != nil {
			d.Logger.Error("Event relay shutdown error", "error", err)
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Init(config.Env, logger.Options{
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
	})

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gdb,
		EventBus: events.NewEventBus(log),
		Router:   chi.NewRouter(),
		Logger:   log,
	}

	var sessionCache session.Cache
	if config.Redis.Enabled {
		client, err := cache.Connect(context.Background(), cache.Config{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to connect redis: %w", err)
		}
		deps.Redis = client
		sessionCache = cache.NewRedisCache(client)
	}

	if config.Kafka.Enabled {
		deps.Relay = startRelay(config.Kafka, deps.EventBus, log)
	}

	checks := map[string]rest.PingFunc{"database": db.PingContext}
	if deps.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() }
	}

	base := transport.NewBaseHandler(log)
	policy := auth.NewAuthorizer(auth.NewRolePermissionService(authPostgres.NewGrantRepository(db), log), log)

	sessions := session.NewService(sessionPostgres.NewSessionRepository(gdb), sessionCache, policy, config.Session.TouchInterval, log)
	deps.Sessions = sessions

	tokens := auth.NewJWTTokenGenerator(
		config.Security.JWTAccessSecret,
		config.Security.JWTRefreshSecret,
		config.Security.AccessTokenDuration,
		config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(gdb), tokens, sessions, log)

	users := user.NewService(userPostgres.NewUserRepository(gdb), sessions, policy, deps.EventBus, log)

	permissionRepo := permissionPostgres.NewPermissionRepository(gdb)
	roleRepo := permissionPostgres.NewRoleRepository(gdb)
	permissionHandler := permission.NewHandler(base,
		permission.NewService(permissionRepo, policy, log),
		permission.NewRoleService(roleRepo, policy, log),
		permission.NewGrantService(permissionPostgres.NewGrantRepository(gdb), roleRepo, permissionRepo, policy, log),
	)

	codes := actioncode.NewService(
		actioncodePostgres.NewActionCodeRepository(gdb),
		actioncodePostgres.NewCategoryRepository(gdb),
		policy, log,
	)
	leaves := leave.NewService(leavePostgres.NewLeaveRequestRepository(gdb), users, policy, deps.EventBus, log)
	timesheets := timesheet.NewService(timesheetPostgres.NewTimesheetRepository(gdb), codes, users, policy, deps.EventBus, log)

	metricsPath := ""
	if config.Observability.Metrics.Enabled {
		metricsPath = config.Observability.Metrics.Path
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Health:     rest.NewHealthHandler(checks),
		Auth:       auth.NewHandler(base, authService),
		User:       user.NewHandler(base, users),
		Permission: permissionHandler,
		Leave:      leave.NewHandler(base, leaves),
		Timesheet:  timesheet.NewHandler(base, timesheets),
		ActionCode: actioncode.NewHandler(base, codes),
		Session:    session.NewHandler(base, sessions),
	}, policy, rest.Options{
		AllowedOrigins: config.Server.Origins(),
		MetricsPath:    metricsPath,
		Version:        version,
	}, log)

	return deps, nil
}

func startRelay(cfg internal.KafkaConfig, bus *events.EventBus, log *slog.Logger) *relay.Relay {
	r := relay.NewRelay(relay.NewKafkaWriter(cfg.BrokerList(), cfg.Topic, log), relay.Config{
		Workers:   cfg.Workers,
		QueueSize: cfg.QueueSize,
	}, log)
	r.Start()
	bus.Subscribe(events.AllEvents, r.Handle)
	return r
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
}
