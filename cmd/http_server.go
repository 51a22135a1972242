package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/attachment"
	attachmentPostgres "github.com/frahmantamala/taktplan/internal/attachment/postgres"
	"github.com/frahmantamala/taktplan/internal/auth"
	authPostgres "github.com/frahmantamala/taktplan/internal/auth/postgres"
	"github.com/frahmantamala/taktplan/internal/task"
	taskPostgres "github.com/frahmantamala/taktplan/internal/task/postgres"
	"github.com/frahmantamala/taktplan/internal/telemetry"
	"github.com/frahmantamala/taktplan/internal/transport/middleware"
	"github.com/frahmantamala/taktplan/internal/transport/rest"
	"github.com/frahmantamala/taktplan/internal/transport/swagger"
	"github.com/frahmantamala/taktplan/internal/user"
	userPostgres "github.com/frahmantamala/taktplan/internal/user/postgres"
	"github.com/frahmantamala/taktplan/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/go-redis/redis/v8"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := startHTTPServer(); err != nil {
			fmt.Fprintf(os.Stderr, "server: %v\n", err)
			os.Exit(1)
		}
	},
}

type Dependencies struct {
	Config         *internal.Config
	DB             *sqlx.DB
	Gorm           *gorm.DB
	Redis          *redis.Client
	Router         *chi.Mux
	Logger         *slog.Logger
	ShutdownTracer telemetry.ShutdownFunc
}

func startHTTPServer() error {
	deps, err := initializeDependencies()
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.close()

	if err := setupRoutes(deps); err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed to start: %w", err)
		}
	}

	deps.Logger.Info("Server stopped")
	return nil
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	if _, err := swagger.Load(context.Background()); err != nil {
		return err
	}

	policy := auth.NewAccessPolicy()

	var revocations auth.RevocationStore = auth.NewMemoryRevocationStore()
	if deps.Redis != nil {
		revocations = auth.NewRedisRevocationStore(deps.Redis, "")
	}

	authService := auth.NewService(
		authPostgres.NewRepository(deps.Gorm),
		auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration),
		revocations,
		cfg.Security.BCryptCost,
		lg,
	)
	taskService := task.NewService(taskPostgres.NewTaskRepository(deps.Gorm), policy, lg)
	userService := user.NewService(userPostgres.NewUserRepository(deps.Gorm), policy, lg)
	attachmentService := attachment.NewService(
		attachmentPostgres.NewAttachmentRepository(deps.Gorm),
		taskService,
		attachment.NewLocalStorage(cfg.Storage.UploadDir),
		cfg.Storage.MaxUploadBytes,
		lg,
	)

	components := map[string]rest.Pinger{"postgres": deps.DB}
	if deps.Redis != nil {
		components["redis"] = rest.PingFunc(func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		})
	}

	tracingService := ""
	if cfg.Observability.Tracing.Enabled {
		tracingService = cfg.Observability.Tracing.ServiceName
	}

	rest.RegisterAllRoutes(deps.Router, rest.Handlers{
		Auth:         auth.NewHandler(authService, lg),
		Tasks:        task.NewHandler(taskService, lg),
		Users:        user.NewHandler(userService, lg),
		Attachments:  attachment.NewHandler(attachmentService, lg),
		Health:       rest.NewHealthHandler(components),
		RBAC:         auth.NewRBACAuthorization(policy, lg),
		LoginLimiter: middleware.NewIPRateLimiter(cfg.Security.LoginRatePerMinute),
	}, rest.Options{
		AllowedOrigins: cfg.Server.Origins(),
		TracingService: tracingService,
	}, lg)
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	lg := logger.Setup(logger.Options{
		Env:    appEnv(),
		Level:  config.Observability.Logging.Level,
		Format: config.Observability.Logging.Format,
		File:   config.Observability.Logging.File,
	})

	shutdownTracer, err := telemetry.InitTracer(context.Background(), config.Observability.Tracing, appEnv(), lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	deps := &Dependencies{
		Config:         config,
		DB:             db,
		Gorm:           gormDB,
		Router:         chi.NewRouter(),
		Logger:         lg,
		ShutdownTracer: shutdownTracer,
	}

	if config.Redis.Enabled {
		client, err := initRedis(config.Redis)
		if err != nil {
			deps.close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		deps.Redis = client
	}

	return deps, nil
}

func (d *Dependencies) close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("Database close error", "error", err)
	}
	if d.ShutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.ShutdownTracer(ctx); err != nil {
			d.Logger.Error("Tracer shutdown error", "error", err)
		}
	}
}

// initDB opens the pgx-backed pool shared by gorm, the health check and the seeder.
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

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
	})
}

func initRedis(cfg internal.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
