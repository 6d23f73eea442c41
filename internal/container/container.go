// Package container - Composition Root приложения.
//
// Container создаёт зависимости в порядке logger → tracing → database →
// registry → repository → HTTP и закрывает их в обратном порядке.
package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	apphttp "github.com/Haleralex/gincore/internal/adapters/http"
	"github.com/Haleralex/gincore/internal/adapters/http/handlers"
	"github.com/Haleralex/gincore/internal/adapters/http/middleware"
	"github.com/Haleralex/gincore/internal/application/ports"
	"github.com/Haleralex/gincore/internal/config"
	"github.com/Haleralex/gincore/internal/guard"
	"github.com/Haleralex/gincore/internal/infrastructure/persistence/memory"
	"github.com/Haleralex/gincore/internal/infrastructure/persistence/postgres"
	"github.com/Haleralex/gincore/internal/pkg/logger"
	"github.com/Haleralex/gincore/internal/pkg/tracing"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Container - DI контейнер приложения.
type Container struct {
	config *config.Config
	logger *slog.Logger

	// Infrastructure
	pool             *pgxpool.Pool
	redis            *redis.Client
	tracingShutdown  tracing.ShutdownFunc
	registry         guard.Registry
	dummyRepo        ports.DummyRepository
	readinessPingers map[string]handlers.Pinger

	// HTTP
	httpServer *apphttp.Server
}

// New создаёт контейнер; зависимости создаёт Initialize.
func New(cfg *config.Config) *Container {
	return &Container{
		config: cfg,
	}
}

// Initialize инициализирует все зависимости.
func (c *Container) Initialize(ctx context.Context) error {
	if c.logger == nil {
		c.logger = c.initLogger()
	}
	c.logger.Info("Initializing application container...")

	if err := c.initTracing(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := c.initRegistry(ctx); err != nil {
		return fmt.Errorf("failed to initialize guard registry: %w", err)
	}

	c.initRepositories()

	if err := c.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	c.logger.Info("Container initialization complete")
	return nil
}

// initLogger - slog с request/trace id, становится логгером по умолчанию.
func (c *Container) initLogger() *slog.Logger {
	return logger.Setup(&logger.Config{
		Level:     c.config.Log.Level,
		Format:    c.config.Log.Format,
		AddSource: c.config.App.Debug,
	})
}

func (c *Container) initTracing(ctx context.Context) error {
	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     c.config.Tracing.Enabled,
		ServiceName: c.config.App.Name,
		Version:     c.config.App.Version,
		Endpoint:    c.config.Tracing.Endpoint,
		Insecure:    c.config.Tracing.Insecure,
		SampleRatio: c.config.Tracing.SampleRatio,
	})
	if err != nil {
		return err
	}
	c.tracingShutdown = shutdown
	if c.config.Tracing.Enabled {
		c.logger.Info("Tracing enabled", slog.String("endpoint", c.config.Tracing.Endpoint))
	}
	return nil
}

// initDatabase подключает PostgreSQL, если он включён.
func (c *Container) initDatabase(ctx context.Context) error {
	if !c.config.Database.Enabled || c.pool != nil {
		return nil
	}

	pool, err := postgres.NewConnectionPool(ctx, postgres.ConfigFrom(c.config.Database))
	if err != nil {
		return err
	}
	c.pool = pool
	c.logger.Info("Database connected", slog.String("host", c.config.Database.Host))
	return nil
}

// initRegistry выбирает in-memory или Redis registry для guard'а.
func (c *Container) initRegistry(ctx context.Context) error {
	if c.registry != nil {
		return nil
	}

	switch c.config.Guard.Backend {
	case config.GuardBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:        c.config.Redis.Address,
			Password:    c.config.Redis.Password,
			DB:          c.config.Redis.DB,
			PoolSize:    c.config.Redis.PoolSize,
			DialTimeout: c.config.Redis.DialTimeout,
		})
		registry := guard.NewRedisRegistry(client, c.config.Guard.KeyPrefix)
		if err := registry.Ping(ctx); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis %s: %w", c.config.Redis.Address, err)
		}
		c.redis = client
		c.registry = registry
		c.readiness()["redis"] = registry
		c.logger.Info("Guard registry: redis", slog.String("address", c.config.Redis.Address))
	default:
		c.registry = guard.NewMemoryRegistry()
		c.logger.Info("Guard registry: memory")
	}
	return nil
}

func (c *Container) readiness() map[string]handlers.Pinger {
	if c.readinessPingers == nil {
		c.readinessPingers = make(map[string]handlers.Pinger)
	}
	return c.readinessPingers
}

// initRepositories - postgres при наличии пула, иначе in-memory.
func (c *Container) initRepositories() {
	if c.dummyRepo != nil {
		return
	}
	if c.pool != nil {
		c.dummyRepo = postgres.NewDummyRepository(c.pool)
		return
	}
	c.dummyRepo = memory.NewDummyRepository()
}

// RouterConfig собирает конфигурацию роутера из конфигурации приложения.
func (c *Container) RouterConfig() *apphttp.RouterConfig {
	serviceName := ""
	if c.config.Tracing.Enabled {
		serviceName = c.config.App.Name
	}
	return &apphttp.RouterConfig{
		Logger:      c.logger,
		Pool:        c.pool,
		Version:     c.config.App.Version,
		BuildTime:   c.config.App.BuildTime,
		Environment: c.config.App.Environment,
		CORS:        c.config.CORS,
		LogFormat:   c.config.Log.RequestFormat,
		ServiceName: serviceName,
		Guard:       c.config.Guard,
		Registry:    c.registry,
		Readiness:   c.readinessPingers,
	}
}

// initHTTPServer инициализирует HTTP сервер.
func (c *Container) initHTTPServer() error {
	router, err := apphttp.NewRouter(c.RouterConfig(), c.dummyRepo)
	if err != nil {
		return err
	}

	server, err := apphttp.NewServer(&apphttp.ServerConfig{
		Host:            c.config.Server.Host,
		Port:            strconv.Itoa(c.config.Server.Port),
		ReadTimeout:     c.config.Server.ReadTimeout,
		WriteTimeout:    c.config.Server.WriteTimeout,
		IdleTimeout:     c.config.Server.IdleTimeout,
		ShutdownTimeout: c.config.Server.ShutdownTimeout,
		Compression: &middleware.CompressionConfig{
			Enabled: c.config.Compression.Enabled,
			MinSize: c.config.Compression.MinSize,
			Level:   c.config.Compression.Level,
		},
		Logger: c.logger,
	}, router)
	if err != nil {
		return err
	}
	c.httpServer = server
	return nil
}

// Config возвращает конфигурацию.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger возвращает логгер.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}

// Pool возвращает пул соединений к БД (nil, если БД выключена).
func (c *Container) Pool() *pgxpool.Pool {
	return c.pool
}

// Registry возвращает registry guard'а.
func (c *Container) Registry() guard.Registry {
	return c.registry
}

// DummyRepository возвращает репозиторий Dummy.
func (c *Container) DummyRepository() ports.DummyRepository {
	return c.dummyRepo
}

// HTTPServer возвращает HTTP сервер.
func (c *Container) HTTPServer() *apphttp.Server {
	return c.httpServer
}

// Shutdown выполняет graceful shutdown всех компонентов.
func (c *Container) Shutdown(ctx context.Context) error {
	log := c.logger
	if log == nil {
		log = slog.Default()
	}
	log.Info("Shutting down container...")

	var errs []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.pool != nil {
		done := make(chan struct{})
		go func() {
			c.pool.Close()
			close(done)
		}()

		select {
		case <-done:
			log.Info("Database connection closed")
		case <-ctx.Done():
			log.Warn("Database close timeout")
		}
	}

	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown errors: %w", err)
	}

	log.Info("Container shutdown complete")
	return nil
}

// Run запускает HTTP сервер до сигнала завершения.
func (c *Container) Run() error {
	c.logger.Info("Starting gincore API server",
		slog.String("version", c.config.App.Version),
		slog.String("environment", c.config.App.Environment),
		slog.String("address", c.config.Server.Address()),
		slog.String("guard_backend", c.config.Guard.Backend),
	)
	return c.httpServer.Run()
}

// ContainerBuilder - builder для контейнера с подменёнными компонентами.
type ContainerBuilder struct {
	cfg      *config.Config
	logger   *slog.Logger
	pool     *pgxpool.Pool
	registry guard.Registry
	repo     ports.DummyRepository
}

// NewBuilder создаёт новый builder.
func NewBuilder(cfg *config.Config) *ContainerBuilder {
	return &ContainerBuilder{cfg: cfg}
}

// WithLogger устанавливает кастомный логгер.
func (b *ContainerBuilder) WithLogger(logger *slog.Logger) *ContainerBuilder {
	b.logger = logger
	return b
}

// WithPool устанавливает готовый пул соединений.
func (b *ContainerBuilder) WithPool(pool *pgxpool.Pool) *ContainerBuilder {
	b.pool = pool
	return b
}

// WithRegistry устанавливает готовый registry guard'а.
func (b *ContainerBuilder) WithRegistry(registry guard.Registry) *ContainerBuilder {
	b.registry = registry
	return b
}

// WithDummyRepository устанавливает репозиторий.
func (b *ContainerBuilder) WithDummyRepository(repo ports.DummyRepository) *ContainerBuilder {
	b.repo = repo
	return b
}

// Build создаёт и инициализирует контейнер.
func (b *ContainerBuilder) Build(ctx context.Context) (*Container, error) {
	c := New(b.cfg)
	c.logger = b.logger
	c.pool = b.pool
	c.registry = b.registry
	c.dummyRepo = b.repo

	if err := c.Initialize(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
