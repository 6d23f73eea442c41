// Package http - Router configuration for REST API.
//
// Router собирает handlers и middleware в единую точку входа.
// Порядок глобальных middleware важен: ErrorHandler первым (ловит паники
// всех остальных), затем request id, трейсинг, CORS, лог, метрики и карты
// параметров. Guard подключается на конкретных маршрутах.
package http

import (
	_ "embed"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Haleralex/gincore/internal/adapters/http/handlers"
	"github.com/Haleralex/gincore/internal/adapters/http/middleware"
	"github.com/Haleralex/gincore/internal/adapters/http/problem"
	"github.com/Haleralex/gincore/internal/adapters/http/swagger"
	"github.com/Haleralex/gincore/internal/application/ports"
	"github.com/Haleralex/gincore/internal/config"
	"github.com/Haleralex/gincore/internal/guard"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

//go:embed openapi.yaml
var openAPIDocument []byte

const (
	// APIPrefix - префикс версии API.
	APIPrefix = "/api/v1"
	// DummiesPath - базовый путь демонстрационного ресурса.
	DummiesPath = APIPrefix + "/dummies"
	// OpenAPIPath - где отдаётся документ.
	OpenAPIPath = "/swagger/openapi.json"
)

// RouterConfig - конфигурация роутера.
type RouterConfig struct {
	Logger *slog.Logger
	// Pool - для health checks, может быть nil
	Pool      *pgxpool.Pool
	Version   string
	BuildTime string
	// Environment (development, staging, production)
	Environment string
	CORS        config.CORSConfig
	// LogFormat - middleware.LogFormatStructured или LogFormatText
	LogFormat string
	// ServiceName - имя сервиса для otelgin; пустое - трейсинг выключен
	ServiceName string
	Guard       config.GuardConfig
	// Registry общий для всех guard'ов роутера
	Registry guard.Registry
	// Readiness - дополнительные зависимости для /ready (redis и т.п.)
	Readiness map[string]handlers.Pinger
}

// DefaultRouterConfig - конфигурация по умолчанию для development.
func DefaultRouterConfig() *RouterConfig {
	cfg := config.Development()
	return &RouterConfig{
		Logger:      slog.Default(),
		Version:     "dev",
		BuildTime:   "unknown",
		Environment: "development",
		CORS:        cfg.CORS,
		LogFormat:   middleware.LogFormatStructured,
		Guard:       cfg.Guard,
		Registry:    guard.NewMemoryRegistry(),
	}
}

// RouterBuilder - builder для создания роутера.
type RouterBuilder struct {
	config     *RouterConfig
	dummies    ports.DummyRepository
	parameters *swagger.Registry
}

// NewRouterBuilder создаёт новый builder.
func NewRouterBuilder(config *RouterConfig) *RouterBuilder {
	if config == nil {
		config = DefaultRouterConfig()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Registry == nil {
		config.Registry = guard.NewMemoryRegistry()
	}
	return &RouterBuilder{
		config:     config,
		parameters: swagger.NewRegistry(),
	}
}

// WithDummies подключает ресурс /dummies.
func (b *RouterBuilder) WithDummies(repo ports.DummyRepository) *RouterBuilder {
	b.dummies = repo
	return b
}

// WithParameterMaps регистрирует карты служебных параметров.
func (b *RouterBuilder) WithParameterMaps(maps ...*swagger.ParameterMap) *RouterBuilder {
	b.parameters.Register(maps...)
	return b
}

// HeaderGuard - guard по заголовку из конфигурации.
func (b *RouterBuilder) HeaderGuard() gin.HandlerFunc {
	return guard.New(b.guardConfig(guard.HeaderExtractor{Header: b.config.Guard.HeaderName}))
}

// BodyGuard - guard по полю тела из конфигурации.
func (b *RouterBuilder) BodyGuard() gin.HandlerFunc {
	return guard.New(b.guardConfig(guard.BodyExtractor{
		ArgumentIndex: b.config.Guard.ArgumentIndex,
		Field:         b.config.Guard.FieldName,
		MaxBodySize:   b.config.Guard.MaxBodySize,
	}))
}

// DefaultGuard - guard выбранной в конфигурации стратегии.
func (b *RouterBuilder) DefaultGuard() gin.HandlerFunc {
	if b.config.Guard.Strategy == config.GuardStrategyBody {
		return b.BodyGuard()
	}
	return b.HeaderGuard()
}

func (b *RouterBuilder) guardConfig(extractor guard.TokenExtractor) *guard.Config {
	return &guard.Config{
		Registry:  b.config.Registry,
		Extractor: extractor,
		FailOpen:  b.config.Guard.FailOpen,
		Logger:    b.config.Logger,
	}
}

// Build создаёт сконфигурированный Gin Engine.
func (b *RouterBuilder) Build() (*gin.Engine, error) {
	production := b.config.Environment == "production"
	if production {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupValidator()

	cors, err := middleware.CORSFromConfig(b.config.CORS)
	if err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}

	doc, err := swagger.LoadDocument(openAPIDocument)
	if err != nil {
		return nil, err
	}

	// 1. ErrorHandler - должен быть первым
	router.Use(middleware.ErrorHandler(&middleware.ErrorHandlerConfig{
		Logger:           b.config.Logger,
		Production:       production,
		EnableStackTrace: !production,
	}))

	// 2. Request ID
	router.Use(middleware.RequestID())

	// 3. Tracing
	if b.config.ServiceName != "" {
		router.Use(otelgin.Middleware(b.config.ServiceName))
	}

	// 4. CORS
	router.Use(cors)

	// 5. Logging
	router.Use(middleware.Logging(&middleware.LoggingConfig{
		Logger:    b.config.Logger,
		Format:    b.config.LogFormat,
		SkipPaths: []string{"/health", "/live", "/ready", "/metrics"},
	}))

	// 6. Metrics (Prometheus)
	router.Use(middleware.Metrics())

	// 7. Parameter maps
	router.Use(b.parameters.Middleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET(OpenAPIPath, swagger.DocumentHandler(doc, b.parameters))

	healthHandler := handlers.NewHealthHandler(b.config.Pool, b.config.Version, b.config.BuildTime)
	for name, p := range b.config.Readiness {
		healthHandler.WithDependency(name, p)
	}
	healthHandler.RegisterRoutes(router)

	if b.dummies != nil {
		dummyHandler := handlers.NewDummyHandler(b.dummies, DummiesPath)
		dummyHandler.RegisterRoutes(router.Group(DummiesPath), b.DefaultGuard(), b.BodyGuard())
	}

	router.NoRoute(func(c *gin.Context) {
		problem.Abort(c, http.StatusNotFound, "Endpoint not found: "+c.Request.Method+" "+c.Request.URL.Path)
	})

	return router, nil
}

// GuardTokenParameter документирует заголовок guard'а на POST /dummies.
func GuardTokenParameter(header string) *swagger.ParameterMap {
	return &swagger.ParameterMap{
		Name: header,
		In:   openapi3.ParameterInHeader,
		ShouldApply: func(method, path string, _ *openapi3.Operation) bool {
			return method == http.MethodPost && path == DummiesPath
		},
	}
}

// CultureParameter - заголовок Culture, перекладывается в Accept-Language.
func CultureParameter() *swagger.ParameterMap {
	return &swagger.ParameterMap{
		Name:       "Culture",
		In:         openapi3.ParameterInHeader,
		Source:     []string{"en-US", "el-GR", "ru-RU"},
		DefaultKey: "en-US",
		Process: func(r *http.Request) {
			swagger.HeaderToHeader(r, "Culture", "Accept-Language")
		},
	}
}

// PageAliasParameter - короткий query параметр page для PageNumber.
func PageAliasParameter() *swagger.ParameterMap {
	return &swagger.ParameterMap{
		Name: "page",
		In:   openapi3.ParameterInQuery,
		ShouldApply: func(method, path string, _ *openapi3.Operation) bool {
			return method == http.MethodGet && path == DummiesPath
		},
		Process: func(r *http.Request) {
			swagger.QueryToQuery(r, "page", "PageNumber")
		},
	}
}

// NewRouter создаёт роутер с ресурсом /dummies и стандартными картами параметров.
func NewRouter(cfg *RouterConfig, repo ports.DummyRepository) (*gin.Engine, error) {
	b := NewRouterBuilder(cfg).
		WithDummies(repo).
		WithParameterMaps(CultureParameter(), PageAliasParameter())
	if b.config.Guard.Strategy != config.GuardStrategyBody {
		b.WithParameterMaps(GuardTokenParameter(b.config.Guard.HeaderName))
	}
	return b.Build()
}
