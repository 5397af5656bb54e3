package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/gin-contrib/cors"
	limits "github.com/gin-contrib/size"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	middleware "github.com/oapi-codegen/gin-middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/api"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/cfg"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/handlers"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/logger"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/mcpserver"
	customMiddleware "github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/middleware"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/telemetry"
	"github.com/drtinkerer/gcp-sandbox-provisioner-backend/internal/utils"
)

const (
	serviceVersion = "1.0.0"
	serviceName    = "sandbox-provisioner"
	maxUploadLimit = 1 << 20 // 1 MiB

	maxReadHeaderTimeout = 5 * time.Second
	maxReadTimeout       = 10 * time.Second
	// writeTimeoutSlack is added to the request's provider budget for writing the response.
	writeTimeoutSlack = 30 * time.Second
	idleTimeout       = 620 * time.Second

	shutdownDrainDelay = 15 * time.Second
)

var commitSHA string

func NewGinServer(ctx context.Context, config cfg.Config, tel *telemetry.Client, l *zap.Logger, apiStore *handlers.APIStore, swagger *openapi3.T) *http.Server {
	// Clear out the servers array in the swagger spec, that skips validating
	// that server names match. We don't know how this thing will be run.
	swagger.Servers = nil

	r := gin.New()

	r.Use(
		customMiddleware.ExcludeRoutes(
			otelgin.Middleware(serviceName,
				otelgin.WithTracerProvider(tel.TracerProvider),
				otelgin.WithPropagators(tel.TracePropagator),
			),
			"/health",
		),
		customMiddleware.LoggingMiddleware(l, "/health"),
		ginzap.RecoveryWithZap(l, true),
	)

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Length",
		"Content-Type",
		"User-Agent",
		"Authorization",
		"Mcp-Session-Id",
		"Mcp-Protocol-Version",
	}
	r.Use(cors.New(corsConfig), limits.RequestSizeLimiter(maxUploadLimit))

	r.GET("/health", apiStore.GetHealth)
	r.GET("/", apiStore.GetIndex)
	r.GET("/openapi.json", handlers.OpenAPIDocument(swagger))

	// Use our validation middleware to check all API requests against the
	// OpenAPI schema.
	validator := middleware.OapiRequestValidatorWithOptions(swagger,
		&middleware.Options{
			ErrorHandler: func(c *gin.Context, message string, fallbackStatusCode int) {
				statusCode := max(c.Writer.Status(), fallbackStatusCode)
				utils.ErrorHandler(c, message, statusCode)
			},
			MultiErrorHandler: utils.MultiErrorHandler,
			Options: openapi3filter.Options{
				MultiError: true,
			},
		})

	api.RegisterHandlersWithOptions(r, apiStore, api.GinServerOptions{
		Providers: api.Providers{
			GCP:   config.EnableGCPProvisioner,
			AWS:   config.EnableAWSProvisioner,
			Azure: config.EnableAzureProvisioner,
		},
		Middlewares: []gin.HandlerFunc{validator},
		ErrorHandler: func(c *gin.Context, err error, statusCode int) {
			utils.ErrorHandler(c, err.Error(), statusCode)
		},
	})

	if config.EnableMCP && apiStore.Sandboxes != nil {
		mcpHandler := gin.WrapH(mcpserver.NewHandler(mcpserver.NewServer(apiStore.Sandboxes, l.Named("mcp"), serviceVersion)))
		r.POST("/mcp", mcpHandler)
		r.GET("/mcp", mcpHandler)
		r.DELETE("/mcp", mcpHandler)
	}

	s := &http.Server{
		Handler: r,
		Addr:    fmt.Sprintf("0.0.0.0:%d", config.Port),

		// Configure request timeouts.
		ReadHeaderTimeout: maxReadHeaderTimeout,
		ReadTimeout:       maxReadTimeout,
		WriteTimeout:      config.RequestTimeout() + writeTimeoutSlack,
		IdleTimeout:       idleTimeout,

		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	return s
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background()) // root context
	defer cancel()

	config, err := cfg.Parse()
	if err != nil {
		log.Printf("error parsing config: %v\n", err)

		return 1
	}

	serviceInstanceID := uuid.New().String()

	l, err := logger.NewLogger(logger.LoggerConfig{
		ServiceName:   serviceName,
		IsDevelopment: config.IsLocal(),
		IsDebug:       config.Debug,
	})
	if err != nil {
		log.Printf("error creating logger: %v\n", err)

		return 1
	}
	defer l.Sync()

	if err := config.Validate(); err != nil {
		l.Error("Invalid configuration", zap.Error(err))

		return 1
	}

	tel, err := telemetry.New(ctx, config.OtelCollectorGRPCEndpoint, serviceName, serviceVersion, serviceInstanceID)
	if err != nil {
		l.Error("Failed to create telemetry exporters", zap.Error(err))

		return 1
	}
	defer func() {
		if err := tel.Shutdown(ctx); err != nil {
			log.Printf("telemetry shutdown: %v\n", err)
		}
	}()

	l.Info("Starting sandbox provisioner...",
		zap.String("commit_sha", commitSHA),
		logger.WithServiceInstanceID(serviceInstanceID),
		zap.String("environment", config.Environment),
		zap.String("location", config.Location),
		zap.String("organization_id", config.OrganizationID),
		zap.Bool("gcp", config.EnableGCPProvisioner),
		zap.Bool("aws", config.EnableAWSProvisioner),
		zap.Bool("azure", config.EnableAzureProvisioner),
	)
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	swagger, err := api.GetSwagger()
	if err != nil {
		l.Error("Error loading swagger spec", zap.Error(err))

		return 1
	}

	var cleanupFns []func(context.Context) error
	exitCode := &atomic.Int32{}
	cleanupOp := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		start := time.Now()
		// cleanups run in parallel so they cannot depend on each other's order
		cwg := &sync.WaitGroup{}
		count := 0
		for idx := range cleanupFns {
			if cleanup := cleanupFns[idx]; cleanup != nil {
				count++
				cwg.Go(func() {
					if err := cleanup(ctx); err != nil {
						exitCode.Add(1)
						l.Error("Cleanup operation error", zap.Int("index", idx), zap.Error(err))
					}
				})

				cleanupFns[idx] = nil
			}
		}
		if count == 0 {
			l.Info("no cleanup operations")

			return
		}
		l.Info("Running cleanup operations", zap.Int("count", count))
		cwg.Wait()
		l.Info("Cleanup operations completed", zap.Int("count", count), zap.Duration("duration", time.Since(start)))
	}
	cleanupOnce := &sync.Once{}
	cleanup := func() { cleanupOnce.Do(cleanupOp) }
	defer cleanup()

	apiStore, err := handlers.NewAPIStore(ctx, config, tel, l)
	if err != nil {
		l.Error("Failed to initialize API store", zap.Error(err))

		return 1
	}
	cleanupFns = append(cleanupFns, apiStore.Close)

	s := NewGinServer(ctx, config, tel, l, apiStore, swagger)

	// The parent context is cancelled only after the HTTP server returns, so
	// in-flight provisioning is not cut off by the signal.
	signalCtx, sigCancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer sigCancel()

	wg := &sync.WaitGroup{}

	// in the event of an unhandled panic *still* wait for the
	// HTTP service to terminate:
	defer wg.Wait()

	wg.Go(func() {
		defer cancel()

		l.Info("Http service starting", zap.Int("port", config.Port))

		err := s.ListenAndServe()

		switch {
		case errors.Is(err, http.ErrServerClosed):
			l.Info("Http service shutdown successfully", zap.Int("port", config.Port))
		case err != nil:
			exitCode.Add(1)
			l.Error("Http service encountered error", zap.Int("port", config.Port), zap.Error(err))
		default:
			l.Info("Http service exited without error", zap.Int("port", config.Port))
		}
	})

	wg.Go(func() {
		<-signalCtx.Done()

		// Start returning 503s for health checks so the load balancer
		// stops routing new requests here.
		apiStore.Healthy.Store(false)

		if !config.IsLocal() {
			time.Sleep(shutdownDrainDelay)
		}

		if err := s.Shutdown(ctx); err != nil {
			exitCode.Add(1)
			l.Error("Http service shutdown error", zap.Int("port", config.Port), zap.Error(err))
		}
	})

	wg.Wait()

	// call cleanup explicitly because defers (from above) do not
	// run on os.Exit.
	cleanup()

	return int(exitCode.Load())
}

func main() {
	os.Exit(run())
}
