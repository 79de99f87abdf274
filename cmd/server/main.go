package main

import (
	"context"
	"expvar"
	"log"
	"runtime"

	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/infrastructure/auth"
	"github.com/chronicler-app/chronicler/internal/infrastructure/configs"
	"github.com/chronicler-app/chronicler/internal/infrastructure/events"
	"github.com/chronicler-app/chronicler/internal/infrastructure/messaging"
	"github.com/chronicler-app/chronicler/internal/infrastructure/ratelimiter"
	"github.com/chronicler-app/chronicler/internal/infrastructure/storage/sqlite"
	"github.com/chronicler-app/chronicler/internal/infrastructure/tracing"
	"github.com/chronicler-app/chronicler/internal/infrastructure/ws"
	"github.com/chronicler-app/chronicler/internal/presentation/api"
	"github.com/chronicler-app/chronicler/internal/presentation/handler/health"
	"github.com/chronicler-app/chronicler/internal/presentation/handler/sessions"
	"github.com/chronicler-app/chronicler/internal/presentation/handler/users"
	"github.com/chronicler-app/chronicler/internal/sessionevents"
)

const (
	serviceName = "chronicler-relay"
)

func main() {
	tracerCfg := tracing.NewDefaultConfig(serviceName)

	sh, err := tracing.InitTracer(tracerCfg)
	if err != nil {
		log.Fatalf("Failed to initialize the tracer: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer sh(ctx)

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	configPath := configs.DetermineConfigPath()
	cfg, err := configs.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	store, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	wsCore := ws.NewCore(logger)
	go wsCore.Run(ctx)

	var publisher *events.SessionEventPublisher
	if cfg.AMQP.Enabled {
		rabbitmq, err := messaging.NewRabbitMQ(cfg.AMQP.URI, cfg.AMQP.Exchange)
		if err != nil {
			log.Fatal(err)
		}
		defer rabbitmq.Close()

		logger.Infow("connected to RabbitMQ", "exchange", cfg.AMQP.Exchange)
		publisher = events.NewSessionEventPublisher(rabbitmq)
	}

	service := sessionevents.NewService(store, wsCore, publisher, logger)
	relay := ws.NewRelay(wsCore, service, logger)

	authCfg := auth.Config{
		Secret: []byte(cfg.Auth.Secret),
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	}

	sessionsHandler := sessions.NewHandler(service, store, store, relay, cfg.HTTP.AllowedOrigins, logger)
	usersHandler := users.NewHandler(store, authCfg, logger)
	healthHandler := health.NewHandler()

	rl := ratelimiter.New(ratelimiter.Options{
		MaxRatePerSecond: cfg.RateLimiter.MaxRatePerSecond,
		MaxBurst:         cfg.RateLimiter.MaxBurst,
		CacheTTL:         cfg.RateLimiter.CacheTTL,
		SourceHeaderKey:  cfg.RateLimiter.SourceHeaderKey,
	})
	app := api.NewApplication(*cfg, sessionsHandler, usersHandler, healthHandler, logger, rl)

	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.Mount()
	logger.Fatal(app.Run(mux))
}
