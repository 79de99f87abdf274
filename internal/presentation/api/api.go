package api

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/chronicler-app/chronicler/internal/infrastructure/auth"
	"github.com/chronicler-app/chronicler/internal/infrastructure/configs"
	"github.com/chronicler-app/chronicler/internal/infrastructure/ratelimiter"
	healthHandler "github.com/chronicler-app/chronicler/internal/presentation/handler/health"
	sessionsHandler "github.com/chronicler-app/chronicler/internal/presentation/handler/sessions"
	usersHandler "github.com/chronicler-app/chronicler/internal/presentation/handler/users"
)

type Application struct {
	config          configs.Config
	sessionsHandler *sessionsHandler.Handler
	usersHandler    *usersHandler.Handler
	healthHandler   *healthHandler.Handler
	logger          *zap.SugaredLogger
	ratelimiter     ratelimiter.Limiter
}

func NewApplication(
	config configs.Config,
	sessionsHandler *sessionsHandler.Handler,
	usersHandler *usersHandler.Handler,
	healthHandler *healthHandler.Handler,
	logger *zap.SugaredLogger,
	ratelimiter ratelimiter.Limiter,
) *Application {
	return &Application{
		config:          config,
		sessionsHandler: sessionsHandler,
		usersHandler:    usersHandler,
		healthHandler:   healthHandler,
		logger:          logger,
		ratelimiter:     ratelimiter,
	}
}

func authConfigFrom(cfg configs.Config) auth.Config {
	return auth.Config{
		Secret: []byte(cfg.Auth.Secret),
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.TokenTTL,
	}
}

func (app *Application) Mount() http.Handler {
	authCfg := authConfigFrom(app.config)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(app.rateLimiterMiddleware)
	r.Use(app.enableCors)

	r.Method(http.MethodGet, "/debug/vars", expvar.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", app.healthHandler.GetHealth)
		r.Get("/healthz", app.healthHandler.GetHealth)
		r.Get("/ready", app.healthHandler.GetHealth)
		r.Get("/live", app.healthHandler.GetHealth)

		// Registration is the entry point; everything past it needs the
		// token it returns.
		r.Post("/users", app.usersHandler.CreateUserHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(authCfg))

			r.Get("/users/{userId}", app.usersHandler.GetUserHandler)

			// One socket per user; it joins sessions with session.join
			// frames rather than per-session URLs.
			r.Get("/ws", app.sessionsHandler.ConnectHandler)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", app.sessionsHandler.CreateSessionHandler)
				r.Get("/{sessionId}", app.sessionsHandler.GetSessionHandler)
				r.Delete("/{sessionId}", app.sessionsHandler.DeleteSessionHandler)

				r.Post("/{sessionId}/events", app.sessionsHandler.PostEventHandler)
				r.Get("/{sessionId}/events", app.sessionsHandler.ListEventsHandler)
				r.Post("/{sessionId}/dice", app.sessionsHandler.RollDiceHandler)
			})
		})
	})

	return otelhttp.NewHandler(r, "chronicler.http")
}

func (app *Application) Run(mux http.Handler) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", app.config.HTTP.Host, app.config.HTTP.Port),
		Handler:      mux,
		WriteTimeout: app.config.HTTP.WriteTimeout,
		ReadTimeout:  app.config.HTTP.ReadTimeout,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)

		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		app.logger.Infow("signal caught", "signal", s.String())

		shutdown <- srv.Shutdown(ctx)
	}()

	app.logger.Infow("server has started", "addr", srv.Addr)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdown
	if err != nil {
		return err
	}

	app.logger.Infow("server has stopped", "addr", srv.Addr)

	return nil
}
