package main

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/md-rashed-zaman/bookable/libs/config"
	"github.com/md-rashed-zaman/bookable/libs/db"
	"github.com/md-rashed-zaman/bookable/libs/httpx"
	"github.com/md-rashed-zaman/bookable/libs/kafkax"
	otelx "github.com/md-rashed-zaman/bookable/libs/otel"
	"github.com/md-rashed-zaman/bookable/libs/runtime"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/directory"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/handlers"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/outbox"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/policy"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/query"
	"github.com/md-rashed-zaman/bookable/services/availability-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "availability-service")
	port, err := config.Port("PORT", "8084")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.DefaultOptions())
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	scheduleRepo := storage.NewScheduleRepository(pool)
	bookingRepo := storage.NewBookingRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	var entityDirectory directory.Provider
	if addr := config.String("DIRECTORY_GRPC_ADDR", ""); addr != "" {
		remote, err := directory.NewRemoteProvider(addr)
		if err != nil {
			logger.Error("remote directory init failed; using local store", "err", err)
		}
		entityDirectory = remote
	}
	if entityDirectory == nil {
		entityDirectory = directory.NewPgProvider(scheduleRepo)
	}

	durations := policy.NewDurationResolver(scheduleRepo)
	facade := query.NewFacade(entityDirectory, scheduleRepo, scheduleRepo, scheduleRepo, durations, query.SystemClock(), logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	slotHandler := handlers.NewSlotHandler(facade, logger)
	bookingHandler := handlers.NewBookingHandler(bookingRepo, outboxRepo, logger)

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if kafkaBrokers != "" {
		readyChecks = append(readyChecks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}
	mux := runtime.NewBaseMux(readyChecks...)
	mux.HandleFunc("GET /api/v1/calendars/{id}/slots", slotHandler.CalendarSlots)
	mux.HandleFunc("GET /api/v1/staff/{id}/available-slots", slotHandler.StaffSlots)
	mux.HandleFunc("POST /api/v1/bookings", bookingHandler.Create)

	rateLimit := rateLimitMiddleware(logger)

	httpHandler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(config.String("CORS_ALLOWED_ORIGINS", ""), ","),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", handlers.WorkspaceIDHeader, httpx.RequestIDHeader},
			MaxAge:         10 * time.Minute,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecovery(logger),
		rateLimit,
		httpx.WithBodyLimit(1<<20),
		httpx.WithTimeout(15*time.Second),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "availability")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

// rateLimitMiddleware prefers the shared Redis limiter when REDIS_URL is set
// so limits hold across replicas, and falls back to the in-process one.
func rateLimitMiddleware(logger *slog.Logger) httpx.Middleware {
	limit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	redisURL := config.String("REDIS_URL", "")
	if redisURL == "" {
		return httpx.NewRateLimiter(limit, time.Minute).Middleware()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("invalid REDIS_URL; using in-memory rate limiter", "err", err)
		return httpx.NewRateLimiter(limit, time.Minute).Middleware()
	}
	rdb := redis.NewClient(opts)
	limiter := httpx.NewRedisRateLimiter(rdb, limit, time.Minute, "availability")
	return limiter.Middleware(logger, config.Bool("RATE_LIMIT_FAIL_OPEN", true))
}
