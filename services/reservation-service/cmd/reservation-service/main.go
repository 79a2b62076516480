package main

import (
	"context"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/salonworks/stylebook/libs/config"
	"github.com/salonworks/stylebook/libs/db"
	"github.com/salonworks/stylebook/libs/httpx"
	"github.com/salonworks/stylebook/libs/kafkax"
	otelx "github.com/salonworks/stylebook/libs/otel"
	"github.com/salonworks/stylebook/libs/runtime"
	"github.com/salonworks/stylebook/services/reservation-service/internal/booking"
	"github.com/salonworks/stylebook/services/reservation-service/internal/consumer"
	"github.com/salonworks/stylebook/services/reservation-service/internal/handlers"
	"github.com/salonworks/stylebook/services/reservation-service/internal/inbox"
	"github.com/salonworks/stylebook/services/reservation-service/internal/masterdata"
	"github.com/salonworks/stylebook/services/reservation-service/internal/outbox"
	"github.com/salonworks/stylebook/services/reservation-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "reservation-service")
	port, err := config.Port("PORT", "8082")
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

	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	outboxRepo := outbox.NewRepository(pool)
	reservationRepo := storage.NewReservationRepository(pool, outboxRepo)
	masterRepo := storage.NewMasterDataRepository(pool)

	// Single instance books through the in-process lock; with REDIS_ADDR
	// set, instances coordinate through Redis instead.
	var locks booking.SlotLock = booking.NewMemoryLock()
	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		locks = booking.NewRedisLock(rdb, config.Duration("SLOT_LOCK_TTL", 15*time.Second))
	}

	bookingSvc := booking.NewService(masterRepo, reservationRepo, locks, logger, booking.Config{
		LockWait:        config.Duration("SLOT_LOCK_WAIT", 5*time.Second),
		ConflictRetries: config.Int("SLOT_CONFLICT_RETRIES", 3),
		SlotStep:        config.Duration("SLOT_STEP", 15*time.Minute),
	})

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	inboxRepo := inbox.NewRepository(pool)
	applier := masterdata.NewApplier(masterRepo, logger)
	startConsumer := func(topic string) {
		if config.String("KAFKA_BROKERS", "") == "" {
			return
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: config.String("KAFKA_BROKERS", ""),
			GroupID: config.String("KAFKA_GROUP_ID", "reservation-service"),
			Topic:   topic,
		}, applier.Handle)
		go eventConsumer.Run(ctx)
	}

	startConsumer(masterdata.TopicCategoryChanged)
	startConsumer(masterdata.TopicServiceChanged)
	startConsumer(masterdata.TopicStylistChanged)
	startConsumer(masterdata.TopicScheduleChanged)
	startConsumer(masterdata.TopicBlockoutChanged)

	reservationHandler := handlers.NewReservationHandler(bookingSvc, reservationRepo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/public/slots", reservationHandler.Slots)
	mux.HandleFunc("/api/v1/reservations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			reservationHandler.Create(w, r)
		default:
			reservationHandler.List(w, r)
		}
	})
	mux.HandleFunc("/api/v1/reservations/reschedule", reservationHandler.Reschedule)
	mux.HandleFunc("/api/v1/reservations/status", reservationHandler.ChangeStatus)
	mux.HandleFunc("/api/v1/reservations/cancel", reservationHandler.Cancel)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	}
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb,
			config.Int("RATE_LIMIT", 120),
			config.Duration("RATE_LIMIT_WINDOW", time.Minute),
			service,
		)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	}
	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "reservation")
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
