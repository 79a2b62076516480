package main

import (
	"context"
	"net/http"
	"time"

	"github.com/salonworks/stylebook/libs/config"
	"github.com/salonworks/stylebook/libs/db"
	"github.com/salonworks/stylebook/libs/httpx"
	"github.com/salonworks/stylebook/libs/kafkax"
	otelx "github.com/salonworks/stylebook/libs/otel"
	"github.com/salonworks/stylebook/libs/runtime"
	"github.com/salonworks/stylebook/services/admin-service/internal/handlers"
	"github.com/salonworks/stylebook/services/admin-service/internal/outbox"
	"github.com/salonworks/stylebook/services/admin-service/internal/storage"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "admin-service")
	port, err := config.Port("PORT", "8081")
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
	repo := storage.NewRepository(pool, outboxRepo)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: config.Duration("OUTBOX_POLL_EVERY", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	if config.String("RESYNC_ON_START", "true") == "true" {
		go func() {
			resyncCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			n, err := repo.EnqueueResync(resyncCtx, time.Now())
			if err != nil {
				logger.Error("startup resync failed", "err", err)
				return
			}
			logger.Info("startup resync enqueued", "events", n)
		}()
	}

	catalogHandler := handlers.NewCatalogHandler(repo, logger)
	stylistHandler := handlers.NewStylistHandler(repo, logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)
	mux.HandleFunc("/api/v1/categories", catalogHandler.Categories)
	mux.HandleFunc("/api/v1/categories/update", catalogHandler.UpdateCategory)
	mux.HandleFunc("/api/v1/categories/delete", catalogHandler.DeleteCategory)
	mux.HandleFunc("/api/v1/services", catalogHandler.Services)
	mux.HandleFunc("/api/v1/services/update", catalogHandler.UpdateService)
	mux.HandleFunc("/api/v1/services/delete", catalogHandler.DeleteService)
	mux.HandleFunc("/api/v1/stylists", stylistHandler.Stylists)
	mux.HandleFunc("/api/v1/stylists/update", stylistHandler.UpdateStylist)
	mux.HandleFunc("/api/v1/stylists/delete", stylistHandler.DeleteStylist)
	mux.HandleFunc("/api/v1/stylists/schedule", stylistHandler.Schedule)
	mux.HandleFunc("/api/v1/stylists/blockouts", stylistHandler.Blockouts)

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "admin")
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
