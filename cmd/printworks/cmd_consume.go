package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/snapkeep/printworks/config"
	"github.com/snapkeep/printworks/internal/billing"
	"github.com/snapkeep/printworks/internal/consumer"
	"github.com/snapkeep/printworks/internal/delivery"
	"github.com/snapkeep/printworks/internal/imaging"
	"github.com/snapkeep/printworks/internal/journal"
	"github.com/snapkeep/printworks/internal/packaging"
	"github.com/snapkeep/printworks/internal/queue"
	"github.com/snapkeep/printworks/internal/store"
	"github.com/snapkeep/printworks/internal/tracking"
	"github.com/snapkeep/printworks/pkg/logger"
	"github.com/snapkeep/printworks/pkg/storage"
)

// printworks consume
var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Start the print order worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log := logger.New(cfg.AppEnv)

		mongo, err := store.Connect(ctx, cfg.Mongo)
		if err != nil {
			return err
		}
		defer mongo.Close(context.Background())

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Queue.RedisAddr,
			Password: cfg.Queue.RedisPassword,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()

		q := queue.NewRedis(rdb, cfg.Queue, log)
		q.OnReclaim = consumer.MessagesReclaimed.Inc
		defer q.Close()

		disk, err := storage.NewS3(ctx, cfg.S3)
		if err != nil {
			return err
		}

		jnl, err := journal.Open(cfg.Journal.Path, log)
		if err != nil {
			return err
		}

		acquirer := imaging.NewAcquirer(
			imaging.NewPolicy(cfg.Crop),
			imaging.NewImgix(cfg.Crop),
			&imaging.HTTPDownloader{},
			cfg.DownloadConcurrency,
			log,
		)

		dispatcher := delivery.NewDispatcher(cfg.Printer,
			delivery.NewEmailChannel(cfg.Printer.Email, cfg.SMTP.FromName, &delivery.SMTPMailer{SMTP: cfg.SMTP}, log),
			delivery.NewFTPChannel(&delivery.FTPUploader{Config: cfg.Printer.FTP}, log),
			log,
		)

		billingSvc := billing.NewService(cfg.Billing,
			billing.NewCalculator(cfg.Billing),
			billing.NewStripeGateway(cfg.Billing.StripeKey),
			log,
		)

		var sink tracking.Sink = tracking.NoopSink{}
		if cfg.Tracking.Endpoint != "" {
			sink = tracking.NewHTTPSink(cfg.Tracking)
		}
		tracker := tracking.NewManager(sink, cfg.Tracking.Enabled, log)

		pipeline := consumer.NewPipeline(cfg, consumer.Deps{
			Orders:     mongo.Orders(),
			Users:      mongo.Users(),
			Acquirer:   acquirer,
			Assembler:  packaging.NewAssembler(log),
			Disk:       disk,
			Dispatcher: dispatcher,
			Billing:    billingSvc,
			Tracker:    tracker,
			Log:        log,
		})

		srv := healthServer(cfg.HealthAddr)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("health server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		fmt.Println("🚀 Print worker started. Press Ctrl+C to stop.")
		loop := consumer.NewLoop(q, pipeline, jnl, log)
		_ = loop.Run(ctx)

		fmt.Println("\n⚡ Print worker stopped.")
		return nil
	},
}

// healthServer exposes liveness and metrics beside the worker so it can run
// headless under a process supervisor.
func healthServer(addr string) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", consumer.MetricsHandler())

	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
