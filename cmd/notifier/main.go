package main

import (
	"context"
	"errors"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/rabbitmq"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	metricsapi "github.com/obranet/valuation-notifier/internal/api/handlers/metrics"
	"github.com/obranet/valuation-notifier/internal/api/handlers/notification"
	"github.com/obranet/valuation-notifier/internal/api/handlers/webhook"
	"github.com/obranet/valuation-notifier/internal/api/router"
	"github.com/obranet/valuation-notifier/internal/api/server"
	"github.com/obranet/valuation-notifier/internal/cleanup"
	"github.com/obranet/valuation-notifier/internal/config"
	"github.com/obranet/valuation-notifier/internal/dispatch"
	"github.com/obranet/valuation-notifier/internal/metrics"
	statusmsg "github.com/obranet/valuation-notifier/internal/rabbitmq/handlers/status"
	"github.com/obranet/valuation-notifier/internal/rabbitmq/queue"
	metricsrepo "github.com/obranet/valuation-notifier/internal/repository/metrics"
	notifrepo "github.com/obranet/valuation-notifier/internal/repository/notification"
	recipientrepo "github.com/obranet/valuation-notifier/internal/repository/recipient"
	templaterepo "github.com/obranet/valuation-notifier/internal/repository/template"
	"github.com/obranet/valuation-notifier/internal/scheduler"
	notifsvc "github.com/obranet/valuation-notifier/internal/service/notification"
	"github.com/obranet/valuation-notifier/internal/worker"
	"github.com/obranet/valuation-notifier/pkg/whatsapp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()
	val := validator.New()

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL(), cfg.RabbitMQ.Retries, cfg.RabbitMQ.Pause)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to open channel")
	}

	q, err := queue.NewStatusQueue(ch)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to create status queue")
	}

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	dbNum, err := strconv.Atoi(cfg.Redis.Database)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to parse redis database")
	}

	rdb := redis.New(cfg.Redis.Address, cfg.Redis.Password, dbNum)
	if err = rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	notifRepo := notifrepo.NewRepository(db)
	templateRepo := templaterepo.NewRepository(db)
	recipientRepo := recipientrepo.NewRepository(db)
	metricsRepo := metricsrepo.NewRepository(db)

	waClient := whatsapp.NewClient(
		cfg.WhatsApp.APIURL,
		cfg.WhatsApp.AccessToken,
		cfg.WhatsApp.PhoneNumberID,
	)

	service := notifsvc.NewService(templateRepo, recipientRepo, notifRepo, rdb, cfg.Dispatch, cfg.WhatsApp)

	limiter := dispatch.NewRateLimiter(cfg.WhatsApp.RatePerMinute)
	dispatcher := dispatch.NewDispatcher(notifRepo, waClient, limiter, cfg.Dispatch)
	go dispatcher.Run(ctx)

	statusHandler := statusmsg.NewHandler(notifRepo)
	reconciler := worker.NewReconciler(q, statusHandler)
	go reconciler.Run(ctx, cfg.Retry, cfg.Workers.Count)

	aggregator := metrics.NewAggregator(metricsRepo)
	cleaner := cleanup.NewCleaner(notifRepo, metricsRepo, cfg.Retention)

	maintenance := scheduler.New(aggregator, cleaner)
	if err := maintenance.Start(ctx); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to start maintenance scheduler")
	}

	notifHandler := notification.NewHandler(service, val, cfg)
	webhookHandler := webhook.NewHandler(q, cfg)
	metricsHandler := metricsapi.NewHandler(aggregator)

	r := router.New(notifHandler, webhookHandler, metricsHandler)
	s := server.New(cfg.Server.HTTPPort, r)

	go func() {
		if err := s.ListenAndServe(); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	maintenance.Stop()

	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}

	for i, slave := range db.Slaves {
		if err := slave.Close(); err != nil {
			zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
		}
	}

	if err := ch.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ channel")
	}

	if err := conn.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close RabbitMQ connection")
	}
}
