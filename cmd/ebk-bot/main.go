package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	botpkg "github.com/NiklasMM/ebk-bot/internal/bot"
	"github.com/NiklasMM/ebk-bot/internal/config"
	runTick "github.com/NiklasMM/ebk-bot/internal/http-server/handlers/tick"
	addWatch "github.com/NiklasMM/ebk-bot/internal/http-server/handlers/watches/add"
	deleteWatch "github.com/NiklasMM/ebk-bot/internal/http-server/handlers/watches/delete"
	listWatches "github.com/NiklasMM/ebk-bot/internal/http-server/handlers/watches/list"
	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/notify"
	"github.com/NiklasMM/ebk-bot/internal/notify/email"
	"github.com/NiklasMM/ebk-bot/internal/notify/telegram"
	"github.com/NiklasMM/ebk-bot/internal/rabbitmq"
	"github.com/NiklasMM/ebk-bot/internal/reconciler"
	"github.com/NiklasMM/ebk-bot/internal/source/kleinanzeigen"
	"github.com/NiklasMM/ebk-bot/internal/storage/postgres"
	"github.com/NiklasMM/ebk-bot/internal/storage/redis"
	"github.com/NiklasMM/ebk-bot/internal/watches"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/robfig/cron/v3"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := setupLogger(cfg.Env)

	log.Info("starting ebk-bot", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	postgresClient, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer postgresClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis.Addr, cfg.Redis.Db, cfg.Redis.DefaultTTL)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer redisClient.Close()

	rabbitMQClient, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer rabbitMQClient.Close()

	producer := rabbitmq.NewProducer(rabbitMQClient.Channel, cfg.RabbitMQ.QueueName)
	consumer := rabbitmq.NewConsumer(
		rabbitMQClient.Channel,
		log,
		cfg.RabbitMQ.QueueName,
		cfg.RabbitMQ.WorkerPoolSize,
	)

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("failed to connect telegram", sl.Err(err))
		os.Exit(1)
	}

	sender, err := setupSender(cfg, api)
	if err != nil {
		log.Error("failed to set up notifier", sl.Err(err))
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(log, sender, consumer)
	if err := dispatcher.Run(ctx); err != nil {
		log.Error("failed to start notification dispatcher", sl.Err(err))
		os.Exit(1)
	}

	sourceClient := kleinanzeigen.New(cfg.Source)

	operator := watches.New(postgresClient, sourceClient, redisClient)
	engine := reconciler.New(log, postgresClient, sourceClient, notify.NewQueueNotifier(producer))

	scheduler := cron.New()
	_, err = scheduler.AddFunc("@every "+cfg.CheckInterval.String(), func() {
		if err := engine.Tick(ctx); err != nil {
			log.Error("scheduled tick failed", sl.Err(err))
		}
	})
	if err != nil {
		log.Error("failed to schedule reconciliation", sl.Err(err))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// The original bot ran its first check immediately on startup.
	go func() {
		if err := engine.Tick(ctx); err != nil {
			log.Error("initial tick failed", sl.Err(err))
		}
	}()

	bot := botpkg.New(log, api, operator)
	go func() {
		if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("bot stopped", sl.Err(err))
			cancel()
		}
	}()

	router := setupRouter(log, validator.New(), operator, engine)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", sl.Err(err))
			cancel()
		}
	}()

	log.Info("ebk-bot started",
		slog.String("address", cfg.HTTPServer.Address),
		slog.Duration("check_interval", cfg.CheckInterval),
	)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", sl.Err(err))
	}

	log.Info("ebk-bot stopped")
}

func setupRouter(
	log *slog.Logger,
	validate *validator.Validate,
	operator *watches.Operator,
	engine *reconciler.Reconciler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/watch", addWatch.New(log, operator, validate))
	r.Delete("/watch", deleteWatch.New(log, operator))
	r.Get("/watches", listWatches.New(log, operator))
	r.Post("/tick", runTick.New(log, engine))

	return r
}

func setupSender(cfg *config.Config, api *tgbotapi.BotAPI) (notify.Sender, error) {
	switch cfg.Notifier {
	case "telegram":
		return telegram.New(api), nil
	case "email":
		return email.New(cfg.Email), nil
	default:
		return nil, errors.New("unknown notifier kind: " + cfg.Notifier)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
