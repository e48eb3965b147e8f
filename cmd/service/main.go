package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gathering_notification_service/internal/app"
	"gathering_notification_service/internal/domain/gathering"
	"gathering_notification_service/internal/infra/cache"
	"gathering_notification_service/internal/infra/config"
	idb "gathering_notification_service/internal/infra/database"
	"gathering_notification_service/internal/infra/logger"
	"gathering_notification_service/internal/infra/scheduler"
	"gathering_notification_service/internal/infra/telegram"

	"github.com/go-redis/redis/v8"
	"gopkg.in/telebot.v3"
)

func main() {
	mainLogger := log.New(os.Stdout, "MAIN: ", log.LstdFlags|log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	appLogger := logger.Get()
	mainLogger.Printf("INFO: Configuration loaded. LogLevel: %s, Environment: %s, Admin ID: %d", cfg.LogLevel, cfg.Environment, cfg.AdminTelegramID)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	mainLogger.Println("INFO: Database connection established successfully.")

	// Initialize Repositories
	configRepo := idb.NewPostgresConfigRepository(db)
	candidateRepo := idb.NewPostgresCandidateRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	eventRepo := idb.NewPostgresEventRepository(db)
	attendanceRepo := idb.NewPostgresAttendanceRepository(db)
	mainLogger.Println("INFO: Repositories initialized.")

	// Gathering reads optionally go through a Redis cache.
	var gatheringReader gathering.Reader = idb.NewPostgresGatheringRepository(db)
	if cfg.RedisURL != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisURL,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		gatheringReader = cache.NewGatheringCache(
			redisClient, gatheringReader, cfg.GatheringCacheTTL,
			appLogger.WithField("component", "gathering_cache"),
		)
		mainLogger.Println("INFO: Gathering read cache enabled.")
	}

	// Initialize Application Services
	candidateService := app.NewCandidateService(
		configRepo, candidateRepo, gatheringReader, eventRepo, attendanceRepo,
		appLogger.WithField("component", "candidate_service"),
	)
	payloadBuilder := app.NewPayloadBuilder(gatheringReader, eventRepo, attendanceRepo)
	publisher := app.NewPublisher(notificationRepo, appLogger.WithField("component", "publisher"))
	processor := app.NewProcessor(
		configRepo, candidateRepo, eventRepo, payloadBuilder, publisher,
		appLogger.WithField("component", "processor"),
	)
	triggerService := app.NewTriggerService(
		configRepo, candidateService, candidateRepo, eventRepo, payloadBuilder, publisher,
		appLogger.WithField("component", "trigger_service"),
	)
	configService := app.NewConfigService(configRepo, appLogger.WithField("component", "config_service"))
	mainLogger.Println("INFO: Application services initialized.")

	// Initialize Scheduler
	schedulerLogger := log.New(os.Stdout, "SCHEDULER: ", log.LstdFlags|log.Lshortfile)
	processorScheduler := scheduler.NewProcessorScheduler(processor, schedulerLogger, cfg.CronSpecProcess)
	processorScheduler.Start()

	// Initialize Telegram Bot (operator entry point)
	pref := telebot.Settings{
		Token:  cfg.TelegramToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Printf("ERROR (telebot): %v", err)
			if c != nil && c.Sender() != nil && c.Chat() != nil {
				log.Printf("ERROR (telebot context): Message: %s, Sender: %d, Chat: %d", c.Text(), c.Sender().ID, c.Chat().ID)
			}
		},
	}
	bot, err := telebot.NewBot(pref)
	if err != nil {
		mainLogger.Fatalf("FATAL: Could not create Telegram bot: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	telegram.RegisterOperatorHandlers(
		ctx, bot, triggerService, configService, cfg.AdminTelegramID,
		appLogger.WithField("component", "operator_handlers"),
	)
	mainLogger.Println("INFO: Operator command handlers registered.")

	mainLogger.Println("INFO: Application setup complete. Bot and scheduler are starting...")
	go bot.Start()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	mainLogger.Println("INFO: Shutting down application...")
	processorScheduler.Stop()
	bot.Stop()
	mainLogger.Println("INFO: Application shut down gracefully.")
}
