package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/config"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/processor"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/queue"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/pg"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(config.EnvPathFromArgs(os.Args))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	if _, err := logger.Configure(cfg.LogEnv, cfg.LogLevel); err != nil {
		logger.Error("failed to configure logger", "error", err)
		return
	}
	logger.Info("starting bulk deposit processor", "version", version, "commit", commit, "date", date)

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.RedisOptions())
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	transactionRepo := repository.NewTransactionRepository(db)
	memberRepo := repository.NewMemberRepository(db)
	jobRepo := repository.NewBulkJobRepository(redisAdap, cfg.BulkJobTTL)

	// the processor only applies chunks, it never enqueues
	bulkService := services.NewBulkDepositService(transactionRepo, memberRepo, jobRepo, nil, cfg.BulkChunkSize)

	idempotencyService := processor.NewIdempotencyService(redisAdap, processor.DefaultIdempotencyConfig())

	service := processor.NewProcessorService(redisAdap, processor.Options{
		Queue: queue.QueueConfig{
			Name:              cfg.QueueName,
			ConsumerGroup:     cfg.QueueConsumerGroup,
			ConsumerName:      cfg.QueueConsumerName,
			MaxRetries:        cfg.QueueMaxRetries,
			VisibilityTimeout: cfg.QueueVisibilityTimeout,
			PollInterval:      cfg.QueuePollInterval,
			BatchSize:         cfg.QueueBatchSize,
			MaxLen:            cfg.QueueMaxLen,
			EnableDLQ:         cfg.QueueEnableDLQ,
		},
		Consumers: cfg.ProcessorConsumers,
		Workers:   cfg.ProcessorWorkers,
	})
	service.RegisterProcessor(processor.NewBulkDepositProcessor(bulkService, idempotencyService))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}

	metricsAddr := cfg.AppDebugMetricsAddr
	if metricsAddr == "" {
		metricsAddr = ":9100"
	}
	go prom.ListenAndServer(metricsAddr, cfg.AppDebugMetricsURI)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	if err := service.Start(); err != nil {
		logger.Error("failed to start processor", "error", err)
		return
	}

	<-c
	service.Stop()
	logger.Sync()
}
