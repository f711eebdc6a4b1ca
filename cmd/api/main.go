package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/config"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/handlers"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/ledger"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/queue"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/services"
	xhttp "github.com/shambhoomaddheshiya/yuva-finance/pkg/http"
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
	logger.Info("starting api", "version", version, "commit", commit, "date", date)

	policy, err := ledger.ParseDivisorPolicy(cfg.InterestDivisorPolicy)
	if err != nil {
		logger.Error("invalid interest divisor policy", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.RecoverMiddleware)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	s.Use(handlers.ViewerMiddleware(cfg.DefaultViewingUserID, "/api/v1/health"))

	db, err := pg.CreateReadWrite(cfg.PostgresRead(), cfg.PostgresWrite(), cfg.AppEnv == "dev")
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}
	defer db.Close()

	memberRepo := repository.NewMemberRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// redis only backs asynchronous bulk deposits; the ledger works without it
	var (
		jobs      services.BulkJobStore
		publisher services.JobPublisher
		redisPing services.RedisPinger
	)
	redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, cfg.RedisOptions())
	if err != nil {
		logger.Warn("redis unavailable, async bulk deposits disabled", "error", err)
	} else {
		q, err := queue.NewQueue(redisAdap, queue.QueueConfig{
			Name:              cfg.QueueName,
			ConsumerGroup:     cfg.QueueConsumerGroup,
			ConsumerName:      cfg.QueueConsumerName,
			MaxRetries:        cfg.QueueMaxRetries,
			VisibilityTimeout: cfg.QueueVisibilityTimeout,
			PollInterval:      cfg.QueuePollInterval,
			BatchSize:         cfg.QueueBatchSize,
			MaxLen:            cfg.QueueMaxLen,
			EnableDLQ:         cfg.QueueEnableDLQ,
		})
		if err != nil {
			logger.Error("failed creating queue", "error", err)
			return
		}
		jobs = repository.NewBulkJobRepository(redisAdap, cfg.BulkJobTTL)
		publisher = q
		redisPing = redisAdap
	}

	// services
	transactionService := services.NewTransactionService(transactionRepo, memberRepo)
	memberService := services.NewMemberService(memberRepo, transactionRepo)
	summaryService := services.NewSummaryService(transactionRepo, memberRepo, policy)
	settingsService := services.NewSettingsService(settingsRepo)
	bulkService := services.NewBulkDepositService(transactionRepo, memberRepo, jobs, publisher, cfg.BulkChunkSize)
	healthService := services.NewHealthService(db, redisPing)

	// v1 handlers
	g := s.Router.Group("/api/v1")
	handlers.RegisterMemberRoutes(g, handlers.NewMemberHandler(memberService, summaryService))
	handlers.RegisterTransactionRoutes(g, handlers.NewTransactionHandler(transactionService))
	handlers.RegisterSummaryRoutes(g, handlers.NewSummaryHandler(summaryService))
	handlers.RegisterBulkRoutes(g, handlers.NewBulkHandler(bulkService))
	handlers.RegisterSettingsRoutes(g, handlers.NewSettingsHandler(settingsService))
	handlers.RegisterHealthRoutes(g, handlers.NewHealthHandler(healthService))

	if cfg.AppDebugMetricsAddr != "" {
		hostname, err := os.Hostname()
		if err != nil {
			hostname = "unknown"
		}
		if err := prom.Create(hostname, cfg.AppEnv, cfg.PromNamespace); err != nil {
			logger.Error("failed to create prometheus metrics", "error", err)
			return
		}
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := s.ListenAndServe(cfg.HttpListenAddr); err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	<-c
	s.Shutdown()
	logger.Sync()
}
