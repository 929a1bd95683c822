package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neela-data/common/database"
	"neela-data/common/logger"
	commonmqtt "neela-data/common/mqtt"
	commonredis "neela-data/common/redis"
	"neela-data/internal/config"
	httpapi "neela-data/internal/http"
	"neela-data/internal/repository"
	"neela-data/internal/service"
	"neela-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "neela-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 数据源
	var db *sql.DB
	var source service.DataSource
	switch cfg.DataSource {
	case "postgres":
		if d, err := database.NewPostgresDB(ctx, &cfg.Database); err == nil {
			db = d
			source = repository.NewPostgresDataSource(db)
			log.Info("Using PostgreSQL data source", zap.String("host", cfg.Database.Host))
		} else {
			log.Warn("PostgreSQL unavailable, falling back to in-memory data", zap.Error(err))
			source = repository.NewMemoryDataSource()
		}
	case "http":
		source = repository.NewHTTPDataSource(cfg.Backend, log)
		log.Info("Using REST backend data source", zap.String("base_url", cfg.Backend.BaseURL))
	default:
		source = repository.NewMemoryDataSource()
		log.Info("Using in-memory data source")
	}
	defer database.Close(db)

	// Redis：签署信封 KV + 通知 stream
	var kv store.KV = store.NewMemoryKV()
	var notifiers []service.Notifier
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis.RedisConfig)
		if err := commonredis.Ping(ctx, redisClient); err == nil {
			kv = store.NewRedisKV(redisClient)
			notifiers = append(notifiers, service.NewStreamNotifier(redisClient, log))
			log.Info("Redis enabled", zap.String("addr", cfg.Redis.Addr))
		} else {
			log.Warn("Redis enabled but ping failed, using in-memory KV", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.MQTT.Enabled {
		if mc, err := commonmqtt.NewClient(&cfg.MQTT.MQTTConfig); err == nil {
			defer mc.Disconnect()
			notifiers = append(notifiers, service.NewMQTTNotifier(mc, log))
			log.Info("MQTT enabled", zap.String("broker", cfg.MQTT.Broker), zap.String("topic", cfg.MQTT.Topic))
		} else {
			log.Warn("MQTT enabled but connect failed", zap.Error(err))
		}
	}

	var notifier service.Notifier
	switch len(notifiers) {
	case 0:
		notifier = service.NewLogNotifier(log)
	case 1:
		notifier = notifiers[0]
	default:
		notifier = service.NewFanoutNotifier(notifiers...)
	}

	// AI：分诊 + 起草；未配置时用本地模板，无分诊
	var classifier service.Classifier
	var drafter service.LeaseDrafter = service.NewTemplateDrafter(cfg.Settings)
	if cfg.AI.BaseURL != "" {
		ai := service.NewAIClient(cfg.AI, log)
		classifier = ai
		drafter = ai
		log.Info("AI service enabled", zap.String("base_url", cfg.AI.BaseURL))
	}

	session := store.NewSession()
	loadCtx, loadCancel := context.WithTimeout(ctx, 30*time.Second)
	// 加载失败时 session 为空但可用
	_ = service.NewLoader(source, session, log).Load(loadCtx)
	loadCancel()

	signer := service.NewKVSignatureProvider(kv, "http://"+cfg.HTTP.Addr, log)
	screener := service.NewSimulatedScreener(cfg.Screening.Delay, cfg.Screening.CreditScore)

	dashboard := service.NewDashboardService(session)
	applicants := service.NewApplicantService(session, screener, drafter, signer, cfg.Settings, log)
	maintenance := service.NewMaintenanceService(session, classifier, notifier, log)
	portal := service.NewPortalService(session, maintenance, notifier, cfg.Settings, log)
	legal := service.NewLegalService(session, service.NewTemplateDrafter(cfg.Settings), notifier, cfg.Settings, log)
	views := service.NewViews(dashboard, applicants, maintenance, legal, cfg.Settings)

	limiter := httpapi.NewRateLimiter(cfg.Portal.RatePerSecond, cfg.Portal.Burst, log)
	metrics := httpapi.NewMetrics()

	router := httpapi.NewRouter(log)
	router.RegisterAdminRoutes(httpapi.NewAdminHandler(dashboard, applicants, maintenance, portal, legal, views, cfg.Settings, log))
	router.RegisterPortalRoutes(httpapi.NewPortalHandler(portal, log), limiter)
	router.RegisterOpsRoutes(metrics)

	srv := service.NewServer(cfg.HTTP.Addr, metrics.Instrument(httpapi.AccessLog(log, router)), log)

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup(30 * time.Minute)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server failed", zap.Error(err))
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
}
