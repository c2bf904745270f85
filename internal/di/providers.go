package di

import (
	"context"
	"fmt"
	"time"

	"DarkPull/internal/domain/models"
	"DarkPull/internal/domain/repository"
	"DarkPull/internal/handler/api"
	internalrepo "DarkPull/internal/repository"
	icache "DarkPull/internal/service/cache"
	"DarkPull/internal/service/notify"
	"DarkPull/internal/service/polygon"
	"DarkPull/internal/services/darkpool"
	"DarkPull/internal/usecase"
	"DarkPull/pkg/cache"
	pkgch "DarkPull/pkg/clickhouse"
	"DarkPull/pkg/config"
	xhttp "DarkPull/pkg/http"
	pkgkafka "DarkPull/pkg/kafka"
	applogger "DarkPull/pkg/logger"
	"DarkPull/pkg/metrics"
	"DarkPull/pkg/retry"
	"DarkPull/pkg/server"
)

// ProvideLogger builds the root logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics registers the domain collectors on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(nil)
}

// ProvideRetryPolicy maps the batch retry settings onto a retry policy.
func ProvideRetryPolicy(cfg *config.Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Batch.Retries,
		Interval:    cfg.Batch.RetryInterval,
		MaxInterval: 10 * cfg.Batch.RetryInterval,
		Strategy:    retry.Strategy(cfg.Batch.RetryStrategy),
	}
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the database exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideAggregateStore selects the store backend. The cleanup closes whatever
// client the backend opened.
func ProvideAggregateStore(cfg *config.Config, l *applogger.Logger) (repository.AggregateStore, func(), error) {
	switch cfg.Store.Backend {
	case "redis":
		rc, err := cache.NewRedisCache(
			cache.WithRedisHost(cfg.Redis.Host),
			cache.WithRedisPort(cfg.Redis.Port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
			cache.WithRedisPrefix(cfg.Redis.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis store: %w", err)
		}
		layered := cache.NewLayeredCache(rc, cache.WithLayeredMemorySize(cfg.Redis.L1Size))
		l.Info("aggregate store ready", applogger.String("backend", "redis"))
		return internalrepo.NewCacheAggregateStore(layered, cfg.Store.KeyPrefix), func() { _ = layered.Close() }, nil

	case "clickhouse":
		client, err := ProvideClickHouseClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		store := internalrepo.NewCHAggregateStore(client, cfg.ClickHouse.Database+"."+cfg.Store.Table, l)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.InitSchema(ctx, []string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database}); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("aggregate store ready", applogger.String("backend", "clickhouse"))
		return store, func() { _ = client.Close() }, nil

	default:
		mem := cache.NewMemoryCache(cache.WithMemoryMaxSize(0))
		l.Info("aggregate store ready", applogger.String("backend", "memory"))
		return internalrepo.NewCacheAggregateStore(mem, cfg.Store.KeyPrefix), func() { _ = mem.Close() }, nil
	}
}

// ProvideMarketData creates the rate-limited market-data client.
func ProvideMarketData(cfg *config.Config, m *metrics.Recorder, l *applogger.Logger) repository.MarketData {
	return polygon.New(cfg.Provider.BaseURL, cfg.Provider.APIKey,
		polygon.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Provider.Timeout))),
		polygon.WithRateLimit(cfg.Provider.RequestsPerSec, cfg.Provider.Burst),
		polygon.WithPaging(cfg.Provider.PageLimit, cfg.Provider.MaxPages),
		polygon.WithMetrics(m),
		polygon.WithLogger(l),
	)
}

func ProvideBatchRunner(cfg *config.Config, policy retry.Policy, m *metrics.Recorder, l *applogger.Logger) *usecase.BatchRunner {
	return usecase.NewBatchRunner(usecase.BatchOptions{
		Concurrency: cfg.Batch.Concurrency,
		Delay:       cfg.Batch.Delay,
		Timeout:     cfg.Provider.Timeout,
		Policy:      policy,
	}, m, l)
}

func ProvideScreener(store repository.AggregateStore, cfg *config.Config, m *metrics.Recorder, l *applogger.Logger) *usecase.Screener {
	return usecase.NewScreener(store, icache.NewTTLCache(), usecase.ScreeningConfig{
		RatioWindowDays:   cfg.DarkPool.RatioWindowDays,
		HistoryWindowDays: cfg.DarkPool.HistoryWindowDays,
		RecentDays:        cfg.DarkPool.RecentDays,
		HistoryRefresh:    cfg.DarkPool.HistoryRefresh,
		Criteria: models.ScreenCriteria{
			MinRatio:      cfg.DarkPool.MinActivityRatio,
			MinPrice:      cfg.DarkPool.MinPrice,
			MinTotalValue: cfg.DarkPool.MinTotalValue,
			MaxResults:    cfg.DarkPool.MaxResults,
		},
		Location: cfg.Location(),
	}, m, l)
}

func ProvideBacktester(md repository.MarketData, cfg *config.Config, policy retry.Policy, m *metrics.Recorder, l *applogger.Logger) *usecase.Backtester {
	return usecase.NewBacktester(md, icache.NewTTLCache(), usecase.BacktestConfig{
		ProfitableThreshold:    cfg.Straddle.ProfitableThreshold,
		DaysToExpiration:       cfg.Straddle.DaysToExpiration,
		LookbackDays:           cfg.Straddle.LookbackDays,
		CacheTTL:               cfg.Straddle.CacheTTL,
		CallTimeout:            cfg.Provider.Timeout,
		Retry:                  policy,
		SyntheticDailyVol:      cfg.Straddle.SyntheticDailyVol,
		SyntheticMeanReversion: cfg.Straddle.SyntheticMeanReversion,
		DefaultAnnualVol:       cfg.Straddle.DefaultAnnualVol,
	}, m, l)
}

// ProvideIngestor wires the aggregator with the configured venue rule and trading timezone.
func ProvideIngestor(md repository.MarketData, store repository.AggregateStore, batch *usecase.BatchRunner, cfg *config.Config, m *metrics.Recorder, l *applogger.Logger) *usecase.Ingestor {
	return usecase.NewIngestor(md, store, batch, m, l, AggregatorOptions(cfg)...)
}

// AggregatorOptions maps the dark-pool settings onto aggregator options.
func AggregatorOptions(cfg *config.Config) []darkpool.AggregatorOption {
	return []darkpool.AggregatorOption{
		darkpool.WithPredicate(darkpool.VenuePredicate(cfg.DarkPool.VenueCode)),
		darkpool.WithLocation(cfg.Location()),
		darkpool.WithChunkSize(cfg.DarkPool.ChunkSize),
	}
}

// ProvideNotificationSink fans out to Kafka and the webhook when configured.
// The log sink is always present; a failing external sink fails the notify step.
func ProvideNotificationSink(cfg *config.Config, policy retry.Policy, m *metrics.Recorder, l *applogger.Logger) (repository.NotificationSink, func(), error) {
	sinks := []repository.NotificationSink{notify.NewLogSink(l)}
	cleanup := func() {}

	if cfg.Kafka.Enabled {
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka producer: %w", err)
		}
		sinks = append(sinks, internalrepo.NewKafkaNotifier(producer, cfg.Kafka.Topic, cfg.Notify.MaxScenarios))
		cleanup = func() { _ = producer.Close() }
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookSink(cfg.Notify.WebhookURL, cfg.Notify.WebhookHeaders, cfg.Notify.Timeout, policy, cfg.Notify.MaxScenarios))
	}
	return notify.NewMultiSink(m, l, sinks...), cleanup, nil
}

func ProvideOrchestrator(screener *usecase.Screener, backtester *usecase.Backtester, batch *usecase.BatchRunner, sink repository.NotificationSink, cfg *config.Config, m *metrics.Recorder, l *applogger.Logger) *usecase.Orchestrator {
	return usecase.NewOrchestrator(screener, backtester, batch, sink, usecase.PipelineConfig{
		MaxTickers:    cfg.Pipeline.MaxTickers,
		MinTotalValue: cfg.Pipeline.MinTotalValue,
		Notify:        cfg.Pipeline.Notify,
	}, m, l)
}

func ProvideHandler(screener *usecase.Screener, backtester *usecase.Backtester, ingestor *usecase.Ingestor, orch *usecase.Orchestrator, cfg *config.Config, l *applogger.Logger) *api.Handler {
	return api.NewHandler(screener, backtester, ingestor, orch, api.RateLimit{
		Capacity:     cfg.Server.RateLimit.Capacity,
		RefillPerSec: cfg.Server.RateLimit.RefillPerSec,
	}, l)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, handler *api.Handler, orch *usecase.Orchestrator, l *applogger.Logger) *server.App {
	return server.New(cfg, handler, orch, l)
}
