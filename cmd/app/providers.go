package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/rcbeall1/stylescout/pkg/metrics"

	"github.com/rcbeall1/stylescout/internal/domain/feedback"
	"github.com/rcbeall1/stylescout/internal/domain/quota"
	"github.com/rcbeall1/stylescout/internal/domain/stylist"
	"github.com/rcbeall1/stylescout/internal/infra/config"
	"github.com/rcbeall1/stylescout/internal/infra/feedbackrepo"
	"github.com/rcbeall1/stylescout/internal/infra/imagestore"
	"github.com/rcbeall1/stylescout/internal/infra/provider"
	"github.com/rcbeall1/stylescout/internal/infra/quotarepo"
	httpiface "github.com/rcbeall1/stylescout/internal/interface/http"
)

func provideStylistOptions(cfg *config.Config) stylist.Options {
	return stylist.Options{
		ImageCount:  cfg.Images.Count,
		TaskTimeout: cfg.Images.TaskTimeout,
		Stagger:     cfg.Images.Stagger,
	}
}

func provideEstimator() *metrics.Estimator {
	return metrics.NewEstimator()
}

func provideProviderSource(cfg *config.Config, logger *slog.Logger) stylist.ProviderSource {
	return provider.NewRegistry(cfg.Provider.Primary, cfg.Provider.Keys, logger)
}

// provideQuotaPersistence picks the quota backend: valkey when an address is
// configured, otherwise the JSON file, otherwise memory. Any backend failure
// falls through to the next option so startup never blocks on storage.
func provideQuotaPersistence(cfg *config.Config, logger *slog.Logger) quota.Persistence {
	if addr := strings.TrimSpace(cfg.Quota.ValkeyAddr); addr != "" {
		opt, err := buildValkeyOptions(addr)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to file store", "error", err)
		} else if client, err := valkey.NewClient(opt); err != nil {
			logger.Error("failed to create valkey client, falling back to file store", "error", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
				logger.Error("valkey ping failed, falling back to file store", "error", err)
			} else {
				logger.Info("quota valkey store enabled", "addr", addr)
				return quotarepo.NewValkeyStore(client, "stylescout")
			}
		}
	}
	if path := strings.TrimSpace(cfg.Quota.DataFile); path != "" {
		return quotarepo.NewFileStore(path)
	}
	logger.Info("quota persistence not configured, tracking in memory")
	return quotarepo.NewMemoryStore()
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideQuotaStore(cfg *config.Config, repo quota.Persistence, logger *slog.Logger) *quota.Store {
	return quota.NewStore(cfg.Quota.DailyLimits, repo, logger)
}

// provideImageStore prefers the S3-compatible bucket when configured so
// image handles survive restarts and replicas.
func provideImageStore(cfg *config.Config, logger *slog.Logger) stylist.ImageStore {
	store := cfg.Images.Store
	if store.Endpoint != "" && store.Bucket != "" {
		objectStore, err := imagestore.NewObjectStore(store.Endpoint, store.AccessKey, store.SecretKey,
			store.Bucket, store.Region, cfg.Images.BlobTTL, logger)
		if err != nil {
			logger.Error("failed to initialize image object store, using memory store", "error", err)
		} else {
			logger.Info("image object store enabled", "bucket", store.Bucket)
			return objectStore
		}
	}
	return imagestore.NewMemoryStore(cfg.Images.BlobTTL)
}

func provideFeedbackRepository(cfg *config.Config, logger *slog.Logger) feedback.Repository {
	dsn := strings.TrimSpace(cfg.Feedback.PostgresDSN)
	if dsn != "" {
		poolConfig, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			logger.Error("invalid feedback postgres dsn, using file repository", "error", err)
		} else {
			if cfg.Feedback.MaxConns > 0 {
				poolConfig.MaxConns = cfg.Feedback.MaxConns
			}
			if cfg.Feedback.MinConns > 0 {
				poolConfig.MinConns = cfg.Feedback.MinConns
			}
			pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
			if err != nil {
				logger.Error("failed to initialize feedback postgres pool, using file repository", "error", err)
			} else {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := pool.Ping(ctx); err != nil {
					logger.Error("feedback postgres ping failed, using file repository", "error", err)
					pool.Close()
				} else {
					logger.Info("feedback postgres repository enabled")
					return feedbackrepo.NewPostgresRepository(pool)
				}
			}
		}
	}
	if path := strings.TrimSpace(cfg.Feedback.DataFile); path != "" {
		return feedbackrepo.NewFileRepository(path)
	}
	return feedbackrepo.NewMemoryRepository()
}

func provideAdminHandler(store *quota.Store, cfg *config.Config, logger *slog.Logger) *httpiface.AdminHandler {
	return httpiface.NewAdminHandler(store, cfg.Provider.Primary, logger)
}
