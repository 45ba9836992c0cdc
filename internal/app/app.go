package app

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/config"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/service"
	"github.com/mieruca/mieruca-kokkai/internal/service/cache"
	"github.com/mieruca/mieruca-kokkai/internal/service/database"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

// Container bundles the assembled services behind one scrape pipeline.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Scraper  *service.ScraperService
	Enricher *service.Enricher
	Cache    *cache.Service
	Archive  *database.MemberArchive

	closers []func()
}

// Build assembles the pipeline. Heavy-weight initialization (Redis,
// Postgres, cache directory) happens here; the optional layers degrade to
// nil with a warning when their backend is configured but unreachable.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	var pageCache *service.PageCache
	if cfg.Redis.Enabled() {
		pc, pcErr := service.NewPageCache(service.PageCacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if pcErr != nil {
			logger.Warn("Page cache unavailable, fetching without it", zap.Error(pcErr))
		} else {
			pageCache = pc
			closers = append(closers, func() {
				_ = pageCache.Close()
			})
		}
	}

	source := service.NewHTTPPageSource(cfg.Timeouts.Navigation, cfg.HTTP.UserAgent, pageCache, logger)
	scraper := service.NewScraperService(
		source,
		service.NewRowExtractor(logger),
		service.NewDistrictClassifier(),
		cfg.Timeouts.PageLoad,
		logger,
	)
	enricher := service.NewEnricher(source, service.NewProfileExtractor(), logger)

	cacheSvc, err := cache.NewService(cfg.Cache.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}

	var archive *database.MemberArchive
	if cfg.Postgres.Enabled() {
		postgresSvc, pgErr := database.NewPostgresService(database.PostgresConfig{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Database: cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
		}, logger)
		if pgErr != nil {
			logger.Warn("Archive unavailable (optional feature)", zap.Error(pgErr))
		} else {
			closers = append(closers, func() {
				_ = postgresSvc.Close()
			})
			archive = database.NewMemberArchive(postgresSvc, logger)
			if schemaErr := archive.EnsureSchema(ctx); schemaErr != nil {
				logger.Warn("Archive schema setup failed, archiving disabled", zap.Error(schemaErr))
				archive = nil
			}
		}
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Scraper:  scraper,
		Enricher: enricher,
		Cache:    cacheSvc,
		Archive:  archive,
		closers:  closers,
	}, nil
}

// Run executes the pipeline for one chamber: cache gate, list scrape,
// optional enrichment, cache write, optional archive. A cache hit
// short-circuits everything after the gate.
func (c *Container) Run(ctx context.Context, chamber domain.Chamber, mode domain.ScrapeMode, forceRefresh bool) ([]domain.Member, error) {
	key := domain.CacheKey(chamber, mode)

	decision := c.Cache.Decide(key, cache.Options{
		MaxAge:       c.Config.Cache.MaxAge,
		ForceRefresh: forceRefresh,
	})
	if decision.UseCache {
		return decision.CachedData.Members, nil
	}
	if forceRefresh {
		if err := c.Cache.Invalidate(key); err != nil {
			c.Logger.Warn("Cache invalidation failed", zap.String("key", key), zap.Error(err))
		}
	}

	site := c.Config.Sites.Shugiin
	if chamber == domain.ChamberCouncillors {
		site = c.Config.Sites.Sangiin
	}

	members, err := c.Scraper.ScrapeChamber(ctx, chamber, site.PageURLs())
	if err != nil {
		return nil, err
	}

	if mode == domain.ModeFull {
		if _, err := c.Enricher.Enrich(ctx, members, service.EnrichOptions{
			Concurrency:  c.Config.Enrichment.Concurrency,
			Delay:        c.Config.Enrichment.Delay,
			FetchTimeout: c.Config.Timeouts.ProfileFetch,
		}); err != nil {
			return nil, err
		}
	}

	scrapedAt := util.NowJST()
	entry := &domain.CacheEntry{
		Members:   members,
		ScrapedAt: scrapedAt.Format(time.RFC3339),
		Source:    sourceTag(site.BaseURL),
	}
	if err := c.Cache.Write(key, entry); err != nil {
		c.Logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}

	if c.Archive != nil {
		if err := c.Archive.ArchiveRun(ctx, chamber, mode, members, scrapedAt, entry.Source); err != nil {
			c.Logger.Warn("Archive write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return members, nil
}

// Close releases the container's backends in reverse build order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

func sourceTag(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return baseURL
}
