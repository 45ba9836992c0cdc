package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/config"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/service"
	"github.com/mieruca/mieruca-kokkai/internal/service/cache"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

// Re-runs profile enrichment over an already-cached member list. The
// directory pages are not touched; only the per-member profile pages are
// fetched again. Useful after extraction changes, when the list result is
// still fresh but the attached profiles are not.
func main() {
	chamberFlag := flag.String("chamber", "shugiin", "chamber whose cached list to enrich: shugiin or sangiin")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	chamber, err := parseChamber(*chamberFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	cacheSvc, err := cache.NewService(cfg.Cache.Dir, logger)
	if err != nil {
		logger.Fatal("failed to open cache", zap.Error(err))
	}

	basicKey := domain.CacheKey(chamber, domain.ModeBasic)
	decision := cacheSvc.Decide(basicKey, cache.Options{MaxAge: cfg.Cache.MaxAge})
	if !decision.UseCache {
		logger.Fatal("no usable cached member list - run the scraper first",
			zap.String("key", basicKey),
			zap.String("dir", cfg.Cache.Dir))
	}

	members := decision.CachedData.Members
	logger.Info("Enriching cached member list",
		zap.String("chamber", string(chamber)),
		zap.Int("members", len(members)))

	source := service.NewHTTPPageSource(cfg.Timeouts.Navigation, cfg.HTTP.UserAgent, nil, logger)
	enricher := service.NewEnricher(source, service.NewProfileExtractor(), logger)

	stats, err := enricher.Enrich(context.Background(), members, service.EnrichOptions{
		Concurrency:  cfg.Enrichment.Concurrency,
		Delay:        cfg.Enrichment.Delay,
		FetchTimeout: cfg.Timeouts.ProfileFetch,
	})
	if err != nil {
		logger.Fatal("enrichment failed", zap.Error(err))
	}
	if stats.Succeeded == 0 {
		logger.Fatal("no profiles fetched", zap.Int("attempted", stats.Attempted))
	}

	fullKey := domain.CacheKey(chamber, domain.ModeFull)
	entry := &domain.CacheEntry{
		Members:   members,
		ScrapedAt: util.NowJST().Format(time.RFC3339),
		Source:    decision.CachedData.Source,
	}
	if err := cacheSvc.Write(fullKey, entry); err != nil {
		logger.Fatal("failed to write enriched entry", zap.String("key", fullKey), zap.Error(err))
	}

	logger.Info("Profile fetch completed",
		zap.Int("attempted", stats.Attempted),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed),
		zap.String("key", fullKey))
}

func parseChamber(value string) (domain.Chamber, error) {
	switch value {
	case "shugiin":
		return domain.ChamberRepresentatives, nil
	case "sangiin":
		return domain.ChamberCouncillors, nil
	default:
		return "", fmt.Errorf("unknown chamber %q (want shugiin or sangiin)", value)
	}
}
