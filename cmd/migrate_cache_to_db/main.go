package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/config"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/service/database"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

// Backfills the Postgres archive from cache files written by earlier
// scraper runs. Every <chamber>_<mode>.json in the cache directory becomes
// one archived run, so a database brought up after months of file-cached
// scraping starts with the full history the files still hold.

var (
	dryRun   = flag.Bool("dry-run", false, "validate and summarize without writing to the database")
	cacheDir = flag.String("cache-dir", "", "cache directory to read (default: CACHE_DIR)")
	verbose  = flag.Bool("verbose", false, "log each archived entry")
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	dir := *cacheDir
	if dir == "" {
		dir = cfg.Cache.Dir
	}

	entries, err := loadCacheEntries(dir)
	if err != nil {
		logger.Fatal("failed to read cache directory", zap.String("dir", dir), zap.Error(err))
	}
	if len(entries) == 0 {
		logger.Fatal("no cache entries found", zap.String("dir", dir))
	}
	logger.Info("Loaded cache entries", zap.Int("count", len(entries)), zap.String("dir", dir))

	if err := validateEntries(entries); err != nil {
		logger.Fatal("cache validation failed", zap.Error(err))
	}

	if *dryRun {
		printSummary(logger, entries)
		return
	}

	if !cfg.Postgres.Enabled() {
		logger.Fatal("POSTGRES_HOST is required to migrate")
	}

	postgres, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.DBName,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer postgres.Close()

	ctx := context.Background()
	archive := database.NewMemberArchive(postgres, logger)
	if err := archive.EnsureSchema(ctx); err != nil {
		logger.Fatal("failed to ensure schema", zap.Error(err))
	}

	migrated := 0
	for key, entry := range entries {
		chamber, mode, ok := splitKey(key)
		if !ok {
			logger.Warn("Skipping unrecognized cache file", zap.String("key", key))
			continue
		}

		scrapedAt, err := time.Parse(time.RFC3339, entry.ScrapedAt)
		if err != nil {
			logger.Warn("Entry has no usable timestamp, using now",
				zap.String("key", key),
				zap.String("scrapedAt", entry.ScrapedAt))
			scrapedAt = util.NowJST()
		} else {
			scrapedAt = util.ToJST(scrapedAt)
		}

		if err := archive.ArchiveRun(ctx, chamber, mode, entry.Members, scrapedAt, entry.Source); err != nil {
			logger.Fatal("failed to archive run", zap.String("key", key), zap.Error(err))
		}
		migrated++

		if *verbose {
			logger.Info("Archived run",
				zap.String("key", key),
				zap.Int("members", len(entry.Members)))
		}
	}

	logger.Info("Migration completed", zap.Int("runs", migrated))
}

func loadCacheEntries(dir string) (map[string]*domain.CacheEntry, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]*domain.CacheEntry)
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		var entry domain.CacheEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}

		entries[strings.TrimSuffix(file.Name(), ".json")] = &entry
	}

	return entries, nil
}

func splitKey(key string) (domain.Chamber, domain.ScrapeMode, bool) {
	chamberPart, modePart, ok := strings.Cut(key, "_")
	if !ok {
		return "", "", false
	}

	var chamber domain.Chamber
	switch chamberPart {
	case string(domain.ChamberRepresentatives):
		chamber = domain.ChamberRepresentatives
	case string(domain.ChamberCouncillors):
		chamber = domain.ChamberCouncillors
	default:
		return "", "", false
	}

	var mode domain.ScrapeMode
	switch modePart {
	case string(domain.ModeBasic):
		mode = domain.ModeBasic
	case string(domain.ModeFull):
		mode = domain.ModeFull
	default:
		return "", "", false
	}

	return chamber, mode, true
}

func validateEntries(entries map[string]*domain.CacheEntry) error {
	for key, entry := range entries {
		if entry.Members == nil {
			return fmt.Errorf("%s: missing member list", key)
		}
		if entry.Source == "" {
			return fmt.Errorf("%s: missing source", key)
		}

		names := make(map[string]bool, len(entry.Members))
		for i, member := range entry.Members {
			if member.Name == "" {
				return fmt.Errorf("%s: member %d has no name", key, i)
			}
			if names[member.Name] {
				return fmt.Errorf("%s: duplicate member %s", key, member.Name)
			}
			names[member.Name] = true
		}
	}
	return nil
}

func printSummary(logger *zap.Logger, entries map[string]*domain.CacheEntry) {
	totalMembers := 0
	withProfiles := 0
	for key, entry := range entries {
		profiled := 0
		for _, member := range entry.Members {
			if member.Profile != nil {
				profiled++
			}
		}
		totalMembers += len(entry.Members)
		withProfiles += profiled

		logger.Info("Would archive",
			zap.String("key", key),
			zap.Int("members", len(entry.Members)),
			zap.Int("with_profiles", profiled),
			zap.String("scrapedAt", entry.ScrapedAt))
	}

	logger.Info("Dry-run completed",
		zap.Int("runs", len(entries)),
		zap.Int("members", totalMembers),
		zap.Int("with_profiles", withProfiles))
}
