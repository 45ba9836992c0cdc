package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/util"
	"github.com/mieruca/mieruca-kokkai/pkg/errors"
)

// Service is the file-backed result cache, one JSON file per chamber and
// mode key. It decides whether a previous run is still usable so the
// pipeline can short-circuit.
type Service struct {
	dir    string
	logger *zap.Logger
}

type Options struct {
	MaxAge       time.Duration
	ForceRefresh bool
}

type Decision struct {
	UseCache   bool
	CachedData *domain.CacheEntry
}

const DefaultMaxAge = 24 * time.Hour

func NewService(dir string, logger *zap.Logger) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewCacheError("failed to create cache directory", "init", dir, err)
	}
	return &Service{dir: dir, logger: logger}, nil
}

func (s *Service) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Decide checks force-refresh, then file age against MaxAge, then parses
// and schema-checks the entry. Staleness, corruption and schema drift all
// read as cache-absent; a stale or broken file must never block a fresh
// scrape.
func (s *Service) Decide(key string, opts Options) Decision {
	if opts.ForceRefresh {
		s.logger.Info("Cache bypassed (force refresh)", zap.String("key", key))
		return Decision{}
	}

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	info, err := os.Stat(s.path(key))
	if err != nil {
		return Decision{}
	}

	age := time.Since(info.ModTime())
	if age >= maxAge {
		s.logger.Info("Cache entry stale",
			zap.String("key", key),
			zap.String("written", util.FormatJST(info.ModTime(), time.RFC3339)),
			zap.Duration("age", age),
			zap.Duration("max_age", maxAge))
		return Decision{}
	}

	entry, ok := s.read(key)
	if !ok {
		return Decision{}
	}

	s.logger.Info("Cache hit",
		zap.String("key", key),
		zap.Int("members", len(entry.Members)),
		zap.Duration("age", age))

	return Decision{UseCache: true, CachedData: entry}
}

// read parses and validates one entry. Any read, parse or shape problem
// reads as a miss.
func (s *Service) read(key string) (*domain.CacheEntry, bool) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		s.logger.Warn("Cache entry corrupt - ignoring", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if entry.Members == nil || entry.ScrapedAt == "" || entry.Source == "" {
		s.logger.Warn("Cache entry schema mismatch - ignoring", zap.String("key", key))
		return nil, false
	}

	return &entry, true
}

// Write persists an entry atomically (temp file then rename), so a
// crashed run never leaves a half-written entry behind.
func (s *Service) Write(key string, entry *domain.CacheEntry) error {
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return errors.NewCacheError("marshal failed", "write", key, err)
	}

	target := s.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.NewCacheError("write failed", "write", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return errors.NewCacheError("rename failed", "write", key, err)
	}

	s.logger.Info("Cache entry written",
		zap.String("key", key),
		zap.Int("members", len(entry.Members)))

	return nil
}

// Invalidate removes an entry. A missing file is not an error.
func (s *Service) Invalidate(key string) error {
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return errors.NewCacheError("remove failed", "invalidate", key, err)
	}
	return nil
}
