package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/config"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/service"
	"github.com/mieruca/mieruca-kokkai/internal/service/cache"
)

type stubSource struct {
	mu        sync.Mutex
	rowsCalls int
	rows      map[string][]service.TableRow
	pages     map[string]*service.ProfilePage
}

func (s *stubSource) FetchRows(_ context.Context, url string) ([]service.TableRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rowsCalls++
	rows, ok := s.rows[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return rows, nil
}

func (s *stubSource) FetchProfile(_ context.Context, url string) (*service.ProfilePage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	page, ok := s.pages[url]
	if !ok {
		return nil, fmt.Errorf("no fixture for %s", url)
	}
	return page, nil
}

func (s *stubSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsCalls
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Sites: config.SitesConfig{
			Shugiin: config.SiteConfig{BaseURL: "https://example.jp", ListPages: []string{"/shugiin.htm"}},
			Sangiin: config.SiteConfig{BaseURL: "https://example.jp", ListPages: []string{"/sangiin.htm"}},
		},
		Cache:      config.CacheConfig{Dir: t.TempDir(), MaxAge: time.Hour},
		Enrichment: config.EnrichmentConfig{Concurrency: 2},
		Timeouts:   config.TimeoutConfig{PageLoad: time.Second, ProfileFetch: time.Second},
	}
}

func testSource() *stubSource {
	return &stubSource{
		rows: map[string][]service.TableRow{
			"https://example.jp/shugiin.htm": {
				{Cells: []service.PageCell{
					{Text: "山田 太郎君", Href: "profile/1.htm"},
					{Text: "自民"},
					{Text: "東京1区"},
					{Text: "5"},
				}},
			},
			"https://example.jp/sangiin.htm": {
				{Cells: []service.PageCell{
					{Text: "佐藤 花子君"},
					{Text: "公明党"},
					{Text: "東京"},
					{Text: "令和10年7月25日"},
				}},
			},
		},
		pages: map[string]*service.ProfilePage{
			"https://example.jp/profile/1.htm": {BodyText: "弁護士。"},
		},
	}
}

func newTestContainer(t *testing.T, cfg *config.Config, source service.PageSource) *Container {
	t.Helper()
	logger := zap.NewNop()

	cacheSvc, err := cache.NewService(cfg.Cache.Dir, logger)
	if err != nil {
		t.Fatalf("expected cache service to initialize, got %v", err)
	}

	return &Container{
		Config: cfg,
		Logger: logger,
		Scraper: service.NewScraperService(
			source, service.NewRowExtractor(logger), service.NewDistrictClassifier(), time.Second, logger),
		Enricher: service.NewEnricher(source, service.NewProfileExtractor(), logger),
		Cache:    cacheSvc,
	}
}

func TestRunScrapesThenServesFromCache(t *testing.T) {
	cfg := testConfig(t)
	source := testSource()
	container := newTestContainer(t, cfg, source)

	members, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeBasic, false)
	if err != nil {
		t.Fatalf("expected first run to succeed, got %v", err)
	}
	if len(members) != 1 || members[0].Name != "山田 太郎" {
		t.Fatalf("unexpected members: %+v", members)
	}
	if source.fetchCount() != 1 {
		t.Fatalf("expected one page fetch, got %d", source.fetchCount())
	}

	if _, err := os.Stat(filepath.Join(cfg.Cache.Dir, "shugiin_basic.json")); err != nil {
		t.Fatalf("expected a cache file after the run, got %v", err)
	}

	again, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeBasic, false)
	if err != nil {
		t.Fatalf("expected cached run to succeed, got %v", err)
	}
	if len(again) != 1 || again[0].Name != "山田 太郎" {
		t.Fatalf("unexpected cached members: %+v", again)
	}
	if source.fetchCount() != 1 {
		t.Fatalf("expected the cache to absorb the second run, got %d fetches", source.fetchCount())
	}
}

func TestRunForceRefreshRescrapes(t *testing.T) {
	cfg := testConfig(t)
	source := testSource()
	container := newTestContainer(t, cfg, source)

	if _, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeBasic, false); err != nil {
		t.Fatalf("expected first run to succeed, got %v", err)
	}
	if _, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeBasic, true); err != nil {
		t.Fatalf("expected forced run to succeed, got %v", err)
	}

	if source.fetchCount() != 2 {
		t.Fatalf("expected force refresh to fetch again, got %d fetches", source.fetchCount())
	}
}

func TestRunFullModeAttachesProfiles(t *testing.T) {
	cfg := testConfig(t)
	source := testSource()
	container := newTestContainer(t, cfg, source)

	members, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeFull, false)
	if err != nil {
		t.Fatalf("expected full run to succeed, got %v", err)
	}

	if members[0].Profile == nil {
		t.Fatalf("expected an attached profile in full mode")
	}
	if len(members[0].Profile.Occupations) != 1 || members[0].Profile.Occupations[0] != "弁護士" {
		t.Fatalf("unexpected profile content: %+v", members[0].Profile)
	}
}

func TestRunModesCacheSeparately(t *testing.T) {
	cfg := testConfig(t)
	source := testSource()
	container := newTestContainer(t, cfg, source)

	if _, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeBasic, false); err != nil {
		t.Fatalf("expected basic run to succeed, got %v", err)
	}
	if _, err := container.Run(context.Background(), domain.ChamberRepresentatives, domain.ModeFull, false); err != nil {
		t.Fatalf("expected full run to succeed, got %v", err)
	}

	if source.fetchCount() != 2 {
		t.Fatalf("expected basic and full runs to cache under separate keys, got %d fetches", source.fetchCount())
	}
}

func TestRunSelectsChamberPages(t *testing.T) {
	cfg := testConfig(t)
	source := testSource()
	container := newTestContainer(t, cfg, source)

	members, err := container.Run(context.Background(), domain.ChamberCouncillors, domain.ModeBasic, false)
	if err != nil {
		t.Fatalf("expected councillor run to succeed, got %v", err)
	}
	if len(members) != 1 || members[0].Name != "佐藤 花子" {
		t.Fatalf("unexpected members: %+v", members)
	}
	if members[0].TermEnds != "令和10年7月25日" {
		t.Fatalf("expected term end kept for councillors, got %q", members[0].TermEnds)
	}
}

func TestBuildWithMinimalConfig(t *testing.T) {
	cfg := testConfig(t)

	container, err := Build(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("expected build to succeed without optional backends, got %v", err)
	}
	defer container.Close()

	if container.Scraper == nil || container.Enricher == nil || container.Cache == nil {
		t.Fatalf("expected core services to be assembled, got %+v", container)
	}
	if container.Archive != nil {
		t.Fatalf("expected no archive without postgres config")
	}
}

func TestBuildRejectsNilConfig(t *testing.T) {
	if _, err := Build(context.Background(), nil, zap.NewNop()); err == nil {
		t.Fatalf("expected nil config to fail the build")
	}
	if _, err := Build(context.Background(), testConfig(t), nil); err == nil {
		t.Fatalf("expected nil logger to fail the build")
	}
}
