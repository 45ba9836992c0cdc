package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/domain"
	apperrors "github.com/mieruca/mieruca-kokkai/pkg/errors"
)

// fakePageSource serves canned pages and records how the callers drive it:
// which URLs were requested and how many fetches overlapped.
type fakePageSource struct {
	mu        sync.Mutex
	active    int
	maxActive int
	calls     []string

	hold     time.Duration
	rows     map[string][]TableRow
	rowsErr  error
	pages    map[string]*ProfilePage
	failURLs map[string]bool
}

func (f *fakePageSource) FetchRows(_ context.Context, url string) ([]TableRow, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	fail := f.failURLs[url]
	f.mu.Unlock()

	if f.rowsErr != nil {
		return nil, f.rowsErr
	}
	if fail {
		return nil, fmt.Errorf("fetch %s: connection reset", url)
	}
	return f.rows[url], nil
}

func (f *fakePageSource) FetchProfile(_ context.Context, url string) (*ProfilePage, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.hold > 0 {
		time.Sleep(f.hold)
	}

	f.mu.Lock()
	f.active--
	fail := f.failURLs[url]
	page := f.pages[url]
	f.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("fetch %s: connection reset", url)
	}
	if page == nil {
		page = &ProfilePage{}
	}
	return page, nil
}

func enrichableMembers(n int) []domain.Member {
	members := make([]domain.Member, n)
	for i := range members {
		members[i] = domain.Member{
			Name:       fmt.Sprintf("議員%d", i+1),
			ProfileURL: fmt.Sprintf("https://example.jp/profile/%d.htm", i+1),
		}
	}
	return members
}

func profilePages(members []domain.Member) map[string]*ProfilePage {
	pages := make(map[string]*ProfilePage, len(members))
	for _, m := range members {
		pages[m.ProfileURL] = &ProfilePage{BodyText: "弁護士。"}
	}
	return pages
}

func TestEnrichRespectsConcurrencyBound(t *testing.T) {
	members := enrichableMembers(5)
	source := &fakePageSource{hold: 20 * time.Millisecond, pages: profilePages(members)}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	stats, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if stats.Attempted != 5 || stats.Succeeded != 5 || stats.Failed != 0 {
		t.Fatalf("expected 5/5/0 stats, got %+v", stats)
	}
	if source.maxActive > 2 {
		t.Fatalf("expected at most 2 overlapping fetches, got %d", source.maxActive)
	}
	for i, member := range members {
		if member.Profile == nil {
			t.Fatalf("expected member %d to carry a profile", i)
		}
	}
}

func TestEnrichIsolatesSingleFailures(t *testing.T) {
	members := enrichableMembers(5)
	source := &fakePageSource{
		pages:    profilePages(members),
		failURLs: map[string]bool{members[2].ProfileURL: true},
	}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	stats, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("one bad member must not fail the run, got %v", err)
	}

	if stats.Attempted != 5 || stats.Succeeded != 4 || stats.Failed != 1 {
		t.Fatalf("expected 5/4/1 stats, got %+v", stats)
	}
	if members[2].Profile != nil {
		t.Fatalf("expected the failed member to stay bare, got %+v", members[2].Profile)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if members[i].Profile == nil {
			t.Fatalf("expected member %d to be enriched despite the failure", i)
		}
	}
}

func TestEnrichDelaysBetweenBatches(t *testing.T) {
	members := enrichableMembers(2)
	source := &fakePageSource{pages: profilePages(members)}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	delay := 120 * time.Millisecond
	startedAt := time.Now()
	if _, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 1, Delay: delay}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	elapsed := time.Since(startedAt)

	if elapsed < delay {
		t.Fatalf("expected at least one inter-batch delay, run took %v", elapsed)
	}
	if elapsed >= 4*delay {
		t.Fatalf("expected a single inter-batch delay, run took %v", elapsed)
	}
}

func TestEnrichNoTrailingDelay(t *testing.T) {
	members := enrichableMembers(1)
	source := &fakePageSource{pages: profilePages(members)}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	startedAt := time.Now()
	if _, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 1, Delay: 500 * time.Millisecond}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if elapsed := time.Since(startedAt); elapsed >= 250*time.Millisecond {
		t.Fatalf("expected no delay after the last batch, run took %v", elapsed)
	}
}

func TestEnrichRejectsNonHTTPSchemes(t *testing.T) {
	members := []domain.Member{
		{Name: "名無し"},
		{Name: "悪意", ProfileURL: "javascript:void(0)"},
	}
	source := &fakePageSource{}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	stats, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 2})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if stats.Attempted != 1 || stats.Succeeded != 0 || stats.Failed != 1 {
		t.Fatalf("expected 1/0/1 stats, got %+v", stats)
	}
	if len(source.calls) != 0 {
		t.Fatalf("the source must never see a rejected scheme, got calls %v", source.calls)
	}
}

func TestEnrichEmptyExtractionIsSuccess(t *testing.T) {
	members := enrichableMembers(1)
	source := &fakePageSource{pages: map[string]*ProfilePage{
		members[0].ProfileURL: {BodyText: "ただの文章です。"},
	}}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	stats, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if stats.Succeeded != 1 || stats.Failed != 0 {
		t.Fatalf("expected an empty page to count as success, got %+v", stats)
	}
	if members[0].Profile != nil {
		t.Fatalf("expected no profile attached for an empty page, got %+v", members[0].Profile)
	}
}

func TestEnrichWithoutSourceFails(t *testing.T) {
	enricher := NewEnricher(nil, NewProfileExtractor(), zap.NewNop())

	_, err := enricher.Enrich(context.Background(), enrichableMembers(1), EnrichOptions{})
	if err == nil {
		t.Fatalf("expected an error without a page source")
	}

	var svcErr *apperrors.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected a service error, got %T: %v", err, err)
	}
}

func TestEnrichNormalizesConcurrency(t *testing.T) {
	members := enrichableMembers(3)
	source := &fakePageSource{hold: 10 * time.Millisecond, pages: profilePages(members)}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	stats, err := enricher.Enrich(context.Background(), members, EnrichOptions{Concurrency: 0})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if stats.Attempted != 3 || stats.Succeeded != 3 {
		t.Fatalf("expected all members attempted, got %+v", stats)
	}
	if source.maxActive > 1 {
		t.Fatalf("expected sequential fetches for concurrency 0, got %d overlapping", source.maxActive)
	}
}

func TestEnrichStopsOnCancelledContext(t *testing.T) {
	members := enrichableMembers(3)
	source := &fakePageSource{pages: profilePages(members)}
	enricher := NewEnricher(source, NewProfileExtractor(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	startedAt := time.Now()
	stats, err := enricher.Enrich(ctx, members, EnrichOptions{Concurrency: 1, Delay: 5 * time.Second})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	if stats.Attempted == 0 || stats.Attempted == 3 {
		t.Fatalf("expected a partial run, got %+v", stats)
	}
	if elapsed := time.Since(startedAt); elapsed >= time.Second {
		t.Fatalf("expected cancellation to cut the delay short, run took %v", elapsed)
	}
}
