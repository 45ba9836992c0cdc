package service

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/util"
	"github.com/mieruca/mieruca-kokkai/pkg/errors"
)

type EnrichOptions struct {
	Concurrency  int
	Delay        time.Duration
	FetchTimeout time.Duration
}

type EnrichStats struct {
	Attempted int
	Succeeded int
	Failed    int
}

// Enricher attaches profiles to members that carry a profile URL. Fetches
// run in consecutive batches of the configured concurrency; the whole
// batch settles before the next starts, and a politeness delay separates
// batches (never trailing the last one).
type Enricher struct {
	source    PageSource
	extractor *ProfileExtractor
	logger    *zap.Logger
}

func NewEnricher(source PageSource, extractor *ProfileExtractor, logger *zap.Logger) *Enricher {
	return &Enricher{
		source:    source,
		extractor: extractor,
		logger:    logger,
	}
}

// Enrich mutates members in place between batches. A single member's
// failure (bad scheme, network error, timeout) is logged and counted,
// never propagated; only a missing page source is fatal. A fetch that
// succeeds but extracts nothing counts as a success with no profile
// attached.
func (en *Enricher) Enrich(ctx context.Context, members []domain.Member, opts EnrichOptions) (EnrichStats, error) {
	stats := EnrichStats{}
	if en.source == nil {
		return stats, errors.NewServiceError("no page source available", "enricher", "enrich", nil)
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	delay := opts.Delay
	if delay < 0 {
		delay = 0
	}

	targets := make([]int, 0, len(members))
	for i := range members {
		if members[i].ProfileURL != "" {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return stats, nil
	}

	en.logger.Info("Enrichment started",
		zap.Int("members", len(targets)),
		zap.Int("concurrency", concurrency),
		zap.Duration("delay", delay))

	for start := 0; start < len(targets); start += concurrency {
		end := min(start+concurrency, len(targets))
		batch := targets[start:end]

		// Goroutines write into a batch-local map under a mutex; the
		// members slice is only touched after the batch has settled.
		results := make(map[int]*domain.Profile, len(batch))
		resultsMu := sync.Mutex{}

		p := pool.New().WithMaxGoroutines(concurrency)
		for _, idx := range batch {
			idx := idx
			member := members[idx]
			p.Go(func() {
				profile, err := en.fetchOne(ctx, member.ProfileURL, opts.FetchTimeout)

				resultsMu.Lock()
				defer resultsMu.Unlock()
				if err != nil {
					stats.Failed++
					en.logger.Warn("Profile fetch failed",
						zap.String("member", member.Name),
						zap.String("url", member.ProfileURL),
						zap.Error(err))
					return
				}
				stats.Succeeded++
				if profile != nil {
					results[idx] = profile
				}
			})
		}
		p.Wait()

		for idx, profile := range results {
			members[idx].Profile = profile
		}
		stats.Attempted += len(batch)

		if end < len(targets) && delay > 0 {
			select {
			case <-ctx.Done():
				return stats, ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	en.logger.Info("Enrichment completed",
		zap.Int("attempted", stats.Attempted),
		zap.Int("succeeded", stats.Succeeded),
		zap.Int("failed", stats.Failed))

	return stats, nil
}

// fetchOne validates the URL scheme before any navigation, fetches under
// its own timeout, and runs the extractor. A nil profile with nil error
// means the page yielded nothing.
func (en *Enricher) fetchOne(ctx context.Context, rawURL string, timeout time.Duration) (*domain.Profile, error) {
	u, err := url.Parse(rawURL)
	if err != nil || !util.Contains(constants.AllowedURLSchemes, u.Scheme) {
		return nil, errors.NewValidationError("unsupported profile URL scheme", "profileUrl", rawURL)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	page, err := en.source.FetchProfile(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return en.extractor.Extract(page), nil
}
