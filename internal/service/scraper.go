package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
)

// ScraperService drives the list phase: every configured directory page of
// a chamber is fetched, extracted and classified, and the per-page results
// merge into one member list. The list phase always completes before any
// enrichment starts.
type ScraperService struct {
	source      PageSource
	extractor   *RowExtractor
	classifier  *DistrictClassifier
	pageTimeout time.Duration
	logger      *zap.Logger
}

func NewScraperService(source PageSource, extractor *RowExtractor, classifier *DistrictClassifier, pageTimeout time.Duration, logger *zap.Logger) *ScraperService {
	return &ScraperService{
		source:      source,
		extractor:   extractor,
		classifier:  classifier,
		pageTimeout: pageTimeout,
		logger:      logger,
	}
}

// ScrapeChamber walks pageURLs in order. Page-level fetch failures are
// logged and survived; only a run that produces zero members across every
// page fails, as that means the directory template no longer matches.
func (s *ScraperService) ScrapeChamber(ctx context.Context, chamber domain.Chamber, pageURLs []string) ([]domain.Member, error) {
	members := make([]domain.Member, 0)
	seen := make(map[string]bool)
	skippedRows := 0
	pageErrors := 0

	for _, pageURL := range pageURLs {
		rows, err := s.fetchRows(ctx, pageURL)
		if err != nil {
			pageErrors++
			s.logger.Error("Directory page fetch failed",
				zap.String("chamber", string(chamber)),
				zap.String("url", pageURL),
				zap.Error(err))
			continue
		}

		records, skipped := s.extractor.ExtractRows(rows, pageURL)
		skippedRows += skipped

		for _, record := range records {
			if seen[record.Name] {
				continue
			}
			seen[record.Name] = true
			members = append(members, s.buildMember(chamber, record))
		}

		s.logger.Debug("Directory page scraped",
			zap.String("url", pageURL),
			zap.Int("records", len(records)),
			zap.Int("skipped", skipped))
	}

	if len(members) == 0 {
		return nil, &StructureChangedError{
			Message:     fmt.Sprintf("no members found for %s - HTML structure may have changed", chamber),
			ParseErrors: skippedRows + pageErrors,
		}
	}

	if float64(skippedRows) > constants.ScrapeLimits.MaxSkippedRowRatio*float64(len(members)) {
		s.logger.Warn("High skipped row rate detected",
			zap.Int("members", len(members)),
			zap.Int("skipped_rows", skippedRows))
	}

	s.logger.Info("Chamber scraped",
		zap.String("chamber", string(chamber)),
		zap.Int("members", len(members)),
		zap.Int("pages", len(pageURLs)),
		zap.Int("page_errors", pageErrors),
		zap.Int("skipped_rows", skippedRows))

	return members, nil
}

func (s *ScraperService) fetchRows(ctx context.Context, pageURL string) ([]TableRow, error) {
	if s.pageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.pageTimeout)
		defer cancel()
	}
	return s.source.FetchRows(ctx, pageURL)
}

// buildMember merges a raw record with its classified descriptor. The
// term-expiration column exists only in the upper-house directory, so the
// field is dropped for the lower house even if a date-shaped cell matched.
func (s *ScraperService) buildMember(chamber domain.Chamber, record domain.RawRecord) domain.Member {
	member := domain.Member{
		Name:          record.Name,
		LastName:      record.LastName,
		FirstName:     record.FirstName,
		Furigana:      record.Furigana,
		Party:         record.Party,
		District:      s.classifier.Classify(record.RawDistrict),
		ElectionCount: ParseElectionCount(record.RawElectionCount),
		ProfileURL:    record.ProfileURL,
	}
	if chamber == domain.ChamberCouncillors {
		member.TermEnds = record.TermEnds
	}
	return member
}

// StructureChangedError reports a scrape that found nothing where members
// were expected.
type StructureChangedError struct {
	Message     string
	ParseErrors int
}

func (e *StructureChangedError) Error() string {
	return fmt.Sprintf("%s (parse errors: %d)", e.Message, e.ParseErrors)
}

func IsStructureError(err error) bool {
	_, ok := err.(*StructureChangedError)
	return ok
}
