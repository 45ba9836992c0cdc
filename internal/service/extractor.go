package service

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

// partyScanWindow bounds how many cells after the name are searched for a
// faction match. Column order varies per template but the faction column
// never sits far from the name.
const partyScanWindow = 3

// RowExtractor turns one page's table rows into deduplicated RawRecords.
// It is a pure function of its input; running it twice on the same rows
// yields the same records.
type RowExtractor struct {
	logger *zap.Logger
}

func NewRowExtractor(logger *zap.Logger) *RowExtractor {
	return &RowExtractor{logger: logger}
}

// ExtractRows walks the rows in order and also reports how many rows had
// member shape (enough cells) but produced no record. Rows that do not
// look like member rows are silently skipped; duplicated names keep the
// first occurrence.
func (e *RowExtractor) ExtractRows(rows []TableRow, baseURL string) ([]domain.RawRecord, int) {
	records := make([]domain.RawRecord, 0, len(rows))
	skipped := 0
	seen := make(map[string]bool)

	for _, row := range rows {
		if len(row.Cells) < constants.ScrapeLimits.MinMemberCells {
			continue
		}

		name := strings.TrimSpace(row.Cells[0].Text)
		if !qualifiesAsName(name) {
			e.logger.Debug("Row without member name skipped",
				zap.String("cell", util.TruncateString(name, constants.ScrapeLimits.RowLogLength)))
			skipped++
			continue
		}

		name = strings.TrimSuffix(name, constants.HonorificSuffix)
		name = strings.TrimSpace(name)
		if seen[name] {
			e.logger.Debug("Duplicate row dropped", zap.String("name", name))
			skipped++
			continue
		}
		seen[name] = true

		last, first := splitName(name)
		record := domain.RawRecord{
			Name:       name,
			LastName:   last,
			FirstName:  first,
			Party:      constants.UnknownValue,
			ProfileURL: ResolveProfileURL(row.Cells[0].Href, baseURL),
		}

		window := row.Cells[1:]
		if len(window) > partyScanWindow {
			window = window[:partyScanWindow]
		}
		for _, cell := range window {
			if record.Furigana == "" && util.IsKanaOnly(cell.Text) {
				record.Furigana = cell.Text
			}
		}
		record.Party = matchParty(window)

		// District and count candidates are searched across every cell,
		// not a fixed column; the two scans are independent and may both
		// hit the same cell.
		for _, cell := range row.Cells {
			if record.RawDistrict == "" && IsDistrictCandidate(cell.Text) {
				record.RawDistrict = cell.Text
			}
			if record.RawElectionCount == "" && ParseElectionCount(cell.Text) != nil {
				record.RawElectionCount = cell.Text
			}
			if record.TermEnds == "" && isTermDate(cell.Text) {
				record.TermEnds = cell.Text
			}
		}

		records = append(records, record)
	}

	return records, skipped
}

// qualifiesAsName rejects short cells and header keywords (exact or
// prefix), which silently drops header rows.
func qualifiesAsName(text string) bool {
	if utf8.RuneCountInString(text) < 2 {
		return false
	}
	for _, kw := range constants.HeaderKeywords {
		if text == kw || strings.HasPrefix(text, kw) {
			return false
		}
	}
	return true
}

// splitName cuts a full name at its first space into family and given
// parts. Names without one keep everything in the family part.
func splitName(name string) (last, first string) {
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

func matchParty(window []PageCell) string {
	for _, cell := range window {
		text := cell.Text
		if text == "" {
			continue
		}
		for _, party := range constants.Parties {
			for _, kw := range party.Keywords {
				if strings.Contains(text, kw) {
					return party.Name
				}
			}
		}
	}
	return constants.UnknownValue
}

var termDatePattern = regexp.MustCompile(`^(\d{4}年|(令和|平成|昭和)(\d{1,2}|元)年)\d{1,2}月\d{1,2}日$`)

// isTermDate recognizes the term-expiration column of the upper-house
// directory, Gregorian or era-numbered.
func isTermDate(text string) bool {
	return termDatePattern.MatchString(strings.TrimSpace(util.FoldDigits(text)))
}

// ResolveProfileURL turns a row's anchor into an absolute profile URL.
// Relative paths resolve against the list page's own URL; absolute URLs
// are kept only when their scheme is http or https, so javascript: and
// data: pointers never survive extraction.
func ResolveProfileURL(href, baseURL string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	if ref.IsAbs() {
		if util.Contains(constants.AllowedURLSchemes, ref.Scheme) {
			return ref.String()
		}
		return ""
	}
	if ref.Scheme != "" {
		return ""
	}

	base, err := url.Parse(baseURL)
	if err != nil || !base.IsAbs() {
		return ""
	}
	return base.ResolveReference(ref).String()
}
