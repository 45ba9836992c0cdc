package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/util"
	"github.com/mieruca/mieruca-kokkai/pkg/errors"
)

// PageCell is one table cell: its normalized text and, when the cell wraps
// an anchor, that anchor's raw href.
type PageCell struct {
	Text string
	Href string
}

// TableRow is one directory table row in document order.
type TableRow struct {
	Cells []PageCell
}

// KeyValue is a labelled pair pulled from a definition list or a
// two-column table on a profile page.
type KeyValue struct {
	Label string
	Value string
}

// PageAnchor is one link on a profile page, href kept raw.
type PageAnchor struct {
	Text string
	Href string
}

// ProfilePage is everything the profile extractor works from: flattened
// body text plus whatever labelled pairs and anchors the page carries.
type ProfilePage struct {
	BodyText string
	Entries  []KeyValue
	Anchors  []PageAnchor
}

// PageSource supplies raw page content to the extractors.
type PageSource interface {
	FetchRows(ctx context.Context, url string) ([]TableRow, error)
	FetchProfile(ctx context.Context, url string) (*ProfilePage, error)
}

type HTTPPageSource struct {
	httpClient *http.Client
	pageCache  *PageCache
	userAgent  string
	logger     *zap.Logger
}

// NewHTTPPageSource builds the live page source. pageCache may be nil, in
// which case every fetch goes to the network.
func NewHTTPPageSource(timeout time.Duration, userAgent string, pageCache *PageCache, logger *zap.Logger) *HTTPPageSource {
	if userAgent == "" {
		userAgent = constants.FetchConfig.UserAgent
	}
	return &HTTPPageSource{
		httpClient: &http.Client{Timeout: timeout},
		pageCache:  pageCache,
		userAgent:  userAgent,
		logger:     logger,
	}
}

func (s *HTTPPageSource) FetchRows(ctx context.Context, url string) ([]TableRow, error) {
	html, err := s.fetchHTML(ctx, url, constants.PageCacheTTL.ListPage)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	rows := make([]TableRow, 0)
	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		row := TableRow{}
		tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
			href, _ := cell.Find("a[href]").First().Attr("href")
			row.Cells = append(row.Cells, PageCell{
				Text: util.NormalizeSpace(cell.Text()),
				Href: strings.TrimSpace(href),
			})
		})
		if len(row.Cells) > 0 {
			rows = append(rows, row)
		}
	})

	s.logger.Debug("Fetched directory page",
		zap.String("url", url),
		zap.Int("rows", len(rows)))

	return rows, nil
}

func (s *HTTPPageSource) FetchProfile(ctx context.Context, url string) (*ProfilePage, error) {
	html, err := s.fetchHTML(ctx, url, constants.PageCacheTTL.ProfilePage)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("HTML parse failed: %w", err)
	}

	page := &ProfilePage{
		BodyText: normalizeBlock(doc.Find("body").Text()),
		Entries:  extractEntries(doc),
		Anchors:  extractAnchors(doc),
	}

	return page, nil
}

func (s *HTTPPageSource) fetchHTML(ctx context.Context, url string, ttl time.Duration) (string, error) {
	if s.pageCache != nil {
		if html, found := s.pageCache.Get(ctx, url); found {
			s.logger.Debug("Page cache hit", zap.String("url", url))
			return html, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", constants.FetchConfig.AcceptLanguage)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", errors.NewFetchError("HTTP request failed", url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewFetchError("unexpected status code", url, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, constants.FetchConfig.MaxBodyBytes))
	if err != nil {
		return "", errors.NewFetchError("body read failed", url, resp.StatusCode, err)
	}

	html := string(body)
	if s.pageCache != nil {
		s.pageCache.Set(ctx, url, html, ttl)
	}

	return html, nil
}

// extractEntries collects labelled pairs from definition lists and from
// two-column table rows. Chamber profile pages use both layouts.
func extractEntries(doc *goquery.Document) []KeyValue {
	entries := make([]KeyValue, 0)

	doc.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		dts := dl.Find("dt")
		dds := dl.Find("dd")
		n := dts.Length()
		if dds.Length() < n {
			n = dds.Length()
		}
		for i := 0; i < n; i++ {
			label := util.NormalizeSpace(dts.Eq(i).Text())
			value := normalizeBlock(dds.Eq(i).Text())
			if label == "" || value == "" {
				continue
			}
			entries = append(entries, KeyValue{Label: label, Value: value})
		}
	})

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		label := util.NormalizeSpace(cells.Eq(0).Text())
		value := normalizeBlock(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		entries = append(entries, KeyValue{Label: label, Value: value})
	})

	return entries
}

func extractAnchors(doc *goquery.Document) []PageAnchor {
	anchors := make([]PageAnchor, 0)
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		anchors = append(anchors, PageAnchor{
			Text: util.NormalizeSpace(a.Text()),
			Href: href,
		})
	})
	return anchors
}

// normalizeBlock folds NBSP, trims every line and drops the empty ones,
// keeping line boundaries for the sentence-level probes.
func normalizeBlock(input string) string {
	input = strings.ReplaceAll(input, " ", " ")
	lines := strings.Split(input, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	return strings.Join(filtered, "\n")
}
