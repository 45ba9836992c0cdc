package domain

// Chamber names one of the two houses of the National Diet.
type Chamber string

const (
	ChamberRepresentatives Chamber = "shugiin"
	ChamberCouncillors     Chamber = "sangiin"
)

// ScrapeMode distinguishes a directory-only run from one that also fetched
// profile pages.
type ScrapeMode string

const (
	ModeBasic ScrapeMode = "basic"
	ModeFull  ScrapeMode = "full"
)

// CacheKey is the per-run result key, one file per chamber and mode.
func CacheKey(chamber Chamber, mode ScrapeMode) string {
	return string(chamber) + "_" + string(mode)
}

// RawRecord is the pre-classification form of one directory table row.
// Created by the row extractor, consumed by the classifier merge, then
// discarded.
type RawRecord struct {
	Name             string
	LastName         string
	FirstName        string
	Furigana         string
	Party            string
	RawDistrict      string
	RawElectionCount string
	ProfileURL       string
	TermEnds         string
}

// Member is one legislator. Name is unique within a scrape run. Profile is
// attached at most once, by enrichment; nil means none was extracted or
// enrichment was not attempted.
type Member struct {
	Name          string             `json:"name"`
	LastName      string             `json:"lastName,omitempty"`
	FirstName     string             `json:"firstName,omitempty"`
	Furigana      string             `json:"furigana,omitempty"`
	Party         string             `json:"party"`
	District      ElectionDescriptor `json:"district"`
	ElectionCount *ElectionCount     `json:"electionCount,omitempty"`
	ProfileURL    string             `json:"profileUrl,omitempty"`
	TermEnds      string             `json:"termEnds,omitempty"`
	Profile       *Profile           `json:"profile,omitempty"`
}

// CacheEntry is the persisted result of one scrape run.
type CacheEntry struct {
	Members   []Member `json:"members"`
	ScrapedAt string   `json:"scrapedAt"`
	Source    string   `json:"source"`
}
