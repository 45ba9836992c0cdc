package service

import (
	"regexp"
	"strings"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

// Profile pages are biographical prose with no stable schema, so
// extraction is a cascade of independent pattern probes. Each probe is
// optional and silent on no-match; only the university probe depends on an
// earlier probe's output (the first education entry).

var (
	readingHeadingPattern = regexp.MustCompile(`^(\S{1,20})（([ぁ-んァ-ヶー・ ]+)）`)
	birthDatePattern      = regexp.MustCompile(`((明治|大正|昭和|平成|令和)(\d{1,2}|元)年\d{1,2}月\d{1,2}日)生`)
	birthPlacePattern     = regexp.MustCompile(`([ぁ-んァ-ヶ一-龥]{2,10}?(県|府|都|道|市|町|村)?)(出身|生まれ)`)
	educationPattern      = regexp.MustCompile(`([^\s、。・]+大学[^\s、。・]*卒業)`)
	universityPattern     = regexp.MustCompile(`^(.*?大学)`)
	electionPattern       = regexp.MustCompile(`当選(\d{1,2}|[一二三四五六七八九十]{1,3})回(（([^）]+)）)?`)
)

var occupationKeywords = []string{
	"弁護士", "医師", "歯科医師", "薬剤師", "看護師", "税理士", "公認会計士",
	"司法書士", "行政書士", "大学教授", "教授", "教員", "新聞記者", "記者",
	"アナウンサー", "会社役員", "団体役員", "会社員", "銀行員", "秘書",
	"知事", "市長", "町長", "村長", "都議会議員", "県議会議員", "市議会議員",
	"国家公務員", "地方公務員", "公務員", "農業", "漁業",
}

var positionKeywords = struct {
	Government []string
	Party      []string
	Diet       []string
}{
	Government: []string{"内閣総理大臣", "大臣政務官", "副大臣", "大臣", "長官", "補佐官"},
	Party:      []string{"総裁", "党代表", "代表", "幹事長", "政務調査会長", "政調会長", "総務会長", "選挙対策委員長", "国会対策委員長"},
	Diet:       []string{"議長", "副議長", "議院運営", "常任委員長", "特別委員長", "委員長"},
}

// entryLabelRoutes maps collaborator key/value labels onto profile fields.
// Labels not listed here land verbatim in AdditionalInfo.
var entryLabelRoutes = map[string]string{
	"生年月日":   "birthDate",
	"出身地":    "birthPlace",
	"出身":     "birthPlace",
	"ふりがな":   "nameReading",
	"読み方":    "nameReading",
	"よみがな":   "nameReading",
	"学歴":     "education",
	"経歴":     "biography",
	"略歴":     "biography",
	"プロフィール": "biography",
	"委員会":    "committees",
	"当選回数":   "timesElected",
	"役職":     "positions",
	"現職":     "positions",
}

type ProfileExtractor struct{}

func NewProfileExtractor() *ProfileExtractor {
	return &ProfileExtractor{}
}

// Extract runs every probe over the page. Returns nil when nothing at all
// was extracted, so an empty page collapses to "no profile".
func (e *ProfileExtractor) Extract(page *ProfilePage) *domain.Profile {
	if page == nil {
		return nil
	}

	p := &domain.Profile{}
	body := util.FoldDigits(page.BodyText)

	e.extractReading(p, body)
	e.extractBirth(p, body)
	e.extractEducation(p, body)
	e.extractOccupations(p, body)
	e.extractPositions(p, body)
	e.extractElectionHistory(p, body)
	e.extractHonors(p, body)
	e.extractLinks(p, page.Anchors)
	e.applyEntries(p, page.Entries)

	if !p.HasAnyField() {
		return nil
	}
	return p
}

// extractReading reads the 名前（よみがな） heading form from the first
// line of the page.
func (e *ProfileExtractor) extractReading(p *domain.Profile, body string) {
	firstLine, _, _ := strings.Cut(body, "\n")
	m := readingHeadingPattern.FindStringSubmatch(firstLine)
	if m == nil {
		return
	}
	reading := util.NormalizeSpace(m[2])
	if util.IsKanaOnly(reading) {
		p.NameReading = reading
	}
}

func (e *ProfileExtractor) extractBirth(p *domain.Profile, body string) {
	m := birthDatePattern.FindStringSubmatchIndex(body)
	if m == nil {
		return
	}
	p.BirthDate = body[m[2]:m[3]]

	// The birthplace clause follows the date on every known template, so
	// only the text after the match is searched.
	rest := body[m[1]:]
	if len(rest) > 200 {
		rest = rest[:200]
	}
	if pm := birthPlacePattern.FindStringSubmatch(rest); pm != nil {
		p.BirthPlace = pm[1]
	}
}

func (e *ProfileExtractor) extractEducation(p *domain.Profile, body string) {
	for _, m := range educationPattern.FindAllString(body, -1) {
		if !util.Contains(p.Education, m) {
			p.Education = append(p.Education, m)
		}
	}
	if len(p.Education) > 0 {
		if um := universityPattern.FindStringSubmatch(p.Education[0]); um != nil {
			p.University = um[1]
		}
	}
}

func (e *ProfileExtractor) extractOccupations(p *domain.Profile, body string) {
	for _, segment := range splitSegments(body) {
		for _, kw := range occupationKeywords {
			idx := strings.Index(segment, kw)
			if idx < 0 {
				continue
			}
			if hasFormerMarker(segment, idx) {
				if !util.Contains(p.PreviousOccupations, kw) {
					p.PreviousOccupations = append(p.PreviousOccupations, kw)
				}
			} else {
				if !util.Contains(p.Occupations, kw) {
					p.Occupations = append(p.Occupations, kw)
				}
			}
			break
		}
	}
}

func (e *ProfileExtractor) extractPositions(p *domain.Profile, body string) {
	for _, segment := range splitSegments(body) {
		routePosition(p, segment)
	}
}

// routePosition sorts one position phrase into its sphere bucket, current
// or previous depending on the 元/前 prefix. Phrases matching no bucket
// are dropped.
func routePosition(p *domain.Profile, segment string) {
	former := hasFormerMarker(segment, 0)
	title := strings.TrimPrefix(strings.TrimPrefix(segment, "元"), "前")

	target := &p.CurrentPositions
	if former {
		target = &p.PreviousPositions
	}

	if containsAny(segment, positionKeywords.Government) {
		appendUnique(&target.Government, title)
	} else if containsAny(segment, positionKeywords.Party) {
		appendUnique(&target.Party, title)
	} else if containsAny(segment, positionKeywords.Diet) {
		appendUnique(&target.Diet, title)
	}
}

func (e *ProfileExtractor) extractElectionHistory(p *domain.Profile, body string) {
	m := electionPattern.FindStringSubmatch(body)
	if m == nil {
		return
	}
	p.TimesElected = util.ParseJapaneseNumber(m[1])
	if m[3] != "" {
		for _, term := range splitSegments(m[3]) {
			appendUnique(&p.Terms, term)
		}
	}
}

// extractHonors collects era-prefixed commendation sentences.
func (e *ProfileExtractor) extractHonors(p *domain.Profile, body string) {
	for _, segment := range splitSegments(body) {
		if util.HasEraPrefix(segment) && strings.Contains(segment, "表彰") {
			appendUnique(&p.Honors, segment)
		}
	}
}

func (e *ProfileExtractor) extractLinks(p *domain.Profile, anchors []PageAnchor) {
	for _, a := range anchors {
		href := a.Href
		switch {
		case p.Email == "" && strings.HasPrefix(href, "mailto:"):
			email, _, _ := strings.Cut(strings.TrimPrefix(href, "mailto:"), "?")
			p.Email = email
		case p.Website == "" && isExternalWebsite(href):
			p.Website = href
		}
		if p.Email != "" && p.Website != "" {
			return
		}
	}
}

// isExternalWebsite accepts absolute http(s) links that do not point at
// the screen-reader widget every chamber page embeds.
func isExternalWebsite(href string) bool {
	if !strings.HasPrefix(href, "http://") && !strings.HasPrefix(href, "https://") {
		return false
	}
	for _, host := range constants.ExcludedLinkHosts {
		if strings.Contains(href, host) {
			return false
		}
	}
	return true
}

func (e *ProfileExtractor) applyEntries(p *domain.Profile, entries []KeyValue) {
	for _, entry := range entries {
		label := util.NormalizeSpace(entry.Label)
		value := strings.TrimSpace(entry.Value)
		if label == "" || value == "" {
			continue
		}

		switch entryLabelRoutes[label] {
		case "birthDate":
			if p.BirthDate == "" {
				p.BirthDate = value
			}
		case "birthPlace":
			if p.BirthPlace == "" {
				p.BirthPlace = value
			}
		case "nameReading":
			if p.NameReading == "" {
				p.NameReading = value
			}
		case "education":
			if len(p.Education) == 0 {
				p.Education = append(p.Education, splitSegments(value)...)
			}
		case "biography":
			if p.Biography == "" {
				p.Biography = value
			}
		case "committees":
			for _, committee := range splitSegments(value) {
				appendUnique(&p.Committees, committee)
			}
		case "positions":
			for _, segment := range splitSegments(value) {
				routePosition(p, segment)
			}
		case "timesElected":
			if p.TimesElected == 0 {
				n := util.ParseJapaneseNumber(strings.TrimSuffix(value, "回"))
				if n >= constants.ElectionCountLimits.Min && n <= constants.ElectionCountLimits.Max {
					p.TimesElected = n
				}
			}
		default:
			if p.AdditionalInfo == nil {
				p.AdditionalInfo = make(map[string]string)
			}
			if _, exists := p.AdditionalInfo[label]; !exists {
				p.AdditionalInfo[label] = value
			}
		}
	}
}

// splitSegments cuts prose on enumeration punctuation and line breaks.
func splitSegments(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '。' || r == '、' || r == '・' || r == ',' || r == '\n'
	})
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

// hasFormerMarker reports whether the keyword at idx is marked former,
// either by an immediately preceding 元/前 or by the segment opening with
// one.
func hasFormerMarker(segment string, idx int) bool {
	if strings.HasPrefix(segment, "元") || strings.HasPrefix(segment, "前") {
		return true
	}
	if idx >= len("元") {
		prev := segment[idx-len("元") : idx]
		return prev == "元" || prev == "前"
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func appendUnique(dst *[]string, value string) {
	value = strings.TrimSpace(value)
	if value == "" || util.Contains(*dst, value) {
		return
	}
	*dst = append(*dst, value)
}
