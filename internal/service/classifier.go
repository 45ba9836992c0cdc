package service

import (
	"regexp"
	"strings"

	"github.com/mieruca/mieruca-kokkai/internal/constants"
	"github.com/mieruca/mieruca-kokkai/internal/domain"
	"github.com/mieruca/mieruca-kokkai/internal/util"
)

// DistrictClassifier turns free-text constituency cells into typed
// descriptors. Classification is total and deterministic: every input,
// including the empty string, yields a valid descriptor.
type DistrictClassifier struct {
	rules []classifierRule
}

// classifierRule is one step of the cascade. The slice order carries the
// matching priority; earlier rules win.
type classifierRule struct {
	name  string
	match func(text string) bool
	build func(text string) domain.ElectionDescriptor
}

func NewDistrictClassifier() *DistrictClassifier {
	return &DistrictClassifier{
		rules: []classifierRule{
			{
				name: "empty-or-unknown",
				match: func(text string) bool {
					return text == "" || text == constants.UnknownValue
				},
				build: func(string) domain.ElectionDescriptor {
					return domain.NewSingleSeatDescriptor(constants.UnknownValue, "")
				},
			},
			{
				// Pure digits are an election count that landed in the
				// district column, not a district.
				name:  "bare-count",
				match: isAllDigits,
				build: func(string) domain.ElectionDescriptor {
					return domain.NewSingleSeatDescriptor(constants.UnknownValue, "")
				},
			},
			{
				name: "proportional",
				match: func(text string) bool {
					return strings.Contains(text, constants.ProportionalMarker)
				},
				build: func(text string) domain.ElectionDescriptor {
					for _, block := range constants.ProportionalBlocks {
						if strings.Contains(trimProportionalMarker(text), block) {
							return domain.NewProportionalDescriptor(block)
						}
					}
					return domain.NewProportionalDescriptor(text)
				},
			},
			{
				name: "prefecture-with-number",
				match: func(text string) bool {
					_, _, ok := splitPrefectureNumber(text)
					return ok
				},
				build: func(text string) domain.ElectionDescriptor {
					prefecture, number, _ := splitPrefectureNumber(text)
					return domain.NewSingleSeatDescriptor(prefecture, number)
				},
			},
			{
				name: "prefecture-exact",
				match: func(text string) bool {
					return util.Contains(constants.Prefectures, text)
				},
				build: func(text string) domain.ElectionDescriptor {
					return domain.NewSingleSeatDescriptor(text, "")
				},
			},
			{
				// Fallback for unseen template variants: split a trailing
				// digit run off whatever region text precedes it.
				name: "trailing-number-split",
				match: func(text string) bool {
					head, number := splitTrailingDigits(text)
					return head != "" && number != ""
				},
				build: func(text string) domain.ElectionDescriptor {
					head, number := splitTrailingDigits(text)
					return domain.NewSingleSeatDescriptor(head, number)
				},
			},
			{
				name:  "verbatim",
				match: func(string) bool { return true },
				build: func(text string) domain.ElectionDescriptor {
					return domain.NewSingleSeatDescriptor(text, "")
				},
			},
		},
	}
}

// Classify normalizes the cell and walks the rule list, first match wins.
func (c *DistrictClassifier) Classify(text string) domain.ElectionDescriptor {
	text = NormalizeDistrictText(text)
	for _, rule := range c.rules {
		if rule.match(text) {
			return rule.build(text)
		}
	}
	// unreachable, the verbatim rule matches everything
	return domain.NewSingleSeatDescriptor(text, "")
}

// IsDistrictCandidate reports whether a cell looks like a constituency by
// one of the strong shapes (proportional marker, prefecture prefix). The
// row extractor uses this to pick the district cell; the weaker fallback
// rules stay out of cell selection so that unrelated columns do not match.
func IsDistrictCandidate(text string) bool {
	text = NormalizeDistrictText(text)
	if text == "" || isAllDigits(text) {
		return false
	}
	if strings.Contains(text, constants.ProportionalMarker) {
		return true
	}
	if _, _, ok := splitPrefectureNumber(text); ok {
		return true
	}
	return util.Contains(constants.Prefectures, text)
}

// NormalizeDistrictText folds full-width digits, trims, and drops the 区
// suffix after a district number. Both digit encodings and both suffixed
// and bare forms appear across page templates.
func NormalizeDistrictText(text string) string {
	text = strings.TrimSpace(util.FoldDigits(text))
	if trimmed, ok := strings.CutSuffix(text, "区"); ok {
		if len(trimmed) > 0 && trimmed[len(trimmed)-1] >= '0' && trimmed[len(trimmed)-1] <= '9' {
			text = trimmed
		}
	}
	return text
}

var electionCountPattern = regexp.MustCompile(`^(\d{1,2})[（(]` + constants.SenateMarker + `(\d{1,2})[）)]$`)

// ParseElectionCount reads an election-count cell: a bare digit string for
// house-only, or the compound N（参M） form. Components outside [1,25] are
// rejected as not-a-count (those are typically years or stray figures).
// Returns nil when the text is not a count.
func ParseElectionCount(text string) *domain.ElectionCount {
	text = strings.TrimSpace(util.FoldDigits(text))
	if text == "" {
		return nil
	}

	if isAllDigits(text) {
		n := atoiDigits(text)
		if !countInRange(n) {
			return nil
		}
		return &domain.ElectionCount{House: n}
	}

	m := electionCountPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	house := atoiDigits(m[1])
	senate := atoiDigits(m[2])
	if !countInRange(house) || !countInRange(senate) {
		return nil
	}
	return &domain.ElectionCount{House: house, Senate: senate}
}

func countInRange(n int) bool {
	return n >= constants.ElectionCountLimits.Min && n <= constants.ElectionCountLimits.Max
}

func trimProportionalMarker(text string) string {
	return strings.ReplaceAll(text, constants.ProportionalMarker, "")
}

func splitPrefectureNumber(text string) (prefecture, number string, ok bool) {
	for _, p := range constants.Prefectures {
		rest, found := strings.CutPrefix(text, p)
		if !found || rest == "" {
			continue
		}
		if isAllDigits(rest) {
			return p, rest, true
		}
	}
	return "", "", false
}

func splitTrailingDigits(text string) (head, number string) {
	i := len(text)
	for i > 0 && text[i-1] >= '0' && text[i-1] <= '9' {
		i--
	}
	return text[:i], text[i:]
}

func isAllDigits(text string) bool {
	if text == "" {
		return false
	}
	for _, r := range text {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func atoiDigits(text string) int {
	n := 0
	for _, r := range text {
		n = n*10 + int(r-'0')
	}
	return n
}
