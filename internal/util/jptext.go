package util

import (
	"strconv"
	"strings"
)

// FoldDigits rewrites full-width digits (０-９) to their ASCII equivalents.
// Both digit encodings appear across the chamber page templates.
func FoldDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return '0' + (r - '０')
		}
		return r
	}, s)
}

// IsKanaOnly reports whether s consists of kana (and spaces) with at least
// one kana rune. Reading columns hold hiragana on one chamber's pages and
// katakana on the other's.
func IsKanaOnly(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '　':
			continue
		case r >= 0x3041 && r <= 0x309f: // hiragana
			seen = true
		case r >= 0x30a0 && r <= 0x30ff: // katakana, prolonged mark, middle dot
			seen = true
		default:
			return false
		}
	}
	return seen
}

var kanjiDigits = map[rune]int{
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

// ParseJapaneseNumber reads a small number written either in kanji numerals
// (一 through 九十九, the forms that appear in 当選N回 phrases) or in digits.
// Returns 0 when s is neither.
func ParseJapaneseNumber(s string) int {
	s = strings.TrimSpace(FoldDigits(s))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	tens, ones := 0, 0
	rest := s
	if i := strings.IndexRune(s, '十'); i >= 0 {
		head := s[:i]
		rest = s[i+len("十"):]
		tens = 1
		if head != "" {
			runes := []rune(head)
			if len(runes) != 1 {
				return 0
			}
			d, ok := kanjiDigits[runes[0]]
			if !ok {
				return 0
			}
			tens = d
		}
		tens *= 10
	}
	if rest != "" {
		runes := []rune(rest)
		if len(runes) != 1 {
			return 0
		}
		d, ok := kanjiDigits[runes[0]]
		if !ok {
			return 0
		}
		ones = d
	}
	return tens + ones
}

// HasEraPrefix reports whether s starts with one of the five modern era
// names (明治 through 令和).
func HasEraPrefix(s string) bool {
	for _, era := range []string{"明治", "大正", "昭和", "平成", "令和"} {
		if strings.HasPrefix(s, era) {
			return true
		}
	}
	return false
}
