// Package text_norm provides text cleanup helpers shared by chapter index and
// chapter content extraction. All functions are pure, no I/O is involved.
package text_norm

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reBlankRun = regexp.MustCompile("[\r\t ]+")

	// Typo correction is anchored to the chapter heading shape, plain prose in
	// the rest of a title is never touched.
	reHeadingTypoPrefix = regexp.MustCompile(`^(?:底|都)(\s*[零〇一二三四五六七八九十百千万0-9]+)`)
	reHeadingTypoUnit   = regexp.MustCompile(`(第\s*[零〇一二三四五六七八九十百千万0-9]+\s*)[张璋漳仗中钟衷]`)

	reNumHTMLTail   = regexp.MustCompile(`(?i)(\d+)\.html$`)
	reTitleChapNum  = regexp.MustCompile(`第\s*([0-9０-９零〇一二三四五六七八九十百千万]+)\s*[章掌回集卷]`)
	reDigitRun      = regexp.MustCompile(`\d+`)
	reLeadingZeroes = regexp.MustCompile(`^0+`)
)

// CleanText collapses tab, carriage return and non-breaking space runs into
// single spaces, then collapses all remaining whitespace runs and trims.
func CleanText(s string) string {
	if s == "" {
		return ""
	}

	t := reBlankRun.ReplaceAllString(s, " ")

	return strings.Join(strings.Fields(t), " ")
}

// NormalizeTitle cleans a chapter title and corrects common typo-style
// character substitutions found in scraped chapter headings, e.g. a leading
// 底/都 standing in for 第, or 张/掌-like characters standing in for 章 right
// after the chapter number.
func NormalizeTitle(title string) string {
	t := CleanText(title)
	if t == "" {
		return t
	}

	t = reHeadingTypoPrefix.ReplaceAllString(t, "第$1")
	t = reHeadingTypoUnit.ReplaceAllString(t, "${1}章")

	return strings.Join(strings.Fields(t), " ")
}

var chnDigits = map[rune]int{
	'零': 0, '〇': 0,
	'一': 1, '二': 2, '三': 3, '四': 4, '五': 5,
	'六': 6, '七': 7, '八': 8, '九': 9,
}

var chnUnits = map[rune]int{
	'十': 10, '百': 100, '千': 1000, '万': 10000,
}

// ChineseNumeralToInt parses a standard Chinese numeral string into an
// integer with positional accumulation, e.g. 十二 = 12, 一百零五 = 105. A lone
// 十 implies a leading one. Returns false on any unrecognized character.
func ChineseNumeralToInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if isASCIIDigits(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	}

	total := 0
	current := 0
	hasUnit := false

	for _, ch := range s {
		if d, ok := chnDigits[ch]; ok {
			current = current*10 + d
		} else if unit, ok := chnUnits[ch]; ok {
			hasUnit = true
			if current == 0 {
				current = 1
			}
			total += current * unit
			current = 0
		} else {
			return 0, false
		}
	}

	total += current
	if total == 0 && hasUnit {
		return 10, true
	}
	if total <= 0 {
		return 0, false
	}

	return total, true
}

// FoldFullWidthDigits replaces full-width digits ０-９ with their ASCII
// counterpart, other characters are copied unchanged.
func FoldFullWidthDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '０' && r <= '９' {
			return r - '０' + '0'
		}
		return r
	}, s)
}

// ParseChapterNumber extracts a best-effort chapter ordinal from title or URL.
// Trailing digits in the URL right before ".html" win, the 第N章 pattern in
// the normalized title is used as fallback, then any bare short digit run in
// the title. Returns false when nothing matches.
func ParseChapterNumber(title, pageURL string) (int, bool) {
	if pageURL != "" {
		if m := reNumHTMLTail.FindStringSubmatch(pageURL); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	}

	if title == "" {
		return 0, false
	}

	norm := NormalizeTitle(title)
	if m := reTitleChapNum.FindStringSubmatch(norm); m != nil {
		s := strings.TrimSpace(FoldFullWidthDigits(m[1]))
		if isASCIIDigits(s) {
			s = reLeadingZeroes.ReplaceAllString(s, "")
			if s == "" {
				s = "0"
			}
			if n, err := strconv.Atoi(s); err == nil {
				return n, true
			}
		}
		if n, ok := ChineseNumeralToInt(s); ok {
			return n, true
		}
	}

	// loose fallback, first standalone digit run of at most 6 digits
	for _, run := range reDigitRun.FindAllString(norm, -1) {
		if len(run) > 6 {
			continue
		}
		if n, err := strconv.Atoi(run); err == nil {
			return n, true
		}
	}

	return 0, false
}

func isASCIIDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
