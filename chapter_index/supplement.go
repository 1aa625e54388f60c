package chapter_index

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"

	"github.com/Breeze-mi/Novel-crawler/text_norm"
)

var (
	reAnchorInContainer = regexp.MustCompile(`(?i)<a\s+[^>]*href="(\d+\.html)"[^>]*>([^<]+)</a>`)
	reAnchorText        = regexp.MustCompile(`>([^<]+)</a>`)
)

// Hard caps on missing-number probes, they bound worst-case latency on books
// with huge numbering gaps.
const (
	gapFillLimit      = 240
	gapFillLimitLarge = 120
	largeListSize     = 1500
)

// supplementFromContainer re-scans the serialized HTML of the chosen
// container with a narrow anchor regex to catch entries the structured parser
// missed in malformed tag soup.
func supplementFromContainer(entries []ChapterEntry, containerHTML string, base *url.URL) []ChapterEntry {
	if containerHTML == "" {
		return entries
	}

	existing := map[string]bool{}
	for _, entry := range entries {
		existing[entry.URL] = true
	}

	for _, m := range reAnchorInContainer.FindAllStringSubmatch(containerHTML, -1) {
		resolved := absURL(base, m[1])
		if !isChapterHref(resolved) || existing[resolved] {
			continue
		}

		existing[resolved] = true
		entries = append(entries, ChapterEntry{
			Title: text_norm.NormalizeTitle(text_norm.CleanText(m[2])),
			URL:   resolved,
		})
	}

	return entries
}

// fillNumberGaps locates chapters whose ordinal is missing from the primary
// extraction. When at least 5 entries yielded parseable numbers, every number
// absent from the min..max range is probed with targeted regex patterns over
// the container HTML, bounded by a hard cap. Recovered entries are appended
// at the tail, matching the behavior novels were scraped with so far: final
// ordering comes from encounter order, so late finds sort after the main run.
func fillNumberGaps(ctx context.Context, entries []ChapterEntry, containerHTML string, base *url.URL) []ChapterEntry {
	if containerHTML == "" {
		return entries
	}

	nums := []int{}
	for _, entry := range entries {
		if n, ok := text_norm.ParseChapterNumber(entry.Title, entry.URL); ok {
			nums = append(nums, n)
		}
	}
	if len(nums) < 5 {
		return entries
	}

	sort.Ints(nums)
	minNum, maxNum := nums[0], nums[len(nums)-1]

	present := map[int]bool{}
	for _, n := range nums {
		present[n] = true
	}

	missing := []int{}
	for n := minNum; n <= maxNum; n++ {
		if !present[n] {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return entries
	}

	limit := gapFillLimit
	if len(entries) > largeListSize {
		limit = gapFillLimitLarge
	}
	if len(missing) > limit {
		missing = missing[:limit]
	}

	existing := map[string]bool{}
	for _, entry := range entries {
		existing[entry.URL] = true
	}

	for _, chapterNum := range missing {
		if ctx.Err() != nil {
			break
		}

		entry := probeMissingNumber(containerHTML, chapterNum, base)
		if entry != nil && !existing[entry.URL] {
			existing[entry.URL] = true
			entries = append(entries, *entry)
		}
	}

	return entries
}

// Tries to find one missing chapter number in container HTML, matching the
// 第N章 shape, its 掌 typo variant, then any anchor text containing the bare
// number.
func probeMissingNumber(containerHTML string, chapterNum int, base *url.URL) *ChapterEntry {
	patterns := []string{
		fmt.Sprintf(`(?i)<a\s+[^>]*href="(\d+\.html)"[^>]*>\s*第\s*0*%d\s*章[^<]*</a>`, chapterNum),
		fmt.Sprintf(`(?i)<a\s+[^>]*href="(\d+\.html)"[^>]*>\s*第\s*0*%d\s*掌[^<]*</a>`, chapterNum),
		fmt.Sprintf(`(?i)<a\s+[^>]*href="(\d+\.html)"[^>]*>[^<]*%d[^<]*</a>`, chapterNum),
	}

	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}

		m := re.FindStringSubmatch(containerHTML)
		if m == nil {
			continue
		}

		title := fmt.Sprintf("第%d章", chapterNum)
		if tm := reAnchorText.FindStringSubmatch(m[0]); tm != nil {
			title = text_norm.NormalizeTitle(text_norm.CleanText(tm[1]))
		}

		return &ChapterEntry{
			Title: title,
			URL:   absURL(base, m[1]),
		}
	}

	return nil
}
