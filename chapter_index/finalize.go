package chapter_index

import (
	"fmt"

	"github.com/Breeze-mi/Novel-crawler/text_norm"
)

// finalizeEntries deduplicates by URL preserving first-seen order, assigns
// contiguous 1-based indices, resolves a best-effort chapter number per entry
// and synthesizes a 第N章 title wherever the scraped title was empty.
func finalizeEntries(entries []ChapterEntry) []ChapterEntry {
	seen := map[string]bool{}
	cleaned := []ChapterEntry{}

	for _, entry := range entries {
		if seen[entry.URL] {
			continue
		}
		seen[entry.URL] = true
		cleaned = append(cleaned, entry)
	}

	final := make([]ChapterEntry, 0, len(cleaned))
	for i, entry := range cleaned {
		index := i + 1

		var chapterNum *int
		if num, ok := text_norm.ParseChapterNumber(entry.Title, entry.URL); ok {
			n := num
			chapterNum = &n
		}

		title := text_norm.NormalizeTitle(entry.Title)
		if title == "" {
			if chapterNum != nil {
				title = fmt.Sprintf("第%d章", *chapterNum)
			} else {
				title = fmt.Sprintf("第%d章", index)
			}
		}

		final = append(final, ChapterEntry{
			Index:      index,
			Title:      title,
			URL:        entry.URL,
			ChapterNum: chapterNum,
		})
	}

	return final
}
