// Package chapter_index extracts the chapter table-of-contents of a web novel
// from a book detail page. Site layouts vary wildly, so extraction runs a
// chain of candidate strategies in priority order and degrades gracefully.
// Worst case result is an empty list, extraction itself never fails.
package chapter_index

// ChapterEntry is one row of a book's table of contents.
//
// Index is 1-based and contiguous, assigned by final ordering. It reflects
// DOM encounter order, not ChapterNum: numbers scraped from the wild are
// unreliable (duplicated, missing, typo-ridden), document order is the ground
// truth for narrative sequence.
type ChapterEntry struct {
	Index      int    `json:"index"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	ChapterNum *int   `json:"chapter_num"`
}
