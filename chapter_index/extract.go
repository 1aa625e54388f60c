package chapter_index

import (
	"context"
	"net/url"
	"strings"

	"github.com/Breeze-mi/Novel-crawler/common/html_util"
	"github.com/PuerkitoBio/goquery"
)

// PageFetcher supplies secondary table-of-contents pages during pagination
// merging. network.Fetcher satisfies this interface.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (string, error)
}

// Extractor resolves a book detail page into an ordered chapter list.
//
// The zero value works for single-page directories. A Fetcher is required for
// following paginated directories (index_2.html style). OnBatch, when set,
// receives the final entries again in fixed-size batches as a progress
// convenience, it never changes the returned result.
type Extractor struct {
	Fetcher PageFetcher
	OnBatch func(batch []ChapterEntry, done, total int)
}

const emitBatchSize = 500

// Extract parses a chapter directory out of a book detail page.
//
// Strategies are tried in priority order: dl-structure directories, id-marked
// containers, heuristic ul.chapter selection, then a filtered full-page
// anchor sweep. The result is deduplicated by URL with document order
// preserved and indexed 1..N. Malformed markup never raises, the worst case
// is an empty slice.
func (ex *Extractor) Extract(ctx context.Context, indexHTML, baseURL string) []ChapterEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(indexHTML))
	if err != nil {
		return []ChapterEntry{}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		base = nil
	}

	// dl directories reliably reflect true chapter order, return right away
	if entries := extractFromDLStructure(doc, base); len(entries) > 0 {
		return ex.finish(finalizeEntries(entries))
	}

	container := findAllChaptersList(doc)

	var entries []ChapterEntry
	if container != nil {
		entries = collectAnchorEntries(container, base)
	} else {
		entries = collectAnchorEntries(doc.Selection, base)
	}

	// regex passes are restricted to the chosen container, never the full page
	if container != nil {
		containerHTML := html_util.RenderNode(container.Get(0))
		entries = supplementFromContainer(entries, containerHTML, base)
		entries = fillNumberGaps(ctx, entries, containerHTML, base)
	}

	entries = ex.mergePaginatedPages(ctx, doc, indexHTML, baseURL, base, entries)

	return ex.finish(finalizeEntries(entries))
}

// Extract runs a one-shot extraction without pagination fetching.
func Extract(indexHTML, baseURL string) []ChapterEntry {
	ex := &Extractor{}
	return ex.Extract(context.Background(), indexHTML, baseURL)
}

// Collects anchor entries under given selection in document order,
// deduplicating by resolved URL.
func collectAnchorEntries(scope *goquery.Selection, base *url.URL) []ChapterEntry {
	entries := []ChapterEntry{}
	seen := map[string]bool{}

	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		entry := entryFromAnchor(a.Get(0), base)
		if entry == nil || seen[entry.URL] {
			return
		}

		seen[entry.URL] = true
		entries = append(entries, *entry)
	})

	return entries
}

func (ex *Extractor) finish(final []ChapterEntry) []ChapterEntry {
	if ex.OnBatch != nil {
		total := len(final)
		for start := 0; start < total; start += emitBatchSize {
			end := start + emitBatchSize
			if end > total {
				end = total
			}
			ex.OnBatch(final[start:end], end, total)
		}
	}

	return final
}
