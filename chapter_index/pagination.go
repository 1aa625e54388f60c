package chapter_index

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Breeze-mi/Novel-crawler/common/html_util"
	"github.com/Breeze-mi/Novel-crawler/text_norm"
	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var rePagination = regexp.MustCompile(`(?i)(?:^|/)(?:index|list)_(\d+)\.html$`)

type pageRef struct {
	num int
	url string
}

// mergePaginatedPages detects secondary table-of-contents pages and, when any
// page beyond the first exists, rebuilds the whole chapter list by walking
// every page in ascending page-number order. Partial merges are deliberately
// avoided, individual pages are not order-stable without the full set.
//
// Page discovery prefers the deterministic select/option page picker of the
// first page, breadth-first link discovery only runs when the picker yields
// nothing.
func (ex *Extractor) mergePaginatedPages(ctx context.Context, doc *goquery.Document, indexHTML, baseURL string, base *url.URL, entries []ChapterEntry) []ChapterEntry {
	pages := collectOptionPages(doc, base, baseURL)

	hasPaged := false
	for _, page := range pages {
		if page.num >= 2 {
			hasPaged = true
			break
		}
	}

	if hasPaged {
		if ex.Fetcher == nil {
			return entries
		}
		return ex.rebuildFromPages(ctx, pages, indexHTML)
	}

	if ex.Fetcher == nil {
		return entries
	}

	return ex.crawlPaginationBFS(ctx, doc, baseURL, base, entries)
}

// Fetches every directory page and concatenates their entries in page order.
// The first page is extracted from the HTML already in hand.
func (ex *Extractor) rebuildFromPages(ctx context.Context, pages []pageRef, indexHTML string) []ChapterEntry {
	rebuilt := []ChapterEntry{}

	for _, page := range pages {
		if ctx.Err() != nil {
			break
		}

		pageHTML := indexHTML
		if page.num != 1 {
			fetched, err := ex.Fetcher.Fetch(ctx, page.url)
			if err != nil {
				log.Warnf("skip directory page %s: %s", page.url, err)
				continue
			}
			pageHTML = fetched
		}

		rebuilt = append(rebuilt, extractEntriesFromPagedHTML(pageHTML, page.url)...)
	}

	return rebuilt
}

// Reads the page-picker option values of the first page, keeping values whose
// path matches the pagination URL shape, sorted by embedded page number.
func collectOptionPages(doc *goquery.Document, base *url.URL, baseURL string) []pageRef {
	pages := []pageRef{{num: 1, url: baseURL}}

	doc.Find("option").Each(func(_ int, opt *goquery.Selection) {
		val := strings.TrimSpace(opt.AttrOr("value", ""))
		if val == "" {
			return
		}

		resolved := absURL(base, val)
		num, ok := paginationPageNumber(resolved)
		if ok && num >= 2 {
			pages = append(pages, pageRef{num: num, url: resolved})
		}
	})

	seen := map[string]bool{}
	deduped := pages[:0]
	for _, page := range pages {
		if seen[page.url] {
			continue
		}
		seen[page.url] = true
		deduped = append(deduped, page)
	}

	sort.SliceStable(deduped, func(i, j int) bool { return deduped[i].num < deduped[j].num })

	return deduped
}

// Extracts the page number embedded in a pagination-shaped URL path.
func paginationPageNumber(pageURL string) (int, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return 0, false
	}

	m := rePagination.FindStringSubmatch(parsed.Path)
	if m == nil {
		return 0, false
	}

	num, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}

	return num, true
}

// Breadth-first discovery of directory pages: follow pagination-shaped
// anchors and options restricted to the same directory as the page being
// scanned until no new page turns up. A visited set guards against cycles.
func (ex *Extractor) crawlPaginationBFS(ctx context.Context, doc *goquery.Document, baseURL string, base *url.URL, entries []ChapterEntry) []ChapterEntry {
	visited := map[string]bool{baseURL: true}

	queue := collectPaginationURLs(doc, baseURL, base)
	for _, u := range queue {
		visited[u] = true
	}

	for i := 0; i < len(queue); i++ {
		if ctx.Err() != nil {
			break
		}

		pageURL := queue[i]
		pageHTML, err := ex.Fetcher.Fetch(ctx, pageURL)
		if err != nil {
			log.Warnf("skip directory page %s: %s", pageURL, err)
			continue
		}

		entries = append(entries, extractEntriesFromPagedHTML(pageHTML, pageURL)...)

		pageDoc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
		if err != nil {
			continue
		}

		pageBase, err := url.Parse(pageURL)
		if err != nil {
			pageBase = nil
		}

		for _, next := range collectPaginationURLs(pageDoc, pageURL, pageBase) {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}

	return entries
}

// Collects pagination-shaped URLs from anchors and option values, restricted
// to the same directory as the current page. Results are sorted by page
// number so discovery order stays deterministic.
func collectPaginationURLs(doc *goquery.Document, currentURL string, base *url.URL) []string {
	currentDir := ""
	if parsed, err := url.Parse(currentURL); err == nil {
		path := parsed.Path
		if idx := strings.LastIndex(path, "/"); idx >= 0 {
			currentDir = path[:idx+1]
		}
	}

	found := map[string]int{}

	consider := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}

		resolved := absURL(base, raw)
		num, ok := paginationPageNumber(resolved)
		if !ok {
			return
		}

		if parsed, err := url.Parse(resolved); err != nil {
			return
		} else if currentDir != "" && !strings.HasPrefix(parsed.Path, currentDir) {
			return
		}

		if resolved != "" && resolved != currentURL {
			found[resolved] = num
		}
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		consider(a.AttrOr("href", ""))
	})
	doc.Find("option").Each(func(_ int, opt *goquery.Selection) {
		consider(opt.AttrOr("value", ""))
	})

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool {
		if found[urls[i]] != found[urls[j]] {
			return found[urls[i]] < found[urls[j]]
		}
		return urls[i] < urls[j]
	})

	return urls
}

// extractEntriesFromPagedHTML pulls chapter entries out of one directory page
// using container-scoped extraction only, tuned for paginated layouts. The
// 正文 intro marker adjacent ul.chapter wins so that a latest-chapters preview
// never leaks in, then #list dl, then any ul.chapter.
func extractEntriesFromPagedHTML(pageHTML, pageURL string) []ChapterEntry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	if target := findIntroChapterList(doc); target != nil {
		entries := collectAnchorEntriesNoDedup(target, base)
		if len(entries) > 0 {
			return entries
		}
	}

	if dl := doc.Find("#list dl").First(); dl.Length() > 0 {
		entries := []ChapterEntry{}
		dl.Find("dd").Each(func(_ int, dd *goquery.Selection) {
			if entry := firstAnchorEntry(dd.Get(0), base); entry != nil {
				entries = append(entries, *entry)
			}
		})
		if len(entries) > 0 {
			return entries
		}
	}

	entries := []ChapterEntry{}
	doc.Find("ul.chapter").Each(func(_ int, ul *goquery.Selection) {
		entries = append(entries, collectAnchorEntriesNoDedup(ul, base)...)
	})

	return entries
}

// Finds the ul.chapter sitting right after a div.intro whose text is exactly
// 正文.
func findIntroChapterList(doc *goquery.Document) *goquery.Selection {
	var target *goquery.Selection

	doc.Find("div.intro").EachWithBreak(func(_ int, intro *goquery.Selection) bool {
		if text_norm.CleanText(intro.Text()) != "正文" {
			return true
		}

		for sibling := intro.Get(0).NextSibling; sibling != nil; sibling = sibling.NextSibling {
			if sibling.Type != html.ElementNode {
				continue
			}
			if sibling.DataAtom == atom.Ul && html_util.NodeHasClass(sibling, "chapter") {
				target = newSingleSelection(doc, sibling)
				return false
			}
		}

		return true
	})

	return target
}

func newSingleSelection(doc *goquery.Document, node *html.Node) *goquery.Selection {
	return doc.FindNodes(node)
}

// Entry collection without URL dedup, pagination merging dedups once at
// finalization over the full stream.
func collectAnchorEntriesNoDedup(scope *goquery.Selection, base *url.URL) []ChapterEntry {
	entries := []ChapterEntry{}

	scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if entry := entryFromAnchor(a.Get(0), base); entry != nil {
			entries = append(entries, *entry)
		}
	})

	return entries
}
