package chapter_index

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Breeze-mi/Novel-crawler/common/html_util"
	"github.com/Breeze-mi/Novel-crawler/text_norm"
	"golang.org/x/net/html"
)

var (
	reNavPath    = regexp.MustCompile(`(?i)/sort/|/author/|/fullbook/|/mybook|/cover/|/index|/class\d+-|/quanben|/top|/dll|/user/`)
	reNoiseTitle = regexp.MustCompile(`直达页面底部|直达底部|直达底|加入书架`)
)

// Checks if a raw href value could point to a chapter page.
func isChapterHref(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" {
		return false
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(href, "#") {
		return false
	}

	return strings.HasSuffix(lower, ".html")
}

// Resolves a relative href against the page URL and strips fragment and query
// parts. Empty string is returned when resolution is impossible.
func absURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}

	var resolved *url.URL
	if base != nil {
		resolved = base.ResolveReference(ref)
	} else {
		resolved = ref
	}

	resolved.Fragment = ""
	resolved.RawQuery = ""

	return resolved.String()
}

// Checks if the URL path looks like site navigation instead of a chapter,
// e.g. author pages, category listings, bookshelf or pagination index pages.
func isNavPath(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	return reNavPath.MatchString(parsed.Path)
}

// Checks for non-chapter anchor text commonly found on mobile layouts, like
// jump-to-bottom or add-to-bookshelf buttons.
func isNoiseTitle(title string) bool {
	t := text_norm.NormalizeTitle(title)
	if t == "" {
		return false
	}

	return reNoiseTitle.MatchString(t)
}

// Checks for noise href values: fragment jumps and page-bottom shortcuts.
func isNoiseHref(href string) bool {
	s := strings.ToLower(strings.TrimSpace(href))
	if s == "" {
		return false
	}

	if strings.HasPrefix(s, "#") {
		return true
	}
	if strings.Contains(s, "#footer") || strings.Contains(s, "#bottom") {
		return true
	}
	if strings.Contains(s, "footer") && strings.Contains(s, ".html") {
		return true
	}

	if strings.Contains(s, "底部") || strings.Contains(s, "页底") {
		return strings.HasPrefix(s, "javascript:") ||
			strings.Contains(s, "#") ||
			strings.Contains(s, ".html")
	}

	return false
}

// Turns one anchor node into a chapter entry. Nil is returned for anything
// rejected: noise href, non-.html target, navigation path, noise title.
// Callers must skip nil results.
func entryFromAnchor(node *html.Node, base *url.URL) *ChapterEntry {
	href, _ := html_util.GetNodeAttrVal(node, "href", "")
	href = strings.TrimSpace(href)
	if href == "" || isNoiseHref(href) {
		return nil
	}

	resolved := absURL(base, href)
	if !isChapterHref(resolved) || isNavPath(resolved) {
		return nil
	}

	title := text_norm.NormalizeTitle(text_norm.CleanText(html_util.NodeText(node)))
	if isNoiseTitle(title) {
		return nil
	}

	return &ChapterEntry{Title: title, URL: resolved}
}
