package chapter_index

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reHTMLBookPath = regexp.MustCompile(`/html/\d+/(\d+)/`)
	reBookHTMLHref = regexp.MustCompile(`(?i)href=["'](/book/\d+\.html)["']`)
)

// LocateFullIndexURL looks for a fuller chapter directory page linked from a
// book detail page. Some sites keep only a preview list on the detail page
// and publish the complete directory on a mobile /book/ page. Returns the
// absolute URL of the better page, or empty string when the page in hand is
// already the best known directory.
func LocateFullIndexURL(pageURL, pageHTML string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	base := parsed

	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML)); err == nil {
		// og:novel:read_url / og:url meta tags
		for _, prop := range []string{"og:novel:read_url", "og:url"} {
			content := strings.TrimSpace(doc.Find(fmt.Sprintf(`meta[property=%q]`, prop)).AttrOr("content", ""))
			if content != "" && strings.Contains(content, "/book/") && strings.HasSuffix(content, "/") {
				return content
			}
		}

		// explicit mobile-version links
		found := ""
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href := strings.TrimSpace(a.AttrOr("href", ""))
			if href == "" || !strings.Contains(href, "/book/") {
				return true
			}

			resolved := absURL(base, href)
			target, err := url.Parse(resolved)
			if err != nil {
				return true
			}

			if strings.Contains(target.Hostname(), "m.") && strings.HasSuffix(resolved, "/") {
				found = resolved
				return false
			}

			return true
		})
		if found != "" {
			return found
		}
	}

	// tbxsvv/tbxsw keep the full directory on m.<root>/book/<id>/
	if strings.Contains(host, "tbxsvv.cc") || strings.Contains(host, "tbxsw.cc") {
		if m := reHTMLBookPath.FindStringSubmatch(parsed.Path); m != nil {
			parts := strings.SplitN(host, ".", 2)
			root := host
			if len(parts) == 2 {
				root = parts[1]
			}
			return fmt.Sprintf("https://m.%s/book/%s/", root, m[1])
		}
	}

	// syvvw detail pages link the directory as /book/<id>.html
	if strings.Contains(host, "syvvw.cc") {
		if m := reBookHTMLHref.FindStringSubmatch(pageHTML); m != nil {
			return absURL(base, m[1])
		}
	}

	return ""
}
