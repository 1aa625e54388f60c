// Package chapter_text extracts clean prose from a single chapter page. The
// main content container is located by known id/class markers first, then by
// a largest-text-block heuristic working on anonymous layouts. Extraction is
// a pure function of page HTML, it never fails: the absolute last resort is
// the whole body text split into lines.
package chapter_text

import (
	"regexp"
	"strings"

	"github.com/Breeze-mi/Novel-crawler/text_norm"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Content is the extraction result for one chapter page. Content joins
// Paragraphs with blank lines.
type Content struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Paragraphs []string `json:"paragraphs"`
}

var contentIDs = []string{
	"content", "chaptercontent", "contentbox", "read-content", "bookcontent", "txt", "nr1",
}

var contentClasses = []string{
	"content", "chapter-content", "read-content", "novel-content", "contentbox", "article", "maintext", "nr",
}

const boilerplateSelector = "script, style, iframe, noscript, .ads, .advert, .paybox"

// Containers below this much text are assumed to be navigation or footer
// blocks when falling back to largest-block selection.
const minFallbackTextLen = 120

var reTitleSuffix = regexp.MustCompile(`\s*[-_—|].*$`)

// Extract pulls title and paragraphs out of a chapter page.
func Extract(pageHTML, baseURL string) Content {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return Content{Paragraphs: []string{}}
	}

	title := extractTitle(doc)

	for _, candidate := range collectCandidates(doc) {
		paragraphs := extractParagraphs(candidate)
		if len(paragraphs) == 0 {
			continue
		}

		return Content{
			Title:      title,
			Content:    strings.Join(paragraphs, "\n\n"),
			Paragraphs: paragraphs,
		}
	}

	// last resort, whole page body split into non-empty lines
	body := doc.Find("body").First()
	if body.Length() == 0 {
		body = doc.Selection
	}

	lines := splitNonEmptyLines(textLines(body))

	return Content{
		Title:      title,
		Content:    strings.Join(lines, "\n\n"),
		Paragraphs: lines,
	}
}

// ExtractBookTitle reads a book title from the page <title>, cutting the
// " - site name" style suffix at the first dash.
func ExtractBookTitle(pageHTML string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	title := doc.Find("title").First().Text()
	if title == "" {
		return ""
	}

	title, _, _ = strings.Cut(title, "-")

	return strings.TrimSpace(title)
}

// Title resolution: first h1 wins, else the page <title> with trailing site
// name suffix stripped.
func extractTitle(doc *goquery.Document) string {
	if h1 := doc.Find("h1").First(); h1.Length() > 0 {
		if title := text_norm.CleanText(h1.Text()); title != "" {
			return title
		}
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return ""
	}

	return strings.TrimSpace(reTitleSuffix.ReplaceAllString(title, ""))
}

// Collects candidate content containers: known ids in priority order, then
// every element carrying a known content class, then the largest text block
// on the page.
func collectCandidates(doc *goquery.Document) []*goquery.Selection {
	candidates := []*goquery.Selection{}

	for _, id := range contentIDs {
		if sel := doc.Find("#" + id).First(); sel.Length() > 0 {
			candidates = append(candidates, sel)
		}
	}

	for _, class := range contentClasses {
		doc.Find("." + class).Each(func(_ int, sel *goquery.Selection) {
			candidates = append(candidates, sel)
		})
	}

	if len(candidates) > 0 {
		return candidates
	}

	if sel := largestTextBlock(doc); sel != nil {
		candidates = append(candidates, sel)
	}

	return candidates
}

// Picks the div/article/section with the most text, requiring a minimum so
// that nav and footer blocks are never chosen on near-empty pages.
func largestTextBlock(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestLen := 0

	doc.Find("div, article, section").Each(func(_ int, sel *goquery.Selection) {
		textLen := len([]rune(strings.TrimSpace(sel.Text())))
		if textLen > minFallbackTextLen && textLen > bestLen {
			best = sel
			bestLen = textLen
		}
	})

	return best
}

// Extracts paragraphs from a candidate container after dropping script,
// style and ad-marker boilerplate. Paragraph tags win, containers without
// them are split on line breaks.
func extractParagraphs(container *goquery.Selection) []string {
	cleaned := container.Clone()
	cleaned.Find(boilerplateSelector).Remove()

	paragraphs := []string{}
	ps := cleaned.Find("p")
	if ps.Length() > 0 {
		ps.Each(func(_ int, p *goquery.Selection) {
			// line breaks inside one paragraph survive as newlines
			if text := strings.TrimSpace(textLines(p)); text != "" {
				paragraphs = append(paragraphs, text)
			}
		})

		return paragraphs
	}

	return splitNonEmptyLines(textLines(cleaned))
}

// textLines joins every text node under the selection with line breaks, so
// that <br/> separated prose still splits into lines.
func textLines(sel *goquery.Selection) string {
	parts := []string{}

	for _, node := range sel.Nodes {
		collectTextParts(node, &parts)
	}

	return strings.Join(parts, "\n")
}

func collectTextParts(node *html.Node, parts *[]string) {
	if node.Type == html.TextNode {
		if text := strings.TrimSpace(node.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextParts(child, parts)
	}
}

func splitNonEmptyLines(raw string) []string {
	lines := []string{}
	for _, line := range strings.Split(raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}
