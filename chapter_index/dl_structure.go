package chapter_index

import (
	"net/url"
	"regexp"

	"github.com/Breeze-mi/Novel-crawler/common/html_util"
	"github.com/Breeze-mi/Novel-crawler/text_norm"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	reMainVolume = regexp.MustCompile(`正文卷|正文|第.*卷`)
	reLatestList = regexp.MustCompile(`最新章节|最新|更新`)
)

// Handles 笔趣阁-style <dl> chapter directories. Each <dt> heading is
// classified by its text: body-volume groups are the canonical chapter order
// and win outright, latest-chapter groups are reverse-chronological previews
// and get reversed before use. When no heading classifies, dd>a entries under
// a #list container are trusted from 5 entries, a global dd>a sweep only from
// 20, so that a decorative list is never mistaken for the directory.
func extractFromDLStructure(doc *goquery.Document, base *url.URL) []ChapterEntry {
	dls := doc.Find("dl")
	if dls.Length() == 0 {
		return nil
	}

	mainChapters := []ChapterEntry{}
	latestChapters := []ChapterEntry{}

	dls.Each(func(_ int, dl *goquery.Selection) {
		dl.Find("dt").Each(func(_ int, dt *goquery.Selection) {
			dtText := text_norm.CleanText(dt.Text())
			ddNodes := html_util.FollowingSiblingsUntil(dt.Get(0), atom.Dd, atom.Dt)

			switch {
			case reMainVolume.MatchString(dtText):
				for _, dd := range ddNodes {
					if entry := firstAnchorEntry(dd, base); entry != nil {
						mainChapters = append(mainChapters, *entry)
					}
				}
			case reLatestList.MatchString(dtText):
				for _, dd := range ddNodes {
					if entry := firstAnchorEntry(dd, base); entry != nil {
						latestChapters = append(latestChapters, *entry)
					}
				}
			}
		})
	})

	if len(mainChapters) > 0 {
		return mainChapters
	}
	if len(latestChapters) > 0 {
		reverseEntries(latestChapters)
		return latestChapters
	}

	return collectBareDLEntries(dls, base)
}

// Weak fallback for sites whose single dl carries no 正文/最新 headings but
// holds the whole directory in its dd elements.
func collectBareDLEntries(dls *goquery.Selection, base *url.URL) []ChapterEntry {
	collected := []ChapterEntry{}
	var trusted []ChapterEntry

	dls.EachWithBreak(func(_ int, dl *goquery.Selection) bool {
		underList := html_util.HasAncestorWithID(dl.Get(0), "list")

		dl.Find("dd").Each(func(_ int, dd *goquery.Selection) {
			if entry := firstAnchorEntry(dd.Get(0), base); entry != nil {
				collected = append(collected, *entry)
			}
		})

		if underList && len(collected) >= 5 {
			trusted = collected
			return false
		}

		return true
	})

	if trusted != nil {
		return trusted
	}
	if len(collected) >= 20 {
		return collected
	}

	return nil
}

// Extracts a chapter entry from the first anchor found under given node.
func firstAnchorEntry(node *html.Node, base *url.URL) *ChapterEntry {
	anchors := html_util.FindAnchors(node)
	if len(anchors) == 0 {
		return nil
	}

	return entryFromAnchor(anchors[0], base)
}

func reverseEntries(entries []ChapterEntry) {
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
}
