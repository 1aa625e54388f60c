package chapter_index

import (
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

var reContainerHint = regexp.MustCompile(`全部章节|全部章|全部目录`)

// Locates the ul.chapter element holding the complete chapter directory.
//
// Known id markers are checked first: #allChapters2 may be the list itself or
// wrap it, #allChapters is only searched within. Failing that, all ul.chapter
// candidates are weighed: one with a 全部章节-style hint in its parent text or
// preceding siblings wins, else the one with the most list items, accepted
// only from 5 items up so a small decorative list is never picked.
func findAllChaptersList(doc *goquery.Document) *goquery.Selection {
	if sel := doc.Find("#allChapters2").First(); sel.Length() > 0 {
		if sel.Is("ul.chapter") {
			return sel
		}
		if found := sel.Find("ul.chapter").First(); found.Length() > 0 {
			return found
		}
	}

	if sel := doc.Find("#allChapters").First(); sel.Length() > 0 {
		if found := sel.Find("ul.chapter").First(); found.Length() > 0 {
			return found
		}
	}

	uls := doc.Find("ul.chapter")
	if uls.Length() == 0 {
		return nil
	}

	var candidate *goquery.Selection
	uls.EachWithBreak(func(_ int, ul *goquery.Selection) bool {
		if hasContainerHint(ul) {
			candidate = ul
			return false
		}
		return true
	})
	if candidate != nil {
		return candidate
	}

	// pick the largest list
	bestCnt := 0
	uls.Each(func(_ int, ul *goquery.Selection) {
		cnt := ul.Find("li").Length()
		if cnt > bestCnt {
			bestCnt = cnt
			candidate = ul
		}
	})

	if candidate != nil && bestCnt >= 5 {
		return candidate
	}

	return nil
}

// Checks nearby text of a candidate list for an "all chapters" hint.
func hasContainerHint(ul *goquery.Selection) bool {
	if parent := ul.Parent(); parent.Length() > 0 {
		if reContainerHint.MatchString(parent.Text()) {
			return true
		}
	}

	found := false
	ul.PrevAll().EachWithBreak(func(_ int, sibling *goquery.Selection) bool {
		if reContainerHint.MatchString(sibling.Text()) {
			found = true
			return false
		}
		return true
	})

	return found
}
