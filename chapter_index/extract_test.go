package chapter_index

import (
	"context"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"testing"
)

type stubFetcher struct {
	pages map[string]string
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	f.calls = append(f.calls, pageURL)

	page, ok := f.pages[pageURL]
	if !ok {
		return "", fmt.Errorf("no such page: %s", pageURL)
	}

	return page, nil
}

func entryURLs(entries []ChapterEntry) []string {
	urls := make([]string, 0, len(entries))
	for _, entry := range entries {
		urls = append(urls, entry.URL)
	}
	return urls
}

func checkIndexContiguity(t *testing.T, entries []ChapterEntry) {
	t.Helper()

	for i, entry := range entries {
		if entry.Index != i+1 {
			t.Errorf("entry %d has index %d, want %d", i, entry.Index, i+1)
		}
	}
}

func checkNoDuplicateURLs(t *testing.T, entries []ChapterEntry) {
	t.Helper()

	seen := map[string]bool{}
	for _, entry := range entries {
		if seen[entry.URL] {
			t.Errorf("duplicate URL in result: %s", entry.URL)
		}
		seen[entry.URL] = true
	}
}

func TestExtractDLMainVolumeKeepsDocumentOrder(t *testing.T) {
	// numeric hints in titles are non-monotonic and partially missing,
	// document order must win over numeric order
	sample := `
<html><body>
<div id="list">
<dl>
	<dt>《测试书》正文卷</dt>
	<dd><a href="105.html">第5章 起风</a></dd>
	<dd><a href="102.html">第2章 落雨</a></dd>
	<dd><a href="109.html">番外 无数字</a></dd>
	<dd><a href="101.html">第1章 开篇</a></dd>
	<dd><a href="108.html">第8章 收尾</a></dd>
</dl>
</div>
</body></html>`

	entries := Extract(sample, "https://example.com/book/100/")

	want := []string{
		"https://example.com/book/100/105.html",
		"https://example.com/book/100/102.html",
		"https://example.com/book/100/109.html",
		"https://example.com/book/100/101.html",
		"https://example.com/book/100/108.html",
	}

	got := entryURLs(entries)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", got, want)
	}

	checkIndexContiguity(t, entries)
	checkNoDuplicateURLs(t, entries)
}

func TestExtractDLLatestListIsReversed(t *testing.T) {
	sample := `
<html><body>
<dl>
	<dt>最新章节</dt>
	<dd><a href="103.html">第3章</a></dd>
	<dd><a href="102.html">第2章</a></dd>
	<dd><a href="101.html">第1章</a></dd>
</dl>
</body></html>`

	entries := Extract(sample, "https://example.com/book/100/")

	want := []string{
		"https://example.com/book/100/101.html",
		"https://example.com/book/100/102.html",
		"https://example.com/book/100/103.html",
	}

	got := entryURLs(entries)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", got, want)
	}
}

func TestExtractIdentifiedContainer(t *testing.T) {
	sample := `
<html><body>
<ul class="chapter">
	<li><a href="/news/9.html">新闻一条</a></li>
</ul>
<div id="allChapters2">
	<ul class="chapter">
		<li><a href="201.html">第1章</a></li>
		<li><a href="202.html">第2章</a></li>
		<li><a href="202.html">第2章 重复</a></li>
		<li><a href="203.html">第3章</a></li>
	</ul>
</div>
</body></html>`

	entries := Extract(sample, "https://example.com/book/200/")

	want := []string{
		"https://example.com/book/200/201.html",
		"https://example.com/book/200/202.html",
		"https://example.com/book/200/203.html",
	}

	got := entryURLs(entries)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", got, want)
	}

	checkIndexContiguity(t, entries)
	checkNoDuplicateURLs(t, entries)
}

func TestExtractHeuristicPicksLargestChapterList(t *testing.T) {
	sample := `
<html><body>
<ul class="chapter">
	<li><a href="901.html">广告一</a></li>
	<li><a href="902.html">广告二</a></li>
</ul>
<ul class="chapter">
	<li><a href="301.html">第1章</a></li>
	<li><a href="302.html">第2章</a></li>
	<li><a href="303.html">第3章</a></li>
	<li><a href="304.html">第4章</a></li>
	<li><a href="305.html">第5章</a></li>
	<li><a href="306.html">第6章</a></li>
</ul>
</body></html>`

	entries := Extract(sample, "https://example.com/book/300/")

	if len(entries) != 6 {
		t.Fatalf("got %d entries, want 6: %q", len(entries), entryURLs(entries))
	}
	if entries[0].URL != "https://example.com/book/300/301.html" {
		t.Errorf("first entry URL = %s", entries[0].URL)
	}
}

func TestExtractContainerHintBeatsSize(t *testing.T) {
	sample := `
<html><body>
<div>
	<h2>全部章节</h2>
	<ul class="chapter">
		<li><a href="401.html">第1章</a></li>
		<li><a href="402.html">第2章</a></li>
		<li><a href="403.html">第3章</a></li>
		<li><a href="404.html">第4章</a></li>
		<li><a href="405.html">第5章</a></li>
	</ul>
</div>
<ul class="chapter">
	<li><a href="501.html">其他1</a></li>
	<li><a href="502.html">其他2</a></li>
	<li><a href="503.html">其他3</a></li>
	<li><a href="504.html">其他4</a></li>
	<li><a href="505.html">其他5</a></li>
	<li><a href="506.html">其他6</a></li>
	<li><a href="507.html">其他7</a></li>
</ul>
</body></html>`

	entries := Extract(sample, "https://example.com/book/400/")

	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5: %q", len(entries), entryURLs(entries))
	}
	if entries[0].URL != "https://example.com/book/400/401.html" {
		t.Errorf("first entry URL = %s", entries[0].URL)
	}
}

func TestExtractFullPageFallbackFiltersNavigation(t *testing.T) {
	sample := `
<html><body>
<a href="/author/zhang.html">作者主页</a>
<a href="/sort/1.html">玄幻分类</a>
<a href="javascript:void(0)">展开</a>
<a href="#">加入书架</a>
<a href="601.html">第1章</a>
<a href="602.html">第2章</a>
<a href="601.html">第1章 重复</a>
</body></html>`

	entries := Extract(sample, "https://example.com/book/600/")

	want := []string{
		"https://example.com/book/600/601.html",
		"https://example.com/book/600/602.html",
	}

	got := entryURLs(entries)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", got, want)
	}
}

func TestExtractNoiseAnchorExcluded(t *testing.T) {
	sample := `
<html><body>
<ul class="chapter">
	<li><a href="#">加入书架</a></li>
	<li><a href="bottom.html#footer">直达页面底部</a></li>
	<li><a href="701.html">第1章</a></li>
	<li><a href="702.html">第2章</a></li>
	<li><a href="703.html">第3章</a></li>
	<li><a href="704.html">第4章</a></li>
	<li><a href="705.html">第5章</a></li>
</ul>
</body></html>`

	entries := Extract(sample, "https://example.com/book/700/")

	for _, entry := range entries {
		if entry.Title == "加入书架" || entry.Title == "直达页面底部" {
			t.Errorf("noise entry leaked into result: %+v", entry)
		}
	}
	if len(entries) != 5 {
		t.Errorf("got %d entries, want 5: %q", len(entries), entryURLs(entries))
	}
}

func TestExtractSynthesizesMissingTitles(t *testing.T) {
	sample := `
<html><body>
<ul class="chapter">
	<li><a href="801.html">第1章</a></li>
	<li><a href="802.html"></a></li>
	<li><a href="803.html">第3章</a></li>
	<li><a href="804.html">第4章</a></li>
	<li><a href="805.html">第5章</a></li>
</ul>
</body></html>`

	entries := Extract(sample, "https://example.com/book/800/")

	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}
	if entries[1].Title != "第802章" {
		t.Errorf("synthesized title = %q, want %q", entries[1].Title, "第802章")
	}
	if entries[1].ChapterNum == nil || *entries[1].ChapterNum != 802 {
		t.Errorf("chapter_num = %v, want 802", entries[1].ChapterNum)
	}
}

func TestExtractIdempotent(t *testing.T) {
	sample := `
<html><body>
<dl>
	<dt>正文</dt>
	<dd><a href="11.html">第1章</a></dd>
	<dd><a href="12.html">第2章</a></dd>
</dl>
</body></html>`

	first := Extract(sample, "https://example.com/book/10/")
	second := Extract(sample, "https://example.com/book/10/")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("extraction is not deterministic:\n\t%+v\nvs:\n\t%+v", first, second)
	}
}

func makePagedDirectory(page, start, cnt int) string {
	items := ""
	for i := 0; i < cnt; i++ {
		n := start + i
		items += fmt.Sprintf(`<li><a href="%d.html">第%d章</a></li>`, n, n)
	}

	picker := `<select>
		<option value="index.html">第1页</option>
		<option value="index_2.html">第2页</option>
	</select>`

	return fmt.Sprintf(`<html><body>%s<ul class="chapter">%s</ul></body></html>`, picker, items)
}

func TestExtractPaginationMerge(t *testing.T) {
	firstPage := makePagedDirectory(1, 1, 20)
	secondPage := makePagedDirectory(2, 21, 20)

	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/book/900/index_2.html": secondPage,
	}}

	ex := &Extractor{Fetcher: fetcher}
	entries := ex.Extract(context.Background(), firstPage, "https://example.com/book/900/index.html")

	if len(entries) != 40 {
		t.Fatalf("got %d entries, want 40", len(entries))
	}

	// page-then-document order
	for i, entry := range entries {
		wantURL := fmt.Sprintf("https://example.com/book/900/%d.html", i+1)
		if entry.URL != wantURL {
			t.Fatalf("entry %d URL = %s, want %s", i, entry.URL, wantURL)
		}
	}

	checkIndexContiguity(t, entries)
	checkNoDuplicateURLs(t, entries)

	if len(fetcher.calls) != 1 || fetcher.calls[0] != "https://example.com/book/900/index_2.html" {
		t.Errorf("unexpected fetch calls: %q", fetcher.calls)
	}
}

func TestExtractPaginationBFSFallback(t *testing.T) {
	// no page picker on the first page, only a plain link to page 2
	firstPage := `
<html><body>
<a href="list_2.html">下一页</a>
<ul class="chapter">
	<li><a href="1.html">第1章</a></li>
	<li><a href="2.html">第2章</a></li>
	<li><a href="3.html">第3章</a></li>
	<li><a href="4.html">第4章</a></li>
	<li><a href="5.html">第5章</a></li>
</ul>
</body></html>`

	secondPage := `
<html><body>
<ul class="chapter">
	<li><a href="6.html">第6章</a></li>
	<li><a href="7.html">第7章</a></li>
</ul>
</body></html>`

	fetcher := &stubFetcher{pages: map[string]string{
		"https://example.com/book/910/list_2.html": secondPage,
	}}

	ex := &Extractor{Fetcher: fetcher}
	entries := ex.Extract(context.Background(), firstPage, "https://example.com/book/910/list.html")

	if len(entries) != 7 {
		t.Fatalf("got %d entries, want 7: %q", len(entries), entryURLs(entries))
	}
	if entries[6].URL != "https://example.com/book/910/7.html" {
		t.Errorf("last entry URL = %s", entries[6].URL)
	}

	checkNoDuplicateURLs(t, entries)
}

func TestExtractEmptyAndMalformedInput(t *testing.T) {
	for _, sample := range []string{"", "<<<<not html", "<html><body></body></html>"} {
		entries := Extract(sample, "https://example.com/")
		if len(entries) != 0 {
			t.Errorf("Extract(%q) = %d entries, want 0", sample, len(entries))
		}
	}
}

func TestExtractRecoversAnchorHiddenFromParser(t *testing.T) {
	// chapter 3 only exists inside script text, invisible to the DOM walk
	// but present in the serialized container HTML
	sample := `
<html><body>
<ul class="chapter" id="allChapters2">
	<li><a href="1.html">第1章</a></li>
	<li><a href="2.html">第2章</a></li>
	<script>document.write('<a href="3.html">第3章</a>');</script>
	<li><a href="4.html">第4章</a></li>
	<li><a href="5.html">第5章</a></li>
	<li><a href="6.html">第6章</a></li>
</ul>
</body></html>`

	entries := Extract(sample, "https://example.com/book/100/")

	want := []string{
		"https://example.com/book/100/1.html",
		"https://example.com/book/100/2.html",
		"https://example.com/book/100/4.html",
		"https://example.com/book/100/5.html",
		"https://example.com/book/100/6.html",
		"https://example.com/book/100/3.html",
	}
	if got := entryURLs(entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("output:\n\t%q\nwant:\n\t%q", got, want)
	}

	if entries[5].Title != "第3章" {
		t.Errorf("recovered title = %q, want %q", entries[5].Title, "第3章")
	}

	checkIndexContiguity(t, entries)
	checkNoDuplicateURLs(t, entries)
}

// Builds pre-finalize entries for given chapter numbers, URL tail carries the
// number.
func numberedEntries(base string, nums ...int) []ChapterEntry {
	entries := make([]ChapterEntry, 0, len(nums))
	for _, n := range nums {
		entries = append(entries, ChapterEntry{
			Title: fmt.Sprintf("第%d章", n),
			URL:   fmt.Sprintf("%s%d.html", base, n),
		})
	}
	return entries
}

func TestFillNumberGapsProbesMissingNumber(t *testing.T) {
	base, _ := url.Parse("https://example.com/book/100/")
	entries := numberedEntries("https://example.com/book/100/", 1, 2, 4, 5, 6)

	containerHTML := `<ul class="chapter">
	<li><a href="1.html">第1章</a></li>
	<li><a href="3.html">第3章 归来</a></li>
	<li><a href="4.html">第4章</a></li>
</ul>`

	got := fillNumberGaps(context.Background(), entries, containerHTML, base)

	if len(got) != 6 {
		t.Fatalf("got %d entries, want 6: %q", len(got), entryURLs(got))
	}

	last := got[5]
	if last.URL != "https://example.com/book/100/3.html" {
		t.Errorf("recovered URL = %q, want the missing chapter appended last", last.URL)
	}
	if last.Title != "第3章 归来" {
		t.Errorf("recovered title = %q, want %q", last.Title, "第3章 归来")
	}
}

func TestFillNumberGapsMatchesTypoVariant(t *testing.T) {
	base, _ := url.Parse("https://example.com/book/100/")
	entries := numberedEntries("https://example.com/book/100/", 11, 12, 14, 15, 16)

	containerHTML := `<li><a href="13.html">第13掌</a></li>`

	got := fillNumberGaps(context.Background(), entries, containerHTML, base)

	if len(got) != 6 {
		t.Fatalf("got %d entries, want 6: %q", len(got), entryURLs(got))
	}
	if got[5].URL != "https://example.com/book/100/13.html" {
		t.Errorf("recovered URL = %q, want the 13.html anchor", got[5].URL)
	}
}

func TestFillNumberGapsNeedsFiveParsedNumbers(t *testing.T) {
	base, _ := url.Parse("https://example.com/book/100/")
	entries := numberedEntries("https://example.com/book/100/", 1, 2, 4, 5)

	containerHTML := `<li><a href="3.html">第3章</a></li>`

	got := fillNumberGaps(context.Background(), entries, containerHTML, base)

	if len(got) != 4 {
		t.Errorf("got %d entries, want 4 (gap filling needs 5 parsed numbers)", len(got))
	}
}

func TestFillNumberGapsProbeCap(t *testing.T) {
	base, _ := url.Parse("https://example.com/book/100/")
	entries := numberedEntries("https://example.com/book/100/", 1, 500, 501, 502, 503)

	// anchors for every missing number, far more than one pass may probe
	builder := strings.Builder{}
	for n := 2; n <= 499; n++ {
		fmt.Fprintf(&builder, "<li><a href=\"%d.html\">第%d章</a></li>\n", n, n)
	}

	got := fillNumberGaps(context.Background(), entries, builder.String(), base)

	if len(got) != 5+gapFillLimit {
		t.Fatalf("got %d entries, want %d", len(got), 5+gapFillLimit)
	}

	urls := map[string]bool{}
	for _, entry := range got {
		urls[entry.URL] = true
	}
	if !urls["https://example.com/book/100/241.html"] {
		t.Errorf("chapter 241 should be inside the probe window")
	}
	if urls["https://example.com/book/100/242.html"] {
		t.Errorf("chapter 242 recovered beyond the probe cap")
	}
}

func TestFillNumberGapsLargeListProbeCap(t *testing.T) {
	base, _ := url.Parse("https://example.com/book/100/")

	nums := []int{}
	for n := 1; n <= 1700; n++ {
		if n >= 200 && n <= 349 {
			continue
		}
		nums = append(nums, n)
	}
	entries := numberedEntries("https://example.com/book/100/", nums...)

	builder := strings.Builder{}
	for n := 200; n <= 349; n++ {
		fmt.Fprintf(&builder, "<li><a href=\"%d.html\">第%d章</a></li>\n", n, n)
	}

	got := fillNumberGaps(context.Background(), entries, builder.String(), base)

	if len(got) != len(entries)+gapFillLimitLarge {
		t.Fatalf("got %d entries, want %d", len(got), len(entries)+gapFillLimitLarge)
	}
}

func TestSupplementFromContainerSkipsKnownURLs(t *testing.T) {
	base, _ := url.Parse("https://example.com/book/100/")
	entries := numberedEntries("https://example.com/book/100/", 1, 2)

	containerHTML := `<ul>
	<li><a href="1.html">第1章</a></li>
	<li><a href="2.html">第2章</a></li>
	<li><a href="3.html">第3章</a></li>
</ul>`

	got := supplementFromContainer(entries, containerHTML, base)

	want := []string{
		"https://example.com/book/100/1.html",
		"https://example.com/book/100/2.html",
		"https://example.com/book/100/3.html",
	}
	if !reflect.DeepEqual(entryURLs(got), want) {
		t.Errorf("output:\n\t%q\nwant:\n\t%q", entryURLs(got), want)
	}
}

func TestExtractBatchEmissionMatchesResult(t *testing.T) {
	sample := `
<html><body>
<ul class="chapter">
	<li><a href="1.html">第1章</a></li>
	<li><a href="2.html">第2章</a></li>
	<li><a href="3.html">第3章</a></li>
	<li><a href="4.html">第4章</a></li>
	<li><a href="5.html">第5章</a></li>
</ul>
</body></html>`

	collected := []ChapterEntry{}
	ex := &Extractor{
		OnBatch: func(batch []ChapterEntry, done, total int) {
			collected = append(collected, batch...)
		},
	}

	entries := ex.Extract(context.Background(), sample, "https://example.com/book/920/")

	if !reflect.DeepEqual(collected, entries) {
		t.Errorf("batched entries differ from atomic result:\n\t%+v\nvs:\n\t%+v", collected, entries)
	}
}
