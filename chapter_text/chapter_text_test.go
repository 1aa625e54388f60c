package chapter_text

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractKnownIDContainer(t *testing.T) {
	sample := `
<html>
<head><title>第3章 下山 - 某某小说网</title></head>
<body>
<h1>第3章 下山</h1>
<div id="content">
	<script>var ad = 1;</script>
	<p>山风吹过，少年背起行囊。</p>
	<p>他没有回头。</p>
	<div class="ads">广告内容</div>
</div>
</body>
</html>`

	got := Extract(sample, "https://example.com/book/1/3.html")

	if got.Title != "第3章 下山" {
		t.Errorf("title = %q, want %q", got.Title, "第3章 下山")
	}

	wantParagraphs := []string{"山风吹过，少年背起行囊。", "他没有回头。"}
	if !reflect.DeepEqual(got.Paragraphs, wantParagraphs) {
		t.Errorf("paragraphs:\n\t%q\nwant:\n\t%q", got.Paragraphs, wantParagraphs)
	}

	if got.Content != strings.Join(wantParagraphs, "\n\n") {
		t.Errorf("content = %q", got.Content)
	}
	if strings.Contains(got.Content, "广告") || strings.Contains(got.Content, "var ad") {
		t.Errorf("boilerplate leaked into content: %q", got.Content)
	}
}

func TestExtractTitleFromPageTitle(t *testing.T) {
	sample := `
<html>
<head><title>第9章 夜行 - 笔趣阁</title></head>
<body><div class="content"><p>正文内容。</p></div></body>
</html>`

	got := Extract(sample, "")

	if got.Title != "第9章 夜行" {
		t.Errorf("title = %q, want %q", got.Title, "第9章 夜行")
	}
}

func TestExtractLargestBlockFallback(t *testing.T) {
	long := strings.Repeat("长夜漫漫，孤灯独明。", 50)

	sample := `
<html><body>
<div>导航栏</div>
<div>` + long + `</div>
<div>页脚</div>
</body></html>`

	got := Extract(sample, "")

	if len(got.Paragraphs) != 1 || got.Paragraphs[0] != long {
		t.Errorf("paragraphs:\n\t%q\nwant one paragraph of the long div", got.Paragraphs)
	}
	if got.Content != long {
		t.Errorf("content = %q", got.Content)
	}
}

func TestExtractLineBreakInsideParagraph(t *testing.T) {
	sample := `
<html><body>
<div id="content">
	<p>上半句还没有说完，<br/>下半句接在换行之后。</p>
	<p>第二段。</p>
</div>
</body></html>`

	got := Extract(sample, "")

	wantParagraphs := []string{"上半句还没有说完，\n下半句接在换行之后。", "第二段。"}
	if !reflect.DeepEqual(got.Paragraphs, wantParagraphs) {
		t.Errorf("paragraphs:\n\t%q\nwant:\n\t%q", got.Paragraphs, wantParagraphs)
	}
}

func TestExtractLineSplitWithoutParagraphTags(t *testing.T) {
	sample := `
<html><body>
<div id="content">第一行内容在此处延展开来，足够长的一段文字。<br/>第二行内容也随之而来，同样是足够长的一段文字。</div>
</body></html>`

	got := Extract(sample, "")

	if len(got.Paragraphs) != 2 {
		t.Fatalf("got %d paragraphs, want 2: %q", len(got.Paragraphs), got.Paragraphs)
	}
}

func TestExtractWholeBodyLastResort(t *testing.T) {
	sample := `<html><body>仅有一行裸文本</body></html>`

	got := Extract(sample, "")

	if len(got.Paragraphs) != 1 || got.Paragraphs[0] != "仅有一行裸文本" {
		t.Errorf("paragraphs = %q", got.Paragraphs)
	}
}

func TestExtractBookTitle(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{`<html><head><title>雪中悍刀行 - 某小说网</title></head></html>`, "雪中悍刀行"},
		{`<html><head><title>孤本</title></head></html>`, "孤本"},
		{`<html><head></head></html>`, ""},
	}

	for _, c := range cases {
		got := ExtractBookTitle(c.input)
		if got != c.want {
			t.Errorf("ExtractBookTitle(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}
