package epubchapters

import (
	"testing"

	"github.com/simp-lee/epub"

	"github.com/duskline/narrator/pkg/types"
)

func TestStripFragment(t *testing.T) {
	tests := []struct{ in, want string }{
		{"chapter01.xhtml#section2", "chapter01.xhtml"},
		{"chapter01.xhtml", "chapter01.xhtml"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := stripFragment(tt.in); got != tt.want {
			t.Errorf("stripFragment(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		href, title string
		want        types.SectionType
	}{
		{"cover.xhtml", "Cover", types.SectionFrontMatter},
		{"titlepage.xhtml", "", types.SectionFrontMatter},
		{"appendix-a.xhtml", "Appendix A", types.SectionBackMatter},
		{"bibliography.xhtml", "", types.SectionBackMatter},
		{"chapter03.xhtml", "Chapter Three", types.SectionChapter},
	}
	for _, tt := range tests {
		got := classify(tt.href, tt.title)
		if got != tt.want {
			t.Errorf("classify(%q, %q) = %q, want %q", tt.href, tt.title, got, tt.want)
		}
	}
}

func TestRecoverChapterNumber(t *testing.T) {
	tests := []struct {
		title, body string
		want        *int
	}{
		{"Chapter Twelve", "", intPtr(12)},
		{"The Storm", "It was chapter 7 before anyone noticed.", intPtr(7)},
		{"Epilogue", "no number here at all", nil},
	}
	for _, tt := range tests {
		got := recoverChapterNumber(tt.title, tt.body)
		if (got == nil) != (tt.want == nil) {
			t.Errorf("recoverChapterNumber(%q, %q) = %v, want %v", tt.title, tt.body, got, tt.want)
			continue
		}
		if got != nil && *got != *tt.want {
			t.Errorf("recoverChapterNumber(%q, %q) = %d, want %d", tt.title, tt.body, *got, *tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }

func TestBodyClassPattern(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"nav", `<html><body class="nav">...</body></html>`, "nav"},
		{"toc", `<html><body epub:type="toc" class="toc frontmatter">...</body></html>`, "toc frontmatter"},
		{"chapter", `<html><body class="chapter">...</body></html>`, "chapter"},
		{"no class", `<html><body>...</body></html>`, ""},
	}
	for _, tt := range tests {
		m := bodyClassPattern.FindStringSubmatch(tt.html)
		var got string
		if m != nil {
			got = m[1]
		}
		if got != tt.want {
			t.Errorf("%s: bodyClassPattern match = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestFlattenTOCTitles(t *testing.T) {
	items := []epub.TOCItem{
		{
			Title: "Part One",
			Href:  "part1.xhtml",
			Children: []epub.TOCItem{
				{Title: "Chapter One", Href: "ch01.xhtml#top"},
				{Title: "Chapter Two", Href: "ch02.xhtml"},
			},
		},
	}

	got := flattenTOCTitles(items)

	if got["part1.xhtml"] != "Part One" {
		t.Errorf("expected Part One, got %q", got["part1.xhtml"])
	}
	if got["ch01.xhtml"] != "Chapter One" {
		t.Errorf("expected Chapter One for fragment-stripped href, got %q", got["ch01.xhtml"])
	}
	if got["ch02.xhtml"] != "Chapter Two" {
		t.Errorf("expected Chapter Two, got %q", got["ch02.xhtml"])
	}
}
