package chapters

import (
	"fmt"
	"testing"

	"github.com/duskline/narrator/internal/pdfreader"
)

type fakePageTexter struct {
	pages map[int]string
}

func (f *fakePageTexter) PageText(page int) (string, error) {
	if text, ok := f.pages[page]; ok {
		return text, nil
	}
	return "", fmt.Errorf("no such page %d", page)
}

func newFakeDoc(pageCount int, wordsPerPage int) *fakePageTexter {
	pages := make(map[int]string, pageCount)
	for p := 1; p <= pageCount; p++ {
		line := ""
		for i := 0; i < wordsPerPage; i++ {
			line += "word "
		}
		pages[p] = line
	}
	return &fakePageTexter{pages: pages}
}

func TestPageChunkFallback(t *testing.T) {
	doc := newFakeDoc(45, 30)
	chs := pageChunkFallback(doc, 45)

	if len(chs) != 3 {
		t.Fatalf("expected 3 chunks of 20 pages for a 45-page doc, got %d", len(chs))
	}
	if *chs[0].PageStart != 1 || *chs[0].PageEnd != 20 {
		t.Errorf("first chunk pages = %d-%d, want 1-20", *chs[0].PageStart, *chs[0].PageEnd)
	}
	if *chs[2].PageStart != 41 || *chs[2].PageEnd != 45 {
		t.Errorf("last chunk pages = %d-%d, want 41-45", *chs[2].PageStart, *chs[2].PageEnd)
	}
}

func TestHeadingsOnlyFallbackRequiresMinimumEntries(t *testing.T) {
	doc := newFakeDoc(40, 150)
	boundaries := []boundary{{page: 1, headingText: "Opening"}}

	_, ok := headingsOnlyFallback(boundaries, doc, 40)
	if ok {
		t.Error("expected failure with only one usable boundary")
	}
}

func TestHeadingsOnlyFallbackBuildsRanges(t *testing.T) {
	doc := newFakeDoc(40, 150)
	boundaries := []boundary{
		{page: 1, headingText: "Opening"},
		{page: 15, headingText: "Middle"},
		{page: 30, headingText: "Closing"},
	}

	chs, ok := headingsOnlyFallback(boundaries, doc, 40)
	if !ok {
		t.Fatal("expected headings-only fallback to succeed")
	}
	if len(chs) != 3 {
		t.Fatalf("expected 3 chapters, got %d", len(chs))
	}
	if *chs[1].PageStart != 15 || *chs[1].PageEnd != 29 {
		t.Errorf("middle chapter pages = %d-%d, want 15-29", *chs[1].PageStart, *chs[1].PageEnd)
	}
}

func TestResolveOutlinePages(t *testing.T) {
	doc := &fakePageTexter{pages: map[int]string{
		1: "front cover",
		2: "the beginning of chapter one starts here",
		3: "more of chapter one",
		4: "chapter two begins now",
	}}
	entries := []outlineEntry{
		{title: "Chapter One", depth: 1},
		{title: "Chapter Two", depth: 1},
	}

	pages := resolveOutlinePages(doc, entries, 4)
	if pages[0] != 2 {
		t.Errorf("expected Chapter One resolved to page 2, got %d", pages[0])
	}
	if pages[1] != 4 {
		t.Errorf("expected Chapter Two resolved to page 4, got %d", pages[1])
	}
}

func TestOutlineFallbackPicksDeepestLevelWithEnoughEntries(t *testing.T) {
	doc := newFakeDoc(60, 150)
	for p := 1; p <= 60; p++ {
		doc.pages[p] = fmt.Sprintf("chapter %d text body words here", p)
	}

	root := pdfreader.OutlineNode{
		Children: []pdfreader.OutlineNode{
			{
				Title: "Part One",
				Children: []pdfreader.OutlineNode{
					{Title: "chapter 10"},
					{Title: "chapter 20"},
					{Title: "chapter 30"},
				},
			},
		},
	}

	chs, ok := outlineFallback(root, nil, doc, 60)
	if !ok {
		t.Fatal("expected outline fallback to succeed with 3 deep entries")
	}
	if len(chs) == 0 {
		t.Fatal("expected at least one resolved chapter")
	}
}
