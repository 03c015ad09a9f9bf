package chapters

import (
	"testing"

	"github.com/duskline/narrator/pkg/types"
)

func TestMedianFloat(t *testing.T) {
	if got := medianFloat([]float64{1, 2, 3}); got != 2 {
		t.Errorf("median of odd set = %f, want 2", got)
	}
	if got := medianFloat([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("median of even set = %f, want 2.5", got)
	}
}

func TestClassifyHeadingLine(t *testing.T) {
	unknownThreshold := 14.0

	tests := []struct {
		name     string
		text     string
		size     float64
		wantKind types.SectionType
		wantOk   bool
	}{
		{name: "chapter number only", text: "CHAPTER 5", size: 18, wantKind: types.SectionChapter, wantOk: true},
		{name: "part number only", text: "PART II", size: 18, wantKind: types.SectionPart, wantOk: true},
		{name: "front matter keyword", text: "Preface", size: 18, wantKind: types.SectionFrontMatter, wantOk: true},
		{name: "large unknown heading", text: "A Strange Beginning", size: 20, wantKind: "unknown", wantOk: true},
		{name: "below threshold ordinary text", text: "just a regular line of body text here", size: 11, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := classifyHeadingLine(tt.text, tt.size, unknownThreshold)
			if ok != tt.wantOk {
				t.Fatalf("classifyHeadingLine(%q) ok = %v, want %v", tt.text, ok, tt.wantOk)
			}
			if ok && b.kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", b.kind, tt.wantKind)
			}
		})
	}
}

func TestAssignLabels(t *testing.T) {
	n := 4
	chs := []types.Chapter{
		{SectionType: "unknown"},
		{SectionType: types.SectionChapter, ChapterNumber: &n},
		{SectionType: types.SectionFrontMatter},
	}
	assignLabels(chs)

	if chs[0].SectionType != types.SectionChapter {
		t.Error("unknown section type should collapse to chapter")
	}
	if chs[1].ChapterLabel != "Ch. 4" {
		t.Errorf("expected label 'Ch. 4', got %q", chs[1].ChapterLabel)
	}
	if chs[2].ChapterLabel != "" {
		t.Errorf("front matter should have no label, got %q", chs[2].ChapterLabel)
	}
}

func TestCapChapters(t *testing.T) {
	chs := make([]types.Chapter, 75)
	capped := capChapters(chs)
	if len(capped) != maxChapters {
		t.Fatalf("expected %d chapters after cap, got %d", maxChapters, len(capped))
	}
	if capped[maxChapters-1].Index != maxChapters-1 {
		t.Errorf("expected re-indexed last chapter, got index %d", capped[maxChapters-1].Index)
	}
}
