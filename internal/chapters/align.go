package chapters

import (
	"sort"
	"strings"

	"github.com/duskline/narrator/pkg/types"
)

const proximityWindow = 3
const fuzzyTitleThreshold = 0.75
const minChapterWords = 30

// alignTOCToBoundaries implements pass 3: derive a page offset between
// printed page numbers and real PDF page indices, then assign each TOC
// entry to a detected heading boundary.
func alignTOCToBoundaries(entries []tocEntry, boundaries []boundary, doc pageTexter, pageCount int) ([]types.Chapter, bool) {
	offset := derivePageOffset(entries, boundaries)

	used := make([]bool, len(boundaries))
	type assignment struct {
		entry tocEntry
		page  int
		kind  types.SectionType
	}
	var assigned []assignment

	for _, e := range entries {
		if e.sectionType == types.SectionPart {
			continue
		}

		expected := 0
		if e.page != nil {
			expected = *e.page - 1 + offset
		}

		idx := findBoundaryBySameNumber(entries, e, boundaries, used, expected)
		if idx < 0 && e.page != nil {
			idx = findBoundaryByProximity(boundaries, used, expected)
		}
		if idx < 0 {
			idx = findBoundaryByFuzzyTitle(boundaries, used, e.title)
		}

		if idx >= 0 {
			used[idx] = true
			kind := e.sectionType
			if boundaries[idx].kind == types.SectionFrontMatter || boundaries[idx].kind == types.SectionBackMatter {
				kind = boundaries[idx].kind
			}
			assigned = append(assigned, assignment{entry: e, page: boundaries[idx].page, kind: kind})
			continue
		}

		if e.page != nil {
			assigned = append(assigned, assignment{entry: e, page: expected, kind: e.sectionType})
		}
	}

	if len(assigned) == 0 {
		return nil, false
	}

	sort.Slice(assigned, func(i, j int) bool { return assigned[i].page < assigned[j].page })

	var deduped []assignment
	seenPages := make(map[int]bool)
	for _, a := range assigned {
		if seenPages[a.page] {
			continue
		}
		seenPages[a.page] = true
		deduped = append(deduped, a)
	}

	var chapters []types.Chapter
	for i, a := range deduped {
		startPage := a.page
		if startPage < 1 {
			startPage = 1
		}
		endPage := pageCount + 1
		if i+1 < len(deduped) {
			endPage = deduped[i+1].page
		}
		if endPage <= startPage {
			continue
		}

		text := extractPageRangeText(doc, startPage, endPage)
		wordCount := len(strings.Fields(text))
		if wordCount < minChapterWords {
			continue
		}

		sp, ep := startPage, endPage-1
		chapters = append(chapters, types.Chapter{
			SectionType:   a.kind,
			ChapterNumber: a.entry.chapterNumber,
			Title:         a.entry.title,
			PageStart:     &sp,
			PageEnd:       &ep,
			WordCount:     wordCount,
			Text:          text,
		})
	}

	if len(chapters) < 2 {
		return nil, false
	}
	return reindex(chapters), true
}

// pageTexter is the minimal slice of the PDF facade pass 3 needs, kept
// narrow so callers can supply a fake in tests without opening a real PDF.
type pageTexter interface {
	PageText(page int) (string, error)
}

func extractPageRangeText(doc pageTexter, start, end int) string {
	var sb strings.Builder
	for p := start; p < end; p++ {
		text, err := doc.PageText(p)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func derivePageOffset(entries []tocEntry, boundaries []boundary) int {
	var offsets []int
	for _, e := range entries {
		if e.page == nil || e.chapterNumber == nil {
			continue
		}
		for _, b := range boundaries {
			if b.chapterNumber != nil && *b.chapterNumber == *e.chapterNumber {
				offsets = append(offsets, b.page-(*e.page-1))
			}
		}
	}
	if len(offsets) == 0 {
		for _, e := range entries {
			if e.sectionType != types.SectionFrontMatter && e.sectionType != types.SectionBackMatter {
				continue
			}
			for _, b := range boundaries {
				if b.kind != e.sectionType {
					continue
				}
				if titleSubstringMatch(e.title, b.headingText) {
					if e.page != nil {
						offsets = append(offsets, b.page-(*e.page-1))
					}
				}
			}
		}
	}
	if len(offsets) == 0 {
		return 0
	}
	sort.Ints(offsets)
	return offsets[len(offsets)/2]
}

func titleSubstringMatch(a, b string) bool {
	na := normalizeAlpha(a)
	nb := normalizeAlpha(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

func findBoundaryBySameNumber(entries []tocEntry, e tocEntry, boundaries []boundary, used []bool, expected int) int {
	if e.chapterNumber == nil {
		return -1
	}
	best := -1
	bestDist := 1 << 30
	for i, b := range boundaries {
		if used[i] || b.chapterNumber == nil || *b.chapterNumber != *e.chapterNumber {
			continue
		}
		dist := absInt(b.page - expected)
		if dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

func findBoundaryByProximity(boundaries []boundary, used []bool, expected int) int {
	best := -1
	bestDist := proximityWindow + 1
	for i, b := range boundaries {
		if used[i] {
			continue
		}
		dist := absInt(b.page - expected)
		if dist <= proximityWindow && dist < bestDist {
			bestDist = dist
			best = i
		}
	}
	return best
}

func findBoundaryByFuzzyTitle(boundaries []boundary, used []bool, title string) int {
	if title == "" {
		return -1
	}
	na := normalizeAlpha(title)
	if na == "" {
		return -1
	}
	best := -1
	bestScore := fuzzyTitleThreshold
	for i, b := range boundaries {
		if used[i] || b.headingText == "" {
			continue
		}
		nb := normalizeAlpha(b.headingText)
		if nb == "" {
			continue
		}
		if strings.Contains(na, nb) || strings.Contains(nb, na) {
			return i
		}
		score := similarityRatio(na, nb)
		if score >= bestScore {
			bestScore = score
			best = i
		}
	}
	return best
}

func normalizeAlpha(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// similarityRatio is a Ratcliff/Obershelp-style ratio: twice the length of
// the longest common subsequence of characters, divided by the combined
// length of both strings. It is the Go-native stand-in for Python's
// difflib.SequenceMatcher.ratio() used to fuzzy-match OCR-mangled titles.
func similarityRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	lcs := longestCommonSubsequence(a, b)
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

func longestCommonSubsequence(a, b string) int {
	rows, cols := len(a)+1, len(b)+1
	dp := make([][]int, rows)
	for i := range dp {
		dp[i] = make([]int, cols)
	}
	for i := 1; i < rows; i++ {
		for j := 1; j < cols; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp[rows-1][cols-1]
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func reindex(chapters []types.Chapter) []types.Chapter {
	for i := range chapters {
		chapters[i].Index = i
	}
	return chapters
}
