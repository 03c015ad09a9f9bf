package chapters

import (
	"regexp"
	"sort"
	"strings"

	"github.com/duskline/narrator/internal/numparse"
	"github.com/duskline/narrator/internal/pdfreader"
	"github.com/duskline/narrator/pkg/types"
)

const headingThresholdMultiplier = 1.25
const unknownHeadingThresholdMultiplier = 1.4
const minHeadingLen = 2
const maxUnknownHeadingLen = 80

var chapterNumOnlyRe = regexp.MustCompile(`(?i)^chapter\s+(\S+)\s*$`)
var partNumOnlyRe = regexp.MustCompile(`(?i)^part\s+(\S+)\s*$`)

// boundary is a candidate section start detected by the font-size pass.
type boundary struct {
	page          int
	headingText   string
	fontSize      float64
	chapterNumber *int
	kind          types.SectionType
	used          bool
}

// detectHeadingBoundaries implements pass 2: find the document-wide median
// span font size, then for every page collect the topmost line whose
// maximum span size clears the heading threshold.
func detectHeadingBoundaries(doc *pdfreader.Document) []boundary {
	pageCount := doc.PageCount()

	var allSizes []float64
	pageSpans := make([][]pdfreader.Span, pageCount+1)
	for p := 1; p <= pageCount; p++ {
		spans, err := doc.PageSpans(p)
		if err != nil {
			continue
		}
		pageSpans[p] = spans
		for _, s := range spans {
			if len(strings.TrimSpace(s.Text)) > 2 {
				allSizes = append(allSizes, s.FontSize)
			}
		}
	}

	if len(allSizes) == 0 {
		return nil
	}
	median := medianFloat(allSizes)
	threshold := median * headingThresholdMultiplier
	unknownThreshold := median * unknownHeadingThresholdMultiplier

	var boundaries []boundary
	for p := 1; p <= pageCount; p++ {
		spans := pageSpans[p]
		if len(spans) == 0 {
			continue
		}

		maxY := 0.0
		for _, s := range spans {
			if s.Y > maxY {
				maxY = s.Y
			}
		}
		topHalfCutoff := maxY / 2

		lines := groupSpansIntoLines(spans)
		var candidates []lineGroup
		for _, line := range lines {
			if line.y < topHalfCutoff {
				continue
			}
			if line.maxFontSize >= threshold {
				candidates = append(candidates, line)
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].y > candidates[j].y })
		top := candidates[0]

		b, ok := classifyHeadingLine(top.text, top.maxFontSize, unknownThreshold)
		if !ok {
			continue
		}
		b.page = p
		if b.headingText == "" && len(candidates) > 1 {
			b.headingText = candidates[1].text
		}
		boundaries = append(boundaries, b)
	}

	return boundaries
}

type lineGroup struct {
	y           float64
	maxFontSize float64
	text        string
}

// groupSpansIntoLines buckets spans sharing an approximate baseline into
// single lines of text, ordered left to right.
func groupSpansIntoLines(spans []pdfreader.Span) []lineGroup {
	const yTolerance = 2.0

	sorted := make([]pdfreader.Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if absFloat(sorted[i].Y-sorted[j].Y) > yTolerance {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var lines []lineGroup
	var cur []pdfreader.Span
	flush := func() {
		if len(cur) == 0 {
			return
		}
		var sb strings.Builder
		maxSize := 0.0
		ySum := 0.0
		for _, s := range cur {
			sb.WriteString(s.Text)
			if s.FontSize > maxSize {
				maxSize = s.FontSize
			}
			ySum += s.Y
		}
		lines = append(lines, lineGroup{
			y:           ySum / float64(len(cur)),
			maxFontSize: maxSize,
			text:        strings.TrimSpace(sb.String()),
		})
		cur = nil
	}

	for _, s := range sorted {
		if len(cur) > 0 && absFloat(cur[len(cur)-1].Y-s.Y) > yTolerance {
			flush()
		}
		cur = append(cur, s)
	}
	flush()

	return lines
}

func classifyHeadingLine(text string, size, unknownThreshold float64) (boundary, bool) {
	trimmed := strings.TrimSpace(text)

	if m := chapterNumOnlyRe.FindStringSubmatch(trimmed); m != nil {
		if n, ok := numparse.Parse(m[1]); ok {
			return boundary{kind: types.SectionChapter, chapterNumber: &n, fontSize: size}, true
		}
	}
	if m := partNumOnlyRe.FindStringSubmatch(trimmed); m != nil {
		if n, ok := numparse.Parse(m[1]); ok {
			return boundary{kind: types.SectionPart, chapterNumber: &n, fontSize: size}, true
		}
	}
	if kind, ok := frontBackKeywordMatch(trimmed); ok {
		return boundary{kind: kind, headingText: trimmed, fontSize: size}, true
	}
	if size >= unknownThreshold && len(trimmed) > minHeadingLen && len(trimmed) <= maxUnknownHeadingLen {
		return boundary{kind: "unknown", headingText: trimmed, fontSize: size}, true
	}
	return boundary{}, false
}

func medianFloat(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
