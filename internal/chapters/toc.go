package chapters

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/duskline/narrator/internal/numparse"
	"github.com/duskline/narrator/internal/pdfreader"
	"github.com/duskline/narrator/pkg/types"
)

const tocScanPages = 30
const tocContinuationLookahead = 7
const tocContinuationThreshold = 0.25

var tocHeaderRe = regexp.MustCompile(`(?i)^(table\s+of\s+)?contents$`)

var trailingPageNumRe = regexp.MustCompile(`(?:[\s.]{3,}|\s)(\d{1,4})\s*$`)
var standaloneDigitsRe = regexp.MustCompile(`^\d{1,3}$`)
var leadingDigitPunctRe = regexp.MustCompile(`^\d+\s*[.):]`)
var continuationKeywordRe = regexp.MustCompile(`(?i)^(chapter|part|appendix|introduction|preface|epilogue|conclusion|bibliography|acknowledgment|index|glossary|notes)\b`)

var partRe = regexp.MustCompile(`(?i)^part\s+(\S+)\s*(?:[:.\-\x{2013}\x{2014}]\s*(.*))?$`)
var chapterWordRe = regexp.MustCompile(`(?i)^chapter\s+(\S+)\s*(?:[:.\-\x{2013}\x{2014}]\s*(.*))?$`)
var chapterNumberLeadRe = regexp.MustCompile(`^(\S+)\s*[:.\-\x{2013}\x{2014}]\s*(.+)$`)
var dotLeaderRe = regexp.MustCompile(`\.{3,}`)
var quoteVariantReplacer = strings.NewReplacer(
	"‘", "'", "’", "'", "“", "\"", "”", "\"",
	"–", "-", "—", "-",
)

var frontMatterKeywords = []string{"introduction", "preface", "foreword", "acknowledgment", "acknowledgement", "dedication"}
var backMatterKeywords = []string{"epilogue", "conclusion", "bibliography", "index", "glossary", "notes", "appendix"}

// tocEntry is one parsed line of a printed table of contents, before
// alignment to the document's real pages.
type tocEntry struct {
	sectionType   types.SectionType
	chapterNumber *int
	title         string
	page          *int
}

// locateAndParseTOC implements pass 1: find the printed TOC pages and parse
// their entries. It reports ok=false if fewer than 3 entries were parsed.
func locateAndParseTOC(ctx context.Context, doc *pdfreader.Document) ([]tocEntry, bool) {
	pageCount := doc.PageCount()
	scanLimit := tocScanPages
	if pageCount < scanLimit {
		scanLimit = pageCount
	}

	startPage := 0
	for p := 1; p <= scanLimit; p++ {
		text, err := doc.PageText(ctx, p)
		if err != nil {
			continue
		}
		lines := nonEmptyLines(text)
		head := lines
		if len(head) > 5 {
			head = head[:5]
		}
		for _, line := range head {
			if tocHeaderRe.MatchString(strings.TrimSpace(line)) {
				startPage = p
				break
			}
		}
		if startPage != 0 {
			break
		}
	}
	if startPage == 0 {
		return nil, false
	}

	var tocLines []string
	for p := startPage; p <= pageCount && p < startPage+1+tocContinuationLookahead; p++ {
		text, err := doc.PageText(ctx, p)
		if err != nil {
			break
		}
		lines := nonEmptyLines(text)
		if p > startPage {
			if !isTOCContinuation(lines) {
				break
			}
		}
		tocLines = append(tocLines, lines...)
	}

	entries := parseTOCLines(tocLines)
	if len(entries) < 3 {
		return nil, false
	}
	return entries, true
}

func isTOCContinuation(lines []string) bool {
	if len(lines) == 0 {
		return false
	}
	matches := 0
	for _, line := range lines {
		if continuationLineMatches(line) {
			matches++
		}
	}
	return float64(matches)/float64(len(lines)) >= tocContinuationThreshold
}

func continuationLineMatches(line string) bool {
	if trailingPageNumRe.MatchString(line) {
		return true
	}
	if standaloneDigitsRe.MatchString(line) {
		if n, err := strconv.Atoi(line); err == nil && n <= 999 {
			return true
		}
	}
	if leadingDigitPunctRe.MatchString(line) {
		return true
	}
	if continuationKeywordRe.MatchString(line) {
		return true
	}
	return false
}

// parseTOCLines classifies each line of the TOC range into an entry,
// handling trailing-page-number extraction, number parsing, and
// next-line-is-bare-page-number continuations.
func parseTOCLines(lines []string) []tocEntry {
	var entries []tocEntry

	normalize := func(s string) string {
		s = quoteVariantReplacer.Replace(s)
		s = dotLeaderRe.ReplaceAllString(s, " ")
		s = strings.Join(strings.Fields(s), " ")
		return strings.TrimSpace(s)
	}

	for i := 0; i < len(lines); i++ {
		line := normalize(lines[i])
		if line == "" {
			continue
		}

		var page *int
		if m := trailingPageNumRe.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				page = &n
				line = strings.TrimSpace(line[:len(line)-len(m[0])])
			}
		}

		entry, ok := classifyTOCLine(line)
		if !ok {
			continue
		}
		entry.page = page

		if entry.page == nil && i+1 < len(lines) {
			next := normalize(lines[i+1])
			if standaloneDigitsRe.MatchString(next) {
				if n, err := strconv.Atoi(next); err == nil {
					entry.page = &n
					i++
				}
			}
		}

		entries = append(entries, entry)
	}

	return dedupeSubtitles(entries)
}

func classifyTOCLine(line string) (tocEntry, bool) {
	if m := partRe.FindStringSubmatch(line); m != nil {
		title := ""
		if len(m) > 2 {
			title = strings.TrimSpace(m[2])
		}
		return tocEntry{sectionType: types.SectionPart, title: title}, true
	}

	if m := chapterWordRe.FindStringSubmatch(line); m != nil {
		title := ""
		if len(m) > 2 {
			title = strings.TrimSpace(m[2])
		}
		n, _ := numparse.Parse(m[1])
		var numPtr *int
		if n > 0 {
			numPtr = &n
		}
		return tocEntry{sectionType: types.SectionChapter, chapterNumber: numPtr, title: title}, true
	}

	if m := chapterNumberLeadRe.FindStringSubmatch(line); m != nil {
		if n, ok := numparse.Parse(m[1]); ok {
			title := strings.TrimSpace(m[2])
			return tocEntry{sectionType: types.SectionChapter, chapterNumber: &n, title: title}, true
		}
	}

	if kind, ok := frontBackKeywordMatch(line); ok {
		return tocEntry{sectionType: kind, title: line}, true
	}

	return tocEntry{}, false
}

func frontBackKeywordMatch(line string) (types.SectionType, bool) {
	lower := strings.ToLower(line)
	for _, kw := range frontMatterKeywords {
		if lower == kw || strings.HasPrefix(lower, kw+":") || strings.HasPrefix(lower, kw+" ") {
			return types.SectionFrontMatter, true
		}
	}
	for _, kw := range backMatterKeywords {
		if lower == kw || strings.HasPrefix(lower, kw+":") || strings.HasPrefix(lower, kw+" ") {
			return types.SectionBackMatter, true
		}
	}
	return "", false
}

// dedupeSubtitles drops consecutive entries sharing the same chapter number,
// treating the second as a subtitle line rather than a distinct chapter.
func dedupeSubtitles(entries []tocEntry) []tocEntry {
	var out []tocEntry
	for _, e := range entries {
		if len(out) > 0 && e.chapterNumber != nil && out[len(out)-1].chapterNumber != nil &&
			*e.chapterNumber == *out[len(out)-1].chapterNumber {
			continue
		}
		out = append(out, e)
	}
	return out
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	var out []string
	for _, l := range raw {
		t := strings.TrimSpace(l)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
