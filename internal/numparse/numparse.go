// Package numparse recognizes chapter numbers written as Arabic digits,
// Roman numerals, or spelled-out English words ("Chapter Twelve"), the
// three forms a printed table of contents mixes freely.
package numparse

import (
	"strconv"
	"strings"
)

var romanValues = map[rune]int{
	'I': 1,
	'V': 5,
	'X': 10,
	'L': 50,
	'C': 100,
	'D': 500,
	'M': 1000,
}

var wordToNum = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
	"twenty-one": 21, "twenty-two": 22, "twenty-three": 23, "twenty-four": 24, "twenty-five": 25,
	"twenty-six": 26, "twenty-seven": 27, "twenty-eight": 28, "twenty-nine": 29, "thirty": 30,
}

// Parse recognizes a chapter-number token in any of the three forms and
// returns the integer value and true, or (0, false) if s is none of them.
// It tries Arabic digits first, then spelled-out words, then Roman numerals,
// matching the order a printed TOC entry is most likely to use.
func Parse(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if n, ok := parseArabic(s); ok {
		return n, true
	}
	if n, ok := parseWord(s); ok {
		return n, true
	}
	if n, ok := parseRoman(s); ok {
		return n, true
	}
	return 0, false
}

func parseArabic(s string) (int, bool) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseWord(s string) (int, bool) {
	n, ok := wordToNum[strings.ToLower(s)]
	return n, ok
}

// parseRoman converts a Roman numeral using the standard subtractive-pair
// rule and rejects anything outside 0 < total < 200, which rules out
// stray letter runs ("MIX" in running prose) that are not really chapter
// numbers. Non-canonical spellings such as "XIIII" or "IIV" are rejected
// too.
func parseRoman(s string) (int, bool) {
	s = strings.ToUpper(s)
	if s == "" {
		return 0, false
	}

	total := 0
	prev := 0
	for i := len(s) - 1; i >= 0; i-- {
		val, ok := romanValues[rune(s[i])]
		if !ok {
			return 0, false
		}
		if val < prev {
			total -= val
		} else {
			total += val
			prev = val
		}
	}

	if total <= 0 || total >= 200 {
		return 0, false
	}

	canonical := ""
	rest := total
	for _, p := range []struct {
		v int
		s string
	}{{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"}, {10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"}} {
		for rest >= p.v {
			canonical += p.s
			rest -= p.v
		}
	}
	if canonical != s {
		return 0, false
	}
	return total, true
}
