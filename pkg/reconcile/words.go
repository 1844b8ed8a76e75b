package reconcile

import (
	"strings"
)

// English number words. No pack repo nor maintained ecosystem module parses
// these, so the conversion lives here: units and tens compose additively,
// scale words multiply the group accumulated so far, and "point" switches to
// digit-by-digit fraction words.
var (
	numberUnits = map[string]int64{
		"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
		"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
		"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13,
		"fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
		"eighteen": 18, "nineteen": 19,
	}

	numberTens = map[string]int64{
		"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
		"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	}

	numberScales = map[string]int64{
		"hundred":  100,
		"thousand": 1_000,
		"million":  1_000_000,
		"billion":  1_000_000_000,
		"trillion": 1_000_000_000_000,
	}
)

// wordsToNumber converts an English number phrase ("forty-two",
// "one hundred and five", "three point one four", "minus seven") to a value.
// isFloat is true only when the phrase used "point". ok is false when any
// word fails to parse, so callers can treat the whole string as non-numeric.
func wordsToNumber(s string) (value float64, isFloat bool, ok bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", " ")
	words := strings.Fields(s)
	if len(words) == 0 {
		return 0, false, false
	}

	negative := false
	switch words[0] {
	case "minus", "negative":
		negative = true
		words = words[1:]
		if len(words) == 0 {
			return 0, false, false
		}
	}

	var total, group int64
	seenDigit := false
	i := 0

	for ; i < len(words); i++ {
		w := words[i]
		if w == "and" {
			continue
		}
		if w == "point" {
			break
		}
		if u, found := numberUnits[w]; found {
			group += u
			seenDigit = true
			continue
		}
		if t, found := numberTens[w]; found {
			group += t
			seenDigit = true
			continue
		}
		if scale, found := numberScales[w]; found {
			if group == 0 {
				// "hundred" alone means one hundred.
				group = 1
			}
			if scale == 100 {
				group *= scale
			} else {
				total += group * scale
				group = 0
			}
			seenDigit = true
			continue
		}
		return 0, false, false
	}
	total += group

	if !seenDigit {
		return 0, false, false
	}

	result := float64(total)

	// Fraction: every word after "point" is a single digit.
	if i < len(words) && words[i] == "point" {
		digits := words[i+1:]
		if len(digits) == 0 {
			return 0, false, false
		}
		place := 0.1
		for _, d := range digits {
			u, found := numberUnits[d]
			if !found || u > 9 {
				return 0, false, false
			}
			result += float64(u) * place
			place /= 10
		}
		isFloat = true
	}

	if negative {
		result = -result
	}
	return result, isFloat, true
}
