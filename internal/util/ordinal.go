package util

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxOrdinal is the largest number OrdinalWord spells out.
const MaxOrdinal = 999999

var (
	ErrNotOrdinal   = errors.New("not an ordinal numeral")
	reLeadingNumber = regexp.MustCompile(`^(\d+)([A-Za-z]*)`)

	smallNumbers = []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine",
		"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen",
		"seventeen", "eighteen", "nineteen",
	}
	tensNumbers = []string{
		"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety",
	}
	irregularOrdinals = map[string]string{
		"one":    "first",
		"two":    "second",
		"three":  "third",
		"five":   "fifth",
		"eight":  "eighth",
		"nine":   "ninth",
		"twelve": "twelfth",
	}
)

// OrdinalSuffix returns the English suffix for n ("st", "nd", "rd", "th").
func OrdinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// ParseOrdinal reads a numeral such as "11th", "32nd" or "7". A suffix that
// does not agree with the number ("11st") is rejected.
func ParseOrdinal(token string) (int, error) {
	m := reLeadingNumber.FindStringSubmatch(token)
	if m == nil || m[0] != token {
		return 0, fmt.Errorf("%w: %q", ErrNotOrdinal, token)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotOrdinal, token)
	}
	suffix := strings.ToLower(m[2])
	if suffix != "" && suffix != OrdinalSuffix(n) {
		return 0, fmt.Errorf("%w: suffix %q does not match %d", ErrNotOrdinal, m[2], n)
	}
	return n, nil
}

// CardinalWord spells n in lowercase English words ("thirty-two").
func CardinalWord(n int) (string, error) {
	if n < 0 || n > MaxOrdinal {
		return "", fmt.Errorf("%w: %d out of range", ErrNotOrdinal, n)
	}
	return cardinal(n), nil
}

func cardinal(n int) string {
	switch {
	case n < 20:
		return smallNumbers[n]
	case n < 100:
		word := tensNumbers[n/10]
		if n%10 != 0 {
			word += "-" + smallNumbers[n%10]
		}
		return word
	case n < 1000:
		word := smallNumbers[n/100] + " hundred"
		if n%100 != 0 {
			word += " " + cardinal(n%100)
		}
		return word
	default:
		word := cardinal(n/1000) + " thousand"
		if n%1000 != 0 {
			word += " " + cardinal(n%1000)
		}
		return word
	}
}

// OrdinalWord spells n as a lowercase ordinal ("thirty-second").
func OrdinalWord(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: %d", ErrNotOrdinal, n)
	}
	word, err := CardinalWord(n)
	if err != nil {
		return "", err
	}
	cut := strings.LastIndexAny(word, " -") + 1
	return word[:cut] + ordinalOf(word[cut:]), nil
}

func ordinalOf(word string) string {
	if irregular, ok := irregularOrdinals[word]; ok {
		return irregular
	}
	if strings.HasSuffix(word, "y") {
		return strings.TrimSuffix(word, "y") + "ieth"
	}
	return word + "th"
}

// TitleHyphenated title-cases every space- and hyphen-separated part, so
// "thirty-second" becomes "Thirty-Second".
func TitleHyphenated(s string) string {
	caser := cases.Title(language.English)
	parts := strings.Split(s, "-")
	for i, p := range parts {
		parts[i] = caser.String(p)
	}
	return strings.Join(parts, "-")
}

// ReplaceLeadingOrdinal converts a leading numeral of text into its
// title-cased ordinal word and keeps the remainder unchanged. Text without a
// leading digit is returned as is with a nil error; a numeral that cannot be
// converted returns the original text and an error.
func ReplaceLeadingOrdinal(text string) (string, error) {
	m := reLeadingNumber.FindStringSubmatch(text)
	if m == nil {
		return text, nil
	}
	n, err := ParseOrdinal(m[0])
	if err != nil {
		return text, err
	}
	word, err := OrdinalWord(n)
	if err != nil {
		return text, err
	}
	return TitleHyphenated(word) + text[len(m[0]):], nil
}
