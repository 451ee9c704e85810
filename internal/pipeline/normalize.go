package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"hymnidx/internal"
	"hymnidx/internal/util"
)

// CleanCelebration strips the leading "The ", every "At the " and spells a
// leading ordinal numeral ("11th" -> "Eleventh"). When the ordinal cannot be
// spelled the text keeps its numeral and the error is returned alongside.
func CleanCelebration(text string) (string, error) {
	text = strings.TrimPrefix(text, "The ")
	text = strings.ReplaceAll(text, "At the ", "")
	return util.ReplaceLeadingOrdinal(text)
}

// PadDay renders a day of month with two digits.
func PadDay(day int) string {
	return fmt.Sprintf("%02d", day)
}

// LiturgicalYear maps a month to its calendar year: the liturgical year
// starts in Advent, so November and December belong to the previous year.
func LiturgicalYear(month string, year int) int {
	if month == "November" || month == "December" {
		return year - 1
	}
	return year
}

// FormatDateHead renders "May 03" or "May 14 or May 17".
func FormatDateHead(h internal.DateHead) string {
	s := h.Month + " " + PadDay(h.Day)
	if h.HasAlternate() {
		s += " or " + h.AltMonth + " " + PadDay(h.AltDay)
	}
	return s
}

// CalendarKey builds "<Month> <DD>[ or <Month> <DD>], <Year> - <Celebration>".
func CalendarKey(h internal.DateHead, year int, celebration string) string {
	return fmt.Sprintf("%s, %d - %s", FormatDateHead(h), LiturgicalYear(h.Month, year), celebration)
}

type CalendarNormalizer struct {
	Year int
	Log  *slog.Logger

	OrdinalFailures int
}

func (n *CalendarNormalizer) Normalize(rec internal.CalendarRecord) internal.Entry {
	celebration, err := CleanCelebration(rec.Celebration)
	if err != nil {
		n.OrdinalFailures++
		n.Log.Warn("ordinal not converted", "celebration", rec.Celebration, "err", err)
	}
	return internal.Entry{Key: CalendarKey(rec.Head, n.Year, celebration), Value: rec.Page}
}

func NormalizeHymn(rec internal.HymnRecord) internal.Entry {
	return internal.Entry{Key: util.NormalizeSpaces(rec.Title), Value: rec.Number}
}
