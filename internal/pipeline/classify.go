package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"hymnidx/internal"
)

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`

var (
	reHymnStart    = regexp.MustCompile(`^(\d+)\s+(.+)$`)
	reCalendarHead = regexp.MustCompile(`^((` + monthNames + `)\s+(\d{1,2})(?:\s+or\s+(` + monthNames + `)\s+(\d{1,2}))?)\s+(\d{1,3})$`)
	reDigits       = regexp.MustCompile(`^\d+$`)
)

// LineFilter decides which raw lines never reach the assembler.
type LineFilter struct {
	// PageDigits is the longest all-digit line treated as a page number.
	PageDigits int
	// SkipPhrases drops running headers; matched case-insensitively.
	SkipPhrases []string
}

func (f LineFilter) drop(trimmed string) bool {
	if trimmed == "" {
		return true
	}
	if len(trimmed) <= f.PageDigits && reDigits.MatchString(trimmed) {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range f.SkipPhrases {
		if phrase != "" && strings.Contains(lower, strings.ToLower(phrase)) {
			return true
		}
	}
	return false
}

type HymnLine struct {
	Start  bool
	Number int
	Text   string
}

type CalendarLine struct {
	Start bool
	Head  internal.DateHead
	Page  int
	Text  string
}

// ClassifyHymnal tags each surviving line as a record start ("664 A Celtic
// Rune") or a continuation. The second return is the number of dropped lines.
func ClassifyHymnal(lines []string, filter LineFilter) ([]HymnLine, int) {
	out := make([]HymnLine, 0, len(lines))
	dropped := 0
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if filter.drop(line) {
			dropped++
			continue
		}
		if m := reHymnStart.FindStringSubmatch(line); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				out = append(out, HymnLine{Start: true, Number: n, Text: m[2]})
				continue
			}
		}
		out = append(out, HymnLine{Text: line})
	}
	return out, dropped
}

// ClassifyCalendar tags date-and-page lines ("May 14 or May 17 57") as record
// starts and everything else as celebration text.
func ClassifyCalendar(lines []string, filter LineFilter) ([]CalendarLine, int) {
	out := make([]CalendarLine, 0, len(lines))
	dropped := 0
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if filter.drop(line) {
			dropped++
			continue
		}
		if head, page, ok := parseCalendarHead(line); ok {
			out = append(out, CalendarLine{Start: true, Head: head, Page: page})
			continue
		}
		out = append(out, CalendarLine{Text: line})
	}
	return out, dropped
}

func parseCalendarHead(line string) (internal.DateHead, int, bool) {
	m := reCalendarHead.FindStringSubmatch(line)
	if m == nil {
		return internal.DateHead{}, 0, false
	}
	day, _ := strconv.Atoi(m[3])
	page, _ := strconv.Atoi(m[6])
	head := internal.DateHead{Month: m[2], Day: day}
	if m[4] != "" {
		head.AltMonth = m[4]
		head.AltDay, _ = strconv.Atoi(m[5])
	}
	return head, page, true
}
