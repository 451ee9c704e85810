package pipeline

import (
	"log/slog"

	"hymnidx/internal"
	"hymnidx/internal/util"
)

// AssembleStats counts text the assemblers threw away.
type AssembleStats struct {
	ContinuationsDropped int
	EmptyHeads           int
}

// AssembleHymnal groups head-then-text lines: a record start opens a record
// and following continuations extend its title until the next start.
func AssembleHymnal(lines []HymnLine, log *slog.Logger) ([]internal.HymnRecord, AssembleStats) {
	var (
		records   []internal.HymnRecord
		stats     AssembleStats
		number    int
		fragments []string
		open      bool
	)

	flush := func() {
		if open && len(fragments) > 0 {
			records = append(records, internal.HymnRecord{Title: util.JoinFragments(fragments), Number: number})
		}
	}

	for _, line := range lines {
		if line.Start {
			flush()
			number = line.Number
			fragments = []string{line.Text}
			open = true
			continue
		}
		if !open {
			stats.ContinuationsDropped++
			log.Debug("continuation before first record dropped", "text", line.Text)
			continue
		}
		fragments = append(fragments, line.Text)
	}
	flush()

	return records, stats
}

// AssembleCalendar groups text-then-head lines: celebration fragments pile up
// until a date line closes the record with its date and page.
func AssembleCalendar(lines []CalendarLine, log *slog.Logger) ([]internal.CalendarRecord, AssembleStats) {
	var (
		records   []internal.CalendarRecord
		stats     AssembleStats
		fragments []string
	)

	for _, line := range lines {
		if !line.Start {
			fragments = append(fragments, line.Text)
			continue
		}
		if len(fragments) == 0 {
			stats.EmptyHeads++
			log.Warn("date line without celebration text", "month", line.Head.Month, "day", line.Head.Day, "page", line.Page)
			continue
		}
		records = append(records, internal.CalendarRecord{
			Head:        line.Head,
			Celebration: util.JoinFragments(fragments),
			Page:        line.Page,
		})
		fragments = nil
	}

	if len(fragments) > 0 {
		stats.ContinuationsDropped += len(fragments)
		log.Warn("celebration text after last date line discarded", "text", util.JoinFragments(fragments))
	}

	return records, stats
}
