package pipeline

import (
	"fmt"
	"log/slog"

	"hymnidx/internal"
	"hymnidx/internal/config"
)

// Parser turns raw document lines into an OutputTable. It holds no state
// between calls.
type Parser struct {
	cfg config.Config
	log *slog.Logger
}

func NewParser(cfg config.Config, log *slog.Logger) *Parser {
	return &Parser{cfg: cfg, log: log}
}

type ParseOptions struct {
	// SkipRunningHeaders enables the configured skip phrases.
	SkipRunningHeaders bool
}

// SkipHeadersFor reports whether running-header suppression is on by default
// for a source kind; only paginated PDF output repeats headers.
func SkipHeadersFor(kind internal.SourceKind) bool {
	return kind == internal.SourcePDF
}

type ParseResult struct {
	Table *OutputTable
	Stats internal.RunStats
}

func (p *Parser) filter(pageDigits int, opts ParseOptions) LineFilter {
	f := LineFilter{PageDigits: pageDigits}
	if opts.SkipRunningHeaders {
		f.SkipPhrases = p.cfg.SkipPhrases
	}
	return f
}

// ParseHymnal builds the title -> hymn number table of a hymnal index.
func (p *Parser) ParseHymnal(lines []string, opts ParseOptions) ParseResult {
	classified, dropped := ClassifyHymnal(lines, p.filter(p.cfg.HymnalPageDigits, opts))
	records, astats := AssembleHymnal(classified, p.log)

	table := NewOutputTable(p.log)
	for _, rec := range records {
		e := NormalizeHymn(rec)
		table.Insert(e.Key, e.Value)
	}

	return ParseResult{
		Table: table,
		Stats: internal.RunStats{
			LinesRead:             len(lines),
			LinesDropped:          dropped,
			ContinuationsDropped:  astats.ContinuationsDropped,
			Records:               len(records),
			DuplicatesOverwritten: table.Duplicates(),
			Entries:               table.Len(),
		},
	}
}

// ParseCalendar builds the dated celebration -> page table of a calendar
// index for the liturgical year that ends in year.
func (p *Parser) ParseCalendar(lines []string, year int, opts ParseOptions) (ParseResult, error) {
	if year <= 0 {
		return ParseResult{}, fmt.Errorf("%w: year must be positive, got %d", internal.ErrInvalidInput, year)
	}

	classified, dropped := ClassifyCalendar(lines, p.filter(p.cfg.CalendarPageDigits, opts))
	records, astats := AssembleCalendar(classified, p.log)

	norm := &CalendarNormalizer{Year: year, Log: p.log}
	table := NewOutputTable(p.log)
	for _, rec := range records {
		e := norm.Normalize(rec)
		table.Insert(e.Key, e.Value)
	}

	return ParseResult{
		Table: table,
		Stats: internal.RunStats{
			LinesRead:             len(lines),
			LinesDropped:          dropped,
			ContinuationsDropped:  astats.ContinuationsDropped,
			EmptyHeads:            astats.EmptyHeads,
			Records:               len(records),
			DuplicatesOverwritten: table.Duplicates(),
			OrdinalFailures:       norm.OrdinalFailures,
			Entries:               table.Len(),
		},
	}, nil
}
