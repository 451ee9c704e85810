package pipeline

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"hymnidx/internal"
	"hymnidx/internal/config"
	"hymnidx/internal/storage"
)

// ProcessingService runs a source document through the parser, stores the
// resulting table and writes its artifacts.
type ProcessingService struct {
	db     *storage.DB
	cfg    config.Config
	log    *slog.Logger
	parser *Parser
	writer *Writer
}

func NewProcessingService(db *storage.DB, cfg config.Config, log *slog.Logger) *ProcessingService {
	return &ProcessingService{
		db:     db,
		cfg:    cfg,
		log:    log,
		parser: NewParser(cfg, log),
		writer: NewWriter(cfg, log),
	}
}

type ImportRequest struct {
	Input     string
	InputType string
	// Name is the table name; it doubles as the default output base.
	Name   string
	Output string
	// SkipHeaders overrides the per-source default when set.
	SkipHeaders *bool
}

type ProcessResult struct {
	RunID     string
	Table     internal.TableInfo
	Entries   []internal.Entry
	Stats     internal.RunStats
	Artifacts []string
}

func (s *ProcessingService) ImportHymnal(req ImportRequest) (ProcessResult, error) {
	return s.run(req, internal.KindHymnal, 0)
}

func (s *ProcessingService) ImportCalendar(req ImportRequest, year int) (ProcessResult, error) {
	return s.run(req, internal.KindCalendar, year)
}

func (s *ProcessingService) run(req ImportRequest, kind internal.TableKind, year int) (ProcessResult, error) {
	start := time.Now()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return ProcessResult{}, fmt.Errorf("%w: table name is required", internal.ErrInvalidInput)
	}

	lines, sourceKind, err := ExtractLinesFromInput(req.InputType, req.Input)
	if err != nil {
		return ProcessResult{}, err
	}

	opts := ParseOptions{SkipRunningHeaders: SkipHeadersFor(sourceKind)}
	if req.SkipHeaders != nil {
		opts.SkipRunningHeaders = *req.SkipHeaders
	}

	var res ParseResult
	switch kind {
	case internal.KindHymnal:
		res = s.parser.ParseHymnal(lines, opts)
	case internal.KindCalendar:
		res, err = s.parser.ParseCalendar(lines, year, opts)
		if err != nil {
			return ProcessResult{}, err
		}
	}

	entries := res.Table.Entries()
	source := req.Input
	if strings.EqualFold(req.InputType, InputLiteral) {
		source = InputLiteral
	}
	info := internal.TableInfo{Name: name, Kind: kind, Year: year, Source: source, Entries: len(entries)}

	// Artifacts go first: a locked or unwritable output directory must not
	// leave a stored table and run behind.
	output := req.Output
	if strings.TrimSpace(output) == "" {
		output = name
	}
	artifacts, err := s.writer.Write(info, entries, output)
	if err != nil {
		return ProcessResult{}, err
	}

	if err := s.db.ReplaceTable(info, entries); err != nil {
		return ProcessResult{}, fmt.Errorf("store table %s: %w", name, err)
	}

	runID := newRunID()
	if err := s.db.InsertRun(internal.RunRow{ID: runID, TableName: name, Stats: res.Stats}); err != nil {
		return ProcessResult{}, err
	}

	s.log.Info("table imported",
		"table", name,
		"kind", string(kind),
		"run", runID,
		"entries", len(entries),
		"duplicates", res.Stats.DuplicatesOverwritten,
		"dropped", res.Stats.LinesDropped,
		"ms", time.Since(start).Milliseconds(),
	)

	return ProcessResult{RunID: runID, Table: info, Entries: entries, Stats: res.Stats, Artifacts: artifacts}, nil
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// newRunID returns ULIDs that sort in creation order, also within one
// millisecond.
func newRunID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Now(), entropy).String()
}
