package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/xuri/excelize/v2"

	"hymnidx/internal"
	"hymnidx/internal/config"
	"hymnidx/internal/logging"
)

var sampleCalendar = []internal.Entry{
	{Key: "November 30, 2025 - First Sunday of Advent", Value: 2},
	{Key: "May 14 or May 17, 2026 - Ascension of the Lord", Value: 57},
	{Key: "January 04, 2026 - Epiphany of the Lord", Value: 18},
}

func TestOutputTable(t *testing.T) {
	table := NewOutputTable(logging.Discard())
	if table.Insert("b", 1) || table.Insert("a", 2) {
		t.Fatal("fresh keys reported as overwritten")
	}
	if !table.Insert("b", 3) {
		t.Fatal("duplicate not reported")
	}
	if v, ok := table.Get("b"); !ok || v != 3 {
		t.Fatalf("b=%d ok=%v", v, ok)
	}
	want := []internal.Entry{{Key: "b", Value: 3}, {Key: "a", Value: 2}}
	if got := table.Entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
	if table.Len() != 2 || table.Duplicates() != 1 {
		t.Fatalf("len=%d duplicates=%d", table.Len(), table.Duplicates())
	}
}

func TestYAMLKeepsOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ra-index.yml")
	entries := append([]internal.Entry{{Key: "70", Value: 1}}, sampleCalendar...)
	if err := WriteYAML(entries, path); err != nil {
		t.Fatal(err)
	}
	got, err := ReadYAML(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, entries) {
		t.Fatalf("got %+v", got)
	}
}

func TestWriteGoSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ra-index.go")
	info := internal.TableInfo{Name: "ra-index", Kind: internal.KindCalendar, Year: 2026}
	if err := WriteGoSource(info, sampleCalendar, path); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	src := string(blob)
	for _, want := range []string{
		"package raindex",
		"const Year = 2026",
		`"May 14 or May 17, 2026 - Ascension of the Lord": 57,`,
		"func Lookup(key string) (int, bool)",
		"func Search(query string) map[string]int",
	} {
		if !strings.Contains(src, want) {
			t.Fatalf("missing %q in:\n%s", want, src)
		}
	}
	if strings.Index(src, "First Sunday of Advent") > strings.Index(src, "Epiphany of the Lord") {
		t.Fatal("keys out of document order")
	}
}

func TestPackageName(t *testing.T) {
	cases := map[string]string{
		"ra-index":  "raindex",
		"Gather 4":  "gather4",
		"2026":      "index2026",
		"":          "index",
		"map":       "mapindex",
		"hymnal_v2": "hymnalv2",
	}
	for in, want := range cases {
		if got := packageName(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestExportTableToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ra-index.xlsx")
	info := internal.TableInfo{Name: "ra-index", Kind: internal.KindCalendar}
	if err := ExportTableToXLSX(info, sampleCalendar, path); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("ra-index")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows=%d", len(rows))
	}
	if rows[0][4] != "celebration" || rows[2][3] != "May 14 or May 17, 2026" || rows[2][2] != "57" {
		t.Fatalf("unexpected rows: %q", rows)
	}
}

func TestWriterOutputBase(t *testing.T) {
	w := &Writer{outputDir: "/srv/out"}
	cases := map[string]string{
		"gather":          "/srv/out/gather",
		"gather.yml":      "/srv/out/gather",
		"tmp/ra-index.go": "tmp/ra-index",
		"/abs/ra-index":   "/abs/ra-index",
		"ra-index.2026":   "/srv/out/ra-index.2026",
	}
	for in, want := range cases {
		if got := w.OutputBase(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestWriterWritesArtifacts(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	cfg.XLSXExport = true
	w := NewWriter(cfg, logging.Discard())

	info := internal.TableInfo{Name: "gather", Kind: internal.KindHymnal}
	written, err := w.Write(info, []internal.Entry{{Key: "A Celtic Rune", Value: 664}}, "gather")
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 3 {
		t.Fatalf("written=%v", written)
	}
	for _, p := range written {
		if _, err := os.Stat(p); err != nil {
			t.Fatal(err)
		}
	}
}

func TestWriterLocked(t *testing.T) {
	cfg := config.Default()
	cfg.OutputDir = t.TempDir()
	w := NewWriter(cfg, logging.Discard())

	held := flock.New(filepath.Join(cfg.OutputDir, lockName))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	defer func() { _ = held.Unlock() }()

	_, err = w.Write(internal.TableInfo{Name: "gather"}, nil, "gather")
	if !errors.Is(err, internal.ErrLocked) {
		t.Fatalf("err=%v", err)
	}
}
