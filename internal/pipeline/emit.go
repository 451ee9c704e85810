package pipeline

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"hymnidx/internal"
	"hymnidx/internal/config"
)

const lockName = ".hymnidx.lock"

// Writer renders a parsed table into its artifacts: a YAML mapping, a Go
// source file and, when enabled, a spreadsheet.
type Writer struct {
	outputDir string
	xlsx      bool
	log       *slog.Logger
}

func NewWriter(cfg config.Config, log *slog.Logger) *Writer {
	return &Writer{outputDir: cfg.OutputDir, xlsx: cfg.XLSXExport, log: log}
}

// OutputBase resolves where artifacts for base go. A bare name lands in the
// configured output directory; anything with a directory part is used as is.
func (w *Writer) OutputBase(base string) string {
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yml", ".yaml", ".go", ".xlsx":
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if filepath.IsAbs(base) || strings.ContainsRune(base, filepath.Separator) {
		return base
	}
	return filepath.Join(w.outputDir, base)
}

// Write emits every artifact under base and returns the paths written. The
// output directory is locked for the duration; a concurrent run fails with
// internal.ErrLocked instead of interleaving files.
func (w *Writer) Write(info internal.TableInfo, entries []internal.Entry, base string) ([]string, error) {
	base = w.OutputBase(base)
	dir := filepath.Dir(base)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	lock := flock.New(filepath.Join(dir, lockName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", dir, internal.ErrLocked)
	}
	defer func() { _ = lock.Unlock() }()

	written := []string{}

	yamlPath := base + ".yml"
	if err := WriteYAML(entries, yamlPath); err != nil {
		return written, err
	}
	written = append(written, yamlPath)

	goPath := base + ".go"
	if err := WriteGoSource(info, entries, goPath); err != nil {
		return written, err
	}
	written = append(written, goPath)

	if w.xlsx {
		xlsxPath := base + ".xlsx"
		if err := ExportTableToXLSX(info, entries, xlsxPath); err != nil {
			return written, err
		}
		written = append(written, xlsxPath)
	}

	w.log.Info("artifacts written", "table", info.Name, "files", len(written), "base", base)
	return written, nil
}

// WriteYAML dumps entries as a single mapping in document order.
func WriteYAML(entries []internal.Entry, path string) error {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range entries {
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(e.Value)},
		)
	}
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ReadYAML loads a mapping written by WriteYAML, keeping file order.
func ReadYAML(path string) ([]internal.Entry, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s is not a mapping", internal.ErrInvalidInput, path)
	}
	out := make([]internal.Entry, 0, len(mapping.Content)/2)
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		var value int
		if err := mapping.Content[i+1].Decode(&value); err != nil {
			return nil, fmt.Errorf("%s: value of %q: %w", path, mapping.Content[i].Value, err)
		}
		out = append(out, internal.Entry{Key: mapping.Content[i].Value, Value: value})
	}
	return out, nil
}

var goSourceTemplate = template.Must(template.New("table").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by hymnidx; DO NOT EDIT.

// Package {{.Package}} holds the {{.Kind}} index {{quote .Name}}.
package {{.Package}}

import "strings"

{{- if .Year}}

// Year is the liturgical year the index was generated for.
const Year = {{.Year}}
{{- end}}

// Keys lists every entry in document order.
var Keys = []string{
{{- range .Entries}}
	{{quote .Key}},
{{- end}}
}

// Index maps each key to its {{.ValueName}}.
var Index = map[string]int{
{{- range .Entries}}
	{{quote .Key}}: {{.Value}},
{{- end}}
}

// Lookup returns the {{.ValueName}} stored under key.
func Lookup(key string) (int, bool) {
	v, ok := Index[key]
	return v, ok
}

// Search returns every entry whose key contains query, ignoring case.
func Search(query string) map[string]int {
	q := strings.ToLower(query)
	out := map[string]int{}
	for _, k := range Keys {
		if strings.Contains(strings.ToLower(k), q) {
			out[k] = Index[k]
		}
	}
	return out
}
`))

// WriteGoSource renders entries as a self-contained, gofmt'ed Go package.
func WriteGoSource(info internal.TableInfo, entries []internal.Entry, path string) error {
	valueName := "hymn number"
	if info.Kind == internal.KindCalendar {
		valueName = "page"
	}
	data := struct {
		Package   string
		Name      string
		Kind      internal.TableKind
		Year      int
		ValueName string
		Entries   []internal.Entry
	}{
		Package:   packageName(info.Name),
		Name:      info.Name,
		Kind:      info.Kind,
		Year:      info.Year,
		ValueName: valueName,
		Entries:   entries,
	}

	var buf bytes.Buffer
	if err := goSourceTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render go source: %w", err)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format go source: %w", err)
	}
	return os.WriteFile(path, src, 0o644)
}

// packageName derives a Go package name: "ra-index" becomes "raindex".
func packageName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			sb.WriteRune(r)
		}
	}
	s := sb.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "index" + s
	}
	if token.IsKeyword(s) {
		s += "index"
	}
	return s
}
