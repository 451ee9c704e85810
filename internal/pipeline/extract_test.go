package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/xuri/excelize/v2"

	"hymnidx/internal"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func trimAll(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestSplitLines(t *testing.T) {
	got := splitLines("664 A Celtic Rune\r\n\n680 Morning Has\fBroken\n")
	want := []string{"664 A Celtic Rune", "", "680 Morning Has", "Broken"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q", got)
	}
	if splitLines("") != nil {
		t.Fatal("expected nil for empty input")
	}
}

func TestReadXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{664, "A Celtic Rune"},
		{680, "Morning Has"},
		{"", "Broken"},
	})
	lines, err := readXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"664 A Celtic Rune", "680 Morning Has", "Broken"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %q", lines)
	}
}

func TestReadHTML(t *testing.T) {
	html := `<html><body>
<h1>Index</h1>
<ul><li>664 A Celtic Rune</li><li><p>680 Morning Has   Broken</p></li></ul>
<table><tr><td>46</td><td>Amazing Grace</td></tr></table>
</body></html>`
	lines, err := readHTML([]byte(html))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Index", "664 A Celtic Rune", "680 Morning Has Broken", "46 Amazing Grace"}
	if !reflect.DeepEqual(lines, want) {
		t.Fatalf("got %q", lines)
	}
}

func TestReadHTMLWithoutBlocks(t *testing.T) {
	lines, err := readHTML([]byte("<div>664 A Celtic Rune<br>\n680 Morning Has Broken</div>"))
	if err != nil {
		t.Fatal(err)
	}
	if got := trimAll(lines); len(got) != 2 || got[1] != "680 Morning Has Broken" {
		t.Fatalf("got %q", got)
	}
}

func TestReadMarkdown(t *testing.T) {
	src := "# Index\n\n664 A Celtic Rune\n680 Morning Has\nBroken\n\n- 46 Amazing Grace\n"
	got := trimAll(readMarkdown([]byte(src)))
	want := []string{"Index", "664 A Celtic Rune", "680 Morning Has", "Broken", "46 Amazing Grace"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q", got)
	}
}

func TestReadEmail(t *testing.T) {
	raw := strings.Join([]string{
		"From: music@example.com",
		"To: office@example.com",
		"Subject: Hymnal index",
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"664 A Celtic Rune",
		"--b1",
		`Content-Type: text/plain; name="more.txt"`,
		`Content-Disposition: attachment; filename="more.txt"`,
		"",
		"680 Morning Has Broken",
		"--b1--",
		"",
	}, "\r\n")
	lines, err := readEmail([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"664 A Celtic Rune", "680 Morning Has Broken"}
	if got := trimAll(lines); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q", got)
	}
}

func TestReadDOCX(t *testing.T) {
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("664 A Celtic Rune")
	w.AddParagraph().AddText("680 Morning Has")
	w.AddParagraph().AddText("Broken")
	buf := bytes.NewBuffer(nil)
	if _, err := w.WriteTo(buf); err != nil {
		t.Fatal(err)
	}

	lines, err := readDOCX(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"664 A Celtic Rune", "680 Morning Has", "Broken"}
	if got := trimAll(lines); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q", got)
	}
}

func TestResolveSourceKind(t *testing.T) {
	cases := []struct {
		inputType string
		input     string
		want      internal.SourceKind
		wantErr   bool
	}{
		{input: "gather.txt", want: internal.SourceText},
		{input: "RA-Index.PDF", want: internal.SourcePDF},
		{input: "index.markdown", want: internal.SourceMarkdown},
		{inputType: "html", input: "index.dat", want: internal.SourceHTML},
		{inputType: "literal", input: "664 A Celtic Rune", want: internal.SourceText},
		{input: "index.dat", wantErr: true},
		{inputType: "rtf", input: "index.rtf", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.inputType+"/"+tc.input, func(t *testing.T) {
			got, err := ResolveSourceKind(tc.inputType, tc.input)
			if tc.wantErr {
				if !errors.Is(err, internal.ErrUnsupportedSource) {
					t.Fatalf("err=%v", err)
				}
				return
			}
			if err != nil || got != tc.want {
				t.Fatalf("got %q err=%v", got, err)
			}
		})
	}
}

func TestExtractLinesFromInputFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gather.txt")
	if err := os.WriteFile(path, []byte("664 A Celtic Rune\n12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines, kind, err := ExtractLinesFromInput("", path)
	if err != nil {
		t.Fatal(err)
	}
	if kind != internal.SourceText || len(lines) != 2 {
		t.Fatalf("kind=%s lines=%q", kind, lines)
	}
}

func TestExtractLinesUnsupported(t *testing.T) {
	if _, err := ExtractLines("rtf", nil); !errors.Is(err, internal.ErrUnsupportedSource) {
		t.Fatalf("err=%v", err)
	}
}
