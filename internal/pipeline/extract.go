package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fumiama/go-docx"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"hymnidx/internal"
	"hymnidx/internal/util"
)

// htmlBlocks are the elements whose text becomes one line each.
const htmlBlocks = "p, li, tr, dt, dd, h1, h2, h3, h4, h5, h6, pre, blockquote"

// ExtractLines decodes a source document into raw lines in reading order.
// Lines are returned untrimmed; blank lines survive so the classifier sees
// the document as it is.
func ExtractLines(kind internal.SourceKind, blob []byte) ([]string, error) {
	switch kind {
	case internal.SourceText:
		return splitLines(string(blob)), nil
	case internal.SourcePDF:
		return readPDF(blob)
	case internal.SourceDOCX:
		return readDOCX(blob)
	case internal.SourceMarkdown:
		return readMarkdown(blob), nil
	case internal.SourceHTML:
		return readHTML(blob)
	case internal.SourceEmail:
		return readEmail(blob)
	case internal.SourceXLSX:
		return readXLSX(blob)
	default:
		return nil, fmt.Errorf("%w: %s", internal.ErrUnsupportedSource, kind)
	}
}

func readPDF(content []byte) ([]string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	out := []string{}
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("pdf page %d: %w", i, err)
		}
		out = append(out, splitLines(text)...)
	}
	return out, nil
}

func readDOCX(content []byte) ([]string, error) {
	doc, err := docx.Parse(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}

	out := []string{}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if t, ok := rc.(*docx.Text); ok {
					sb.WriteString(t.Text)
				}
			}
		}
		// soft line breaks inside a paragraph arrive as newlines
		out = append(out, splitLines(sb.String())...)
	}
	return out, nil
}

func readMarkdown(src []byte) []string {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	out := []string{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if n.HasChildren() && n.FirstChild().Type() == ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			out = append(out, strings.TrimRight(string(seg.Value(src)), "\r\n"))
		}
		return ast.WalkSkipChildren, nil
	})
	return out
}

func readHTML(content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := []string{}
	blocks := doc.Find(htmlBlocks)
	blocks.Each(func(_ int, s *goquery.Selection) {
		if s.ParentsFiltered(htmlBlocks).Length() > 0 {
			return
		}
		switch goquery.NodeName(s) {
		case "pre":
			out = append(out, splitLines(s.Text())...)
		case "tr":
			cells := []string{}
			s.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				if c := util.NormalizeSpaces(cell.Text()); c != "" {
					cells = append(cells, c)
				}
			})
			out = append(out, strings.Join(cells, " "))
		default:
			out = append(out, util.NormalizeSpaces(s.Text()))
		}
	})
	if blocks.Length() == 0 {
		out = splitLines(doc.Text())
	}
	return out, nil
}

// readEmail reads an index pasted into a message body or attached to it.
// Attachments are appended after the body in their order in the message.
func readEmail(raw []byte) ([]string, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}

	out := []string{}
	switch {
	case strings.TrimSpace(env.Text) != "":
		out = append(out, splitLines(env.Text)...)
	case strings.TrimSpace(env.HTML) != "":
		lines, err := readHTML([]byte(env.HTML))
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}

	for _, att := range env.Attachments {
		kind, ok := kindFromName(att.FileName)
		if !ok || kind == internal.SourceEmail {
			continue
		}
		lines, err := ExtractLines(kind, att.Content)
		if err != nil {
			return nil, fmt.Errorf("attachment %s: %w", att.FileName, err)
		}
		out = append(out, lines...)
	}
	return out, nil
}

// readXLSX turns every non-empty row into one line of space-joined cells.
func readXLSX(content []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	out := []string{}
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = util.NormalizeSpaces(c); c != "" {
					cells = append(cells, c)
				}
			}
			out = append(out, strings.Join(cells, " "))
		}
	}
	return out, nil
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
