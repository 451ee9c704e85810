package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hymnidx/internal"
)

// InputLiteral makes ExtractLinesFromInput treat input as the document text
// itself rather than a path.
const InputLiteral = "literal"

var extensionKinds = map[string]internal.SourceKind{
	".txt":      internal.SourceText,
	".text":     internal.SourceText,
	".pdf":      internal.SourcePDF,
	".docx":     internal.SourceDOCX,
	".md":       internal.SourceMarkdown,
	".markdown": internal.SourceMarkdown,
	".html":     internal.SourceHTML,
	".htm":      internal.SourceHTML,
	".eml":      internal.SourceEmail,
	".xlsx":     internal.SourceXLSX,
}

func kindFromName(name string) (internal.SourceKind, bool) {
	kind, ok := extensionKinds[strings.ToLower(filepath.Ext(strings.TrimSpace(name)))]
	return kind, ok
}

// ResolveSourceKind picks the reader for input: an explicit type wins,
// otherwise the file extension decides.
func ResolveSourceKind(inputType, input string) (internal.SourceKind, error) {
	inputType = strings.ToLower(strings.TrimSpace(inputType))
	if inputType == InputLiteral {
		return internal.SourceText, nil
	}
	if inputType != "" {
		for _, kind := range extensionKinds {
			if string(kind) == inputType {
				return kind, nil
			}
		}
		return "", fmt.Errorf("%w: %s", internal.ErrUnsupportedSource, inputType)
	}
	kind, ok := kindFromName(input)
	if !ok {
		return "", fmt.Errorf("%w: cannot infer type of %q, pass --type", internal.ErrUnsupportedSource, input)
	}
	return kind, nil
}

func ExtractLinesFromInput(inputType string, input string) ([]string, internal.SourceKind, error) {
	kind, err := ResolveSourceKind(inputType, input)
	if err != nil {
		return nil, "", err
	}
	if strings.EqualFold(strings.TrimSpace(inputType), InputLiteral) {
		return splitLines(input), kind, nil
	}
	blob, err := os.ReadFile(input)
	if err != nil {
		return nil, "", fmt.Errorf("read input: %w", err)
	}
	lines, err := ExtractLines(kind, blob)
	if err != nil {
		return nil, "", err
	}
	return lines, kind, nil
}
