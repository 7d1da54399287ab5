package extract

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/text/encoding/charmap"
)

// extractText reads a text-like file and decodes it with the UTF-8 →
// Latin-1 → CP1252 → lossy-UTF-8 ladder, converting HTML to Markdown.
func extractText(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	text := decodeBestEffort(raw)

	if ext := strings.ToLower(filepath.Ext(path)); ext == ".html" || ext == ".htm" {
		if md, err := htmltomarkdown.ConvertString(text); err == nil {
			text = md
		}
	}

	return Result{Text: text}, nil
}

// decodeBestEffort tries UTF-8 first (the common case), then Latin-1, then
// CP1252, and finally forces valid UTF-8 by replacing invalid sequences,
// the ladder §4.2 names for heterogeneous legacy text encodings.
func decodeBestEffort(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	if s, err := decodeWith(charmap.ISO8859_1, raw); err == nil {
		return s
	}
	if s, err := decodeWith(charmap.Windows1252, raw); err == nil {
		return s
	}
	return strings.ToValidUTF8(string(raw), "�")
}

func decodeWith(cm *charmap.Charmap, raw []byte) (string, error) {
	decoded, err := cm.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
