// Package document extracts plain text from uploaded documents so it can be
// used as generation material.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/pavelanni/quizgen/internal/model"
)

var (
	// ErrUnsupported is returned for documents that are neither PDF nor text.
	ErrUnsupported = errors.New("unsupported document type")
	// ErrNoText is returned when a document contains no extractable text,
	// e.g. a scanned PDF.
	ErrNoText = errors.New("document contains no extractable text")
)

// Extract returns the text content of doc.
func Extract(doc *model.Document) (string, error) {
	if doc == nil || len(doc.Data) == 0 {
		return "", ErrNoText
	}
	if err := Check(doc); err != nil {
		return "", err
	}
	text := string(doc.Data)
	if IsPDF(doc.Data) {
		var err error
		if text, err = extractPDF(doc.Data); err != nil {
			return "", err
		}
	}
	text = collapseWhitespace(text)
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// Check reports whether doc is a PDF or UTF-8 text document, returning an
// error wrapping ErrUnsupported otherwise. Only the container is checked;
// a PDF that passes may still have no extractable text.
func Check(doc *model.Document) error {
	switch {
	case IsPDF(doc.Data):
		return nil
	case isPDFName(doc):
		return fmt.Errorf("%w: %s claims to be a PDF but has no %%PDF header", ErrUnsupported, doc.Name)
	case isText(doc):
		if !utf8.Valid(doc.Data) {
			return fmt.Errorf("%w: text is not valid UTF-8", ErrUnsupported)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupported, doc.Name)
	}
}

// IsPDF reports whether data starts with the PDF magic header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func isPDFName(doc *model.Document) bool {
	return doc.ContentType == "application/pdf" || strings.EqualFold(filepath.Ext(doc.Name), ".pdf")
}

func isText(doc *model.Document) bool {
	if strings.HasPrefix(doc.ContentType, "text/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return false
}

func extractPDF(data []byte) (text string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plaintext: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("pdf read: %w", err)
	}
	return string(b), nil
}

// collapseWhitespace trims every line and drops runs of blank lines.
func collapseWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := lines[:0]
	blank := false
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
