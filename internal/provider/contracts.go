// Package provider talks to the external OCR service that performs the
// actual document recognition. The rest of the pipeline only sees the
// Analysis shape and the small error taxonomy in errors.go.
package provider

import (
	"context"
	"io"
	"strings"
	"time"
)

// Document is the caller-owned receipt payload. The filename is carried for
// diagnostics only; content is never parsed locally.
type Document struct {
	Content  io.Reader
	Filename string
}

// DocumentAnalyzer is the interface the gateway depends on.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc Document) (*Analysis, error)
}

// Analysis is the provider's typed output: zero or one recognized document
// plus the raw page text, consumed read-only downstream.
type Analysis struct {
	Document *AnalyzedDocument
	Pages    []Page
}

// AnalyzedDocument carries the structured fields the provider recognized
// with its own confidence. Any of them may be nil.
type AnalyzedDocument struct {
	MerchantName    *TextField
	Total           *NumberField
	TransactionDate *DateField
}

type TextField struct {
	Value      string
	Confidence float32
}

type NumberField struct {
	Value      float64
	Confidence float32
}

type DateField struct {
	Value      time.Time
	Confidence float32
}

// Page holds the recognized text lines of one page in reading order.
type Page struct {
	Lines []string
}

// Text joins all lines of all pages with single spaces, in page/line order.
// This is the free-form input the field extractor runs its cascades over.
func (a *Analysis) Text() string {
	var sb strings.Builder
	for _, p := range a.Pages {
		for _, line := range p.Lines {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(line)
		}
	}
	return sb.String()
}
