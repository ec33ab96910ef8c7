// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// NameMuPDF selects the go-fitz strategy.
const NameMuPDF = "mupdf"

// MuPDF extracts page text through MuPDF (github.com/gen2brain/go-fitz). It
// is text only and tolerates many files the pure-Go parsers reject.
type MuPDF struct{}

// NewMuPDF creates the MuPDF strategy.
func NewMuPDF() *MuPDF { return &MuPDF{} }

func (m *MuPDF) Name() string { return NameMuPDF }

func (m *MuPDF) Extract(ctx context.Context, pdfPath string) ([]types.PageRecord, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer doc.Close()

	count := doc.NumPage()
	if count == 0 {
		return nil, errors.New("document has no pages")
	}

	records := make([]types.PageRecord, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageText, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		records = append(records, types.PageRecord{Number: i + 1, Text: pageText})
	}
	return records, nil
}
