// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render rebuilds extracted page records as a WordprocessingML
// (.docx) document built with godocx: a title, then per page a page break, a small gray page
// header, the page's tables as grids, and its text as justified paragraphs.
package render

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// DefaultTitle heads every rendered document.
const DefaultTitle = "Converted from PDF"

// MaxTableColumns is the widest table Word accepts.
const MaxTableColumns = 63

// ErrInvalidInput is returned when page records cannot be rendered.
var ErrInvalidInput = errors.New("invalid render input")

// blankLine matches a paragraph boundary: a line break, optional horizontal
// whitespace, and another line break.
var blankLine = regexp.MustCompile(`\n[ \t\f\v]*\n`)

// SplitParagraphs splits page text on blank lines, trims each paragraph, and
// drops paragraphs that are empty after trimming.
func SplitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var out []string
	for _, part := range blankLine.Split(text, -1) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Build lays out pages into a document. Pages must be numbered 1..N; tables
// are padded to rectangular shape and may not exceed MaxTableColumns.
func Build(title string, pages []types.PageRecord) (*Document, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages", ErrInvalidInput)
	}

	doc, err := NewDocument()
	if err != nil {
		return nil, err
	}
	if err := doc.AddTitle(title); err != nil {
		return nil, err
	}

	for i, page := range pages {
		if page.Number != i+1 {
			return nil, fmt.Errorf("%w: page %d numbered %d", ErrInvalidInput, i+1, page.Number)
		}
		if i > 0 {
			doc.AddPageBreak()
		}
		doc.AddPageHeader(fmt.Sprintf("Page %d", page.Number))

		for j, tbl := range page.Tables {
			if tbl.IsEmpty() {
				continue
			}
			if w := tbl.Width(); w > MaxTableColumns {
				return nil, fmt.Errorf("%w: page %d table %d has %d columns (max %d)",
					ErrInvalidInput, page.Number, j+1, w, MaxTableColumns)
			}
			doc.AddTable(tbl.Normalized().Rows)
			doc.AddEmptyParagraph()
		}

		for _, para := range SplitParagraphs(page.Text) {
			doc.AddJustifiedParagraph(para)
		}
	}
	return doc, nil
}

// Render builds the document for pages and writes the .docx package to w.
func Render(w io.Writer, title string, pages []types.PageRecord) error {
	doc, err := Build(title, pages)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("writing docx: %w", err)
	}
	return nil
}
