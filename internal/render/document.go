// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/stypes"
)

// Header run styling: 10pt, bold, gray.
const (
	headerColor = "808080"
	headerSize  = 10
)

// tableStyle ships in the default template with single borders on every
// edge and between cells.
const tableStyle = "TableGrid"

// Document wraps a godocx package built from the library's default
// template. The template carries the Title and TableGrid styles.
type Document struct {
	root *docx.RootDoc
}

// NewDocument returns an empty document.
func NewDocument() (*Document, error) {
	root, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("opening docx template: %w", err)
	}
	return &Document{root: root}, nil
}

// AddTitle appends a paragraph in the Title style.
func (d *Document) AddTitle(text string) error {
	if _, err := d.root.AddHeading(sanitize(text), 0); err != nil {
		return fmt.Errorf("adding title: %w", err)
	}
	return nil
}

// AddPageBreak appends a paragraph holding a hard page break.
func (d *Document) AddPageBreak() {
	d.root.AddPageBreak()
}

// AddPageHeader appends a centered, bold, 10pt gray line.
func (d *Document) AddPageHeader(text string) {
	p := d.root.AddEmptyParagraph()
	p.Justification(stypes.JustificationCenter)
	p.AddText(sanitize(text)).Bold(true).Color(headerColor).Size(headerSize)
}

// AddJustifiedParagraph appends text as one justified paragraph. Single line
// breaks inside text become soft breaks.
func (d *Document) AddJustifiedParagraph(text string) {
	p := d.root.AddEmptyParagraph()
	p.Justification(stypes.JustificationBoth)
	for i, line := range strings.Split(sanitize(text), "\n") {
		if i > 0 {
			p.AddRun().AddBreak(nil)
		}
		if line != "" {
			p.AddText(line)
		}
	}
}

// AddEmptyParagraph appends a blank spacing line.
func (d *Document) AddEmptyParagraph() {
	d.root.AddEmptyParagraph()
}

// AddTable appends a bordered grid. rows must be rectangular; empty cells
// hold an empty paragraph.
func (d *Document) AddTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}
	tbl := d.root.AddTable()
	tbl.Style(tableStyle)
	for _, row := range rows {
		tr := tbl.AddRow()
		for _, cell := range row {
			tc := tr.AddCell()
			if cell = sanitize(cell); cell != "" {
				tc.AddParagraph(cell)
			} else {
				tc.AddEmptyPara()
			}
		}
	}
}

// sanitize removes runes that are illegal in XML 1.0 and folds carriage
// returns into line feeds.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n':
			return r
		case r == '\r':
			return '\n'
		case r < 0x20, r == 0xFFFE, r == 0xFFFF, r >= 0xD800 && r <= 0xDFFF:
			return -1
		}
		return r
	}, s)
}

// WriteTo writes the complete .docx package to w. The package is
// byte-for-byte reproducible: godocx writes parts in sorted order with
// zero timestamps.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := d.root.Write(cw); err != nil {
		return cw.n, fmt.Errorf("writing package: %w", err)
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
