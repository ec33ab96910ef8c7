// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pdf2doc pipeline:
// extracted page content, conversion jobs, and configuration.
package types

import "strings"

// TableRecord is a grid of cell strings detected on a page. Rows are in
// reading order; cells may be empty.
type TableRecord struct {
	Rows [][]string `json:"rows" yaml:"rows"`
}

// Width returns the length of the longest row.
func (t TableRecord) Width() int {
	w := 0
	for _, row := range t.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// IsEmpty reports whether the table has no rows or no columns.
func (t TableRecord) IsEmpty() bool {
	return len(t.Rows) == 0 || t.Width() == 0
}

// Normalized returns a copy of the table in which every row is padded with
// empty cells to the length of the longest row.
func (t TableRecord) Normalized() TableRecord {
	w := t.Width()
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		padded := make([]string, w)
		copy(padded, row)
		rows[i] = padded
	}
	return TableRecord{Rows: rows}
}

// PageRecord holds the content extracted from one PDF page.
type PageRecord struct {
	// Number is the 1-indexed page number.
	Number int `json:"page" yaml:"page"`

	// Text is the plain text of the page. It may be empty.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Tables lists tables detected on the page in order.
	Tables []TableRecord `json:"tables" yaml:"tables"`
}

// HasContent reports whether the page carries non-blank text or a non-empty
// table.
func (p PageRecord) HasContent() bool {
	if strings.TrimSpace(p.Text) != "" {
		return true
	}
	for _, t := range p.Tables {
		if !t.IsEmpty() {
			return true
		}
	}
	return false
}

// AnyContent reports whether at least one page has content.
func AnyContent(pages []PageRecord) bool {
	for _, p := range pages {
		if p.HasContent() {
			return true
		}
	}
	return false
}
