// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes extracted page records as YAML, JSON, or an Excel
// workbook for inspection outside the conversion pipeline.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// Format names an export encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported formats.
var Formats = []Format{FormatYAML, FormatJSON, FormatXLSX}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q (want yaml, json, or xlsx)", s)
}

// Document is the exported view of one extraction.
type Document struct {
	Source   string             `json:"source" yaml:"source"`
	Strategy string             `json:"strategy" yaml:"strategy"`
	Pages    []types.PageRecord `json:"pages" yaml:"pages"`
}

// Write encodes doc to w in the given format.
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatXLSX:
		return writeWorkbook(w, doc)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

const (
	pagesSheet = "Pages"
	// maxCellChars is Excel's per-cell text limit.
	maxCellChars = 32767
)

// writeWorkbook writes a summary sheet with one row per page, then one sheet
// per non-empty table named "P<page>-T<n>".
func writeWorkbook(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", pagesSheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	headers := []string{"Page", "Tables", "Text"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(pagesSheet, cell, h)
	}

	for i, p := range doc.Pages {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(pagesSheet, cell, v)
		}
		write(1, p.Number)
		write(2, len(p.Tables))
		write(3, truncate(p.Text, maxCellChars))

		for j, tbl := range p.Tables {
			if tbl.IsEmpty() {
				continue
			}
			if err := addTableSheet(f, fmt.Sprintf("P%d-T%d", p.Number, j+1), tbl); err != nil {
				return err
			}
		}
	}
	_ = f.SetColWidth(pagesSheet, "C", "C", 80)

	idx, err := f.GetSheetIndex(pagesSheet)
	if err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func addTableSheet(f *excelize.File, name string, tbl types.TableRecord) error {
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("adding sheet %s: %w", name, err)
	}
	for r, row := range tbl.Normalized().Rows {
		for c, val := range row {
			if val == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("sheet %s: %w", name, err)
			}
			if err := f.SetCellValue(name, cell, truncate(val, maxCellChars)); err != nil {
				return fmt.Errorf("sheet %s cell %s: %w", name, cell, err)
			}
		}
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back off to a rune boundary.
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
