// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest builds small, valid PDF files for tests. Each page is a
// US Letter page drawing its lines in Helvetica, one line per Td move, with
// an empty line rendered as a larger vertical gap. A page may also carry a
// table drawn with stroked ruling lines below the text.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Page describes the content of one generated page.
type Page struct {
	// Text is split on "\n" into lines drawn from the top of the page.
	Text string

	// Table, when set, is drawn as a ruled grid with one cell per entry.
	Table [][]string
}

// Build returns the bytes of a PDF with one page per entry in pages. Each
// entry is split on "\n" into text lines. An empty string yields a page
// without any text operators (a stand-in for a scanned page).
func Build(pages ...string) []byte {
	ps := make([]Page, len(pages))
	for i, p := range pages {
		ps[i] = Page{Text: p}
	}
	return BuildPages(ps...)
}

// BuildPages is Build for pages that may carry ruled tables.
func BuildPages(pages ...Page) []byte {
	// Object layout: 1 catalog, 2 page tree, 3 font, then per page a page
	// object followed by its content stream.
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, p := range pages {
		content := contentStream(p)
		objects = append(objects, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>",
			5+2*i))
		objects = append(objects, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

// Table geometry in points.
const (
	tableTop    = 500
	tableLeft   = 72
	cellWidth   = 100
	cellHeight  = 20
	cellPadding = 4
)

func contentStream(page Page) string {
	if page.Text == "" && len(page.Table) == 0 {
		// A stroked rectangle and no text.
		return "q 0 0 0 RG 72 72 200 200 re S Q"
	}

	var b strings.Builder
	if page.Text != "" {
		writeText(&b, page.Text)
	}
	if len(page.Table) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		writeTable(&b, page.Table)
	}
	return b.String()
}

func writeText(b *strings.Builder, text string) {
	b.WriteString("BT\n/F1 12 Tf\n72 720 Td\n")
	first := true
	gap := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			gap++
			continue
		}
		if !first {
			fmt.Fprintf(b, "0 -%d Td\n", 16+gap*24)
		}
		fmt.Fprintf(b, "(%s) Tj\n", escape(line))
		first = false
		gap = 0
	}
	b.WriteString("ET")
}

func writeTable(b *strings.Builder, rows [][]string) {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	right := tableLeft + cols*cellWidth
	bottom := tableTop - len(rows)*cellHeight

	b.WriteString("q 0 0 0 RG 0.5 w\n")
	for r := 0; r <= len(rows); r++ {
		y := tableTop - r*cellHeight
		fmt.Fprintf(b, "%d %d m %d %d l S\n", tableLeft, y, right, y)
	}
	for c := 0; c <= cols; c++ {
		x := tableLeft + c*cellWidth
		fmt.Fprintf(b, "%d %d m %d %d l S\n", x, tableTop, x, bottom)
	}
	b.WriteString("Q\nBT\n/F1 10 Tf\n")
	for r, row := range rows {
		for c, cell := range row {
			if cell == "" {
				continue
			}
			x := tableLeft + c*cellWidth + cellPadding
			y := tableTop - (r+1)*cellHeight + 6
			fmt.Fprintf(b, "1 0 0 1 %d %d Tm (%s) Tj\n", x, y, escape(cell))
		}
	}
	b.WriteString("ET")
}

func escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`)
	return r.Replace(s)
}

// Write stores a PDF built from pages under t.TempDir() and returns its path.
func Write(t testing.TB, name string, pages ...string) string {
	t.Helper()
	return write(t, name, Build(pages...))
}

// WritePages is Write for pages that may carry ruled tables.
func WritePages(t testing.TB, name string, pages ...Page) string {
	t.Helper()
	return write(t, name, BuildPages(pages...))
}

func write(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
