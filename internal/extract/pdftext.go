// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// NamePlainText selects the ledongthuc/pdf strategy.
const NamePlainText = "pdftext"

// PlainText extracts the embedded text layer with github.com/ledongthuc/pdf.
// It never reports tables.
type PlainText struct{}

// NewPlainText creates the text-only fallback strategy.
func NewPlainText() *PlainText { return &PlainText{} }

func (p *PlainText) Name() string { return NamePlainText }

func (p *PlainText) Extract(ctx context.Context, pdfPath string) ([]types.PageRecord, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer f.Close()

	count := r.NumPage()
	if count == 0 {
		return nil, errors.New("document has no pages")
	}

	records := make([]types.PageRecord, 0, count)
	for i := 1; i <= count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec := types.PageRecord{Number: i}
		page := r.Page(i)
		if page.V.IsNull() {
			records = append(records, rec)
			continue
		}

		// Content panics on malformed streams; the chain recovers it.
		rec.Text = joinGlyphs(page.Content().Text)
		records = append(records, rec)
	}
	return records, nil
}

// Paragraph and word gaps, and the baseline tolerance that puts two glyphs
// on one line, as multiples of the font size.
const (
	paragraphGap = 1.5
	wordGap      = 0.2
	sameLine     = 0.3
)

// line is the glyphs sharing one baseline.
type line struct {
	y      float64
	size   float64
	glyphs []pdf.Text
}

// joinGlyphs rebuilds page text from positioned glyphs. Glyphs are grouped
// into lines by baseline and lines are written top to bottom, joined with
// "\n". A vertical gap wider than paragraphGap line heights starts a new
// paragraph with a blank line.
func joinGlyphs(glyphs []pdf.Text) string {
	lines := groupLines(glyphs)

	var b strings.Builder
	var prev line
	for i, ln := range lines {
		s := lineText(ln.glyphs)
		if strings.TrimSpace(s) == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
			height := max(ln.size, prev.size)
			if height <= 0 {
				height = 12
			}
			if prev.y-ln.y > paragraphGap*height {
				b.WriteString("\n")
			}
		}
		b.WriteString(s)
		prev = lines[i]
	}
	return b.String()
}

// groupLines buckets glyphs by baseline, keeping content order within a
// line, and sorts lines top to bottom.
func groupLines(glyphs []pdf.Text) []line {
	var lines []line
	for _, g := range glyphs {
		tol := sameLine * g.FontSize
		if tol <= 0 {
			tol = 1
		}
		placed := false
		for i := range lines {
			if math.Abs(lines[i].y-g.Y) <= tol {
				lines[i].glyphs = append(lines[i].glyphs, g)
				lines[i].size = max(lines[i].size, g.FontSize)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, line{y: g.Y, size: g.FontSize, glyphs: []pdf.Text{g}})
		}
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })
	return lines
}

// lineText concatenates the glyphs of one line left to right, inserting a
// space where glyphs are separated by a visible gap.
func lineText(glyphs []pdf.Text) string {
	sorted := make([]pdf.Text, len(glyphs))
	copy(sorted, glyphs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var b strings.Builder
	var end float64
	for i, g := range sorted {
		// Fonts without width tables report zero widths; gaps are unknown.
		if i > 0 && end > 0 && g.X-end > wordGap*g.FontSize &&
			!strings.HasSuffix(b.String(), " ") && !strings.HasPrefix(g.S, " ") {
			b.WriteString(" ")
		}
		b.WriteString(g.S)
		end = 0
		if g.W > 0 {
			end = g.X + g.W
		}
	}
	return strings.TrimRight(b.String(), " ")
}
