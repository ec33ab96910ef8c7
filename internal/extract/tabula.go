// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tsawler/tabula"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"

	"github.com/pdiddy/pdf2doc/pkg/types"
)

// NameTabula selects the tabula strategy.
const NameTabula = "tabula"

// Tabula extracts page text and ruled tables with the pure-Go tabula reader.
// It is the primary strategy.
//
// Tables come only from stroked ruling lines: a grid needs at least two
// aligned horizontal and two aligned vertical lines. Unruled text, however
// columnar it looks, stays page text.
type Tabula struct {
	grids *tables.GridDetector
}

// NewTabula creates a tabula strategy with the default grid detector.
func NewTabula() *Tabula {
	return &Tabula{grids: tables.NewGridDetector()}
}

func (t *Tabula) Name() string { return NameTabula }

// Extract opens the PDF once and walks its pages in order. A page with no
// text still yields a record.
func (t *Tabula) Extract(ctx context.Context, pdfPath string) ([]types.PageRecord, error) {
	r, err := reader.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer r.Close()

	count, err := r.PageCount()
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}
	if count == 0 {
		return nil, errors.New("document has no pages")
	}

	records := make([]types.PageRecord, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := r.GetPage(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}

		// FromReader does not take ownership, so r stays open across pages.
		pageText, _, err := tabula.FromReader(r).Pages(i + 1).Text()
		if err != nil {
			return nil, fmt.Errorf("page %d text: %w", i+1, err)
		}

		found, err := t.pageTables(r, page)
		if err != nil {
			return nil, fmt.Errorf("page %d tables: %w", i+1, err)
		}

		records = append(records, types.PageRecord{
			Number: i + 1,
			Text:   pageText,
			Tables: found,
		})
	}
	return records, nil
}

func (t *Tabula) pageTables(r *reader.Reader, page *pages.Page) ([]types.TableRecord, error) {
	data, err := contentBytes(page)
	if err != nil || len(data) == 0 {
		return nil, err
	}

	ge := graphicsstate.NewGraphicsExtractor()
	if err := ge.ExtractFromBytes(data); err != nil {
		return nil, fmt.Errorf("reading graphics: %w", err)
	}
	horizontals, verticals := rulingLines(ge)
	grids := t.grids.DetectFromLines(horizontals, verticals)
	if len(grids) == 0 {
		return nil, nil
	}

	fragments, err := r.ExtractTextFragments(page)
	if err != nil {
		return nil, err
	}

	var out []types.TableRecord
	for _, g := range grids {
		if rec := fillGrid(g, fragments); hasText(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// contentBytes decodes and concatenates the page's content streams.
func contentBytes(page *pages.Page) ([]byte, error) {
	contents, err := page.Contents()
	if err != nil {
		return nil, fmt.Errorf("reading contents: %w", err)
	}
	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			return nil, fmt.Errorf("decoding content stream: %w", err)
		}
		data = append(data, decoded...)
		data = append(data, '\n')
	}
	return data, nil
}

// rulingLines returns the stroked horizontal and vertical lines on a page,
// including the edges of stroked rectangles, which is how many producers
// draw cell borders.
func rulingLines(ge *graphicsstate.GraphicsExtractor) (h, v []graphicsstate.ExtractedLine) {
	lines := ge.GetGridLines()
	h, v = lines.Horizontals, lines.Verticals

	for _, rect := range ge.GetFilteredRectangles() {
		if !rect.IsStroked {
			continue
		}
		b := rect.BBox
		edge := func(x1, y1, x2, y2 float64, horizontal bool) graphicsstate.ExtractedLine {
			return graphicsstate.ExtractedLine{
				Start:        model.Point{X: x1, Y: y1},
				End:          model.Point{X: x2, Y: y2},
				Width:        rect.StrokeWidth,
				Color:        rect.StrokeColor,
				IsHorizontal: horizontal,
				IsVertical:   !horizontal,
			}
		}
		h = append(h,
			edge(b.Left(), b.Bottom(), b.Right(), b.Bottom(), true),
			edge(b.Left(), b.Top(), b.Right(), b.Top(), true))
		v = append(v,
			edge(b.Left(), b.Bottom(), b.Left(), b.Top(), false),
			edge(b.Right(), b.Bottom(), b.Right(), b.Top(), false))
	}
	return h, v
}

// fillGrid places each fragment in the cell containing its center. Cell
// text keeps reading order: top to bottom, then left to right.
func fillGrid(g *tables.GridHypothesis, fragments []text.TextFragment) types.TableRecord {
	rows := len(g.HorizontalLines) - 1
	cols := len(g.VerticalLines) - 1
	if rows <= 0 || cols <= 0 {
		return types.TableRecord{}
	}

	sorted := make([]text.TextFragment, len(fragments))
	copy(sorted, fragments)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	cells := make([][][]string, rows)
	for i := range cells {
		cells[i] = make([][]string, cols)
	}
	for _, f := range sorted {
		x := f.X + f.Width/2
		y := f.Y + f.Height/2
		row := span(y, g.HorizontalLines, true)
		col := span(x, g.VerticalLines, false)
		if row < 0 || col < 0 {
			continue
		}
		if s := strings.TrimSpace(f.Text); s != "" {
			cells[row][col] = append(cells[row][col], s)
		}
	}

	out := make([][]string, rows)
	for i, row := range cells {
		out[i] = make([]string, cols)
		for j, parts := range row {
			out[i][j] = strings.Join(parts, " ")
		}
	}
	return types.TableRecord{Rows: out}
}

// span returns the index of the interval between consecutive boundaries
// that holds p, or -1. Horizontal lines run top to bottom (descending Y),
// vertical lines left to right.
func span(p float64, bounds []float64, descending bool) int {
	for i := 0; i+1 < len(bounds); i++ {
		lo, hi := bounds[i], bounds[i+1]
		if descending {
			lo, hi = hi, lo
		}
		if p >= lo && p <= hi {
			return i
		}
	}
	return -1
}

func hasText(t types.TableRecord) bool {
	for _, row := range t.Rows {
		for _, c := range row {
			if c != "" {
				return true
			}
		}
	}
	return false
}
