// Package export writes nesting results as SVG drawings, PDF reports, QR
// coded label sheets and JSON.
package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"
	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/model"
)

// itemColor is an RGB fill for a placed item.
type itemColor struct {
	R, G, B int
}

var itemColors = []itemColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// pdfMap places layout coordinates on a page, flipping y.
type pdfMap struct {
	bbox    geometry.AARectangle
	scale   float64
	originX float64
	originY float64
}

func (m pdfMap) point(p geometry.Point) fpdf.PointType {
	return fpdf.PointType{
		X: m.originX + (p.X-m.bbox.XMin)*m.scale,
		Y: m.originY + (m.bbox.YMax-p.Y)*m.scale,
	}
}

func (m pdfMap) polygon(sp *geometry.SimplePolygon) []fpdf.PointType {
	pts := sp.Points()
	out := make([]fpdf.PointType, len(pts))
	for i, p := range pts {
		out[i] = m.point(p)
	}
	return out
}

// ExportPDF writes a report with one page per layout followed by a summary
// page. layouts must be the rebuilt layouts of sol, in the same order.
func ExportPDF(path string, sol *model.Solution, layouts []*layout.Layout) error {
	if len(layouts) == 0 {
		return fmt.Errorf("no layouts to export")
	}
	if len(layouts) != len(sol.Layouts) {
		return fmt.Errorf("solution has %d layouts, got %d rebuilt", len(sol.Layouts), len(layouts))
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for i, l := range layouts {
		pdf.AddPage()
		renderLayoutPage(pdf, l, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, sol)

	return pdf.OutputFileAndClose(path)
}

// renderLayoutPage draws a single layout on the current page.
func renderLayoutPage(pdf *fpdf.Fpdf, l *layout.Layout, num int) {
	bb := l.Bin.BBox()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Layout %d: %s (%.0f x %.0f)", num, l.Bin.Label, bb.Width(), bb.Height())
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Items: %d | Holes: %d | Quality zones: %d | Density: %.1f%%",
		l.Len(), len(l.Bin.Holes), len(l.Bin.Zones), l.Density()*100)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawW := pageWidth - marginLeft - marginRight
	drawH := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawW/bb.Width(), drawH/bb.Height())
	m := pdfMap{
		bbox:    bb,
		scale:   scale,
		originX: marginLeft + (drawW-bb.Width()*scale)/2,
		originY: drawAreaTop,
	}

	pdf.SetFillColor(210, 180, 140)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.5)
	pdf.Polygon(m.polygon(l.Bin.Outer), "FD")

	for _, z := range l.Bin.Zones {
		pdf.SetFillColor(255, 200, 200)
		pdf.SetDrawColor(200, 0, 0)
		pdf.SetLineWidth(0.3)
		pdf.Polygon(m.polygon(z.Shape), "FD")
		zb := z.Shape.BBox()
		drawHatchPattern(pdf, m.point(geometry.Point{X: zb.XMin, Y: zb.YMax}), zb.Width()*scale, zb.Height()*scale)
	}
	for _, h := range l.Bin.Holes {
		pdf.SetFillColor(255, 255, 255)
		pdf.SetDrawColor(100, 100, 100)
		pdf.SetLineWidth(0.3)
		pdf.Polygon(m.polygon(h), "FD")
	}

	for i, p := range l.PlacedItems() {
		col := itemColors[i%len(itemColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(30, 30, 30)
		pdf.SetLineWidth(0.3)
		pdf.Polygon(m.polygon(p.Shape), "FD")

		pb := p.Shape.BBox()
		w, h := pb.Width()*scale, pb.Height()*scale
		if w <= 15 || h <= 8 {
			continue
		}
		pdf.SetFont("Helvetica", "", labelFontSize(w, h))
		pdf.SetTextColor(0, 0, 0)
		label := p.Item.Label
		if lw := pdf.GetStringWidth(label); lw < w-2 {
			c := m.point(p.Shape.POI().Center)
			pdf.SetXY(c.X-lw/2, c.Y-2)
			pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
		}
	}

	drawDimensionAnnotations(pdf, bb, m.originX, m.originY, bb.Width()*scale, bb.Height()*scale)
	drawItemsLegend(pdf, l, m.originY+bb.Height()*scale+5)
}

// drawHatchPattern draws diagonal lines over a zone's bounding box, top left
// corner at tl.
func drawHatchPattern(pdf *fpdf.Fpdf, tl fpdf.PointType, w, h float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.15)
	const spacing = 4.0
	for d := spacing; d < w+h; d += spacing {
		pdf.Line(tl.X+math.Max(0, d-h), tl.Y+math.Min(h, d), tl.X+math.Min(w, d), tl.Y+math.Max(0, d-w))
	}
}

// drawDimensionAnnotations labels the bin's width below and height to the
// left of the drawing.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, bb geometry.AARectangle, x, y, w, h float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.0f", bb.Width())
	ww := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(x+(w-ww)/2, y+h+1)
	pdf.CellFormat(ww, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.0f", bb.Height())
	pdf.TransformBegin()
	pdf.TransformRotate(90, x-3, y+h/2)
	hw := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(x-3-hw/2, y+h/2-2)
	pdf.CellFormat(hw, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawItemsLegend lists the placed items below the drawing, wrapping lines.
func drawItemsLegend(pdf *fpdf.Fpdf, l *layout.Layout, y float64) {
	placed := l.PlacedItems()
	if len(placed) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(30, 4, "Items placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	x := marginLeft + 32
	for i, p := range placed {
		col := itemColors[i%len(itemColors)]
		label := p.Item.Label
		if deg := p.Item.OriginalTransform(p.Transform).RotationDegrees(); math.Abs(deg) > 1e-6 {
			label += fmt.Sprintf(" %.0f\xb0", deg)
		}
		w := pdf.GetStringWidth(label) + 6
		if x+w > pageWidth-marginRight {
			y += 5
			x = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(x, y+0.5, 3, 3, "F")
		pdf.SetXY(x+4, y)
		pdf.CellFormat(w-4, 4, label, "", 0, "L", false, 0, "")
		x += w + 2
	}
}

// renderSummaryPage draws the overall statistics of sol.
func renderSummaryPage(pdf *fpdf.Fpdf, sol *model.Solution) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Nesting Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	y = keyValueBlock(pdf, y, "Overall Statistics", [][2]string{
		{"Instance", sol.Instance},
		{"Layouts Used", fmt.Sprintf("%d", len(sol.Layouts))},
		{"Density", fmt.Sprintf("%.1f%%", sol.Density*100)},
		{"Items Placed", fmt.Sprintf("%d", sol.PlacedCount())},
		{"Items Unplaced", fmt.Sprintf("%d", sol.UnplacedCount())},
		{"Strip Length", stripLength(sol)},
		{"Bin Cost", fmt.Sprintf("%.2f", sol.BinCost)},
		{"Runtime", sol.Runtime.String()},
	})

	q := sol.Queries
	y = keyValueBlock(pdf, y+5, "Collision Queries", [][2]string{
		{"Queries", fmt.Sprintf("%d", q.Queries)},
		{"Settled by Surrogate", fmt.Sprintf("%d (%.1f%%)", q.SurrogateRejects, q.SurrogateRejectRate()*100)},
		{"Exact Checks", fmt.Sprintf("%d", q.ExactChecks)},
		{"Exact Rejects", fmt.Sprintf("%d", q.ExactRejects)},
	})

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Layout Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{20, 70, 40, 35, 50}
	headers := []string{"Layout", "Bin", "Items", "Density", "Width"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	x := marginLeft
	for i, h := range headers {
		pdf.SetXY(x, y)
		pdf.CellFormat(colWidths[i], 6, h, "1", 0, "C", true, 0, "")
		x += colWidths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, ls := range sol.Layouts {
		width := "-"
		if ls.Width > 0 {
			width = fmt.Sprintf("%.2f", ls.Width)
		}
		row := []string{
			fmt.Sprintf("%d", i+1),
			ls.BinLabel,
			fmt.Sprintf("%d", len(ls.Placements)),
			fmt.Sprintf("%.1f%%", ls.Density*100),
			width,
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		x = marginLeft
		for j, cell := range row {
			pdf.SetXY(x, y)
			pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
			x += colWidths[j]
		}
		y += 6
	}

	if len(sol.Unplaced) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unplaced Items", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, u := range sol.Unplaced {
			if y > pageHeight-marginBottom-8 {
				break
			}
			pdf.SetXY(marginLeft+5, y)
			pdf.CellFormat(200, 5, fmt.Sprintf("- %s (qty: %d)", u.Label, u.Count), "", 0, "L", false, 0, "")
			y += 5
		}
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by SlabNest", "", 0, "C", false, 0, "")
}

// keyValueBlock writes a titled list of label/value rows and returns the
// next free y.
func keyValueBlock(pdf *fpdf.Fpdf, y float64, title string, rows [][2]string) float64 {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	pdf.SetFont("Helvetica", "", 10)
	for _, r := range rows {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, r[0]+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(60, 6, r[1], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	return y
}

func stripLength(sol *model.Solution) string {
	if sol.StripLength <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", sol.StripLength)
}

// labelFontSize picks a font size for a label inside a w by h box.
func labelFontSize(w, h float64) float64 {
	switch d := math.Min(w, h); {
	case d > 40:
		return 8
	case d > 20:
		return 7
	default:
		return 6
	}
}
