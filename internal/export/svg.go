package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	svg "github.com/ajstarks/svgo"
	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/layout"
)

// SVGOptions selects what WriteSVG draws on top of the layout.
type SVGOptions struct {
	Width      int  `json:"width" yaml:"width"` // pixels, the height follows the bin's aspect ratio
	Labels     bool `json:"labels" yaml:"labels"`
	QuadTree   bool `json:"quadtree" yaml:"quadtree"`
	Surrogates bool `json:"surrogates" yaml:"surrogates"`
	Proximity  bool `json:"proximity" yaml:"proximity"`
	// SliceResolution > 0 overlays the vertical scan lines of each placed
	// part at that spacing.
	SliceResolution float64 `json:"slice_resolution" yaml:"slice_resolution"`
}

// DefaultSVGOptions draws the layout with labels and no debug overlays.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 1000, Labels: true}
}

const svgMargin = 20

// canvasMap converts layout coordinates to whole pixels, flipping y.
type canvasMap struct {
	bbox  geometry.AARectangle
	scale float64
}

func (m canvasMap) x(v float64) int { return svgMargin + int(math.Round((v-m.bbox.XMin)*m.scale)) }
func (m canvasMap) y(v float64) int { return svgMargin + int(math.Round((m.bbox.YMax-v)*m.scale)) }
func (m canvasMap) d(v float64) int { return int(math.Round(v * m.scale)) }

func (m canvasMap) polygon(sp *geometry.SimplePolygon) ([]int, []int) {
	pts := sp.Points()
	xs, ys := make([]int, len(pts)), make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = m.x(p.X), m.y(p.Y)
	}
	return xs, ys
}

// WriteSVG renders l: the bin with its holes and quality zones, every
// placed item and, per opts, the quadtree, item surrogates and the
// proximity grid.
func WriteSVG(w io.Writer, l *layout.Layout, opts SVGOptions) error {
	if opts.Width <= 0 {
		opts.Width = DefaultSVGOptions().Width
	}
	bb := l.Bin.BBox()
	if bb.Width() <= 0 || bb.Height() <= 0 {
		return fmt.Errorf("layout %s: empty bin", l.ID)
	}
	m := canvasMap{bbox: bb, scale: float64(opts.Width) / bb.Width()}
	height := m.d(bb.Height())

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(opts.Width+2*svgMargin, height+2*svgMargin)
	canvas.Title(fmt.Sprintf("%s (%d items, %.1f%%)", l.Bin.Label, l.Len(), l.Density()*100))

	xs, ys := m.polygon(l.Bin.Outer)
	canvas.Polygon(xs, ys, "fill:#d2b48c;stroke:#646464;stroke-width:1.5")
	for _, z := range l.Bin.Zones {
		xs, ys := m.polygon(z.Shape)
		canvas.Polygon(xs, ys, fmt.Sprintf("fill:%s;fill-opacity:0.45;stroke:#b40000;stroke-width:0.5;stroke-dasharray:4,2", zoneColor(z.Quality)))
	}
	for _, h := range l.Bin.Holes {
		xs, ys := m.polygon(h)
		canvas.Polygon(xs, ys, "fill:#ffffff;stroke:#646464;stroke-width:1")
	}

	for i, p := range l.PlacedItems() {
		col := itemColors[i%len(itemColors)]
		xs, ys := m.polygon(p.Shape)
		canvas.Polygon(xs, ys, fmt.Sprintf("fill:rgb(%d,%d,%d);fill-opacity:0.85;stroke:#1e1e1e;stroke-width:0.7", col.R, col.G, col.B))
	}

	if opts.Proximity {
		drawProximity(canvas, m, l.CDE().ProximityGrid())
	}
	if opts.QuadTree {
		drawQuadTree(canvas, m, l.CDE())
	}
	if opts.Surrogates {
		for _, p := range l.PlacedItems() {
			drawSurrogate(canvas, m, p)
		}
	}

	if opts.SliceResolution > 0 {
		for _, p := range l.PlacedItems() {
			drawSlices(canvas, m, p.Shape, opts.SliceResolution)
		}
	}

	if opts.Labels {
		for _, p := range l.PlacedItems() {
			bb := p.Shape.BBox()
			if m.d(bb.Width()) < 30 || m.d(bb.Height()) < 12 {
				continue
			}
			c := p.Shape.POI().Center
			canvas.Text(m.x(c.X), m.y(c.Y), p.Item.Label, "text-anchor:middle;dominant-baseline:middle;font-size:10px;fill:#000")
		}
	}

	canvas.End()
	_, err := w.Write(buf.Bytes())
	return err
}

func drawQuadTree(canvas *svg.SVG, m canvasMap, c *cde.CDE) {
	canvas.Gstyle("fill:none;stroke-width:0.4")
	c.Walk(func(n cde.NodeView) bool {
		style := "stroke:#9e9e9e"
		if n.Leaf && len(n.Hazards) > 0 {
			style = "stroke:#e53935"
			for _, h := range n.Hazards {
				if h.Presence == cde.Entire {
					style = "stroke:#e53935;fill:#e53935;fill-opacity:0.15"
					break
				}
			}
		}
		canvas.Rect(m.x(n.BBox.XMin), m.y(n.BBox.YMax), m.d(n.BBox.Width()), m.d(n.BBox.Height()), style)
		return true
	})
	canvas.Gend()
}

func drawSurrogate(canvas *svg.SVG, m canvasMap, p layout.PlacedItem) {
	s := p.Item.Surrogate
	if s == nil {
		return
	}
	t := p.Transform.Compose()
	for i, pole := range s.Poles {
		c := t.Apply(pole.Center)
		style := "fill:none;stroke:#1565c0;stroke-width:0.6"
		if i < s.NFFPoles {
			style = "fill:#1565c0;fill-opacity:0.2;stroke:#1565c0;stroke-width:0.6"
		}
		canvas.Circle(m.x(c.X), m.y(c.Y), max(1, m.d(pole.Radius)), style)
	}
	for _, pier := range s.Piers {
		a, b := t.Apply(pier.Start), t.Apply(pier.End)
		canvas.Line(m.x(a.X), m.y(a.Y), m.x(b.X), m.y(b.Y), "stroke:#6a1b9a;stroke-width:0.8")
	}
}

// drawSlices draws the discretization of sp. Interior slices are green,
// slices lying on vertical edges orange.
func drawSlices(canvas *svg.SVG, m canvasMap, sp *geometry.SimplePolygon, resolution float64) {
	for _, line := range sp.Discretize(resolution) {
		for _, s := range line {
			style := "stroke:#2e7d32;stroke-width:0.5"
			if s.Side != 0 {
				style = "stroke:#ef6c00;stroke-width:1"
			}
			canvas.Line(m.x(s.X), m.y(s.YMin), m.x(s.X), m.y(s.YMax), style)
		}
	}
}

func drawProximity(canvas *svg.SVG, m canvasMap, g *cde.ProximityGrid) {
	if g == nil {
		return
	}
	cells := g.Cells()
	top := 0.0
	for _, c := range cells {
		top = max(top, c.Clearance)
	}
	if top <= 0 {
		return
	}
	w, h := g.CellSize()
	for _, c := range cells {
		shade := int(math.Round(255 * (1 - c.Clearance/top)))
		canvas.Rect(m.x(c.Center.X-w/2), m.y(c.Center.Y+h/2), max(1, m.d(w)), max(1, m.d(h)),
			fmt.Sprintf("fill:rgb(255,%d,%d);fill-opacity:0.35;stroke:none", shade, shade))
	}
}

// zoneColor shades quality zones from dark (worst) to light.
func zoneColor(quality int) string {
	shades := []string{"#7f0000", "#b71c1c", "#e53935", "#ef9a9a"}
	if quality < 0 {
		quality = 0
	}
	return shades[min(quality, len(shades)-1)]
}

// ExportSVGs writes one SVG per layout into dir, named layout_<n>.svg, and
// returns the paths written.
func ExportSVGs(dir string, layouts []*layout.Layout, opts SVGOptions) ([]string, error) {
	if len(layouts) == 0 {
		return nil, fmt.Errorf("no layouts to export")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	paths := make([]string, 0, len(layouts))
	for i, l := range layouts {
		path := filepath.Join(dir, fmt.Sprintf("layout_%d.svg", i+1))
		f, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = WriteSVG(f, l, opts)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
