package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/piwi3910/SlabNest/internal/cde"
	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/layout"
	"github.com/piwi3910/SlabNest/internal/logger"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x, y, w, h float64) *geometry.SimplePolygon {
	return geometry.MustSimplePolygon([]geometry.Point{{X: x, Y: y}, {X: x + w, Y: y}, {X: x + w, Y: y + h}, {X: x, Y: y + h}})
}

// buildTestLayouts returns one layout with a hole, a quality zone and two
// placed items, and the solution describing it.
func buildTestLayouts(t *testing.T) (*model.Solution, []*layout.Layout) {
	t.Helper()
	bin, err := model.NewBin("Granite 100x50", rect(0, 0, 100, 50),
		[]*geometry.SimplePolygon{rect(45, 20, 10, 10)},
		[]model.QualityZone{{Quality: 1, Shape: rect(80, 0, 20, 20)}},
		10, 1)
	require.NoError(t, err)

	cfg := cde.DefaultConfig()
	cfg.QuadTree.MaxDepth = 3
	cfg.HazProx = cde.HazProxConfig{Enabled: true, NCells: 50}
	l, err := layout.New(bin, cfg, layout.WithLogger(logger.Discard()))
	require.NoError(t, err)

	sc := geometry.DefaultSPSurrogateConfig()
	top, err := model.NewRectItem("Vanity Top", 40, 20, 1, model.ItemOptions{}, sc)
	require.NoError(t, err)
	side, err := model.NewRectItem("Side", 20, 10, 1, model.ItemOptions{AllowedRotation: model.DiscreteRotation(0, 90)}, sc)
	require.NoError(t, err)

	_, err = l.PlaceItem(top, geometry.DTransformation{Translation: geometry.Point{X: 20, Y: 10}})
	require.NoError(t, err)
	_, err = l.PlaceItem(side, geometry.DTransformation{Rotation: 1.5707963267948966, Translation: geometry.Point{X: 70, Y: 35}})
	require.NoError(t, err)

	snap := l.Snapshot()
	sol := &model.Solution{
		ID:       "abcd1234",
		Instance: "vanity",
		Layouts:  []model.LayoutSolution{snap},
		Unplaced: []model.UnplacedItem{{ItemID: "x", Label: "Backsplash", Count: 2}},
		Density:  snap.Density,
		BinCost:  10,
		Queries:  l.Counters(),
	}
	return sol, []*layout.Layout{l}
}

// ─── SVG Tests ─────────────────────────────────────────────

func TestWriteSVG_Plain(t *testing.T) {
	_, layouts := buildTestLayouts(t)

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, layouts[0], DefaultSVGOptions()))
	out := buf.String()

	assert.Contains(t, out, "<svg")
	assert.Contains(t, out, "</svg>")
	// Bin, zone, hole and two items.
	assert.Equal(t, 5, strings.Count(out, "<polygon"))
	assert.Contains(t, out, "Vanity Top")
	assert.NotContains(t, out, "<circle")
}

func TestWriteSVG_Overlays(t *testing.T) {
	_, layouts := buildTestLayouts(t)
	l := layouts[0]

	var buf bytes.Buffer
	opts := SVGOptions{Width: 400, QuadTree: true, Surrogates: true, Proximity: true}
	require.NoError(t, WriteSVG(&buf, l, opts))
	out := buf.String()

	nodes := l.CDE().Stats().Nodes
	cols, rows := l.CDE().ProximityGrid().Dimensions()
	assert.Equal(t, nodes+cols*rows, strings.Count(out, "<rect"))
	assert.Positive(t, strings.Count(out, "<circle"))
	assert.NotContains(t, out, "Vanity Top")
}

func TestWriteSVG_Slices(t *testing.T) {
	_, layouts := buildTestLayouts(t)
	l := layouts[0]

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, l, SVGOptions{Width: 400, SliceResolution: 10}))

	want := 0
	for _, p := range l.PlacedItems() {
		for _, line := range p.Shape.Discretize(10) {
			want += len(line)
		}
	}
	assert.GreaterOrEqual(t, want, 7)
	assert.Equal(t, want, strings.Count(buf.String(), "<line"))

	buf.Reset()
	require.NoError(t, WriteSVG(&buf, l, SVGOptions{Width: 400}))
	assert.NotContains(t, buf.String(), "<line")
}

func TestWriteSVG_DefaultWidth(t *testing.T) {
	_, layouts := buildTestLayouts(t)
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, layouts[0], SVGOptions{}))
	assert.Contains(t, buf.String(), `width="1040"`)
}

func TestExportSVGs(t *testing.T) {
	_, layouts := buildTestLayouts(t)
	dir := filepath.Join(t.TempDir(), "svg")

	paths, err := ExportSVGs(dir, layouts, DefaultSVGOptions())
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(dir, "layout_1.svg"), paths[0])
	info, err := os.Stat(paths[0])
	require.NoError(t, err)
	assert.Positive(t, info.Size())

	_, err = ExportSVGs(dir, nil, DefaultSVGOptions())
	assert.Error(t, err)
}

func TestZoneColor(t *testing.T) {
	assert.Equal(t, "#7f0000", zoneColor(-1))
	assert.Equal(t, "#b71c1c", zoneColor(1))
	assert.Equal(t, "#ef9a9a", zoneColor(9))
}

// ─── PDF Tests ─────────────────────────────────────────────

func TestExportPDF_CreatesFile(t *testing.T) {
	sol, layouts := buildTestLayouts(t)
	path := filepath.Join(t.TempDir(), "report.pdf")

	require.NoError(t, ExportPDF(path, sol, layouts))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(500))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestExportPDF_Errors(t *testing.T) {
	sol, layouts := buildTestLayouts(t)
	dir := t.TempDir()

	assert.Error(t, ExportPDF(filepath.Join(dir, "a.pdf"), sol, nil))
	assert.Error(t, ExportPDF(filepath.Join(dir, "b.pdf"), &model.Solution{}, layouts))
}

func TestLabelFontSize(t *testing.T) {
	assert.Equal(t, 8.0, labelFontSize(50, 45))
	assert.Equal(t, 7.0, labelFontSize(100, 25))
	assert.Equal(t, 6.0, labelFontSize(16, 9))
}

// ─── Label Tests ───────────────────────────────────────────

func TestCollectLabelInfos(t *testing.T) {
	sol, _ := buildTestLayouts(t)

	labels := CollectLabelInfos(sol)
	require.Len(t, labels, 2)

	assert.Equal(t, "Vanity Top", labels[0].ItemLabel)
	assert.Equal(t, 1, labels[0].LayoutIndex)
	assert.Equal(t, "Granite 100x50", labels[0].BinLabel)
	// The outline's lower left corner lands at the placed box's corner.
	assert.InDelta(t, 0, labels[0].X, 1e-9)
	assert.InDelta(t, 0, labels[0].Y, 1e-9)
	assert.InDelta(t, 0, labels[0].Rotation, 1e-9)

	assert.InDelta(t, 90, labels[1].Rotation, 1e-9)
	assert.NotEqual(t, labels[0].PlacementID, labels[1].PlacementID)
}

func TestExportLabels(t *testing.T) {
	sol, _ := buildTestLayouts(t)
	path := filepath.Join(t.TempDir(), "labels.pdf")

	require.NoError(t, ExportLabels(path, sol))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(500))

	assert.Error(t, ExportLabels(filepath.Join(t.TempDir(), "none.pdf"), &model.Solution{}))
}

// ─── JSON Tests ────────────────────────────────────────────

func TestSaveLoadSolution(t *testing.T) {
	sol, _ := buildTestLayouts(t)
	path := filepath.Join(t.TempDir(), "solution.json")

	require.NoError(t, SaveSolution(path, sol))
	got, err := LoadSolution(path)
	require.NoError(t, err)

	assert.Equal(t, sol.ID, got.ID)
	assert.Equal(t, sol.Unplaced, got.Unplaced)
	require.Len(t, got.Layouts, 1)
	assert.Equal(t, sol.Layouts[0].Placements, got.Layouts[0].Placements)
	assert.Equal(t, sol.Queries, got.Queries)

	_, err = LoadSolution(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteSolutionJSON(t *testing.T) {
	sol, _ := buildTestLayouts(t)
	var buf bytes.Buffer
	require.NoError(t, WriteSolutionJSON(&buf, sol))
	assert.Contains(t, buf.String(), `"instance": "vanity"`)
	assert.Contains(t, buf.String(), `"placement_id": 1`)
}
