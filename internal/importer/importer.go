// Package importer reads item lists and nesting instances from CSV, Excel,
// DXF and JSON files. Tabular sources get delimiter detection and
// case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/piwi3910/SlabNest/internal/geometry"
	"github.com/piwi3910/SlabNest/internal/model"
	"github.com/xuri/excelize/v2"
)

// ImportResult holds the items read from a source plus any problems found.
// Rows with errors are skipped; warnings do not drop anything.
type ImportResult struct {
	Items    []*model.Item
	Errors   []string
	Warnings []string
}

// ColumnMapping maps column roles to their indices. -1 means absent.
type ColumnMapping struct {
	Label    int
	Width    int
	Height   int
	Quantity int
	Quality  int
	Rotation int
}

type columnRole int

const (
	roleLabel columnRole = iota
	roleWidth
	roleHeight
	roleQuantity
	roleQuality
	roleRotation
)

// headerAliases lists the accepted header names per role, lowercase.
var headerAliases = map[columnRole][]string{
	roleLabel:    {"label", "name", "part", "part name", "description", "desc", "piece", "item"},
	roleWidth:    {"width", "w", "length", "len", "x"},
	roleHeight:   {"height", "h", "depth", "d", "y"},
	roleQuantity: {"quantity", "qty", "count", "num", "amount", "pcs", "pieces", "demand"},
	roleQuality:  {"quality", "base quality", "grade", "q"},
	roleRotation: {"rotation", "rotations", "orientation", "orientations", "angles"},
}

func (m *ColumnMapping) slot(r columnRole) *int {
	switch r {
	case roleLabel:
		return &m.Label
	case roleWidth:
		return &m.Width
	case roleHeight:
		return &m.Height
	case roleQuantity:
		return &m.Quantity
	case roleQuality:
		return &m.Quality
	default:
		return &m.Rotation
	}
}

// DetectCSVDelimiter picks the delimiter among comma, semicolon, tab and
// pipe that splits the most rows into the same column count as the first.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		records, err := readCSV(bytes.NewReader(data), delim)
		if err != nil || len(records) == 0 {
			continue
		}
		cols := len(records[0])
		if cols < 2 {
			continue
		}
		consistent := 0
		for _, row := range records {
			if len(row) == cols {
				consistent++
			}
		}
		if score := consistent*10 + cols; score > bestScore {
			best, bestScore = delim, score
		}
	}
	return best
}

func readCSV(r io.Reader, delim rune) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

// DetectColumns matches a header row against the known aliases. Without a
// recognizable header it returns the positional mapping
// label, width, height, quantity, quality, rotation and false.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := ColumnMapping{-1, -1, -1, -1, -1, -1}
	found := false
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if name != alias {
					continue
				}
				found = true
				if s := mapping.slot(role); *s == -1 {
					*s = i
				}
			}
		}
	}
	if !found {
		return ColumnMapping{0, 1, 2, 3, 4, 5}, false
	}
	return mapping, true
}

// ParseRotation reads a rotation cell: "none" or "0" for the original
// orientation, "any" or "continuous" for free rotation, or a list of angles
// in degrees separated by semicolons, spaces or slashes.
func ParseRotation(s string) (model.AllowedRotation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "fixed", "-":
		return model.FixedRotation(), nil
	case "any", "continuous", "free":
		return model.ContinuousRotation(), nil
	}
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '/'
	})
	angles := make([]float64, 0, len(fields))
	for _, f := range fields {
		a, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return model.AllowedRotation{}, fmt.Errorf("invalid angle %q", f)
		}
		angles = append(angles, a)
	}
	return model.DiscreteRotation(angles...), nil
}

func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseRow builds a rectangular item from one row. It returns the item, an
// error message that drops the row, and a warning that does not.
func parseRow(row []string, mapping ColumnMapping, where string, n int, cfg geometry.SPSurrogateConfig) (*model.Item, string, string) {
	label := getCell(row, mapping.Label)
	if label == "" {
		label = fmt.Sprintf("Item %d", n+1)
	}

	num := func(name string, idx int) (float64, string) {
		s := getCell(row, idx)
		if s == "" {
			return 0, fmt.Sprintf("%s: Missing %s value", where, name)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Sprintf("%s: Invalid %s '%s'", where, name, s)
		}
		return v, ""
	}
	w, msg := num("width", mapping.Width)
	if msg != "" {
		return nil, msg, ""
	}
	h, msg := num("height", mapping.Height)
	if msg != "" {
		return nil, msg, ""
	}
	qtyStr := getCell(row, mapping.Quantity)
	if qtyStr == "" {
		return nil, fmt.Sprintf("%s: Missing quantity value", where), ""
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return nil, fmt.Sprintf("%s: Invalid quantity '%s'", where, qtyStr), ""
	}
	if w <= 0 || h <= 0 || qty <= 0 {
		return nil, fmt.Sprintf("%s: Width, height, and quantity must be positive", where), ""
	}

	var opts model.ItemOptions
	var warnings []string
	if s := getCell(row, mapping.Quality); s != "" {
		q, err := strconv.Atoi(s)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid quality '%s', item avoids all zones", where, s))
		} else {
			opts.BaseQuality = &q
		}
	}
	if s := getCell(row, mapping.Rotation); s != "" {
		rot, err := ParseRotation(s)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v, defaulting to no rotation", where, err))
		} else {
			opts.AllowedRotation = rot
		}
	}

	item, err := model.NewRectItem(label, w, h, qty, opts, cfg)
	if err != nil {
		return nil, fmt.Sprintf("%s: %v", where, err), ""
	}
	return item, "", strings.Join(warnings, "; ")
}

// ImportCSV imports rectangular items from a CSV file, detecting the
// delimiter and the column layout.
func ImportCSV(path string, cfg geometry.SPSurrogateConfig) ImportResult {
	var result ImportResult

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}
	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		name := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", name))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}
	return importFromRows(records, "Line", result.Warnings, cfg)
}

// ImportCSVFromReader imports items from r using a known delimiter.
func ImportCSVFromReader(r io.Reader, delimiter rune, cfg geometry.SPSurrogateConfig) ImportResult {
	records, err := readCSV(r, delimiter)
	if err != nil {
		return ImportResult{Errors: []string{fmt.Sprintf("Cannot read CSV: %v", err)}}
	}
	return importFromRows(records, "Line", nil, cfg)
}

// ImportExcel imports items from the first sheet of an Excel workbook.
func ImportExcel(path string, cfg geometry.SPSurrogateConfig) ImportResult {
	var result ImportResult

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}
	return importFromRows(rows, "Row", nil, cfg)
}

// importFromRows is shared by the CSV and Excel paths.
func importFromRows(rows [][]string, prefix string, warnings []string, cfg geometry.SPSurrogateConfig) ImportResult {
	result := ImportResult{Warnings: warnings}
	if len(rows) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	start := 0
	switch {
	case hasHeader:
		start = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
		var missing []string
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Quantity == -1 {
			missing = append(missing, "Quantity")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	case len(rows[0]) >= 3:
		// An unrecognized header still has a non-numeric width cell.
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			start = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	for i := start; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		where := fmt.Sprintf("%s %d", prefix, i+1)
		item, errMsg, warning := parseRow(rows[i], mapping, where, len(result.Items), cfg)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
		result.Items = append(result.Items, item)
	}

	if len(result.Items) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No valid items found in file")
	}
	return result
}
