package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/kosarica/sourcing-service/internal/costmodel"
)

// Workbook sheet names read by LoadFile.
const (
	SheetInventory = "inventory"
	SheetWeights   = "weights"
	SheetLegs      = "legs"
	SheetSettings  = "settings"
)

// LoadFile reads a catalog from a .yaml/.yml document or an .xlsx workbook.
func LoadFile(path string) (*Definition, error) {
	var (
		doc *document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = readYAML(path)
	case ".xlsx":
		doc, err = readWorkbook(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("error reading catalog %s: %w", path, err)
	}

	def, err := doc.build(path)
	if err != nil {
		return nil, fmt.Errorf("error building catalog %s: %w", path, err)
	}
	return def, nil
}

func readYAML(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return &doc, nil
}

// readWorkbook expects one header row per sheet:
//
//	inventory: center | product
//	weights:   product | unit_weight
//	legs:      from | to | distance_km | cost   (either value may be blank)
//	settings:  key | value                      (optional, key "hub")
func readWorkbook(path string) (*document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	doc := &document{
		Hub:     "L1",
		Centers: make(map[string][]string),
		Weights: make(map[string]float64),
	}

	if hasSheet(f, SheetSettings) {
		rows, err := dataRows(f, SheetSettings)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			if strings.EqualFold(cell(r.cells, 0), "hub") && cell(r.cells, 1) != "" {
				doc.Hub = cell(r.cells, 1)
			}
		}
	}

	rows, err := dataRows(f, SheetInventory)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		center, product := cell(r.cells, 0), cell(r.cells, 1)
		if center == "" || product == "" {
			return nil, fmt.Errorf("%s row %d: center and product are required", SheetInventory, r.number)
		}
		doc.Centers[center] = append(doc.Centers[center], product)
	}

	rows, err = dataRows(f, SheetWeights)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		w, err := parseNumber(cell(r.cells, 1))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", SheetWeights, r.number, err)
		}
		doc.Weights[cell(r.cells, 0)] = w
	}

	rows, err = dataRows(f, SheetLegs)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		from, to := cell(r.cells, 0), cell(r.cells, 1)
		if raw := cell(r.cells, 2); raw != "" {
			v, err := parseNumber(raw)
			if err != nil {
				return nil, fmt.Errorf("%s row %d distance: %w", SheetLegs, r.number, err)
			}
			doc.Distances = append(doc.Distances, costmodel.Leg{From: from, To: to, Value: v})
		}
		if raw := cell(r.cells, 3); raw != "" {
			v, err := parseNumber(raw)
			if err != nil {
				return nil, fmt.Errorf("%s row %d cost: %w", SheetLegs, r.number, err)
			}
			doc.Costs = append(doc.Costs, costmodel.Leg{From: from, To: to, Value: v})
		}
	}

	return doc, nil
}

type sheetRow struct {
	number int // 1-based, as shown in a spreadsheet
	cells  []string
}

// dataRows returns the non-empty rows after the header.
func dataRows(f *excelize.File, sheet string) ([]sheetRow, error) {
	if !hasSheet(f, sheet) {
		return nil, fmt.Errorf("sheet %q not found. Available sheets: %s", sheet, strings.Join(f.GetSheetList(), ", "))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	var out []sheetRow
	for i := 1; i < len(rows); i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		out = append(out, sheetRow{number: i + 1, cells: rows[i]})
	}
	return out, nil
}

func hasSheet(f *excelize.File, name string) bool {
	for _, s := range f.GetSheetList() {
		if s == name {
			return true
		}
	}
	return false
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseNumber accepts both "2.5" and the decimal comma "2,5".
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	return v, nil
}
