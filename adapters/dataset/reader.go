// Package dataset loads and writes tumor/normal expression datasets.
//
// Supported layouts:
//   - JSON: {"expression": [[...], ...], "status": [...], "genes": [...]}
//   - XLSX/CSV: header row "status,<gene>,<gene>,...", one sample per row
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"genexpr/domain/core"
	"genexpr/domain/dataset"
	"genexpr/internal"
)

// Format identifies a dataset file layout
type Format string

const (
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv", ".tsv":
		return FormatCSV, nil
	}
	return "", core.NewDatasetFormatError(path, "unsupported extension (want .json, .xlsx or .csv)")
}

// DataReader reads a dataset file
type DataReader struct {
	filePath string
	format   Format
	logger   *internal.Logger
}

// NewDataReader creates a reader; the format is taken from the extension.
func NewDataReader(filePath string, logger *internal.Logger) (*DataReader, error) {
	format, err := FormatFromPath(filePath)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{filePath: filePath, format: format, logger: logger}, nil
}

// Load reads and validates the dataset at path.
func Load(path string) (*dataset.Dataset, error) {
	r, err := NewDataReader(path, nil)
	if err != nil {
		return nil, err
	}
	return r.Read()
}

// Read parses the file and validates the resulting dataset
func (r *DataReader) Read() (*dataset.Dataset, error) {
	start := time.Now()
	r.logger.Debug("[DataReader] reading %s file: %s", r.format, r.filePath)

	var (
		ds  *dataset.Dataset
		err error
	)
	switch r.format {
	case FormatJSON:
		var raw []byte
		raw, err = os.ReadFile(r.filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read JSON file: %w", err)
		}
		ds, err = ParseJSON(raw, r.filePath)
	case FormatXLSX:
		ds, err = r.readExcel()
	case FormatCSV:
		ds, err = r.readCSV()
	}
	if err != nil {
		return nil, err
	}
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}

	rows, cols := ds.Expression.Dims()
	r.logger.Info("[DataReader] loaded %s: %d samples x %d genes in %v", r.filePath, rows, cols, time.Since(start))
	return ds, nil
}

// readExcel reads the first sheet of a workbook
func (r *DataReader) readExcel() (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewDatasetFormatError(r.filePath, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	return ParseRows(rows, r.filePath)
}

// readCSV reads comma or tab separated text
func (r *DataReader) readCSV() (*dataset.Dataset, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	sep := ','
	if strings.EqualFold(filepath.Ext(r.filePath), ".tsv") {
		sep = '\t'
	}
	return ReadCSV(file, sep, r.filePath)
}

// ReadCSV parses a status-first table from rd.
func ReadCSV(rd io.Reader, sep rune, source string) (*dataset.Dataset, error) {
	reader := csv.NewReader(rd)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return ParseRows(rows, source)
}

// ParseRows converts a header row plus one row per sample into a dataset.
// The first column holds the group label; short rows are padded with NaN
// since spreadsheet readers drop trailing empty cells.
func ParseRows(rows [][]string, source string) (*dataset.Dataset, error) {
	if len(rows) < 2 {
		return nil, core.NewDatasetFormatError(source, "need a header row and at least one sample row")
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, core.NewDatasetFormatError(source, "header needs a status column and at least one gene")
	}

	genes := make([]core.GeneKey, len(header)-1)
	for j, name := range header[1:] {
		key, err := core.ParseGeneKey(name)
		if err != nil {
			key = core.DefaultGeneKey(j)
		}
		genes[j] = key
	}

	data := make([][]float64, 0, len(rows)-1)
	labels := make(dataset.GroupLabels, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		if len(row) > len(header) {
			return nil, core.NewDatasetFormatError(source,
				fmt.Sprintf("row %d has %d cells, header has %d", i+2, len(row), len(header)))
		}
		label := strings.TrimSpace(row[0])
		if label == "" {
			return nil, core.NewDatasetFormatError(source, fmt.Sprintf("row %d has no status", i+2))
		}

		values := make([]float64, len(genes))
		for j := range values {
			cell := ""
			if j+1 < len(row) {
				cell = row[j+1]
			}
			v, err := parseCell(cell)
			if err != nil {
				return nil, core.NewDatasetFormatError(source,
					fmt.Sprintf("row %d, gene %s: %v", i+2, genes[j], err))
			}
			values[j] = v
		}
		data = append(data, values)
		labels = append(labels, label)
	}

	return &dataset.Dataset{
		Expression: dataset.NewFeatureMatrix(data, genes),
		Status:     labels,
		Source:     source,
	}, nil
}

// parseCell maps empty and NA-style cells to NaN
func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	switch strings.ToLower(cell) {
	case "", "na", "nan", "null", "-":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
