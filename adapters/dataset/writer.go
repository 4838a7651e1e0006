package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"genexpr/domain/dataset"
)

func header(ds *dataset.Dataset) []string {
	_, cols := ds.Expression.Dims()
	h := make([]string, cols+1)
	h[0] = "status"
	for j := 0; j < cols; j++ {
		h[j+1] = ds.Expression.Gene(j).String()
	}
	return h
}

// WriteCSV writes ds as a status-first table.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	return writeDelimited(w, ds, ',')
}

// WriteTSV is WriteCSV with tab separators.
func WriteTSV(w io.Writer, ds *dataset.Dataset) error {
	return writeDelimited(w, ds, '\t')
}

func writeDelimited(w io.Writer, ds *dataset.Dataset, sep rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = sep
	if err := cw.Write(header(ds)); err != nil {
		return err
	}
	for i, row := range ds.Expression.Data {
		record := make([]string, len(row)+1)
		record[0] = ds.Status[i]
		for j, v := range row {
			record[j+1] = formatCell(v)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX saves ds to a single-sheet workbook. NaN cells are left empty.
func WriteXLSX(path string, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	h := header(ds)
	headerRow := make([]interface{}, len(h))
	for j, v := range h {
		headerRow[j] = v
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range ds.Expression.Data {
		cells := make([]interface{}, len(row)+1)
		cells[0] = ds.Status[i]
		for j, v := range row {
			if !math.IsNaN(v) {
				cells[j+1] = v
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}
	return f.SaveAs(path)
}
