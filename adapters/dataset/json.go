package dataset

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"genexpr/domain/core"
	"genexpr/domain/dataset"
)

// ParseJSON reads the two-field layout {"expression": [[...]], "status": [...]}
// with an optional "genes" array; "labels" is accepted in place of "status".
// null and "NA" cells become NaN. Numeric status values keep their literal text.
func ParseJSON(raw []byte, source string) (*dataset.Dataset, error) {
	if !gjson.ValidBytes(raw) {
		return nil, core.NewDatasetFormatError(source, "invalid JSON")
	}
	doc := gjson.ParseBytes(raw)

	expr := doc.Get("expression")
	if !expr.IsArray() {
		return nil, core.NewDatasetFormatError(source, `"expression" must be an array of rows`)
	}
	status := doc.Get("status")
	if !status.Exists() {
		status = doc.Get("labels")
	}
	if !status.IsArray() {
		return nil, core.NewDatasetFormatError(source, `"status" must be an array`)
	}

	var data [][]float64
	for i, row := range expr.Array() {
		if !row.IsArray() {
			return nil, core.NewDatasetFormatError(source, fmt.Sprintf("expression row %d is not an array", i))
		}
		cells := row.Array()
		values := make([]float64, len(cells))
		for j, cell := range cells {
			v, err := jsonCell(cell)
			if err != nil {
				return nil, core.NewDatasetFormatError(source, fmt.Sprintf("expression[%d][%d]: %v", i, j, err))
			}
			values[j] = v
		}
		data = append(data, values)
	}

	var labels dataset.GroupLabels
	for _, s := range status.Array() {
		labels = append(labels, strings.TrimSpace(s.String()))
	}

	var genes []core.GeneKey
	if g := doc.Get("genes"); g.Exists() {
		for j, name := range g.Array() {
			key, err := core.ParseGeneKey(name.String())
			if err != nil {
				key = core.DefaultGeneKey(j)
			}
			genes = append(genes, key)
		}
	}

	return &dataset.Dataset{
		Expression: dataset.NewFeatureMatrix(data, genes),
		Status:     labels,
		Source:     source,
	}, nil
}

func jsonCell(cell gjson.Result) (float64, error) {
	switch cell.Type {
	case gjson.Number:
		return cell.Num, nil
	case gjson.Null:
		return math.NaN(), nil
	case gjson.String:
		return parseCell(cell.Str)
	}
	return 0, fmt.Errorf("unexpected value %s", cell.Raw)
}

type jsonDataset struct {
	Expression [][]*float64   `json:"expression"`
	Status     []string       `json:"status"`
	Genes      []core.GeneKey `json:"genes,omitempty"`
}

// WriteJSON writes ds in the layout ParseJSON reads. NaN is written as null.
func WriteJSON(w io.Writer, ds *dataset.Dataset) error {
	out := jsonDataset{
		Expression: make([][]*float64, len(ds.Expression.Data)),
		Status:     ds.Status,
		Genes:      ds.Expression.Genes,
	}
	for i, row := range ds.Expression.Data {
		cells := make([]*float64, len(row))
		for j := range row {
			if !math.IsNaN(row[j]) && !math.IsInf(row[j], 0) {
				cells[j] = &row[j]
			}
		}
		out.Expression[i] = cells
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
