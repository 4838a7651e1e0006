package dataset

import (
	"sort"

	"genexpr/domain/core"
)

// GroupLabels holds one categorical label per matrix row (e.g. "tumor"/"normal").
type GroupLabels []string

// Distinct returns the distinct labels in lexicographic order.
func (l GroupLabels) Distinct() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range l {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Count returns how many rows carry the label
func (l GroupLabels) Count(label string) int {
	n := 0
	for _, v := range l {
		if v == label {
			n++
		}
	}
	return n
}

// GroupPartition splits row indices into group A and group B.
//
// Encoding: group A is the explicit reference label when one is given,
// otherwise the lexicographically first label. The encoding never depends on
// the order in which labels appear in the data.
type GroupPartition struct {
	LabelA string `json:"label_a"`
	LabelB string `json:"label_b"`
	RowsA  []int  `json:"rows_a"`
	RowsB  []int  `json:"rows_b"`
}

// Partition validates labels against the matrix row count and partitions rows.
func Partition(labels GroupLabels, rows int, reference string) (GroupPartition, error) {
	if len(labels) != rows {
		return GroupPartition{}, core.NewShapeMismatchError("label count", rows, len(labels))
	}

	distinct := labels.Distinct()
	if len(distinct) != 2 {
		return GroupPartition{}, core.NewInvalidGroupCountError(len(distinct))
	}

	labelA, labelB := distinct[0], distinct[1]
	if reference != "" {
		switch reference {
		case labelA:
		case labelB:
			labelA, labelB = labelB, labelA
		default:
			return GroupPartition{}, core.NewUnknownReferenceGroupError(reference, distinct)
		}
	}

	p := GroupPartition{LabelA: labelA, LabelB: labelB}
	for i, v := range labels {
		if v == labelA {
			p.RowsA = append(p.RowsA, i)
		} else {
			p.RowsB = append(p.RowsB, i)
		}
	}
	return p, nil
}

// Rows returns the row indices for a label, or nil if it is neither group.
func (p GroupPartition) Rows(label string) []int {
	switch label {
	case p.LabelA:
		return p.RowsA
	case p.LabelB:
		return p.RowsB
	}
	return nil
}
