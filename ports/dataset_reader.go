package ports

import "genexpr/domain/dataset"

// DatasetReader loads a validated expression dataset from some source
type DatasetReader interface {
	Read() (*dataset.Dataset, error)
}
