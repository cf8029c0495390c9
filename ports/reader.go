package ports

import (
	"gocausal/domain/dataset"
)

// DatasetReader loads an observed tabular dataset into a frame. The index
// column, when named, must parse to a sortable numeric key.
type DatasetReader interface {
	Read(indexColumn string) (*dataset.Frame, error)
}
