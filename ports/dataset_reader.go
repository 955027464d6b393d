package ports

import (
	"context"
	"io"

	"gojsm/domain/dataset"
)

// DatasetReader loads a dataset from a named file or an uploaded stream.
type DatasetReader interface {
	// ReadFile reads the dataset stored at path.
	ReadFile(ctx context.Context, path string) (*dataset.Dataset, error)
	// Read reads a dataset from r; name carries the original file name and
	// selects the format by extension.
	Read(ctx context.Context, name string, r io.Reader) (*dataset.Dataset, error)
}

// DatasetFetcher downloads a dataset document from a URL.
type DatasetFetcher interface {
	Fetch(ctx context.Context, url string) (*dataset.Dataset, error)
}
