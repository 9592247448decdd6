// Package journal records the fills of a run and exports them as a
// parquet file.
package journal

import "github.com/superalgorithm/superalgorithm/internal/types"

// FillWriter persists fills to a destination.
type FillWriter interface {
	// Initialize sets up the writer, creating tables or files.
	Initialize() error
	// Write persists a single fill.
	Write(fill types.Fill) error
	// Finalize completes the write and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
