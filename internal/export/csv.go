package export

import (
	"fmt"
	"path/filepath"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// WriteCSV writes every non-empty table of b into dir and returns the files
// written, in table order.
func WriteCSV(dir string, b *dataset.Bundle) ([]string, error) {
	if b == nil {
		return nil, nil
	}
	if err := dataset.WriteDir(dir, b); err != nil {
		return nil, fmt.Errorf("export csv: %w", err)
	}
	var paths []string
	for _, t := range dataset.Tables {
		if b.Len(t) > 0 {
			paths = append(paths, filepath.Join(dir, string(t)+".csv"))
		}
	}
	return paths, nil
}
