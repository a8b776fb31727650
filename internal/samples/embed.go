// Package samples embeds a small, validation-clean scheduling dataset for
// distribution inside the alchemist binary. The embedded filesystem is
// rooted at "data/" and holds clients.csv, tasks.csv and workers.csv.
package samples

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DataFS contains the embedded sample tables.
//
//go:embed data/*.csv
var DataFS embed.FS

// Files returns the embedded file names in name order.
func Files() ([]string, error) {
	entries, err := fs.ReadDir(DataFS, "data")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

// WriteTo copies the sample tables into dir. Existing files are kept unless
// force is set. It returns the paths written.
func WriteTo(dir string, force bool) ([]string, error) {
	names, err := Files()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var written []string
	for _, name := range names {
		dest := filepath.Join(dir, name)
		if !force {
			if _, err := os.Stat(dest); err == nil {
				continue
			}
		}
		data, err := DataFS.ReadFile("data/" + name)
		if err != nil {
			return nil, fmt.Errorf("reading embedded %s: %w", name, err)
		}
		if err := os.WriteFile(dest, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing %s: %w", dest, err)
		}
		written = append(written, dest)
	}
	return written, nil
}
