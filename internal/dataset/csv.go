package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ErrNotArray is returned by ParseSlots when the JSON is valid but not an array.
var ErrNotArray = errors.New("not a JSON array")

// ErrNoData is returned by LoadDir when a directory holds none of the three files.
var ErrNoData = errors.New("no clients, tasks or workers CSV found")

// ReadCSV decodes a CSV stream whose first record is the header. Blank lines
// are skipped; short records leave trailing columns empty and surplus fields
// are dropped.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record %d: %w", len(rows)+1, err)
		}
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = rec[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Header derives the CSV header for a table from its first row: the known
// columns in canonical order, then any extra columns sorted by name.
func Header(t Table, rows []Row) []string {
	if len(rows) == 0 {
		return nil
	}
	known := KnownColumns(t)
	var header, extra []string
	for _, c := range known {
		if _, ok := rows[0][c]; ok {
			header = append(header, c)
		}
	}
	for k := range rows[0] {
		if !contains(known, k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(header, extra...)
}

// WriteCSV encodes rows as CSV with the header from Header. Writing no rows
// produces no output.
func WriteCSV(w io.Writer, t Table, rows []Row) error {
	header := Header(t, rows)
	if len(header) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(header))
	for i, row := range rows {
		for j, h := range header {
			rec[j] = Text(row[h])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile decodes one CSV file.
func ReadFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// LoadDir reads the clients, tasks and workers CSV files of dir in
// parallel. Each table is taken from the first file, in name order, whose
// name identifies it; tables with no file stay empty.
func LoadDir(ctx context.Context, dir string) (*Bundle, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(matches)

	files := make(map[Table]string, len(Tables))
	for _, m := range matches {
		t, ok := TableForFile(m)
		if !ok {
			continue
		}
		if _, seen := files[t]; !seen {
			files[t] = m
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoData)
	}

	results := make([][]Row, len(Tables))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range Tables {
		path, ok := files[t]
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b := &Bundle{}
	for i, t := range Tables {
		b.SetRows(t, results[i])
	}
	return b, nil
}

// WriteDir writes every non-empty table of b to dir as <table>.csv.
func WriteDir(dir string, b *Bundle) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, t := range Tables {
		rows := b.Rows(t)
		if len(rows) == 0 {
			continue
		}
		path := filepath.Join(dir, string(t)+".csv")
		if err := writeFile(path, t, rows); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, t Table, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSV(f, t, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
