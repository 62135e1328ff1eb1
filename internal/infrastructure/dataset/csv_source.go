// Package dataset reads labeled loan books from flat files.
package dataset

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
)

// CSVSource loads a dataset from a CSV file with a header row.
type CSVSource struct {
	path string
}

var _ port.DatasetSource = (*CSVSource)(nil)

// NewCSVSource creates a source for the file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name identifies the source in training runs.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Load reads the schema columns and the target of every record. Cells are
// returned as strings; coercion belongs to the feature preparer.
func (s *CSVSource) Load(ctx context.Context, schema model.FeatureSchema, target string) (model.Dataset, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("dataset: open %s: %w", s.path, err)
	}
	defer f.Close()

	ds, err := Read(ctx, f, schema, target)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("dataset: %s: %w", s.path, err)
	}
	ds.Source = s.Name()
	return ds, nil
}

// Read parses CSV from r. Header names are trimmed, identifier columns and
// columns outside the schema are ignored.
func Read(ctx context.Context, r io.Reader, schema model.FeatureSchema, target string) (model.Dataset, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return model.Dataset{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return model.Dataset{}, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if isIdentifier(name) {
			continue
		}
		index[name] = i
	}

	var missing []string
	for _, name := range append(schema.Names(), target) {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return model.Dataset{}, &model.SchemaMismatchError{Missing: missing}
	}

	ds := model.Dataset{}
	line := 1
	for {
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return model.Dataset{}, err
			}
		}

		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.Dataset{}, fmt.Errorf("read record: %w", err)
		}
		line++

		raw := make(model.RawApplication, schema.Len())
		for _, feat := range schema.Features {
			raw[feat.Name] = rec[index[feat.Name]]
		}
		ds.Records = append(ds.Records, raw)
		ds.Labels = append(ds.Labels, strings.TrimSpace(rec[index[target]]))
	}

	if ds.Len() == 0 {
		return model.Dataset{}, fmt.Errorf("no records")
	}
	return ds, nil
}

func isIdentifier(name string) bool {
	for _, id := range model.IdentifierColumns {
		if name == id {
			return true
		}
	}
	return false
}
