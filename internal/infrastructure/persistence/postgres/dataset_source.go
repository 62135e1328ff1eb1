package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
	pkgpostgres "github.com/bibbank/loan-approval/pkg/postgres"
)

// DefaultDatasetTable holds the loan book in the shipped migrations.
const DefaultDatasetTable = "loan_records"

// DatasetSource reads the labeled loan book from a table.
type DatasetSource struct {
	db    pkgpostgres.Querier
	table string
}

var _ port.DatasetSource = (*DatasetSource)(nil)

// NewDatasetSource creates a source over table, which may be schema qualified.
func NewDatasetSource(db pkgpostgres.Querier, table string) *DatasetSource {
	if table == "" {
		table = DefaultDatasetTable
	}
	return &DatasetSource{db: db, table: table}
}

// Name identifies the source in training runs.
func (s *DatasetSource) Name() string {
	return "postgres:" + s.table
}

// Load selects the schema columns and the target as text. SQL NULL becomes a
// nil cell, which the feature preparer treats as missing.
func (s *DatasetSource) Load(ctx context.Context, schema model.FeatureSchema, target string) (model.Dataset, error) {
	ident := pgx.Identifier(strings.Split(s.table, "."))
	tableSchema, tableName := "", ident[len(ident)-1]
	if len(ident) > 1 {
		tableSchema = ident[len(ident)-2]
	}

	present, err := s.columns(ctx, tableSchema, tableName)
	if err != nil {
		return model.Dataset{}, err
	}

	wanted := append(schema.Names(), target)
	var missing []string
	selects := make([]string, len(wanted))
	for i, name := range wanted {
		if _, ok := present[name]; !ok {
			missing = append(missing, name)
		}
		selects[i] = pgx.Identifier{name}.Sanitize() + "::text"
	}
	if len(missing) > 0 {
		return model.Dataset{}, &model.SchemaMismatchError{Missing: missing}
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY 1", strings.Join(selects, ", "), ident.Sanitize())
	if _, ok := present["id"]; ok {
		query = fmt.Sprintf("SELECT %s FROM %s ORDER BY id", strings.Join(selects, ", "), ident.Sanitize())
	}

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("postgres: query dataset: %w", err)
	}
	defer rows.Close()

	ds := model.Dataset{Source: s.Name()}
	cells := make([]*string, len(wanted))
	dest := make([]any, len(wanted))
	for i := range cells {
		dest[i] = &cells[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return model.Dataset{}, fmt.Errorf("postgres: scan dataset row: %w", err)
		}

		raw := make(model.RawApplication, schema.Len())
		for i, name := range schema.Names() {
			if cells[i] == nil {
				raw[name] = nil
				continue
			}
			raw[name] = *cells[i]
		}
		label := ""
		if last := cells[len(cells)-1]; last != nil {
			label = strings.TrimSpace(*last)
		}
		ds.Records = append(ds.Records, raw)
		ds.Labels = append(ds.Labels, label)
	}
	if err := rows.Err(); err != nil {
		return model.Dataset{}, fmt.Errorf("postgres: iterate dataset: %w", err)
	}
	if ds.Len() == 0 {
		return model.Dataset{}, fmt.Errorf("postgres: table %s has no records", s.table)
	}
	return ds, nil
}

func (s *DatasetSource) columns(ctx context.Context, tableSchema, tableName string) (map[string]struct{}, error) {
	rows, err := s.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		  AND table_schema = COALESCE(NULLIF($2::text, ''), current_schema())
	`, tableName, tableSchema)
	if err != nil {
		return nil, fmt.Errorf("postgres: describe %s: %w", s.table, err)
	}
	defer rows.Close()

	present := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: scan column name: %w", err)
		}
		present[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: describe %s: %w", s.table, err)
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("postgres: table %s does not exist", s.table)
	}
	return present, nil
}
