// Package catalog reads table and column metadata from the Oracle data
// dictionary (ALL_TABLES, ALL_TAB_COLUMNS).
package catalog

import (
	"context"
	"database/sql"
	"strings"

	"github.com/gear6io/oraport/pkg/errors"
)

const (
	listTablesQuery = `SELECT table_name FROM all_tables WHERE owner = :1`

	listColumnsQuery = `SELECT column_name, data_type FROM all_tab_columns
WHERE owner = :1 AND table_name = :2
ORDER BY column_id`

	listColumnsOfTypeQuery = `SELECT column_name FROM all_tab_columns
WHERE owner = :1 AND table_name = :2 AND data_type = :3
ORDER BY column_id`
)

// Querier is the subset of *sql.DB the inspector needs
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Inspector queries the catalog through whatever session it is given. It
// holds no state, so metadata is never cached between calls.
type Inspector struct {
	db Querier
}

func NewInspector(db Querier) *Inspector {
	return &Inspector{db: db}
}

// ListTables returns the table names owned by owner, in catalog order
func (i *Inspector) ListTables(ctx context.Context, owner string) ([]string, error) {
	owner = strings.ToUpper(owner)
	rows, err := i.db.QueryContext(ctx, listTablesQuery, owner)
	if err != nil {
		return nil, queryFailed(err, "list tables", owner, "")
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.New(ErrCatalogScanFailed, "failed to scan table name", err).AddContext("owner", owner)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed(err, "list tables", owner, "")
	}
	return tables, nil
}

// ListColumns returns every column of owner.table ordered by column_id
func (i *Inspector) ListColumns(ctx context.Context, owner, table string) ([]ColumnDescriptor, error) {
	owner = strings.ToUpper(owner)
	rows, err := i.db.QueryContext(ctx, listColumnsQuery, owner, table)
	if err != nil {
		return nil, queryFailed(err, "list columns", owner, table)
	}
	defer rows.Close()

	var columns []ColumnDescriptor
	for rows.Next() {
		var name string
		var dataType sql.NullString
		if err := rows.Scan(&name, &dataType); err != nil {
			return nil, errors.New(ErrCatalogScanFailed, "failed to scan column", err).
				AddContext("owner", owner).
				AddContext("table", table)
		}
		columns = append(columns, ColumnDescriptor{
			Name:     name,
			DataType: dataType.String,
			Type:     ClassifyDataType(dataType.String),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed(err, "list columns", owner, table)
	}
	return columns, nil
}

// ListColumnsOfType returns the names of owner.table columns whose declared
// type equals dataType (for example SDO_GEOMETRY)
func (i *Inspector) ListColumnsOfType(ctx context.Context, owner, table, dataType string) ([]string, error) {
	owner = strings.ToUpper(owner)
	rows, err := i.db.QueryContext(ctx, listColumnsOfTypeQuery, owner, table, strings.ToUpper(dataType))
	if err != nil {
		return nil, queryFailed(err, "list columns of type", owner, table)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.New(ErrCatalogScanFailed, "failed to scan column name", err).
				AddContext("owner", owner).
				AddContext("table", table)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed(err, "list columns of type", owner, table)
	}
	return names, nil
}

func queryFailed(err error, op, owner, table string) error {
	e := errors.New(ErrCatalogQueryFailed, "catalog query failed", err).
		AddContext("operation", op).
		AddContext("owner", owner)
	if table != "" {
		e.AddContext("table", table)
	}
	return e
}
