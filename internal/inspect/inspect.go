// Package inspect provides read-only access to MySQL schema metadata:
// foreign key references, column definitions and index listings, all read
// from information_schema for the schema of the active connection.
package inspect

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ForeignKeyEdge is a single column-level foreign key reference from a child
// table column to a parent table column.
type ForeignKeyEdge struct {
	ChildTable     string
	ChildColumn    string
	ParentTable    string
	ParentColumn   string
	ConstraintName string
}

// ColumnInfo describes a column's declared type as reported by
// information_schema.columns. CharMaxLength is NULL for non-character types.
type ColumnInfo struct {
	Table         string
	Name          string
	DataType      string
	CharMaxLength sql.NullInt64
}

// IndexInfo is one index entry covering a single column.
type IndexInfo struct {
	Table   string
	Column  string
	Name    string
	Unique  bool
	Primary bool
}

// Inspector queries schema metadata for one named schema.
type Inspector struct {
	db     *sql.DB
	schema string
}

// NewInspector returns an Inspector bound to the given schema name.
func NewInspector(db *sql.DB, schema string) *Inspector {
	return &Inspector{db: db, schema: schema}
}

// CurrentSchema resolves the schema name selected by the connection's DSN.
func CurrentSchema(ctx context.Context, db *sql.DB) (string, error) {
	var name sql.NullString
	if err := db.QueryRowContext(ctx, "SELECT DATABASE()").Scan(&name); err != nil {
		return "", fmt.Errorf("failed to resolve current schema: %w", err)
	}
	if !name.Valid || name.String == "" {
		return "", fmt.Errorf("connection has no default schema; include the database name in the DSN")
	}
	return name.String, nil
}

// ListForeignKeyEdges returns every column-level foreign key reference in the
// schema. The same parent target may appear multiple times when several child
// tables reference it. Ordering is deterministic for a given schema state.
func (i *Inspector) ListForeignKeyEdges(ctx context.Context) ([]ForeignKeyEdge, error) {
	query := `
		SELECT
			kcu.table_name,
			kcu.column_name,
			kcu.referenced_table_name,
			kcu.referenced_column_name,
			kcu.constraint_name
		FROM information_schema.key_column_usage kcu
		WHERE kcu.table_schema = ?
			AND kcu.referenced_table_name IS NOT NULL
		ORDER BY kcu.table_name, kcu.constraint_name, kcu.ordinal_position
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to query foreign key references: %w", err)
	}
	defer rows.Close()

	var edges []ForeignKeyEdge
	for rows.Next() {
		var edge ForeignKeyEdge
		if err := rows.Scan(&edge.ChildTable, &edge.ChildColumn, &edge.ParentTable,
			&edge.ParentColumn, &edge.ConstraintName); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key reference: %w", err)
		}
		edges = append(edges, edge)
	}

	return edges, rows.Err()
}

// DescribeColumn looks up a single column's declared type. The second return
// value is false when the column does not exist, which callers treat as
// schema drift rather than an error.
func (i *Inspector) DescribeColumn(ctx context.Context, table, column string) (ColumnInfo, bool, error) {
	query := `
		SELECT c.data_type, c.character_maximum_length
		FROM information_schema.columns c
		WHERE c.table_schema = ? AND c.table_name = ? AND c.column_name = ?
	`

	info := ColumnInfo{Table: table, Name: column}
	err := i.db.QueryRowContext(ctx, query, i.schema, table, column).
		Scan(&info.DataType, &info.CharMaxLength)
	if errors.Is(err, sql.ErrNoRows) {
		return ColumnInfo{}, false, nil
	}
	if err != nil {
		return ColumnInfo{}, false, fmt.Errorf("failed to describe column %s.%s: %w", table, column, err)
	}
	return info, true, nil
}

// ListColumnIndexes returns every index entry that covers the given column,
// including the primary key if the column is part of it.
func (i *Inspector) ListColumnIndexes(ctx context.Context, table, column string) ([]IndexInfo, error) {
	query := `
		SELECT s.index_name, s.non_unique
		FROM information_schema.statistics s
		WHERE s.table_schema = ? AND s.table_name = ? AND s.column_name = ?
		ORDER BY s.index_name
	`

	rows, err := i.db.QueryContext(ctx, query, i.schema, table, column)
	if err != nil {
		return nil, fmt.Errorf("failed to query indexes on %s.%s: %w", table, column, err)
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var name string
		var nonUnique int
		if err := rows.Scan(&name, &nonUnique); err != nil {
			return nil, fmt.Errorf("failed to scan index on %s.%s: %w", table, column, err)
		}
		indexes = append(indexes, IndexInfo{
			Table:   table,
			Column:  column,
			Name:    name,
			Unique:  nonUnique == 0,
			Primary: name == "PRIMARY",
		})
	}

	return indexes, rows.Err()
}

// HasUniquenessGuarantee reports whether the column carries a single-column
// PRIMARY KEY or UNIQUE constraint. Composite constraints do not count: they
// do not make the column unique on its own.
func (i *Inspector) HasUniquenessGuarantee(ctx context.Context, table, column string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		WHERE tc.table_schema = ?
			AND tc.table_name = ?
			AND tc.constraint_type IN ('PRIMARY KEY', 'UNIQUE')
			AND kcu.column_name = ?
			AND (
				SELECT COUNT(*)
				FROM information_schema.key_column_usage k2
				WHERE k2.constraint_name = tc.constraint_name
					AND k2.table_schema = tc.table_schema
					AND k2.table_name = tc.table_name
			) = 1
	`

	var count int
	err := i.db.QueryRowContext(ctx, query, i.schema, table, column).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query constraints on %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}
