package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/fatih/structs"
)

// QueryParams narrows a query. Where and OrderBy are SQL fragments without
// their keywords; Args fill the placeholders of Where.
type QueryParams struct {
	Where   string
	Args    []any
	OrderBy string

	// Limit of zero returns every row.
	Limit int
}

// DataReader reads recorded rows back into the entry structs they were
// written from.
type DataReader interface {
	// MapTable tells the reader which struct the rows of a table decode
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// Query returns pointers to the decoded entries and the number of rows
	// that match params before the limit applies.
	Query(ctx context.Context, tableName string, params QueryParams) (
		results []any,
		totalCount int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	db      *sql.DB
	entries map[string]reflect.Type
}

// NewReader opens a database file read-only.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sql.Open("sqlite3", "file:"+dbFilename+"?mode=ro")
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening %s: %w", dbFilename, err)
	}

	return &sqliteReader{
		db:      db,
		entries: make(map[string]reflect.Type),
	}, nil
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.entries[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.entries[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	where := ""
	if params.Where != "" {
		where = " WHERE " + params.Where
	}

	var total int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+where, params.Args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	columns := structs.Names(reflect.New(entryType).Elem().Interface())
	query := "SELECT " + strings.Join(columns, ", ") +
		" FROM " + tableName + where

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := []any{}

	for rows.Next() {
		entry := reflect.New(entryType)

		fields := make([]any, len(columns))
		for i, name := range columns {
			fields[i] = entry.Elem().FieldByName(name).Addr().Interface()
		}

		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}

		results = append(results, entry.Interface())
	}

	return results, total, rows.Err()
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
