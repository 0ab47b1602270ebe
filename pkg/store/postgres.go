package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// PostgresStore maps collections onto same-named tables.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open pool, typically database.DBClient.GetDB().
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Fetch(ctx context.Context, collection string, q Query) ([]Record, error) {
	query, args, err := buildSelect(collection, q)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresStore) FetchOne(ctx context.Context, collection string, id int64) (Record, error) {
	cols, err := columns(collection)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", selectList(cols), pq.QuoteIdentifier(collection))
	return s.queryOne(ctx, query, id)
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	query, args, err := buildInsert(collection, rec)
	if err != nil {
		return nil, err
	}
	return s.queryOne(ctx, query, args...)
}

func (s *PostgresStore) Update(ctx context.Context, collection string, id int64, partial Record) (Record, error) {
	return s.UpdateIf(ctx, collection, id, nil, partial)
}

func (s *PostgresStore) UpdateIf(ctx context.Context, collection string, id int64, expect, partial Record) (Record, error) {
	query, args, err := buildUpdate(collection, id, expect, partial)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return s.FetchOne(ctx, collection, id)
	}
	rec, err := s.queryOne(ctx, query, args...)
	if errors.Is(err, ErrNotFound) && len(expect) > 0 {
		// no row changed: either the id is gone or the guard failed
		if _, ferr := s.FetchOne(ctx, collection, id); ferr == nil {
			return nil, ErrConflict
		}
	}
	return rec, err
}

func (s *PostgresStore) Remove(ctx context.Context, collection string, id int64) (bool, error) {
	if _, err := columns(collection); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", pq.QuoteIdentifier(collection)), id)
	if err != nil {
		return false, classify(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify(err)
	}
	return n > 0, nil
}

func (s *PostgresStore) queryOne(ctx context.Context, query string, args ...any) (Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records[0], nil
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	names, err := rows.Columns()
	if err != nil {
		return nil, classify(err)
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		rec := make(Record, len(names))
		for i, name := range names {
			rec[name] = values[i]
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return records, nil
}

// classify separates server-side rejections from connectivity failures,
// which are reported as ErrUnavailable.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Errorf("query failed: %w", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func selectList(cols []string) string {
	return "id, " + strings.Join(cols, ", ")
}

func buildSelect(collection string, q Query) (string, []any, error) {
	cols, err := columns(collection)
	if err != nil {
		return "", nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", selectList(cols), pq.QuoteIdentifier(collection))

	var args []any
	if len(q.Filter) > 0 {
		fields := make([]string, 0, len(q.Filter))
		for field := range q.Filter {
			if !hasColumn(collection, field) {
				return "", nil, fmt.Errorf("unknown filter field %q for %s", field, collection)
			}
			fields = append(fields, field)
		}
		sort.Strings(fields)

		conds := make([]string, len(fields))
		for i, field := range fields {
			args = append(args, q.Filter[field])
			conds[i] = fmt.Sprintf("%s = $%d", field, len(args))
		}
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if q.OrderBy != "" {
		if !hasColumn(collection, q.OrderBy) {
			return "", nil, fmt.Errorf("unknown order field %q for %s", q.OrderBy, collection)
		}
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s, id %s", q.OrderBy, dir, dir)
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args, nil
}

func writableFields(collection string, rec Record) ([]string, error) {
	fields := make([]string, 0, len(rec))
	for field := range rec {
		if field == "id" {
			continue
		}
		if !hasColumn(collection, field) {
			return nil, fmt.Errorf("unknown field %q for %s", field, collection)
		}
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields, nil
}

func buildInsert(collection string, rec Record) (string, []any, error) {
	cols, err := columns(collection)
	if err != nil {
		return "", nil, err
	}
	fields, err := writableFields(collection, rec)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("insert into %s: no fields", collection)
	}

	placeholders := make([]string, len(fields))
	args := make([]any, len(fields))
	for i, field := range fields {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[field]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		pq.QuoteIdentifier(collection), strings.Join(fields, ", "), strings.Join(placeholders, ", "), selectList(cols))
	return query, args, nil
}

// buildUpdate returns an empty query when partial has nothing to write.
// Fields in expect become extra equality conditions on the WHERE clause.
func buildUpdate(collection string, id int64, expect, partial Record) (string, []any, error) {
	cols, err := columns(collection)
	if err != nil {
		return "", nil, err
	}
	fields, err := writableFields(collection, partial)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, nil
	}
	guards, err := writableFields(collection, expect)
	if err != nil {
		return "", nil, err
	}

	sets := make([]string, len(fields))
	args := make([]any, 0, len(fields)+len(guards)+1)
	for i, field := range fields {
		args = append(args, partial[field])
		sets[i] = fmt.Sprintf("%s = $%d", field, len(args))
	}
	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))
	for _, field := range guards {
		args = append(args, expect[field])
		where += fmt.Sprintf(" AND %s = $%d", field, len(args))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
		pq.QuoteIdentifier(collection), strings.Join(sets, ", "), where, selectList(cols))
	return query, args, nil
}
