package internal

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	campus "github.com/lychee-technology/campus"
)

type storePool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PostgresStore implements campus.Store on a pgx pool. Every Reader and Tx
// method issues a fixed number of statements regardless of row count.
type PostgresStore struct {
	pool storePool
}

func NewPostgresStore(pool storePool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Select(ctx context.Context, sel campus.Selection, scan func(campus.Row) error) error {
	query, args, err := buildSelect(sel)
	if err != nil {
		return err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query %s: %w", sel.Table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("scan %s: %w", sel.Table, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", sel.Table, err)
	}
	return nil
}

func (s *PostgresStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx campus.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // no-op if committed

	if err := fn(ctx, &postgresTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type postgresTx struct {
	tx execer
}

func (t *postgresTx) exec(ctx context.Context, query string, args []any) error {
	if _, err := t.tx.Exec(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

func (t *postgresTx) Insert(ctx context.Context, records ...campus.Record) error {
	for _, group := range groupByTable(records) {
		query, args := buildInsert(group, false)
		if err := t.exec(ctx, query, args); err != nil {
			return fmt.Errorf("insert %s: %w", group[0].Table(), err)
		}
		if err := t.writeLinks(ctx, group, false); err != nil {
			return err
		}
	}
	return nil
}

func (t *postgresTx) Save(ctx context.Context, records ...campus.Record) error {
	for _, group := range groupByTable(records) {
		query, args := buildInsert(group, true)
		if err := t.exec(ctx, query, args); err != nil {
			return fmt.Errorf("save %s: %w", group[0].Table(), err)
		}
		if err := t.writeLinks(ctx, group, true); err != nil {
			return err
		}
	}
	return nil
}

// writeLinks rewrites join tables for records that carry loaded links.
// When replace is set the owner's existing links are deleted first.
func (t *postgresTx) writeLinks(ctx context.Context, group []campus.Record, replace bool) error {
	byTable := make(map[string][]campus.LinkSet)
	var tables []string
	for _, rec := range group {
		linked, ok := rec.(campus.Linked)
		if !ok {
			continue
		}
		for _, ls := range linked.Links() {
			if _, seen := byTable[ls.Table]; !seen {
				tables = append(tables, ls.Table)
			}
			byTable[ls.Table] = append(byTable[ls.Table], ls)
		}
	}

	for _, table := range tables {
		sets := byTable[table]
		if replace {
			query, args := buildLinkDelete(sets)
			if err := t.exec(ctx, query, args); err != nil {
				return fmt.Errorf("clear links %s: %w", table, err)
			}
		}
		query, args, ok := buildLinkInsert(sets)
		if !ok {
			continue
		}
		if err := t.exec(ctx, query, args); err != nil {
			return fmt.Errorf("link %s: %w", table, err)
		}
	}
	return nil
}

func (t *postgresTx) UpdateWhereIDIn(ctx context.Context, table, idColumn string, set []campus.Assignment, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	query, args := buildUpdateWhereIDIn(table, idColumn, set, ids)
	if err := t.exec(ctx, query, args); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

func (t *postgresTx) UpdateWhereKeyIn(ctx context.Context, table string, keyColumns []string, set []campus.Assignment, keys [][]any) error {
	if len(keys) == 0 {
		return nil
	}
	query, args := buildUpdateWhereKeyIn(table, keyColumns, set, keys)
	if err := t.exec(ctx, query, args); err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	return nil
}

// ============================================================================
// Statement builders
// ============================================================================

// quoteIdent quotes a table or column name, splitting a schema qualifier on ".".
func quoteIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func quoteColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = quoteIdent(c)
	}
	return out
}

func buildSelect(sel campus.Selection) (string, []any, error) {
	if sel.Table == "" || len(sel.Columns) == 0 {
		return "", nil, fmt.Errorf("selection requires a table and columns")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", strings.Join(quoteColumns(sel.Columns), ", "), quoteIdent(sel.Table))

	args := make([]any, 0, len(sel.Where))
	for i, c := range sel.Where {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = append(args, c.Values)
		fmt.Fprintf(&b, "%s = ANY($%d)", quoteIdent(c.Column), len(args))
	}
	return b.String(), args, nil
}

func groupByTable(records []campus.Record) [][]campus.Record {
	index := make(map[string]int)
	var groups [][]campus.Record
	for _, rec := range records {
		i, ok := index[rec.Table()]
		if !ok {
			i = len(groups)
			index[rec.Table()] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], rec)
	}
	return groups
}

// placeholders renders "($n, $n+1, ...)" for width parameters starting after offset.
func placeholders(offset, width int) string {
	parts := make([]string, width)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", offset+i+1)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// buildInsert renders one multi-row INSERT for records of a single table.
// With upsert, conflicting keys update every non-key column.
func buildInsert(records []campus.Record, upsert bool) (string, []any) {
	first := records[0]
	cols := first.Columns()
	keys := first.KeyColumns()

	args := make([]any, 0, len(records)*len(cols))
	rows := make([]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, placeholders(len(args), len(cols)))
		args = append(args, rec.Values()...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES %s",
		quoteIdent(first.Table()), strings.Join(quoteColumns(cols), ", "), strings.Join(rows, ", "))

	if upsert {
		var updates []string
		keySet := NewSet(keys...)
		for _, c := range cols {
			if keySet.Contains(c) {
				continue
			}
			q := quoteIdent(c)
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", q, q))
		}
		conflict := strings.Join(quoteColumns(keys), ", ")
		if len(updates) == 0 {
			fmt.Fprintf(&b, " ON CONFLICT (%s) DO NOTHING", conflict)
		} else {
			fmt.Fprintf(&b, " ON CONFLICT (%s) DO UPDATE SET %s", conflict, strings.Join(updates, ", "))
		}
	}
	return b.String(), args
}

// ownerMatch renders a predicate selecting every owner key in keys.
func ownerMatch(columns []string, keys [][]any, offset int) (string, []any) {
	if len(columns) == 1 {
		return fmt.Sprintf("%s = ANY($%d)", quoteIdent(columns[0]), offset+1), []any{firstColumnIDs(keys)}
	}

	args := make([]any, 0, len(keys)*len(columns))
	tuples := make([]string, 0, len(keys))
	for _, k := range keys {
		tuples = append(tuples, placeholders(offset+len(args), len(columns)))
		args = append(args, k...)
	}
	return fmt.Sprintf("(%s) IN (%s)", strings.Join(quoteColumns(columns), ", "), strings.Join(tuples, ", ")), args
}

// firstColumnIDs collects single-column owner keys as a uuid array parameter.
func firstColumnIDs(keys [][]any) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(keys))
	for _, k := range keys {
		if id, ok := k[0].(uuid.UUID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func buildLinkDelete(sets []campus.LinkSet) (string, []any) {
	keys := make([][]any, 0, len(sets))
	for _, ls := range sets {
		keys = append(keys, ls.OwnerKey)
	}
	where, args := ownerMatch(sets[0].OwnerColumns, keys, 0)
	return fmt.Sprintf("DELETE FROM %s WHERE %s", quoteIdent(sets[0].Table), where), args
}

func buildLinkInsert(sets []campus.LinkSet) (string, []any, bool) {
	first := sets[0]
	cols := append(append([]string{}, first.OwnerColumns...), first.ChildColumn)

	var args []any
	var rows []string
	for _, ls := range sets {
		for _, child := range ls.ChildIDs {
			rows = append(rows, placeholders(len(args), len(cols)))
			args = append(args, ls.OwnerKey...)
			args = append(args, child)
		}
	}
	if len(rows) == 0 {
		return "", nil, false
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s ON CONFLICT DO NOTHING",
		quoteIdent(first.Table), strings.Join(quoteColumns(cols), ", "), strings.Join(rows, ", ")), args, true
}

func buildAssignments(set []campus.Assignment) (string, []any) {
	parts := make([]string, 0, len(set))
	args := make([]any, 0, len(set))
	for _, a := range set {
		args = append(args, a.Value)
		parts = append(parts, fmt.Sprintf("%s = $%d", quoteIdent(a.Column), len(args)))
	}
	return strings.Join(parts, ", "), args
}

func buildUpdateWhereIDIn(table, idColumn string, set []campus.Assignment, ids []uuid.UUID) (string, []any) {
	assignments, args := buildAssignments(set)
	args = append(args, ids)
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = ANY($%d)",
		quoteIdent(table), assignments, quoteIdent(idColumn), len(args)), args
}

func buildUpdateWhereKeyIn(table string, keyColumns []string, set []campus.Assignment, keys [][]any) (string, []any) {
	assignments, args := buildAssignments(set)
	where, keyArgs := ownerMatch(keyColumns, keys, len(args))
	args = append(args, keyArgs...)
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s", quoteIdent(table), assignments, where), args
}
