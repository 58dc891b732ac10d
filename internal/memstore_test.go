package internal

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/google/uuid"

	campus "github.com/lychee-technology/campus"
)

// memTable holds rows of one table as column-aligned value slices.
type memTable struct {
	columns []string
	keys    int
	rows    [][]any
}

func (t *memTable) col(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *memTable) clone() *memTable {
	out := &memTable{columns: t.columns, keys: t.keys, rows: make([][]any, len(t.rows))}
	for i, r := range t.rows {
		out.rows[i] = append([]any{}, r...)
	}
	return out
}

// memStore is an in-memory campus.Store. Writes inside RunInTransaction are
// applied to a copy and only published when fn succeeds.
type memStore struct {
	mu      sync.Mutex
	tables  map[string]*memTable
	selects int
	writes  []string
	// failWrite makes the named write method fail inside transactions.
	failWrite string
}

func newMemStore(seed ...campus.Record) *memStore {
	s := &memStore{tables: make(map[string]*memTable)}
	for _, r := range seed {
		s.tables = upsertRecords(s.tables, false, r)
	}
	return s
}

func (s *memStore) Select(_ context.Context, sel campus.Selection, scan func(campus.Row) error) error {
	s.mu.Lock()
	s.selects++
	t, ok := s.tables[sel.Table]
	var matched [][]any
	if ok {
		for _, row := range t.rows {
			if rowMatches(t, row, sel.Where) {
				matched = append(matched, project(t, row, sel.Columns))
			}
		}
	}
	s.mu.Unlock()

	for _, values := range matched {
		if err := scan(memRow(values)); err != nil {
			return err
		}
	}
	return nil
}

func (s *memStore) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx campus.Tx) error) error {
	s.mu.Lock()
	staged := make(map[string]*memTable, len(s.tables))
	for name, t := range s.tables {
		staged[name] = t.clone()
	}
	s.mu.Unlock()

	tx := &memTx{store: s, tables: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.tables = tx.tables
	s.writes = append(s.writes, tx.ops...)
	s.mu.Unlock()
	return nil
}

func (s *memStore) selectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selects
}

func (s *memStore) writeLog() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.writes...)
}

// memLoad reads one entity back by id in any status.
func memLoad[E any, PE interface {
	*E
	identified
}](s *memStore, id uuid.UUID) PE {
	out, err := FetchByIDs[E, PE](context.Background(), s, []uuid.UUID{id}, nil)
	if err != nil {
		panic(err)
	}
	return out[id]
}

func (s *memStore) rowCount(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[table]; ok {
		return len(t.rows)
	}
	return 0
}

type memTx struct {
	store  *memStore
	tables map[string]*memTable
	ops    []string
}

var errInjected = errors.New("injected write failure")

func (tx *memTx) check(op string) error {
	tx.ops = append(tx.ops, op)
	if tx.store.failWrite == op {
		return errInjected
	}
	return nil
}

func (tx *memTx) Insert(_ context.Context, records ...campus.Record) error {
	if err := tx.check("Insert"); err != nil {
		return err
	}
	for _, r := range records {
		t := tx.tables[r.Table()]
		if t != nil && findRow(t, r.Values()[:len(r.KeyColumns())]) >= 0 {
			return fmt.Errorf("duplicate key in %s", r.Table())
		}
	}
	tx.tables = upsertRecords(tx.tables, true, records...)
	return nil
}

func (tx *memTx) Save(_ context.Context, records ...campus.Record) error {
	if err := tx.check("Save"); err != nil {
		return err
	}
	tx.tables = upsertRecords(tx.tables, true, records...)
	return nil
}

func (tx *memTx) UpdateWhereIDIn(_ context.Context, table, idColumn string, set []campus.Assignment, ids []uuid.UUID) error {
	if err := tx.check("UpdateWhereIDIn"); err != nil {
		return err
	}
	t, ok := tx.tables[table]
	if !ok {
		return nil
	}
	want := NewSet[string]()
	for _, id := range ids {
		want.Add(id.String())
	}
	idx := t.col(idColumn)
	for _, row := range t.rows {
		if k, ok := valueKey(row[idx]); ok && want.Contains(k) {
			assign(t, row, set)
		}
	}
	return nil
}

func (tx *memTx) UpdateWhereKeyIn(_ context.Context, table string, keyColumns []string, set []campus.Assignment, keys [][]any) error {
	if err := tx.check("UpdateWhereKeyIn"); err != nil {
		return err
	}
	t, ok := tx.tables[table]
	if !ok {
		return nil
	}
	for _, key := range keys {
		if i := findRow(t, key); i >= 0 {
			assign(t, t.rows[i], set)
		}
	}
	return nil
}

func upsertRecords(tables map[string]*memTable, replaceLinks bool, records ...campus.Record) map[string]*memTable {
	for _, r := range records {
		t, ok := tables[r.Table()]
		if !ok {
			t = &memTable{columns: r.Columns(), keys: len(r.KeyColumns())}
			tables[r.Table()] = t
		}
		values := append([]any{}, r.Values()...)
		if i := findRow(t, values[:t.keys]); i >= 0 {
			t.rows[i] = values
		} else {
			t.rows = append(t.rows, values)
		}
		if linked, ok := r.(campus.Linked); ok {
			for _, ls := range linked.Links() {
				writeLinks(tables, ls, replaceLinks)
			}
		}
	}
	return tables
}

func writeLinks(tables map[string]*memTable, ls campus.LinkSet, replace bool) {
	t, ok := tables[ls.Table]
	if !ok {
		t = &memTable{columns: append(append([]string{}, ls.OwnerColumns...), ls.ChildColumn), keys: len(ls.OwnerColumns) + 1}
		tables[ls.Table] = t
	}
	if replace {
		kept := t.rows[:0]
		for _, row := range t.rows {
			if !keyEquals(row[:len(ls.OwnerKey)], ls.OwnerKey) {
				kept = append(kept, row)
			}
		}
		t.rows = kept
	}
	for _, child := range ls.ChildIDs {
		t.rows = append(t.rows, append(append([]any{}, ls.OwnerKey...), child))
	}
}

func findRow(t *memTable, key []any) int {
	for i, row := range t.rows {
		if keyEquals(row[:len(key)], key) {
			return i
		}
	}
	return -1
}

func keyEquals(a, b []any) bool {
	for i := range a {
		ka, okA := valueKey(a[i])
		kb, okB := valueKey(b[i])
		if !okA || !okB || ka != kb {
			return false
		}
	}
	return true
}

func assign(t *memTable, row []any, set []campus.Assignment) {
	for _, a := range set {
		if i := t.col(a.Column); i >= 0 {
			row[i] = a.Value
		}
	}
}

func rowMatches(t *memTable, row []any, where []campus.Condition) bool {
	for _, c := range where {
		i := t.col(c.Column)
		if i < 0 {
			return false
		}
		k, ok := valueKey(row[i])
		if !ok || !conditionHas(c.Values, k) {
			return false
		}
	}
	return true
}

func conditionHas(values any, key string) bool {
	v := reflect.ValueOf(values)
	for i := 0; i < v.Len(); i++ {
		if k, ok := valueKey(v.Index(i).Interface()); ok && k == key {
			return true
		}
	}
	return false
}

// valueKey renders a stored value for comparison; nil pointers never match.
func valueKey(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return "", false
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	return fmt.Sprint(rv.Interface()), true
}

func project(t *memTable, row []any, columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		if j := t.col(c); j >= 0 {
			out[i] = row[j]
		}
	}
	return out
}

type memRow []any

func (r memRow) Scan(dest ...any) error {
	if len(dest) != len(r) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(r))
	}
	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		src := reflect.ValueOf(r[i])
		if !src.IsValid() || (src.Kind() == reflect.Pointer && src.IsNil()) {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		if target.Kind() == reflect.Pointer && src.Kind() != reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(src.Convert(target.Type().Elem()))
			target.Set(p)
			continue
		}
		if target.Kind() != reflect.Pointer && src.Kind() == reflect.Pointer {
			src = src.Elem()
		}
		target.Set(src.Convert(target.Type()))
	}
	return nil
}

// fakeAuth grants permissions per organization or school id and records every check.
type fakeAuth struct {
	mu     sync.Mutex
	userID uuid.UUID
	admin  bool
	grants map[campus.PermissionName]*Set[uuid.UUID]
	checks []authCheck
}

type authCheck struct {
	scope      campus.Scope
	permission campus.PermissionName
}

func adminAuth() *fakeAuth {
	return &fakeAuth{userID: uuid.New(), admin: true}
}

func scopedAuth() *fakeAuth {
	return &fakeAuth{userID: uuid.New(), grants: make(map[campus.PermissionName]*Set[uuid.UUID])}
}

func (a *fakeAuth) grant(permission campus.PermissionName, ids ...uuid.UUID) *fakeAuth {
	set, ok := a.grants[permission]
	if !ok {
		set = NewSet[uuid.UUID]()
		a.grants[permission] = set
	}
	set.AddAll(ids...)
	return a
}

func (a *fakeAuth) UserID() uuid.UUID { return a.userID }
func (a *fakeAuth) IsAdmin() bool     { return a.admin }

func (a *fakeAuth) RejectIfNotAllowed(_ context.Context, scope campus.Scope, permission campus.PermissionName) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checks = append(a.checks, authCheck{scope: scope, permission: permission})
	if a.admin {
		return nil
	}
	granted := a.grants[permission]
	var denied []string
	for _, id := range scope.OrganizationIDs {
		if granted == nil || !granted.Contains(id) {
			denied = append(denied, id.String())
		}
	}
	if len(denied) > 0 {
		return &campus.PermissionError{UserID: a.userID.String(), Permission: permission, ScopeType: "Organization", ScopeIDs: denied}
	}
	return nil
}

func (a *fakeAuth) checkCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.checks)
}
