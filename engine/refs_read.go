package engine

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

type requestKind uint8

const (
	requestIndex requestKind = iota + 1
	requestKey
	requestField
	requestPointer
)

func (k requestKind) String() string {
	switch k {
	case requestIndex:
		return "index"
	case requestKey:
		return "key"
	case requestField:
		return "field"
	case requestPointer:
		return "pointer"
	default:
		return "invalid"
	}
}

type readRequest struct {
	kind  requestKind
	owner types.RecordID
	field string
	table string

	index   int64
	key     string
	fieldID string
	store   types.StoreNumber
	offset  int
}

func (r readRequest) String() string {
	switch r.kind {
	case requestIndex:
		return fmt.Sprintf("%s.%s -> %s[%d]", r.owner, r.field, r.table, r.index)
	case requestKey:
		return fmt.Sprintf("%s.%s -> %s[%q]", r.owner, r.field, r.table, r.key)
	case requestField:
		return fmt.Sprintf("%s.%s -> %s[%s=%d]", r.owner, r.field, r.table, r.fieldID, r.index)
	default:
		return fmt.Sprintf("%s.%s -> store %d @0x%x", r.owner, r.field, r.store, r.offset)
	}
}

type knownKey struct {
	store  types.StoreNumber
	table  string
	offset int
}

type tableAddrKey struct {
	store types.StoreNumber
	table string
}

// ReadReferences accumulates reference requests across every read pass.
// Resolve must run only after all sources are read, since lookups assume
// every table is complete.
type ReadReferences struct {
	requests   []readRequest
	known      map[knownKey]types.RecordID
	tableAddrs map[tableAddrKey]map[int]struct{}

	// undo logs for rolling back a failed read attempt
	knownLog []knownUndo
	addrLog  []tableAddrUndo
}

type knownUndo struct {
	key  knownKey
	prev types.RecordID
	had  bool
}

type tableAddrUndo struct {
	key  tableAddrKey
	addr int
}

// refMark is a position in the accumulator's logs.
type refMark struct {
	requests, known, addrs int
}

// NewReadReferences returns an empty accumulator.
func NewReadReferences() *ReadReferences {
	return &ReadReferences{
		known:      make(map[knownKey]types.RecordID),
		tableAddrs: make(map[tableAddrKey]map[int]struct{}),
	}
}

// Pending returns the number of queued requests.
func (r *ReadReferences) Pending() int { return len(r.requests) }

func (r *ReadReferences) add(req readRequest) {
	r.requests = append(r.requests, req)
}

// addKnown records that rid was read at offset of store. Records read as
// items of a table list are also registered under that table.
func (r *ReadReferences) addKnown(store types.StoreNumber, table string, offset int, rid types.RecordID) {
	if _, ok := r.known[knownKey{store: store, offset: offset}]; !ok {
		r.setKnown(knownKey{store: store, offset: offset}, rid)
	}
	if table != "" {
		r.setKnown(knownKey{store: store, table: table, offset: offset}, rid)
	}
}

func (r *ReadReferences) setKnown(k knownKey, rid types.RecordID) {
	prev, had := r.known[k]
	r.knownLog = append(r.knownLog, knownUndo{key: k, prev: prev, had: had})
	r.known[k] = rid
}

func (r *ReadReferences) noteTableAddress(store types.StoreNumber, table string, addr int) {
	k := tableAddrKey{store: store, table: table}
	if r.tableAddrs[k] == nil {
		r.tableAddrs[k] = make(map[int]struct{})
	}
	if _, ok := r.tableAddrs[k][addr]; ok {
		return
	}
	r.tableAddrs[k][addr] = struct{}{}
	r.addrLog = append(r.addrLog, tableAddrUndo{key: k, addr: addr})
}

func (r *ReadReferences) mark() refMark {
	return refMark{requests: len(r.requests), known: len(r.knownLog), addrs: len(r.addrLog)}
}

// undo drops every request, known record and table address recorded
// since m, restoring entries that were overwritten.
func (r *ReadReferences) undo(m refMark) {
	for i := len(r.knownLog) - 1; i >= m.known; i-- {
		u := r.knownLog[i]
		if u.had {
			r.known[u.key] = u.prev
		} else {
			delete(r.known, u.key)
		}
	}
	for _, u := range r.addrLog[m.addrs:] {
		delete(r.tableAddrs[u.key], u.addr)
	}
	r.requests = r.requests[:m.requests]
	r.knownLog = r.knownLog[:m.known]
	r.addrLog = r.addrLog[:m.addrs]
}

// tableAddresses returns the distinct pointer targets seen for table in
// store, ascending.
func (r *ReadReferences) tableAddresses(store types.StoreNumber, table string) []int {
	return slices.Sorted(maps.Keys(r.tableAddrs[tableAddrKey{store: store, table: table}]))
}

// ResolveStats summarizes one Resolve pass.
type ResolveStats struct {
	Resolved int
	Missed   int
	// Skipped counts requests whose owner no longer exists.
	Skipped int
}

// Resolve fills every queued reference with its target, or null on a miss.
// Under StrictReadReferences the misses are returned joined. The queue is
// empty afterwards.
func (r *ReadReferences) Resolve(t *Types, policy Policy) (ResolveStats, error) {
	var stats ResolveStats
	var misses []error
	idx := newTableIndex(t)
	for _, req := range r.requests {
		if !t.Exists(req.owner) {
			stats.Skipped++
			continue
		}
		f, err := lookup[*ReferenceField](t, req.owner, req.field)
		if err != nil {
			return stats, err
		}
		target := r.find(t, idx, req)
		f.value = target
		if !target.IsNull() {
			stats.Resolved++
			continue
		}
		stats.Missed++
		logger.Debug("reference miss", "kind", req.kind.String(), "request", req.String())
		if policy.StrictReadReferences {
			misses = append(misses, fmt.Errorf("%s: %w", req, types.ErrUnresolved))
		}
	}
	r.requests = nil
	r.knownLog = nil
	r.addrLog = nil
	logger.Debug("references resolved", "resolved", stats.Resolved, "missed", stats.Missed, "skipped", stats.Skipped)
	return stats, errors.Join(misses...)
}

func (r *ReadReferences) find(t *Types, idx *tableIndex, req readRequest) types.RecordID {
	switch req.kind {
	case requestIndex:
		items := idx.items(req.table)
		if req.index < 0 || req.index >= int64(len(items)) {
			return types.NullRecord
		}
		return items[req.index]
	case requestKey:
		return idx.byKey(req.table)[req.key]
	case requestField:
		return idx.byField(req.table, req.fieldID)[req.index]
	case requestPointer:
		if req.table != "" {
			if rid, ok := r.known[knownKey{store: req.store, table: req.table, offset: req.offset}]; ok && t.Exists(rid) {
				return rid
			}
		}
		if rid, ok := r.known[knownKey{store: req.store, offset: req.offset}]; ok && t.Exists(rid) {
			return rid
		}
	}
	return types.NullRecord
}

// tableIndex caches per-table lookups for one Resolve pass.
type tableIndex struct {
	t      *Types
	lists  map[string][]types.RecordID
	keys   map[string]map[string]types.RecordID
	fields map[[2]string]map[int64]types.RecordID
}

func newTableIndex(t *Types) *tableIndex {
	return &tableIndex{
		t:      t,
		lists:  make(map[string][]types.RecordID),
		keys:   make(map[string]map[string]types.RecordID),
		fields: make(map[[2]string]map[int64]types.RecordID),
	}
}

func (x *tableIndex) items(table string) []types.RecordID {
	if items, ok := x.lists[table]; ok {
		return items
	}
	items, err := x.t.TableItems(table)
	if err != nil {
		logger.Debug("table unavailable", "table", table, "error", err)
	}
	x.lists[table] = items
	return items
}

// byKey maps each item's key to the first item carrying it.
func (x *tableIndex) byKey(table string) map[string]types.RecordID {
	if m, ok := x.keys[table]; ok {
		return m
	}
	m := make(map[string]types.RecordID)
	for _, rid := range x.items(table) {
		k, err := x.t.Key(rid)
		if err != nil || k == "" {
			continue
		}
		if _, dup := m[k]; !dup {
			m[k] = rid
		}
	}
	x.keys[table] = m
	return m
}

func (x *tableIndex) byField(table, fid string) map[int64]types.RecordID {
	k := [2]string{table, fid}
	if m, ok := x.fields[k]; ok {
		return m
	}
	m := make(map[int64]types.RecordID)
	for _, rid := range x.items(table) {
		v, err := x.t.GetInt(rid, fid)
		if err != nil {
			continue
		}
		if _, dup := m[v]; !dup {
			m[v] = rid
		}
	}
	x.fields[k] = m
	return m
}
