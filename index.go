package memdb

import (
	"math"

	"github.com/google/btree"
)

const defaultBTreeDegree = 32

// indexEntry is one position in an index. Entries order by encoded key, then
// by write sequence, so equal keys keep insertion order.
type indexEntry struct {
	key string
	seq uint64
	id  string
	doc Document
}

func lessEntry(a, b indexEntry) bool {
	if a.key != b.key {
		return a.key < b.key
	}
	return a.seq < b.seq
}

type index struct {
	pos       int
	name      string
	fields    []string
	accessors []fieldAccessor
	tree      *btree.BTreeG[indexEntry]
}

func newIndex(pos int, fields []string, degree int) *index {
	if degree < 2 {
		degree = defaultBTreeDegree
	}
	idx := &index{
		pos:       pos,
		name:      indexName(fields),
		fields:    fields,
		accessors: make([]fieldAccessor, len(fields)),
		tree:      btree.NewG[indexEntry](degree, lessEntry),
	}
	for i, f := range fields {
		idx.accessors[i] = makeAccessor(f)
	}
	return idx
}

func (idx *index) tuple(doc Document) []any {
	tup := make([]any, len(idx.accessors))
	for i, get := range idx.accessors {
		tup[i] = get(doc)
	}
	return tup
}

func (idx *index) encodeKey(enc IndexEncoding, doc Document) (string, error) {
	return enc.Encode(idx.tuple(doc))
}

// insert adds an entry and reports whether the (key, seq) slot was free.
func (idx *index) insert(e indexEntry) bool {
	_, replaced := idx.tree.ReplaceOrInsert(e)
	return !replaced
}

// remove deletes the entry at (key, seq) and reports whether it belonged to id.
func (idx *index) remove(key string, seq uint64, id string) bool {
	old, found := idx.tree.Delete(indexEntry{key: key, seq: seq})
	return found && old.id == id
}

// ascend visits entries starting at key, inclusively or exclusively, until f
// returns false.
func (idx *index) ascend(key string, inclusive bool, f func(e indexEntry) bool) {
	pivot := indexEntry{key: key}
	if !inclusive {
		// sequences never reach MaxUint64, so this skips every entry at key
		pivot.seq = math.MaxUint64
	}
	idx.tree.AscendGreaterOrEqual(pivot, f)
}

func (idx *index) Len() int {
	return idx.tree.Len()
}
