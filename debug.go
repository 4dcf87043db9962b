package memdb

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/andreyvit/memdb/keyenc"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpStats
	DumpDocuments
	DumpIndexes
	DumpIndexEntries

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var (
	dumpSep1 = strings.Repeat("=", 80)
	dumpSep2 = strings.Repeat("-", 60)
)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the collection for debugging and tests. Documents are listed
// by primary key, index entries in index order.
func (c *Collection) Dump(f DumpFlags) string {
	cs := c.state
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	var w strings.Builder
	prefix := cs.key
	if f.Contains(DumpHeader) {
		fmt.Fprintln(&w, dumpSep1)
		fmt.Fprintf(&w, "%s (%d docs)\n", prefix, len(cs.docs))
	}
	if f.Contains(DumpStats) {
		s := cs.stats()
		fmt.Fprintf(&w, "%s.stats: tombstones = %d, indexes = %d, index_entries = %d\n", prefix, s.Tombstones, s.Indexes, s.IndexEntries)
	}
	if f.Contains(DumpDocuments) {
		ids := make([]string, 0, len(cs.docs))
		for id := range cs.docs {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for i, id := range ids {
			rec := cs.docs[id]
			fmt.Fprintf(&w, "%s.%d = (s%d) %s\n", prefix, i+1, rec.seq, loggableDoc(rec.doc))
		}
	}
	if f.Contains(DumpIndexes) {
		for _, idx := range cs.indexes {
			fmt.Fprintln(&w, dumpSep2)
			iprefix := prefix + ".i." + idx.name
			fmt.Fprintf(&w, "%s (%d entries)\n", iprefix, idx.Len())
			if f.Contains(DumpIndexEntries) {
				var pos int
				idx.tree.Ascend(func(e indexEntry) bool {
					pos++
					fmt.Fprintf(&w, "%s.%d: %s => %s\n", iprefix, pos, cs.keyString(e.key), e.id)
					return true
				})
			}
		}
	}
	return w.String()
}

func (cs *collectionState) keyString(key string) string {
	if _, ok := cs.enc.(keyenc.Encoding); ok {
		if tup, err := keyenc.Decode(key); err == nil {
			return fmt.Sprint(tup)
		}
	}
	return hexstr(key)
}

func loggableDoc(doc Document) string {
	if doc == nil {
		return "<none>"
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Sprintf("** %v", err)
	}
	return string(raw)
}

func hexstr(s string) string {
	if s == "" {
		return "<empty>"
	}
	return hex.EncodeToString([]byte(s))
}
