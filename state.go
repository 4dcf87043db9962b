package memdb

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// docRecord is the canonical copy of a stored document along with the index
// positions it currently occupies.
type docRecord struct {
	doc  Document
	seq  uint64
	keys []string // by index pos
}

// collectionState is shared by all handles opened on the same collection.
type collectionState struct {
	key        string
	database   string
	collection string
	primaryKey string
	enc        IndexEncoding
	logger     *slog.Logger
	verbose    bool

	mu           sync.RWMutex
	docs         map[string]*docRecord
	indexes      []*index
	indexesByKey map[string]*index
	changeIndex  *index
	cleanupIndex *index
	lastSeq      uint64
	broken       error

	removed atomic.Bool
	refs    atomic.Int32
}

func newCollectionState(database, collection string, scm *Schema, opt Options) *collectionState {
	cs := &collectionState{
		key:          collectionKey(database, collection),
		database:     database,
		collection:   collection,
		primaryKey:   scm.PrimaryKey,
		enc:          opt.Encoding,
		logger:       opt.Logger.With("collection", collectionKey(database, collection)),
		verbose:      opt.Verbose,
		docs:         make(map[string]*docRecord),
		indexesByKey: make(map[string]*index),
	}
	cs.addIndexes(scm, opt.BTreeDegree)
	return cs
}

func (cs *collectionState) addIndexes(scm *Schema, degree int) {
	for _, fields := range scm.indexDefinitions() {
		idx := newIndex(len(cs.indexes), fields, degree)
		cs.indexes = append(cs.indexes, idx)
		cs.indexesByKey[idx.name] = idx
	}
	cs.changeIndex = cs.indexesByKey[indexName([]string{FieldLWT, scm.PrimaryKey})]
	cs.cleanupIndex = cs.indexesByKey[indexName(deletedPrefixed([]string{FieldLWT, scm.PrimaryKey}))]
}

// usable must be called with mu held.
func (cs *collectionState) usable() error {
	if cs.removed.Load() {
		return ErrCollectionRemoved
	}
	return cs.broken
}

func (cs *collectionState) get(id string) Document {
	if rec := cs.docs[id]; rec != nil {
		return rec.doc
	}
	return nil
}

// encodeKeys computes the key of doc in every index.
func (cs *collectionState) encodeKeys(doc Document) ([]string, error) {
	keys := make([]string, len(cs.indexes))
	for i, idx := range cs.indexes {
		k, err := idx.encodeKey(cs.enc, doc)
		if err != nil {
			return nil, fmt.Errorf("%w: index %s: %v", ErrInvalidDocument, idx.name, err)
		}
		keys[i] = k
	}
	return keys, nil
}

// prepare freezes doc, defaults _deleted to false and computes its index keys.
func (cs *collectionState) prepare(doc Document) (Document, []string, error) {
	frozen, err := freezeDocument(doc)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := frozen[FieldDeleted]; !ok {
		frozen[FieldDeleted] = false
	}
	keys, err := cs.encodeKeys(frozen)
	if err != nil {
		return nil, nil, err
	}
	return frozen, keys, nil
}

// put stores doc under id. doc and keys must come from prepare. Each index
// gets the new entry first, then loses the stale one. Panics with
// *IndexCorruptionError if the stale entry is missing.
func (cs *collectionState) put(id string, doc Document, keys []string) {
	cs.lastSeq++
	rec := &docRecord{doc: doc, seq: cs.lastSeq, keys: keys}
	prev := cs.docs[id]
	cs.docs[id] = rec

	for i, idx := range cs.indexes {
		if !idx.insert(indexEntry{key: keys[i], seq: rec.seq, id: id, doc: doc}) {
			panic(indexCorruptionErrf(cs.key, idx.name, id, "duplicate entry at seq %d", rec.seq))
		}
		if prev != nil && !idx.remove(prev.keys[i], prev.seq, id) {
			panic(indexCorruptionErrf(cs.key, idx.name, id, "stale entry not found at seq %d", prev.seq))
		}
	}

	if cs.verbose {
		cs.logger.Debug("memdb: PUT", "id", id, "seq", rec.seq, "update", prev != nil)
	}
}

// removeEntirely drops a document from the map and every index.
func (cs *collectionState) removeEntirely(id string) {
	rec := cs.docs[id]
	if rec == nil {
		return
	}
	delete(cs.docs, id)
	for i, idx := range cs.indexes {
		if !idx.remove(rec.keys[i], rec.seq, id) {
			panic(indexCorruptionErrf(cs.key, idx.name, id, "entry not found at seq %d", rec.seq))
		}
	}
	if cs.verbose {
		cs.logger.Debug("memdb: PURGE", "id", id, "seq", rec.seq)
	}
}

// recoverCorruption turns an *IndexCorruptionError panic into a returned error
// and marks the collection broken. Must be deferred with mu held exclusively.
func (cs *collectionState) recoverCorruption(err *error) {
	e := recover()
	if e == nil {
		return
	}
	ice, ok := e.(*IndexCorruptionError)
	if !ok {
		panic(e)
	}
	cs.broken = ice
	cs.logger.Error("memdb: index corruption", "err", ice)
	IndexCorruptions.WithLabelValues(cs.key).Inc()
	*err = ice
}

// verify checks that the map and every index agree. Must be called with mu held.
func (cs *collectionState) verify() error {
	for _, idx := range cs.indexes {
		if n := idx.Len(); n != len(cs.docs) {
			return indexCorruptionErrf(cs.key, idx.name, "", "has %d entries, want %d", n, len(cs.docs))
		}
		var prev *indexEntry
		var err error
		idx.tree.Ascend(func(e indexEntry) bool {
			rec := cs.docs[e.id]
			switch {
			case rec == nil:
				err = indexCorruptionErrf(cs.key, idx.name, e.id, "entry for missing document")
			case rec.seq != e.seq || rec.keys[idx.pos] != e.key:
				err = indexCorruptionErrf(cs.key, idx.name, e.id, "entry out of date")
			case prev != nil && !lessEntry(*prev, e):
				err = indexCorruptionErrf(cs.key, idx.name, e.id, "entries out of order")
			default:
				key, encErr := idx.encodeKey(cs.enc, rec.doc)
				if encErr != nil || key != e.key {
					err = indexCorruptionErrf(cs.key, idx.name, e.id, "key does not match document")
				}
			}
			prev = &e
			return err == nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}
