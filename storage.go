package memdb

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Storage is a registry of in-memory collections. Handles opened on the same
// database and collection name share one state until it is removed or its
// last handle is closed.
type Storage struct {
	opt         Options
	logger      *slog.Logger
	collections *xsync.MapOf[string, *collectionState]
}

func New(opt Options) *Storage {
	opt = opt.withDefaults()
	return &Storage{
		opt:         opt,
		logger:      opt.Logger,
		collections: xsync.NewMapOf[string, *collectionState](),
	}
}

func collectionKey(database, collection string) string {
	return database + "--memory--" + collection
}

// Open returns a new handle on the named collection, creating its state if
// nobody holds it. The schema is only used on creation.
func (s *Storage) Open(database, collection string, schema *Schema) (*Collection, error) {
	if err := schema.validate(); err != nil {
		return nil, &CollectionError{database, collection, "open", err}
	}

	var created bool
	cs, _ := s.collections.Compute(collectionKey(database, collection), func(cur *collectionState, loaded bool) (*collectionState, bool) {
		if !loaded {
			cur = newCollectionState(database, collection, schema, s.opt)
			created = true
		}
		cur.refs.Add(1)
		return cur, false
	})
	if cs.primaryKey != schema.PrimaryKey {
		s.release(cs)
		return nil, &CollectionError{database, collection, "open", fmt.Errorf("%w: primary key %q does not match open collection's %q", ErrInvalidSchema, schema.PrimaryKey, cs.primaryKey)}
	}

	c := &Collection{
		ID:          uuid.New(),
		storage:     s,
		state:       cs,
		schema:      schema,
		broadcaster: newBroadcaster(),
	}
	OpenHandles.Inc()
	s.logger.Debug("memdb: open", "collection", cs.key, "handle", c.ID, "created", created, "refs", cs.refs.Load())
	return c, nil
}

// release drops one reference and evicts the state when none remain, unless
// the registry no longer maps the key to this state.
func (s *Storage) release(cs *collectionState) {
	s.collections.Compute(cs.key, func(cur *collectionState, loaded bool) (*collectionState, bool) {
		if cs.refs.Add(-1) > 0 || !loaded || cur != cs {
			return cur, !loaded
		}
		s.logger.Debug("memdb: evict", "collection", cs.key)
		return nil, true
	})
}

// evict unregisters cs if it is still the registered state for its key.
func (s *Storage) evict(cs *collectionState) {
	s.collections.Compute(cs.key, func(cur *collectionState, loaded bool) (*collectionState, bool) {
		if !loaded || cur != cs {
			return cur, !loaded
		}
		s.logger.Debug("memdb: evict", "collection", cs.key)
		return nil, true
	})
}

// Collections returns the number of registered collection states.
func (s *Storage) Collections() int {
	return s.collections.Size()
}

// IsOpen reports whether a state for the named collection is registered.
func (s *Storage) IsOpen(database, collection string) bool {
	_, ok := s.collections.Load(collectionKey(database, collection))
	return ok
}
