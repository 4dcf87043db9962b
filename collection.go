package memdb

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Collection is one handle on a shared collection state. Each handle has its
// own change subscribers and is closed independently.
type Collection struct {
	ID uuid.UUID

	storage     *Storage
	state       *collectionState
	schema      *Schema
	broadcaster *broadcaster
	closed      atomic.Bool
}

func (c *Collection) Database() string {
	return c.state.database
}

func (c *Collection) Name() string {
	return c.state.collection
}

func (c *Collection) Schema() *Schema {
	return c.schema
}

func (c *Collection) errorf(op string, err error) error {
	if err == nil {
		return nil
	}
	return &CollectionError{c.state.database, c.state.collection, op, err}
}

// check fails fast on closed handles and removed collections.
func (c *Collection) check(op string) error {
	if c.closed.Load() {
		return c.errorf(op, ErrClosed)
	}
	if c.state.removed.Load() {
		return c.errorf(op, ErrCollectionRemoved)
	}
	return nil
}

// Close releases this handle and completes its change stream. The collection
// is dropped from memory when its last handle closes.
func (c *Collection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return c.errorf("close", ErrAlreadyClosed)
	}
	c.broadcaster.complete()
	c.storage.release(c.state)
	OpenHandles.Dec()
	c.storage.logger.Debug("memdb: close", "collection", c.state.key, "handle", c.ID)
	return nil
}

// Remove discards the collection for all handles and closes this one. Other
// handles keep failing with ErrCollectionRemoved until closed, and the next
// Open starts from an empty collection.
func (c *Collection) Remove() error {
	if c.closed.Load() {
		return c.errorf("remove", ErrClosed)
	}
	if !c.state.removed.CompareAndSwap(false, true) {
		return c.errorf("remove", ErrCollectionRemoved)
	}
	c.storage.evict(c.state)
	c.storage.logger.Debug("memdb: remove", "collection", c.state.key, "handle", c.ID)
	return c.Close()
}

// Changes subscribes to the event batches produced by writes through this
// handle.
func (c *Collection) Changes() (*Subscription, error) {
	if err := c.check("changes"); err != nil {
		return nil, err
	}
	return c.broadcaster.subscribe(), nil
}
