package memdb

import "fmt"

// ChangedSince returns documents, tombstones included, written after the
// checkpoint in (lwt, id) order. A nil checkpoint starts from the beginning.
// limit <= 0 returns everything.
func (c *Collection) ChangedSince(cp *Checkpoint, limit int) ([]ChangedDocument, error) {
	const op = "changedSince"
	if err := c.check(op); err != nil {
		return nil, err
	}
	cs := c.state
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if err := cs.usable(); err != nil {
		return nil, c.errorf(op, err)
	}

	var tup []any
	if cp == nil {
		tup = []any{cs.enc.LowerSentinel(), cs.enc.LowerSentinel()}
	} else {
		tup = []any{cp.LWT, cp.ID}
	}
	lower, err := cs.enc.Encode(tup)
	if err != nil {
		return nil, c.errorf(op, fmt.Errorf("%w: checkpoint: %v", ErrInvalidQuery, err))
	}

	var result []ChangedDocument
	cs.changeIndex.ascend(lower, false, func(e indexEntry) bool {
		result = append(result, ChangedDocument{
			Document:   e.doc,
			Checkpoint: checkpointOf(e.id, e.doc),
		})
		return limit <= 0 || len(result) < limit
	})
	return result, nil
}
