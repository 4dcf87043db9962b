package memdb

import (
	"time"
)

// Cleanup hard-deletes tombstones whose last write is at least minAge old.
// It always completes in one pass and reports true.
func (c *Collection) Cleanup(minAge time.Duration) (done bool, err error) {
	const op = "cleanup"
	if err := c.check(op); err != nil {
		return false, err
	}
	cs := c.state
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.usable(); err != nil {
		return false, c.errorf(op, err)
	}
	defer func() {
		if err != nil {
			done = false
			err = c.errorf(op, err)
		}
	}()
	defer cs.recoverCorruption(&err)

	now := c.storage.opt.Now()
	deadline := float64(now.UnixMilli()) - float64(minAge)/float64(time.Millisecond)

	start, err := cs.enc.Encode([]any{true, cs.enc.LowerSentinel(), cs.enc.LowerSentinel()})
	if err != nil {
		return false, err
	}

	victims := victimsPool.Get().([]string)
	defer func() { victimsPool.Put(victims[:0]) }()

	cs.cleanupIndex.ascend(start, true, func(e indexEntry) bool {
		if !e.doc.Deleted() || e.doc.LWT() > deadline {
			return false
		}
		victims = append(victims, e.id)
		return true
	})
	for _, id := range victims {
		cs.removeEntirely(id)
	}

	if len(victims) > 0 {
		CleanupPurged.WithLabelValues(cs.key).Add(float64(len(victims)))
		cs.logger.Debug("memdb: CLEANUP", "purged", len(victims), "deadline", deadline)
	}
	return true, nil
}

// CleanupExpired runs Cleanup with Options.DefaultCleanupAge.
func (c *Collection) CleanupExpired() (bool, error) {
	return c.Cleanup(c.storage.opt.DefaultCleanupAge)
}
