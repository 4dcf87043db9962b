package memdb

type CollectionStats struct {
	Documents    int
	Tombstones   int
	Indexes      int
	IndexEntries int
}

// Live returns the number of non-deleted documents.
func (s *CollectionStats) Live() int {
	return s.Documents - s.Tombstones
}

func (c *Collection) Stats() (CollectionStats, error) {
	if err := c.check("stats"); err != nil {
		return CollectionStats{}, err
	}
	cs := c.state
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return cs.stats(), nil
}

func (cs *collectionState) stats() CollectionStats {
	s := CollectionStats{
		Documents: len(cs.docs),
		Indexes:   len(cs.indexes),
	}
	for _, rec := range cs.docs {
		if rec.doc.Deleted() {
			s.Tombstones++
		}
	}
	for _, idx := range cs.indexes {
		s.IndexEntries += idx.Len()
	}
	return s
}
