package memdb

// FindByIDs returns the stored documents for the given ids. Tombstones are
// included only if withDeleted is set.
func (c *Collection) FindByIDs(ids []string, withDeleted bool) (map[string]Document, error) {
	if err := c.check("findByIDs"); err != nil {
		return nil, err
	}
	cs := c.state
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if err := cs.usable(); err != nil {
		return nil, c.errorf("findByIDs", err)
	}

	result := make(map[string]Document, len(ids))
	for _, id := range ids {
		doc := cs.get(id)
		if doc != nil && (withDeleted || !doc.Deleted()) {
			result[id] = doc
		}
	}
	return result, nil
}

// AttachmentData always fails: attachments are not stored.
func (c *Collection) AttachmentData(docID, attachmentID string) (string, error) {
	if err := c.check("attachmentData"); err != nil {
		return "", err
	}
	return "", c.errorf("attachmentData", ErrUnsupportedOperation)
}
