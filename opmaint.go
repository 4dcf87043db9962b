package memdb

// Verify checks that the document map and every index agree.
func (c *Collection) Verify() error {
	if err := c.check("verify"); err != nil {
		return err
	}
	cs := c.state
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if err := cs.usable(); err != nil {
		return c.errorf("verify", err)
	}
	return c.errorf("verify", cs.verify())
}
