package memdb

import (
	"strconv"

	"github.com/google/uuid"
)

// BulkWriteResult maps document ids to stored documents and rejected rows.
// Rows without a usable primary key have no id and are reported under
// "#<row index>" instead.
type BulkWriteResult struct {
	Success map[string]Document
	Error   map[string]*WriteError
}

type preparedWrite struct {
	id   string
	doc  Document
	keys []string
	prev Document
}

// BulkWrite applies rows atomically with respect to other operations on the
// collection. Rows that conflict or cannot be stored are reported in
// Result.Error and do not abort the rest. Applied rows are published as one
// EventBatch carrying context.
func (c *Collection) BulkWrite(rows []WriteRow, context string) (result *BulkWriteResult, err error) {
	const op = "bulkWrite"
	if err := c.check(op); err != nil {
		return nil, err
	}
	cs := c.state
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if err := cs.usable(); err != nil {
		return nil, c.errorf(op, err)
	}
	defer func() {
		if err != nil {
			result = nil
			err = c.errorf(op, err)
		}
	}()
	defer cs.recoverCorruption(&err)

	result = &BulkWriteResult{
		Success: make(map[string]Document),
		Error:   make(map[string]*WriteError),
	}
	fail := func(we *WriteError) {
		result.Error[we.DocumentID] = we
	}

	current := make(map[string]Document, len(rows))
	valid := make([]WriteRow, 0, len(rows))
	for i, row := range rows {
		id, _ := row.Document[cs.primaryKey].(string)
		if id == "" {
			we := writeErrf(StatusInvalid, id, row, nil, ErrInvalidDocument, "primary key %q must be a non-empty string", cs.primaryKey)
			result.Error[rowKey(i)] = we
			continue
		}
		if row.Document.HasAttachments() {
			fail(writeErrf(StatusUnsupported, id, row, cs.get(id), ErrUnsupportedOperation, "attachments are not supported"))
			continue
		}
		if err := row.Document.checkReserved(); err != nil {
			fail(writeErrf(StatusInvalid, id, row, cs.get(id), err, "invalid reserved field"))
			continue
		}
		if doc := cs.get(id); doc != nil {
			current[id] = doc
		}
		valid = append(valid, row)
	}

	cat := c.storage.opt.Categorizer.Categorize(cs.primaryKey, current, valid)
	for _, we := range cat.Errors {
		fail(we)
	}

	prepared := make([]preparedWrite, 0, len(cat.Inserts)+len(cat.Updates))
	prepare := func(rows []WriteRow) {
		for _, row := range rows {
			id, _ := row.Document[cs.primaryKey].(string)
			doc, keys, err := cs.prepare(row.Document)
			if err != nil {
				fail(writeErrf(StatusInvalid, id, row, current[id], err, "cannot store document"))
				continue
			}
			prepared = append(prepared, preparedWrite{id, doc, keys, current[id]})
		}
	}
	prepare(cat.Inserts)
	prepare(cat.Updates)

	var events []ChangeEvent
	for _, w := range prepared {
		cs.put(w.id, w.doc, w.keys)
		result.Success[w.id] = w.doc
		events = append(events, ChangeEvent{
			Op:         changeOp(w.doc, w.prev),
			DocumentID: w.id,
			Document:   w.doc,
			Previous:   w.prev,
		})
	}

	BulkWriteRows.WithLabelValues(cs.key, "success").Add(float64(len(result.Success)))
	BulkWriteRows.WithLabelValues(cs.key, "error").Add(float64(len(result.Error)))

	if len(events) > 0 {
		last := events[len(events)-1]
		c.broadcaster.publish(&EventBatch{
			ID:         uuid.NewString(),
			Events:     events,
			Checkpoint: checkpointOf(last.DocumentID, last.Document),
			Context:    context,
		})
		ChangeBatches.WithLabelValues(cs.key).Inc()
	}
	return result, nil
}

func rowKey(i int) string {
	return "#" + strconv.Itoa(i)
}
