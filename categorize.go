package memdb

// WriteRow is a single requested write. Previous is the version the writer
// based its change on, nil for inserts.
type WriteRow struct {
	Document Document
	Previous Document
}

// Categorized is the outcome of conflict detection for a batch of rows.
type Categorized struct {
	Inserts []WriteRow
	Updates []WriteRow
	Errors  []*WriteError
}

// Categorizer decides which rows of a bulk write are inserts, updates or
// conflicts, given the documents currently stored under the rows' ids.
type Categorizer interface {
	Categorize(primaryKey string, current map[string]Document, rows []WriteRow) Categorized
}

type CategorizerFunc func(primaryKey string, current map[string]Document, rows []WriteRow) Categorized

func (f CategorizerFunc) Categorize(primaryKey string, current map[string]Document, rows []WriteRow) Categorized {
	return f(primaryKey, current, rows)
}

// RevisionCategorizer detects conflicts by comparing the _rev of the row's
// previous version against the stored document.
//
// A row with no stored document is an insert. A row without Previous is
// allowed only over a tombstone. Otherwise Previous._rev must equal the stored
// _rev. A second row for the same id within one batch is a conflict.
type RevisionCategorizer struct{}

func (RevisionCategorizer) Categorize(primaryKey string, current map[string]Document, rows []WriteRow) Categorized {
	var result Categorized
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		id, _ := row.Document[primaryKey].(string)
		if seen[id] {
			result.Errors = append(result.Errors, writeErrf(StatusConflict, id, row, current[id], nil, "duplicate write in batch"))
			continue
		}
		seen[id] = true

		inDB, exists := current[id]
		switch {
		case !exists:
			result.Inserts = append(result.Inserts, row)
		case row.Previous == nil:
			if inDB.Deleted() {
				result.Updates = append(result.Updates, row)
			} else {
				result.Errors = append(result.Errors, writeErrf(StatusConflict, id, row, inDB, nil, "document already exists"))
			}
		case row.Previous.Rev() != inDB.Rev():
			result.Errors = append(result.Errors, writeErrf(StatusConflict, id, row, inDB, nil, "revision mismatch: have %q, got %q", inDB.Rev(), row.Previous.Rev()))
		default:
			result.Updates = append(result.Updates, row)
		}
	}
	return result
}
