package memdb

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCollectionRemoved    = errors.New("collection removed")
	ErrAlreadyClosed        = errors.New("collection handle already closed")
	ErrClosed               = errors.New("closed")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrUnknownIndex         = errors.New("unknown index")
	ErrInvalidDocument      = errors.New("invalid document")
	ErrInvalidSchema        = errors.New("invalid schema")
	ErrInvalidQuery         = errors.New("invalid query plan")
)

// Write error statuses, following HTTP conventions.
const (
	StatusConflict    = 409
	StatusInvalid     = 422
	StatusUnsupported = 510
)

// WriteError describes why a single row of a bulk write was not applied.
type WriteError struct {
	Status       int
	DocumentID   string
	Row          WriteRow
	DocumentInDB Document
	Msg          string
	Err          error
}

func writeErrf(status int, id string, row WriteRow, inDB Document, err error, format string, args ...any) *WriteError {
	return &WriteError{status, id, row, inDB, fmt.Sprintf(format, args...), err}
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%d %s", e.Status, e.DocumentID)
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// IndexCorruptionError reports an index that disagrees with the document map.
// A collection that hit one refuses all further reads and writes.
type IndexCorruptionError struct {
	Collection string
	Index      string
	DocumentID string
	Msg        string
}

func indexCorruptionErrf(coll, index, id string, format string, args ...any) *IndexCorruptionError {
	return &IndexCorruptionError{coll, index, id, fmt.Sprintf(format, args...)}
}

func (e *IndexCorruptionError) Error() string {
	return fmt.Sprintf("index corruption in %s.%s at %q: %s", e.Collection, e.Index, e.DocumentID, e.Msg)
}

// CollectionError wraps every error returned by a Collection handle.
type CollectionError struct {
	Database   string
	Collection string
	Op         string
	Err        error
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("memdb: %s/%s: %s: %v", e.Database, e.Collection, e.Op, e.Err)
}
