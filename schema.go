package memdb

import (
	"fmt"
	"slices"
	"strings"
)

// Schema describes a collection: its primary key field and secondary indexes.
// Each index is an ordered list of dotted field paths.
type Schema struct {
	PrimaryKey string
	Indexes    [][]string
}

func (scm *Schema) validate() error {
	if scm == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	if scm.PrimaryKey == "" {
		return fmt.Errorf("%w: missing primary key", ErrInvalidSchema)
	}
	if strings.Contains(scm.PrimaryKey, ".") {
		return fmt.Errorf("%w: primary key %q must be a top-level field", ErrInvalidSchema, scm.PrimaryKey)
	}
	for i, fields := range scm.Indexes {
		if len(fields) == 0 {
			return fmt.Errorf("%w: index %d has no fields", ErrInvalidSchema, i)
		}
		for _, f := range fields {
			if f == "" || strings.HasPrefix(f, ".") || strings.HasSuffix(f, ".") || strings.Contains(f, "..") {
				return fmt.Errorf("%w: index %d: bad field path %q", ErrInvalidSchema, i, f)
			}
		}
	}
	return nil
}

// indexDefinitions returns the full list of indexes a collection maintains:
// schema indexes, the primary index and the cleanup index (all tombstone
// prefixed), then the change-feed index.
func (scm *Schema) indexDefinitions() [][]string {
	var defs [][]string
	add := func(fields []string) {
		for _, d := range defs {
			if slices.Equal(d, fields) {
				return
			}
		}
		defs = append(defs, fields)
	}
	for _, fields := range scm.Indexes {
		add(deletedPrefixed(fields))
	}
	add(deletedPrefixed([]string{scm.PrimaryKey}))
	add(deletedPrefixed([]string{FieldLWT, scm.PrimaryKey}))
	add([]string{FieldLWT, scm.PrimaryKey})
	return defs
}

func deletedPrefixed(fields []string) []string {
	if len(fields) > 0 && fields[0] == FieldDeleted {
		return slices.Clone(fields)
	}
	return append([]string{FieldDeleted}, fields...)
}

func indexName(fields []string) string {
	return strings.Join(fields, ",")
}
