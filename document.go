package memdb

import (
	"fmt"
	"math"
	"strings"
)

// Reserved document fields.
const (
	FieldDeleted     = "_deleted"
	FieldLWT         = "_meta.lwt"
	FieldRev         = "_rev"
	FieldAttachments = "_attachments"
	FieldMeta        = "_meta"
)

// Document is a JSON-like record. Nested objects are map[string]any.
type Document map[string]any

// Get resolves a dotted field path, returning nil for missing fields.
func (doc Document) Get(path string) any {
	return lookupPath(doc, strings.Split(path, "."))
}

func (doc Document) Deleted() bool {
	v, _ := doc[FieldDeleted].(bool)
	return v
}

// LWT returns the last-write time in milliseconds since the epoch.
func (doc Document) LWT() float64 {
	if f, ok := toFloat(doc.Get(FieldLWT)); ok {
		return f
	}
	return 0
}

// checkReserved rejects documents whose _deleted is not a bool or whose
// _meta.lwt is not a number. A missing _deleted is allowed.
func (doc Document) checkReserved() error {
	if v, ok := doc[FieldDeleted]; ok {
		if _, isBool := v.(bool); !isBool {
			return fmt.Errorf("%w: %s must be a bool, got %T", ErrInvalidDocument, FieldDeleted, v)
		}
	}
	lwt := doc.Get(FieldLWT)
	if f, ok := toFloat(lwt); !ok || math.IsNaN(f) {
		return fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidDocument, FieldLWT, lwt)
	}
	return nil
}

func (doc Document) Rev() string {
	v, _ := doc[FieldRev].(string)
	return v
}

func (doc Document) HasAttachments() bool {
	switch v := doc[FieldAttachments].(type) {
	case nil:
		return false
	case map[string]any:
		return len(v) > 0
	case Document:
		return len(v) > 0
	default:
		return true
	}
}

// Clone returns a shallow copy.
func (doc Document) Clone() Document {
	if doc == nil {
		return nil
	}
	result := make(Document, len(doc))
	for k, v := range doc {
		result[k] = v
	}
	return result
}

// WithLWT returns a shallow copy with _meta.lwt set to the given time.
func (doc Document) WithLWT(ms float64) Document {
	result := doc.Clone()
	meta := make(map[string]any)
	switch old := doc[FieldMeta].(type) {
	case map[string]any:
		for k, v := range old {
			meta[k] = v
		}
	case Document:
		for k, v := range old {
			meta[k] = v
		}
	}
	meta["lwt"] = ms
	result[FieldMeta] = meta
	return result
}

type fieldAccessor func(doc Document) any

func makeAccessor(path string) fieldAccessor {
	segs := strings.Split(path, ".")
	if len(segs) == 1 {
		return func(doc Document) any {
			return doc[path]
		}
	}
	return func(doc Document) any {
		return lookupPath(doc, segs)
	}
}

func lookupPath(doc Document, segs []string) any {
	var cur any = map[string]any(doc)
	for _, seg := range segs {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[seg]
		case Document:
			cur = m[seg]
		default:
			return nil
		}
	}
	return cur
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	default:
		return math.NaN(), false
	}
}
