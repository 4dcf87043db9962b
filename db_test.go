package memdb

import (
	"io"
	"log/slog"
	"reflect"
	"testing"
	"time"
)

var peopleSchema = &Schema{
	PrimaryKey: "id",
	Indexes: [][]string{
		{"age", "id"},
		{"name", "age", "id"},
	},
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// testClock is a settable Options.Now.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func testOptions() Options {
	return Options{
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Verbose: true,
	}
}

func setup(t testing.TB, schema *Schema) *Collection {
	t.Helper()
	return setupWith(t, schema, testOptions())
}

func setupWith(t testing.TB, schema *Schema, opt Options) *Collection {
	t.Helper()
	s := New(opt)
	c := must(s.Open("testdb", t.Name(), schema))
	t.Cleanup(func() {
		if !c.closed.Load() {
			ensure(c.Close())
		}
	})
	return c
}

func person(id string, age float64, name string, lwt float64) Document {
	return Document{
		"id":    id,
		"age":   age,
		"name":  name,
		"_rev":  "1-" + id,
		"_meta": map[string]any{"lwt": lwt},
	}
}

func tombstone(doc Document, lwt float64) Document {
	d := doc.WithLWT(lwt)
	d[FieldDeleted] = true
	d[FieldRev] = "2-" + doc["id"].(string)
	return d
}

// insert writes docs as fresh inserts and fails the test on any row error.
func insert(t testing.TB, c *Collection, docs ...Document) {
	t.Helper()
	rows := make([]WriteRow, len(docs))
	for i, d := range docs {
		rows[i] = WriteRow{Document: d}
	}
	res := must(c.BulkWrite(rows, ""))
	if len(res.Error) > 0 {
		t.Fatalf("** insert errors: %v", res.Error)
	}
}

// update writes doc over the currently stored version.
func update(t testing.TB, c *Collection, doc Document) {
	t.Helper()
	id := doc["id"].(string)
	cur := must(c.FindByIDs([]string{id}, true))[id]
	if cur == nil {
		t.Fatalf("** update: %s not found", id)
	}
	res := must(c.BulkWrite([]WriteRow{{Document: doc, Previous: cur}}, ""))
	if len(res.Error) > 0 {
		t.Fatalf("** update errors: %v", res.Error)
	}
}

func ids(docs []Document) []string {
	result := make([]string, len(docs))
	for i, d := range docs {
		result[i] = d["id"].(string)
	}
	return result
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isempty[T any, S ~[]T](t testing.TB, a S) {
	if len(a) > 0 {
		t.Helper()
		t.Errorf("** got %v, wanted empty slice", a)
	}
}

func isnil[T any, P ~*T](t testing.TB, a P) {
	if a != nil {
		t.Helper()
		t.Errorf("** got &%v, wanted nil", *a)
	}
}

func isnonnil[T any](t testing.TB, a *T) {
	if a == nil {
		t.Helper()
		t.Errorf("** got nil %T, wanted non-nil", a)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func ensure(err error) {
	if err != nil {
		panic(err)
	}
}
