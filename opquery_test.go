package memdb

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuery_Ranges(t *testing.T) {
	c := setup(t, peopleSchema)
	insert(t, c,
		person("a", 10, "ann", 1),
		person("b", 20, "bob", 2),
		person("c", 20, "cid", 3),
		person("d", 30, "dan", 4),
		person("e", 40, "eve", 5),
	)
	update(t, c, tombstone(person("e", 40, "eve", 5), 6))

	byAge := []string{"age", "id"}
	sorted := []SortField{{Field: "age"}, {Field: "id"}}

	o := func(name string, plan QueryPlan, exp ...string) {
		t.Run(name, func(t *testing.T) {
			if plan.Index == nil {
				plan.Index = byAge
			}
			if plan.Sort == nil {
				plan.Sort = sorted
			}
			got := must(c.Query(plan))
			if exp == nil {
				exp = []string{}
			}
			deepEqual(t, ids(got), exp)
		})
	}

	o("full", QueryPlan{}, "a", "b", "c", "d")
	o("lower inc", QueryPlan{Lower: []any{20}}, "b", "c", "d")
	o("lower exc", QueryPlan{Lower: []any{20}, LowerExclusive: true}, "d")
	o("upper inc", QueryPlan{Upper: []any{20}}, "a", "b", "c")
	o("upper exc", QueryPlan{Upper: []any{20}, UpperExclusive: true}, "a")
	o("both", QueryPlan{Lower: []any{15}, Upper: []any{30}}, "b", "c", "d")
	o("exact", QueryPlan{Lower: []any{20}, Upper: []any{20}}, "b", "c")
	o("full tuple exc", QueryPlan{Lower: []any{20, "b"}, LowerExclusive: true, Upper: []any{30, "d"}, UpperExclusive: true}, "c")
	o("empty", QueryPlan{Lower: []any{31}, Upper: []any{39}})
	o("tombstone hidden", QueryPlan{Lower: []any{40}})
	o("limit", QueryPlan{Limit: 2}, "a", "b")
	o("skip limit", QueryPlan{Skip: 1, Limit: 2}, "b", "c")
	o("skip past end", QueryPlan{Skip: 10})
	o("desc", QueryPlan{Sort: []SortField{{Field: "age", Desc: true}, {Field: "id", Desc: true}}, Limit: 3}, "d", "c", "b")
	o("matcher", QueryPlan{Matcher: MatcherFunc(func(d Document) bool { return strings.Contains(d["name"].(string), "n") })}, "a", "d")
	o("matcher limit", QueryPlan{Limit: 1, Matcher: MatcherFunc(func(d Document) bool { return d["age"] == 20.0 })}, "b")
	o("by name", QueryPlan{Index: []string{"name", "age", "id"}, Lower: []any{"c"}}, "c", "d")
	o("primary", QueryPlan{Index: []string{"id"}, Lower: []any{"c"}, Sort: []SortField{{Field: "id"}}}, "c", "d")
	o("comparator", QueryPlan{
		Index:      []string{"id"},
		Comparator: ComparatorFunc(func(a, b Document) int { return strings.Compare(b["name"].(string), a["name"].(string)) }),
	}, "d", "c", "b", "a")
}

func TestQuery_Errors(t *testing.T) {
	c := setup(t, peopleSchema)

	_, err := c.Query(QueryPlan{Index: []string{"nope"}})
	require.ErrorIs(t, err, ErrUnknownIndex)
	var ce *CollectionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "query", ce.Op)

	_, err = c.Query(QueryPlan{Index: []string{"id"}, Lower: []any{"a", "b"}})
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = c.Query(QueryPlan{Index: []string{"id"}, Lower: []any{struct{}{}}})
	require.ErrorIs(t, err, ErrInvalidQuery)

	_, err = c.Query(QueryPlan{Index: []string{"id"}, Limit: -1})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQuery_NestedFields(t *testing.T) {
	c := setup(t, &Schema{PrimaryKey: "id", Indexes: [][]string{{"addr.city", "id"}}})
	insert(t, c,
		Document{"id": "1", "addr": map[string]any{"city": "Paris"}, "_meta": map[string]any{"lwt": 1}},
		Document{"id": "2", "addr": map[string]any{"city": "Berlin"}, "_meta": map[string]any{"lwt": 1}},
		Document{"id": "3", "_meta": map[string]any{"lwt": 1}},
	)
	got := must(c.Query(QueryPlan{Index: []string{"addr.city", "id"}, Sort: []SortField{{Field: "addr.city"}, {Field: "id"}}}))
	deepEqual(t, ids(got), []string{"3", "2", "1"})
}

type ageQuery struct {
	MinAge, MaxAge int
}

type agePlanner struct{}

func (agePlanner) Resolve(q ageQuery) (QueryPlan, error) {
	if q.MinAge > q.MaxAge {
		return QueryPlan{}, fmt.Errorf("min %d > max %d", q.MinAge, q.MaxAge)
	}
	return QueryPlan{
		Index: []string{"age", "id"},
		Lower: []any{q.MinAge},
		Upper: []any{q.MaxAge},
		Sort:  []SortField{{Field: "age"}, {Field: "id"}},
	}, nil
}

func TestFind(t *testing.T) {
	c := setup(t, peopleSchema)
	insert(t, c, person("a", 10, "ann", 1), person("b", 20, "bob", 2))

	deepEqual(t, ids(must(Find[ageQuery](c, agePlanner{}, ageQuery{15, 25}))), []string{"b"})

	_, err := Find[ageQuery](c, agePlanner{}, ageQuery{3, 1})
	require.ErrorIs(t, err, ErrInvalidQuery)
}

func TestProperty_QueryIndependentOfIndexChoice(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	names := []string{"ann", "bob", "cid"}
	byAge := &Schema{PrimaryKey: "id", Indexes: [][]string{{"age", "id"}}}
	byName := &Schema{PrimaryKey: "id", Indexes: [][]string{{"name", "age", "id"}}}

	properties.Property("age range queries agree across index configurations", prop.ForAll(
		func(ages []int, lo, hi, skip, limit int, desc bool) bool {
			s := New(testOptions())
			c1 := must(s.Open("prop", "by_age", byAge))
			c2 := must(s.Open("prop", "by_name", byName))
			defer c1.Close()
			defer c2.Close()

			var expected []Document
			var rows []WriteRow
			for i, age := range ages {
				doc := person(fmt.Sprintf("d%03d", i), float64(age), names[i%len(names)], float64(i))
				if i%5 == 4 {
					doc[FieldDeleted] = true
				} else if age >= lo && age <= hi {
					expected = append(expected, doc)
				}
				rows = append(rows, WriteRow{Document: doc})
			}
			must(c1.BulkWrite(rows, ""))
			must(c2.BulkWrite(rows, ""))

			sort := []SortField{{Field: "age", Desc: desc}, {Field: "id", Desc: desc}}
			slices.SortFunc(expected, func(a, b Document) int {
				r := a["age"].(float64) - b["age"].(float64)
				if r == 0 {
					r = float64(strings.Compare(a["id"].(string), b["id"].(string)))
				}
				if desc {
					r = -r
				}
				switch {
				case r < 0:
					return -1
				case r > 0:
					return 1
				}
				return 0
			})
			if skip < len(expected) {
				expected = expected[skip:]
			} else {
				expected = nil
			}
			if limit > 0 && limit < len(expected) {
				expected = expected[:limit]
			}

			viaAge := must(c1.Query(QueryPlan{
				Index: []string{"age", "id"},
				Lower: []any{lo},
				Upper: []any{hi},
				Skip:  skip,
				Limit: limit,
				Sort:  sort,
			}))
			viaName := must(c2.Query(QueryPlan{
				Index: []string{"name", "age", "id"},
				Skip:  skip,
				Limit: limit,
				Sort:  sort,
				Matcher: MatcherFunc(func(d Document) bool {
					age := d["age"].(float64)
					return age >= float64(lo) && age <= float64(hi)
				}),
			}))
			return slices.Equal(ids(viaAge), ids(expected)) && slices.Equal(ids(viaName), ids(expected))
		},
		gen.SliceOf(gen.IntRange(0, 20)),
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
		gen.IntRange(0, 5),
		gen.IntRange(0, 5),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
