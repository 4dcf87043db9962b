package memdb

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangedSince(t *testing.T) {
	c := setup(t, peopleSchema)
	insert(t, c,
		person("b", 1, "bob", 10),
		person("a", 1, "ann", 10),
		person("c", 1, "cid", 5),
	)
	update(t, c, tombstone(person("c", 1, "cid", 5), 20))

	all := must(c.ChangedSince(nil, 0))
	var got []Checkpoint
	for _, cd := range all {
		got = append(got, cd.Checkpoint)
	}
	deepEqual(t, got, []Checkpoint{{"a", 10}, {"b", 10}, {"c", 20}})
	assert.True(t, all[2].Document.Deleted())

	after := must(c.ChangedSince(&Checkpoint{ID: "a", LWT: 10}, 1))
	require.Len(t, after, 1)
	assert.Equal(t, "b", after[0].Document["id"])

	isempty(t, must(c.ChangedSince(&Checkpoint{ID: "c", LWT: 20}, 10)))

	// a checkpoint between stored positions still resumes correctly
	mid := must(c.ChangedSince(&Checkpoint{ID: "zzz", LWT: 9}, 10))
	assert.Len(t, mid, 3)
}

func TestChangedSince_PagesThroughEqualLWT(t *testing.T) {
	c := setup(t, peopleSchema)
	insert(t, c, person("a", 1, "ann", 0), person("b", 2, "bob", 0), person("c", 3, "cid", 0))

	var got []string
	var cp *Checkpoint
	for {
		page := must(c.ChangedSince(cp, 1))
		if len(page) == 0 {
			break
		}
		got = append(got, page[0].Document["id"].(string))
		cp = &page[0].Checkpoint
	}
	deepEqual(t, got, []string{"a", "b", "c"})
}

func TestProperty_ChangeFeedResumable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("paging through the feed yields every document once, in order", prop.ForAll(
		func(lwts []int, updates []int, limit int) bool {
			c := must(New(testOptions()).Open("prop", "feed", peopleSchema))
			defer c.Close()

			for i, lwt := range lwts {
				insert(t, c, person(fmt.Sprintf("d%d", i), 1, "x", float64(lwt)))
			}
			for j, u := range updates {
				if len(lwts) == 0 {
					break
				}
				id := fmt.Sprintf("d%d", u%len(lwts))
				update(t, c, person(id, 2, "y", float64(100+j)))
			}

			seen := make(map[string]bool)
			var prev *Checkpoint
			var cp *Checkpoint
			for {
				page := must(c.ChangedSince(cp, limit))
				if len(page) == 0 {
					break
				}
				if len(page) > limit {
					return false
				}
				for _, cd := range page {
					id := cd.Document["id"].(string)
					if seen[id] {
						return false
					}
					seen[id] = true
					if prev != nil && (cd.Checkpoint.LWT < prev.LWT || (cd.Checkpoint.LWT == prev.LWT && cd.Checkpoint.ID <= prev.ID)) {
						return false
					}
					cpy := cd.Checkpoint
					prev = &cpy
				}
				last := page[len(page)-1].Checkpoint
				cp = &last
			}
			return len(seen) == len(lwts)
		},
		gen.SliceOf(gen.IntRange(0, 50)),
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.IntRange(1, 4),
	))

	properties.TestingRun(t)
}
