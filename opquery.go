package memdb

import (
	"fmt"
	"slices"
	"strings"
)

type Matcher interface {
	Match(doc Document) bool
}

type MatcherFunc func(doc Document) bool

func (f MatcherFunc) Match(doc Document) bool { return f(doc) }

type Comparator interface {
	Compare(a, b Document) int
}

type ComparatorFunc func(a, b Document) int

func (f ComparatorFunc) Compare(a, b Document) int { return f(a, b) }

type SortField struct {
	Field string
	Desc  bool
}

// QueryPlan is a resolved query: a range over one index plus the in-memory
// filter, order and window to apply to it. Lower and Upper may be shorter
// than Index; missing trailing values match anything.
type QueryPlan struct {
	Index          []string
	Lower          []any
	Upper          []any
	LowerExclusive bool
	UpperExclusive bool

	Skip  int
	Limit int // 0 means no limit

	Sort       []SortField
	Matcher    Matcher
	Comparator Comparator
}

func (plan *QueryPlan) String() string {
	var buf strings.Builder
	buf.WriteString(indexName(plan.Index))
	if plan.LowerExclusive {
		buf.WriteString(" (")
	} else {
		buf.WriteString(" [")
	}
	fmt.Fprintf(&buf, "%v .. %v", plan.Lower, plan.Upper)
	if plan.UpperExclusive {
		buf.WriteString(")")
	} else {
		buf.WriteString("]")
	}
	if plan.Skip > 0 || plan.Limit > 0 {
		fmt.Fprintf(&buf, " skip %d limit %d", plan.Skip, plan.Limit)
	}
	return buf.String()
}

// QueryPlanner turns a caller-level query into a QueryPlan.
type QueryPlanner[Q any] interface {
	Resolve(q Q) (QueryPlan, error)
}

// Find resolves q through planner and runs the resulting plan.
func Find[Q any](c *Collection, planner QueryPlanner[Q], q Q) ([]Document, error) {
	plan, err := planner.Resolve(q)
	if err != nil {
		return nil, c.errorf("query", fmt.Errorf("%w: %v", ErrInvalidQuery, err))
	}
	return c.Query(plan)
}

// Query returns the live documents within the plan's index range that pass
// the matcher, ordered by the plan's sort and windowed by skip and limit.
func (c *Collection) Query(plan QueryPlan) ([]Document, error) {
	const op = "query"
	if err := c.check(op); err != nil {
		return nil, err
	}
	if plan.Skip < 0 || plan.Limit < 0 {
		return nil, c.errorf(op, fmt.Errorf("%w: negative skip or limit", ErrInvalidQuery))
	}

	cs := c.state
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if err := cs.usable(); err != nil {
		return nil, c.errorf(op, err)
	}

	fields := deletedPrefixed(plan.Index)
	idx := cs.indexesByKey[indexName(fields)]
	if idx == nil {
		return nil, c.errorf(op, fmt.Errorf("%w: %s", ErrUnknownIndex, indexName(fields)))
	}
	if len(plan.Lower) > len(plan.Index) || len(plan.Upper) > len(plan.Index) {
		return nil, c.errorf(op, fmt.Errorf("%w: bounds longer than index %s", ErrInvalidQuery, idx.name))
	}

	lower, err := cs.encodeBound(idx, plan.Lower, !plan.LowerExclusive)
	if err != nil {
		return nil, c.errorf(op, err)
	}
	upper, err := cs.encodeBound(idx, plan.Upper, plan.UpperExclusive)
	if err != nil {
		return nil, c.errorf(op, err)
	}

	mustResort := !sortFollowsIndex(plan.Index, plan.Sort)
	want := plan.Skip + plan.Limit

	var rows []Document
	var scanned int
	idx.ascend(lower, !plan.LowerExclusive, func(e indexEntry) bool {
		if e.key > upper || (plan.UpperExclusive && e.key == upper) {
			return false
		}
		scanned++
		if plan.Matcher == nil || plan.Matcher.Match(e.doc) {
			rows = append(rows, e.doc)
		}
		return mustResort || plan.Limit == 0 || len(rows) < want
	})

	QueryCount.WithLabelValues(cs.key, idx.name).Inc()
	QueryScannedEntries.WithLabelValues(cs.key).Observe(float64(scanned))

	if mustResort {
		cmp := plan.Comparator
		if cmp == nil {
			cmp = cs.fieldComparator(plan.Sort)
		}
		slices.SortStableFunc(rows, cmp.Compare)
	}

	if plan.Skip >= len(rows) {
		return []Document{}, nil
	}
	rows = rows[plan.Skip:]
	if plan.Limit > 0 && plan.Limit < len(rows) {
		rows = rows[:plan.Limit]
	}
	return rows, nil
}

// encodeBound prepends the not-deleted marker and pads the bound to the index
// width with the lower sentinel if low is set, the upper one otherwise.
func (cs *collectionState) encodeBound(idx *index, bound []any, low bool) (string, error) {
	pad := cs.enc.UpperSentinel()
	if low {
		pad = cs.enc.LowerSentinel()
	}
	tup := make([]any, 0, len(idx.fields))
	tup = append(tup, false)
	tup = append(tup, bound...)
	for len(tup) < len(idx.fields) {
		tup = append(tup, pad)
	}
	key, err := cs.enc.Encode(tup)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return key, nil
}

// sortFollowsIndex reports whether the index's natural order already is the
// requested order, so the scan may stop early.
func sortFollowsIndex(index []string, sort []SortField) bool {
	if len(sort) != len(index) {
		return false
	}
	for i, sf := range sort {
		if sf.Desc || sf.Field != index[i] {
			return false
		}
	}
	return true
}

// fieldComparator orders documents by the sort fields using the collection's
// index encoding, falling back to the primary key.
func (cs *collectionState) fieldComparator(sort []SortField) Comparator {
	accessors := make([]fieldAccessor, len(sort))
	for i, sf := range sort {
		accessors[i] = makeAccessor(sf.Field)
	}
	return ComparatorFunc(func(a, b Document) int {
		for i, get := range accessors {
			r := cs.compareValues(get(a), get(b))
			if sort[i].Desc {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return strings.Compare(a[cs.primaryKey].(string), b[cs.primaryKey].(string))
	})
}

func (cs *collectionState) compareValues(a, b any) int {
	ka, erra := cs.enc.Encode([]any{a})
	kb, errb := cs.enc.Encode([]any{b})
	switch {
	case erra != nil && errb != nil:
		return 0
	case erra != nil:
		return 1
	case errb != nil:
		return -1
	default:
		return strings.Compare(ka, kb)
	}
}
