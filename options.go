package memdb

import (
	"log/slog"
	"time"

	"github.com/andreyvit/memdb/keyenc"
)

// IndexEncoding maps value tuples to strings whose byte-wise order matches
// tuple order. The sentinels pad open range bounds.
type IndexEncoding interface {
	Encode(tuple []any) (string, error)
	LowerSentinel() any
	UpperSentinel() any
}

type Options struct {
	Logger  *slog.Logger
	Verbose bool

	// Now is the clock used by cleanup. Defaults to time.Now.
	Now func() time.Time

	Encoding    IndexEncoding
	Categorizer Categorizer

	BTreeDegree       int
	DefaultCleanupAge time.Duration
}

func (opt Options) withDefaults() Options {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.Encoding == nil {
		opt.Encoding = keyenc.Encoding{}
	}
	if opt.Categorizer == nil {
		opt.Categorizer = RevisionCategorizer{}
	}
	if opt.BTreeDegree == 0 {
		opt.BTreeDegree = defaultBTreeDegree
	}
	return opt
}
