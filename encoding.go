package memdb

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
)

type bytesBuilder struct {
	Buf []byte
}

func (bb *bytesBuilder) Write(b []byte) (int, error) {
	bb.Buf = append(bb.Buf, b...)
	return len(b), nil
}

func (bb *bytesBuilder) WriteByte(b byte) error {
	bb.Buf = append(bb.Buf, b)
	return nil
}

func encodeDocument(buf []byte, doc Document) ([]byte, error) {
	bb := bytesBuilder{buf}
	enc := msgpack.GetEncoder()
	enc.Reset(&bb)
	enc.SetSortMapKeys(true)
	err := enc.Encode(map[string]any(doc))
	msgpack.PutEncoder(enc)
	if err != nil {
		return buf, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return bb.Buf, nil
}

func decodeDocument(raw []byte) (Document, error) {
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	dec.UseLooseInterfaceDecoding(true)
	var m map[string]any
	err := dec.Decode(&m)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return Document(m), nil
}

// freezeDocument returns a deep copy of doc normalized to the types msgpack
// decodes into: map[string]any, []any, string, bool, int64, uint64, float64.
func freezeDocument(doc Document) (Document, error) {
	buf := valueBytesPool.Get().([]byte)
	defer func() { valueBytesPool.Put(buf[:0]) }()

	buf, err := encodeDocument(buf, doc)
	if err != nil {
		return nil, err
	}
	return decodeDocument(buf)
}

// NewRevision computes a revision string "<height>-<hash>" over the document
// content, excluding _rev and _meta.
func NewRevision(height int, doc Document) (string, error) {
	content := make(Document, len(doc))
	for k, v := range doc {
		if k == FieldRev || k == FieldMeta {
			continue
		}
		content[k] = v
	}

	buf := valueBytesPool.Get().([]byte)
	defer func() { valueBytesPool.Put(buf[:0]) }()
	buf, err := encodeDocument(buf, content)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(height) + "-" + strconv.FormatUint(xxhash.Sum64(buf), 16), nil
}

// RevisionHeight returns the numeric prefix of a revision, or 0.
func RevisionHeight(rev string) int {
	h, _, _ := strings.Cut(rev, "-")
	n, err := strconv.Atoi(h)
	if err != nil {
		return 0
	}
	return n
}
