// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package storage

import (
	"fmt"
	"math"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/alignsearch/core"
)

// EmbeddingHeader describes a stored embedding. Rows are stored separately in
// chunks of at most ChunkRows rows.
type EmbeddingHeader struct {
	Name          string
	Dim           int
	Rows          int
	ChunkRows     int
	HasUnmodified bool
}

// Chunks returns the number of row chunks of the embedding.
func (h EmbeddingHeader) Chunks() int {
	if h.ChunkRows <= 0 {
		return 0
	}
	return (h.Rows + h.ChunkRows - 1) / h.ChunkRows
}

// EmbeddingChunk is a run of consecutive embedding rows.
// Vectors and Unmodified are row-major; Unmodified is empty when the
// embedding carries no pre-normalization table.
type EmbeddingChunk struct {
	Words      []string
	Vectors    []float32
	Unmodified []float32
}

// encoder appends mus-go encoded values to a buffer.
type encoder struct {
	buf []byte
}

func (e *encoder) grow(n int) []byte {
	at := len(e.buf)
	if cap(e.buf)-at < n {
		nb := make([]byte, at, 2*cap(e.buf)+n)
		copy(nb, e.buf)
		e.buf = nb
	}
	e.buf = e.buf[:at+n]
	return e.buf[at:]
}

func (e *encoder) uint(v uint64) {
	varint.Uint64.Marshal(v, e.grow(varint.Uint64.Size(v)))
}

func (e *encoder) int(v int) {
	varint.Int.Marshal(v, e.grow(varint.Int.Size(v)))
}

func (e *encoder) bool(v bool) {
	if v {
		e.uint(1)
	} else {
		e.uint(0)
	}
}

func (e *encoder) string(s string) {
	ord.String.Marshal(s, e.grow(ord.String.Size(s)))
}

func (e *encoder) strings(ss []string) {
	e.int(len(ss))
	for _, s := range ss {
		e.string(s)
	}
}

func (e *encoder) floats(fs []float32) {
	e.int(len(fs))
	for _, f := range fs {
		b := math.Float32bits(f)
		varint.Uint32.Marshal(b, e.grow(varint.Uint32.Size(b)))
	}
}

// decoder reads mus-go encoded values. The first failure sticks; later reads
// return zero values.
type decoder struct {
	data []byte
	err  error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (d *decoder) uint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.data)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(d.data)
	if err != nil {
		d.fail(err)
		return 0
	}
	d.data = d.data[n:]
	return v
}

// length reads a collection length. Every element takes at least one byte,
// so a length beyond the remaining input means the record was cut short.
func (d *decoder) length() int {
	n := d.int()
	if d.err != nil {
		return 0
	}
	if n < 0 || n > len(d.data) {
		d.fail(fmt.Errorf("%w: length %d with %d bytes left", ErrTruncatedData, n, len(d.data)))
		return 0
	}
	return n
}

func (d *decoder) bool() bool {
	return d.uint() != 0
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.data)
	if err != nil {
		d.fail(err)
		return ""
	}
	d.data = d.data[n:]
	return v
}

func (d *decoder) strings() []string {
	n := d.length()
	if n == 0 {
		return nil
	}
	out := make([]string, n)
	for i := range out {
		out[i] = d.string()
	}
	return out
}

func (d *decoder) floats() []float32 {
	n := d.length()
	if n == 0 {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		if d.err != nil {
			return nil
		}
		b, m, err := varint.Uint32.Unmarshal(d.data)
		if err != nil {
			d.fail(err)
			return nil
		}
		d.data = d.data[m:]
		out[i] = math.Float32frombits(b)
	}
	return out
}

func (d *decoder) done() error {
	if d.err == nil && len(d.data) != 0 {
		d.fail(fmt.Errorf("%d trailing bytes", len(d.data)))
	}
	return d.err
}

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	var e encoder
	e.uint(uint64(id))
	return e.buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	d := decoder{data: data}
	id := core.ID(d.uint())
	return id, d.done()
}

// MarshalDocument serializes a Document to bytes.
func MarshalDocument(doc *core.Document) []byte {
	var e encoder
	e.uint(uint64(doc.Id))
	e.string(doc.Title)
	e.int(len(doc.Tokens))
	for _, t := range doc.Tokens {
		e.int(int(t.ID))
		e.int(int(t.Tag))
		e.int(int(t.POS))
	}
	e.int(len(doc.Sentences))
	for _, s := range doc.Sentences {
		e.int(s.TokenAt)
		e.int(s.NTokens)
	}
	return e.buf
}

// UnmarshalDocument deserializes a Document from bytes.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	d := decoder{data: data}
	doc := &core.Document{
		Id:    core.ID(d.uint()),
		Title: d.string(),
	}
	if n := d.length(); n > 0 {
		doc.Tokens = make([]core.Token, n)
		for i := range doc.Tokens {
			doc.Tokens[i] = core.Token{
				ID:  int32(d.int()),
				Tag: int8(d.int()),
				POS: int8(d.int()),
			}
		}
	}
	if n := d.length(); n > 0 {
		doc.Sentences = make([]core.Sentence, n)
		for i := range doc.Sentences {
			doc.Sentences[i] = core.Sentence{TokenAt: d.int(), NTokens: d.int()}
		}
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalStrings serializes a string list (a vocabulary block or a tag table).
func MarshalStrings(ss []string) []byte {
	var e encoder
	e.strings(ss)
	return e.buf
}

// UnmarshalStrings deserializes a string list.
func UnmarshalStrings(data []byte) ([]string, error) {
	d := decoder{data: data}
	ss := d.strings()
	return ss, d.done()
}

// MarshalEmbeddingHeader serializes an EmbeddingHeader to bytes.
func MarshalEmbeddingHeader(h *EmbeddingHeader) []byte {
	var e encoder
	e.string(h.Name)
	e.int(h.Dim)
	e.int(h.Rows)
	e.int(h.ChunkRows)
	e.bool(h.HasUnmodified)
	return e.buf
}

// UnmarshalEmbeddingHeader deserializes an EmbeddingHeader from bytes.
func UnmarshalEmbeddingHeader(data []byte) (*EmbeddingHeader, error) {
	d := decoder{data: data}
	h := &EmbeddingHeader{
		Name:          d.string(),
		Dim:           d.int(),
		Rows:          d.int(),
		ChunkRows:     d.int(),
		HasUnmodified: d.bool(),
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return h, nil
}

// MarshalEmbeddingChunk serializes an EmbeddingChunk to bytes.
func MarshalEmbeddingChunk(c *EmbeddingChunk) []byte {
	var e encoder
	e.strings(c.Words)
	e.floats(c.Vectors)
	e.floats(c.Unmodified)
	return e.buf
}

// UnmarshalEmbeddingChunk deserializes an EmbeddingChunk from bytes.
func UnmarshalEmbeddingChunk(data []byte) (*EmbeddingChunk, error) {
	d := decoder{data: data}
	c := &EmbeddingChunk{
		Words:      d.strings(),
		Vectors:    d.floats(),
		Unmodified: d.floats(),
	}
	if err := d.done(); err != nil {
		return nil, err
	}
	return c, nil
}
