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


package core

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for documents.
// It is generated using content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Unmatched marks a query position the alignment left without a source token.
const Unmatched = -1

// Token is a single tokenized word. ID indexes the corpus vocabulary
// (negative when the token is unknown to it), Tag and POS index the
// vocabulary's fine-grained and coarse part-of-speech tables.
type Token struct {
	ID  int32
	Tag int8
	POS int8
}

// Sentence locates a run of tokens inside a Document.
type Sentence struct {
	TokenAt int
	NTokens int
}

// Document is a tokenized corpus document.
type Document struct {
	Id        ID
	Title     string
	Tokens    []Token
	Sentences []Sentence
}

// MaxSentenceLen returns the token count of the longest sentence.
func (d *Document) MaxSentenceLen() int {
	n := 0
	for _, s := range d.Sentences {
		if s.NTokens > n {
			n = s.NTokens
		}
	}
	return n
}

// Span is a contiguous token window of a document that is compared to a query.
// Id is the sentence index for sentence-level partitions or the window index otherwise.
type Span struct {
	Id      int
	TokenAt int
	Len     int
}

// MatchDigest identifies where a match was found and how the query aligned to it.
// Alignment has one entry per query token: the aligned source index within the span,
// or Unmatched.
type MatchDigest struct {
	Document  ID
	Span      int
	Alignment []int
}

// TokenScore is the per-query-token breakdown of a match.
type TokenScore struct {
	Source     int     // aligned source index within the span, or Unmatched
	Similarity float32 // similarity of the aligned pair, 0 if unmatched
	Weight     float32 // query token weight
}

// Match is a scored alignment of a query against one span of a document.
type Match struct {
	Metric    string
	Variant   int
	Algorithm string
	Digest    MatchDigest
	Score     float32
	Scores    []TokenScore // populated before admission into a result set
}

// Matched reports the number of query positions aligned to a source token.
func (m *Match) Matched() int {
	n := 0
	for _, u := range m.Digest.Alignment {
		if u != Unmatched {
			n++
		}
	}
	return n
}
