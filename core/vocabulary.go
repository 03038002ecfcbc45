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
	"fmt"
	"sync"
)

// MaxTags is the number of distinct tag (or POS) names a vocabulary can hold.
// Filters address tags through a 64-bit mask.
const MaxTags = 64

// NoTag marks a token without tag or POS information.
const NoTag int8 = -1

// Vocabulary maps corpus token strings to dense integer ids and keeps the
// tag and POS name tables. Tokens are stored in blocks: every Add call that
// introduces unseen tokens appends one block, so ids of earlier blocks never move.
//
// A Vocabulary is safe for concurrent use, but it must not grow while
// queries built from it are matching.
type Vocabulary struct {
	mu     sync.RWMutex
	blocks [][]string
	ids    map[string]int32
	size   int
	tags   tagTable
	pos    tagTable
}

type tagTable struct {
	names []string
	ids   map[string]int8
}

func (t *tagTable) add(name string) (int8, error) {
	if id, ok := t.ids[name]; ok {
		return id, nil
	}
	if len(t.names) >= MaxTags {
		return NoTag, fmt.Errorf("%w: cannot add %q", ErrTooManyTags, name)
	}
	if t.ids == nil {
		t.ids = make(map[string]int8)
	}
	id := int8(len(t.names))
	t.names = append(t.names, name)
	t.ids[name] = id
	return id, nil
}

func (t *tagTable) mask(names []string) (uint64, error) {
	var m uint64
	for _, name := range names {
		id, ok := t.ids[name]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownTag, name)
		}
		m |= 1 << uint(id)
	}
	return m, nil
}

// NewVocabulary creates an empty vocabulary.
func NewVocabulary() *Vocabulary {
	return &Vocabulary{ids: make(map[string]int32)}
}

// RestoreVocabulary rebuilds a vocabulary from persisted blocks and tag tables.
func RestoreVocabulary(blocks [][]string, tags, pos []string) (*Vocabulary, error) {
	v := NewVocabulary()
	for _, block := range blocks {
		v.Add(block...)
	}
	for _, t := range tags {
		if _, err := v.tags.add(t); err != nil {
			return nil, err
		}
	}
	for _, p := range pos {
		if _, err := v.pos.add(p); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Add returns the ids of the given tokens, registering unseen ones in a new block.
func (v *Vocabulary) Add(tokens ...string) []int32 {
	v.mu.Lock()
	defer v.mu.Unlock()

	ids := make([]int32, len(tokens))
	var block []string
	for i, t := range tokens {
		id, ok := v.ids[t]
		if !ok {
			id = int32(v.size)
			v.ids[t] = id
			v.size++
			block = append(block, t)
		}
		ids[i] = id
	}
	if len(block) > 0 {
		v.blocks = append(v.blocks, block)
	}
	return ids
}

// ID returns the id of a token, or -1 if it is unknown.
func (v *Vocabulary) ID(token string) int32 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if id, ok := v.ids[token]; ok {
		return id
	}
	return -1
}

// Token returns the token string for an id, or "" if the id is out of range.
func (v *Vocabulary) Token(id int32) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if id < 0 {
		return ""
	}
	r := int(id)
	for _, block := range v.blocks {
		if r < len(block) {
			return block[r]
		}
		r -= len(block)
	}
	return ""
}

// Size returns the number of tokens.
func (v *Vocabulary) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.size
}

// Blocks returns the token blocks in id order. The returned slices must not be modified.
func (v *Vocabulary) Blocks() [][]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([][]string, len(v.blocks))
	copy(out, v.blocks)
	return out
}

// AddTag registers a fine-grained tag name and returns its id.
func (v *Vocabulary) AddTag(name string) (int8, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.tags.add(name)
}

// AddPOS registers a coarse POS name and returns its id.
func (v *Vocabulary) AddPOS(name string) (int8, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pos.add(name)
}

// TagID returns the id of a tag name.
func (v *Vocabulary) TagID(name string) (int8, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	id, ok := v.tags.ids[name]
	return id, ok
}

// POSID returns the id of a POS name.
func (v *Vocabulary) POSID(name string) (int8, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	id, ok := v.pos.ids[name]
	return id, ok
}

// Tags returns the tag names in id order.
func (v *Vocabulary) Tags() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.tags.names...)
}

// POS returns the POS names in id order.
func (v *Vocabulary) POS() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]string(nil), v.pos.names...)
}

// TagMask maps tag names to a bitmask with bit i set for tag id i.
func (v *Vocabulary) TagMask(names []string) (uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tags.mask(names)
}

// POSMask maps POS names to a bitmask with bit i set for POS id i.
func (v *Vocabulary) POSMask(names []string) (uint64, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pos.mask(names)
}

// TokenFilter keeps tokens whose tag and POS bits are set in the inclusion masks.
// Tokens without tag or POS information always pass.
type TokenFilter struct {
	POS uint64
	Tag uint64
}

// AllTokens is a filter that keeps every token.
var AllTokens = TokenFilter{POS: ^uint64(0), Tag: ^uint64(0)}

// NewTokenFilter builds a filter that drops tokens carrying any of the named POS or tags.
func NewTokenFilter(v *Vocabulary, posNames, tagNames []string) (TokenFilter, error) {
	pos, err := v.POSMask(posNames)
	if err != nil {
		return TokenFilter{}, err
	}
	tag, err := v.TagMask(tagNames)
	if err != nil {
		return TokenFilter{}, err
	}
	return TokenFilter{POS: ^pos, Tag: ^tag}, nil
}

// Keep reports whether the token passes the filter.
func (f TokenFilter) Keep(t Token) bool {
	if t.POS >= 0 && f.POS&(1<<uint(t.POS)) == 0 {
		return false
	}
	if t.Tag >= 0 && f.Tag&(1<<uint(t.Tag)) == 0 {
		return false
	}
	return true
}

// All reports whether the filter keeps every token.
func (f TokenFilter) All() bool {
	return f == AllTokens
}
