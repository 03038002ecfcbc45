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
	"context"

	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
)

// Repository provides operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	// The underlying backend is closed separately.
	Close() error
}

// EmbeddingRepository persists static embeddings by name.
type EmbeddingRepository interface {
	Repository

	// SaveEmbedding stores an embedding, replacing any embedding of the same name.
	SaveEmbedding(ctx context.Context, e *embedding.Static) error

	// LoadEmbedding reads an embedding back. Returns ErrNotFound if the name is unknown.
	LoadEmbedding(ctx context.Context, name string) (*embedding.Static, error)

	// ListEmbeddings returns the names of all stored embeddings in lexical order.
	ListEmbeddings(ctx context.Context) ([]string, error)

	// DeleteEmbedding removes an embedding. Returns ErrNotFound if the name is unknown.
	DeleteEmbedding(ctx context.Context, name string) error
}

// VocabularyRepository persists the corpus vocabulary.
// There is a single vocabulary per store.
type VocabularyRepository interface {
	Repository

	// SaveVocabulary stores vocabulary blocks not yet persisted and the tag tables.
	// Blocks are append-only, so earlier blocks are never rewritten.
	SaveVocabulary(ctx context.Context, vocab *core.Vocabulary) error

	// LoadVocabulary restores the vocabulary. An empty store yields an empty vocabulary.
	LoadVocabulary(ctx context.Context) (*core.Vocabulary, error)
}

// DocumentRepository persists tokenized documents.
type DocumentRepository interface {
	Repository

	// AddDocuments stores documents. Documents with a zero Id get one from a sequence.
	// Returns ErrDuplicateKey if a document with the same Id already exists.
	AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error)

	// GetDocument retrieves a document by ID. Returns ErrNotFound if absent.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// DeleteDocuments removes documents by ID. Returns ErrNotFound on the first missing ID.
	DeleteDocuments(ctx context.Context, ids ...core.ID) error

	// CountDocuments returns the number of stored documents.
	CountDocuments(ctx context.Context) (int, error)

	// ForEachDocument calls fn for every document in ID order.
	// Iteration stops at the first error fn returns or when ctx is cancelled.
	ForEachDocument(ctx context.Context, fn func(doc *core.Document) error) error
}
