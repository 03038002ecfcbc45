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


// Package storage provides the storage abstraction layer for alignsearch.
//
// This package defines repository interfaces that decouple persistence of
// embeddings, the corpus vocabulary and tokenized documents from the matching
// engine. Matching itself never touches storage: a session loads what it needs
// into memory and hands documents to the searcher.
//
// # Architecture
//
//   - EmbeddingRepository: static embeddings (token list plus vector table)
//   - VocabularyRepository: vocabulary blocks and tag tables
//   - DocumentRepository: tokenized documents
//
// Values are encoded with mus-go primitives (see serialization.go).
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer backend.Close()
package storage
