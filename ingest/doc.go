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


// Package ingest loads external data into an alignsearch store.
//
// It provides three importers:
//
//   - ImportWord2Vec parses pre-trained word vectors in the word2vec text format
//     into a static embedding.
//   - DocumentImporter reads pre-tokenized JSON documents, registers their
//     tokens and tags in the corpus vocabulary and stores them.
//   - VocabularyEmbedder vectorizes every vocabulary token with an ai.Embedder,
//     for corpora without a pre-trained table.
//
// Long-running imports report progress through a ProgressTracker and retry
// transient embedding failures with exponential backoff.
package ingest
