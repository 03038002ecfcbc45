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


// Package embedding holds static word embeddings and turns them into dense
// token-pair similarity matrices.
//
// A Static embedding owns an immutable WordVectors table. For a query, the
// corpus vocabulary is mapped into the embedding's id space
// (VocabularyToEmbedding), the query tokens are mapped the same way (Needle),
// and a Measure fills a [vocabulary × query] Matrix. Exact lexical matches are
// forced to similarity 1.
//
// Everything built here is read-only after construction and may be shared by
// concurrent matchers.
package embedding
