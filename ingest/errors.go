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


package ingest

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry policy allows no attempt.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrRepositoryRequired is returned when a repository is not provided.
	ErrRepositoryRequired = errors.New("repository required")

	// ErrMalformedWord2Vec indicates a word2vec line that cannot be parsed.
	ErrMalformedWord2Vec = errors.New("malformed word2vec data")

	// ErrMalformedDocument indicates a JSON document that does not follow the import format.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrEmptyVocabulary is returned when there is nothing to vectorize.
	ErrEmptyVocabulary = errors.New("vocabulary is empty")
)
