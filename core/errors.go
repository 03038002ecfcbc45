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

import "errors"

// ErrConfiguration is the root of every error raised while building a query,
// a metric or an alignment algorithm from configuration. All configuration
// errors below wrap it.
var ErrConfiguration = errors.New("configuration error")

// Configuration errors
var (
	// ErrIllegalOption indicates an unrecognized configuration key.
	ErrIllegalOption = configError("illegal option")

	// ErrInvalidOptionValue indicates a recognized key carrying a value of the wrong type or range.
	ErrInvalidOptionValue = configError("invalid option value")

	// ErrUnsupportedMetric indicates an unknown similarity measure name.
	ErrUnsupportedMetric = configError("unsupported metric")

	// ErrUnsupportedAlgorithm indicates an unknown alignment algorithm name.
	ErrUnsupportedAlgorithm = configError("illegal alignment algorithm")

	// ErrMalformedMetricSpec indicates a metrics entry that is neither a name nor a valid mix.
	ErrMalformedMetricSpec = configError("malformed metric specification")

	// ErrInvalidPartition indicates a partition with an unknown level or a window parameter < 1.
	ErrInvalidPartition = configError("invalid partition")

	// ErrUnknownEmbedding indicates a metric referring to an embedding that is not loaded.
	ErrUnknownEmbedding = configError("unknown embedding")

	// ErrUnknownTag indicates a filter or weight naming a tag the vocabulary does not know.
	ErrUnknownTag = configError("unknown tag")

	// ErrTooManyTags indicates a vocabulary exceeding the 64 tags a filter bitmask can address.
	ErrTooManyTags = configError("too many tags")
)

// Consistency errors
var (
	// ErrInconsistentVocabulary indicates a corpus token id that does not resolve
	// into an embedding's id space. It points to a broken mapping upstream and is
	// never retried.
	ErrInconsistentVocabulary = errors.New("inconsistent vocabulary mapping")
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrSentenceOutOfRange indicates a sentence extending past the document's tokens.
	ErrSentenceOutOfRange = errors.New("sentence out of range")
)

type wrappedError struct {
	msg    string
	parent error
}

func (e *wrappedError) Error() string { return e.msg }
func (e *wrappedError) Unwrap() error { return e.parent }

func configError(msg string) error {
	return &wrappedError{msg: msg, parent: ErrConfiguration}
}
