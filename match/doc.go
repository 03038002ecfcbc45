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


// Package match runs queries against tokenized documents.
//
// A Query is built once from Options: it resolves filters and token weights
// against the corpus vocabulary and builds one similarity matrix per metric.
// For each document a Matcher partitions the text into spans, aligns every
// span with each good metric, normalizes the raw alignment score and feeds
// the best match of each span into a bounded ResultSet.
//
// Queries are read-only after construction and may be matched against many
// documents concurrently. Matchers and ResultSets are not safe for concurrent use.
package match
