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


// Package search runs a query against a corpus of documents.
//
// The Searcher dispatches one matcher per document to a worker pool, merges
// the per-document result sets into one ranked ResultSet and reports progress
// as the fraction of corpus tokens processed. Cancelling the context aborts
// the query: workers stop at the next span and the matches found so far are
// returned.
package search
