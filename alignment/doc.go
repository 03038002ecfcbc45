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


// Package alignment turns a similarity view over a (source span, query) pair
// into a raw score and an explicit query-to-source index alignment.
//
// Three interchangeable algorithms are provided:
//
//   - WatermanSmithBeyer: local sequence alignment with arbitrary gap costs
//   - RelaxedWordMoversDistance: nearest-neighbour relaxation of word mover's distance
//   - WordRotatorsDistance: optimal transport with vector norms as mass
//
// An Algorithm owns working buffers sized by Init and is therefore not safe
// for concurrent use. Create one per matcher with New.
package alignment
