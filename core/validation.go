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

import "fmt"

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - sentences must lie within the token slice
//   - sentences must not overlap and must be ordered
//
// Empty sentences are allowed; matchers skip them.
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	at := 0
	for i, s := range doc.Sentences {
		if s.TokenAt < at || s.NTokens < 0 || s.TokenAt+s.NTokens > len(doc.Tokens) {
			return fmt.Errorf("%w: %w: sentence %d [%d, %d)",
				ErrInvalidDocument, ErrSentenceOutOfRange, i, s.TokenAt, s.TokenAt+s.NTokens)
		}
		at = s.TokenAt + s.NTokens
	}

	return nil
}
