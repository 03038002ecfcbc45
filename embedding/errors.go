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


package embedding

import "errors"

var (
	// ErrDimensionMismatch indicates a vector table whose length is not a multiple of its dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrEmptyEmbedding indicates an embedding without tokens.
	ErrEmptyEmbedding = errors.New("embedding has no tokens")
)
