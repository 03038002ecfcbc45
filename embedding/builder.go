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

// SimilarityMatrix holds the similarity of every corpus vocabulary token
// (rows) to every query token (columns), plus the vector magnitudes the
// transport-based algorithms use as masses.
type SimilarityMatrix struct {
	Values      *Matrix
	SourceNorms []float32
	QueryNorms  []float32
}

// BuildOptions controls post-processing of a freshly built matrix.
type BuildOptions struct {
	// Falloff raises every cell to this power. Zero means 1.
	Falloff float32
	// Threshold zeroes cells below it.
	Threshold float32
}

// BuildSimilarityMatrix fills a |vocabulary| × |needle| matrix with measure
// over vectors. A cell whose vocabulary token is the very token of the query
// column is forced to 1 regardless of the embedding. Falloff and threshold
// are applied afterwards, in that order.
func BuildSimilarityMatrix(vectors *WordVectors, measure Measure, mapping *VocabularyToEmbedding,
	needle *Needle, opts BuildOptions) *SimilarityMatrix {

	values := NewMatrix(mapping.Size(), needle.Len())
	mapping.Iterate(func(block []int32, offset int) {
		measure.Fill(vectors, block, needle.EmbeddingIDs, offset, values)
	})
	for j, k := range needle.VocabularyIDs {
		if k >= 0 && int(k) < values.Rows {
			values.Set(int(k), j, 1)
		}
	}
	if opts.Falloff != 0 {
		values.Pow(opts.Falloff)
	}
	values.Threshold(opts.Threshold)

	sm := &SimilarityMatrix{
		Values:      values,
		SourceNorms: make([]float32, values.Rows),
		QueryNorms:  make([]float32, needle.Len()),
	}
	mapping.Iterate(func(block []int32, offset int) {
		for i, e := range block {
			if e >= 0 {
				sm.SourceNorms[offset+i] = vectors.Magnitude(e)
			}
		}
	})
	for j, e := range needle.EmbeddingIDs {
		if e >= 0 {
			sm.QueryNorms[j] = vectors.Magnitude(e)
		}
	}
	return sm
}
