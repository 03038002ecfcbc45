package embedding

// MustStatic builds a static embedding from literal rows and panics on error.
// It is meant for tests and fixtures.
func MustStatic(name string, words []string, rows ...[]float32) *Static {
	if len(rows) == 0 {
		panic(ErrEmptyEmbedding)
	}
	dim := len(rows[0])
	raw := make([]float32, 0, dim*len(rows))
	for _, r := range rows {
		raw = append(raw, r...)
	}
	vectors, err := NewWordVectors(dim, raw)
	if err != nil {
		panic(err)
	}
	s, err := NewStatic(name, words, vectors)
	if err != nil {
		panic(err)
	}
	return s
}
