package badger

import "github.com/poiesic/alignsearch/storage"

// Repositories bundles the repositories sharing one backend.
type Repositories struct {
	Embeddings storage.EmbeddingRepository
	Vocabulary storage.VocabularyRepository
	Documents  storage.DocumentRepository
}

// NewRepositories creates all repositories on backend.
func NewRepositories(backend *Backend) (*Repositories, error) {
	docs, err := NewDocumentRepository(backend)
	if err != nil {
		return nil, err
	}
	return &Repositories{
		Embeddings: NewEmbeddingRepository(backend, DefaultChunkRows),
		Vocabulary: NewVocabularyRepository(backend),
		Documents:  docs,
	}, nil
}

// Close closes every repository. The backend stays open.
func (r *Repositories) Close() error {
	var first error
	for _, repo := range []storage.Repository{r.Documents, r.Vocabulary, r.Embeddings} {
		if err := repo.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
