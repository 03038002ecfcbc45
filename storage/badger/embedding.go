package badger

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/alignsearch/embedding"
	"github.com/poiesic/alignsearch/storage"
)

// DefaultChunkRows is the number of embedding rows stored under one key.
const DefaultChunkRows = 1024

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
// Rows are stored in fixed-size chunks so large tables never exceed a single
// value or transaction.
type EmbeddingRepository struct {
	backend   *Backend
	chunkRows int
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
// A chunkRows <= 0 selects DefaultChunkRows.
func NewEmbeddingRepository(backend *Backend, chunkRows int) *EmbeddingRepository {
	if chunkRows <= 0 {
		chunkRows = DefaultChunkRows
	}
	return &EmbeddingRepository{backend: backend, chunkRows: chunkRows}
}

// Close is a no-op; the backend is closed by its owner.
func (r *EmbeddingRepository) Close() error {
	return nil
}

func checkEmbeddingName(name string) error {
	if name == "" || strings.ContainsRune(name, ':') {
		return fmt.Errorf("%w: embedding name %q", storage.ErrInvalidKey, name)
	}
	return nil
}

// SaveEmbedding stores e, replacing any embedding of the same name.
func (r *EmbeddingRepository) SaveEmbedding(ctx context.Context, e *embedding.Static) error {
	name := e.Name()
	if err := checkEmbeddingName(name); err != nil {
		return err
	}
	if err := r.backend.DropPrefix(makeEmbeddingPrefix(name)); err != nil {
		return err
	}

	vectors := e.Vectors()
	dim := vectors.Dim()
	table := vectors.Table()
	unmodified := vectors.Unmodified()
	words := e.Words()

	header := &storage.EmbeddingHeader{
		Name:          name,
		Dim:           dim,
		Rows:          vectors.Rows(),
		ChunkRows:     r.chunkRows,
		HasUnmodified: unmodified != nil,
	}

	err := r.backend.WithBatch(func(wb *badger.WriteBatch) error {
		for chunk := 0; chunk < header.Chunks(); chunk++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			lo := chunk * r.chunkRows
			hi := min(lo+r.chunkRows, header.Rows)
			c := &storage.EmbeddingChunk{
				Words:   words[lo:hi],
				Vectors: table[lo*dim : hi*dim],
			}
			if unmodified != nil {
				c.Unmodified = unmodified[lo*dim : hi*dim]
			}
			if err := wb.Set(makeEmbeddingChunkKey(name, chunk), storage.MarshalEmbeddingChunk(c)); err != nil {
				return err
			}
		}
		// Header last: a crash mid-import leaves no loadable embedding.
		return wb.Set(makeEmbeddingHeaderKey(name), storage.MarshalEmbeddingHeader(header))
	})
	if err != nil {
		return err
	}

	r.backend.logger.Debug("saved embedding", "name", name, "rows", header.Rows, "chunks", header.Chunks())
	return nil
}

// LoadEmbedding reads the embedding called name.
func (r *EmbeddingRepository) LoadEmbedding(ctx context.Context, name string) (*embedding.Static, error) {
	if err := checkEmbeddingName(name); err != nil {
		return nil, err
	}

	var (
		header     *storage.EmbeddingHeader
		words      []string
		table      []float32
		unmodified []float32
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		val, found, err := readValue(tx, makeEmbeddingHeaderKey(name))
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: embedding %s", storage.ErrNotFound, name)
		}
		if header, err = storage.UnmarshalEmbeddingHeader(val); err != nil {
			return err
		}

		words = make([]string, 0, header.Rows)
		table = make([]float32, 0, header.Rows*header.Dim)
		if header.HasUnmodified {
			unmodified = make([]float32, 0, header.Rows*header.Dim)
		}
		for chunk := 0; chunk < header.Chunks(); chunk++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			val, found, err := readValue(tx, makeEmbeddingChunkKey(name, chunk))
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%w: embedding %s chunk %d", storage.ErrTruncatedData, name, chunk)
			}
			c, err := storage.UnmarshalEmbeddingChunk(val)
			if err != nil {
				return err
			}
			words = append(words, c.Words...)
			table = append(table, c.Vectors...)
			if header.HasUnmodified {
				unmodified = append(unmodified, c.Unmodified...)
			}
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	if len(words) != header.Rows {
		return nil, fmt.Errorf("%w: embedding %s has %d of %d rows", storage.ErrTruncatedData, name, len(words), header.Rows)
	}
	vectors, err := embedding.NewWordVectors(header.Dim, table)
	if err != nil {
		return nil, err
	}
	if header.HasUnmodified {
		if vectors, err = vectors.WithUnmodified(unmodified); err != nil {
			return nil, err
		}
	}
	return embedding.NewStatic(name, words, vectors)
}

// ListEmbeddings returns the names of all stored embeddings.
func (r *EmbeddingRepository) ListEmbeddings(ctx context.Context) ([]string, error) {
	var names []string
	suffix := []byte(":" + embeddingHeaderPart)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(embeddingPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			key := iter.Item().Key()
			if !bytes.HasSuffix(key, suffix) {
				continue
			}
			names = append(names, string(key[len(embeddingPrefix):len(key)-len(suffix)]))
		}
		return nil
	}, false)
	return names, err
}

// DeleteEmbedding removes the embedding called name.
func (r *EmbeddingRepository) DeleteEmbedding(ctx context.Context, name string) error {
	if err := checkEmbeddingName(name); err != nil {
		return err
	}
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		_, found, err := readValue(tx, makeEmbeddingHeaderKey(name))
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: embedding %s", storage.ErrNotFound, name)
		}
		return nil
	}, false)
	if err != nil {
		return err
	}
	return r.backend.DropPrefix(makeEmbeddingPrefix(name))
}
