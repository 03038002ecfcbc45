package badger

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/storage"
)

// VocabularyRepository implements storage.VocabularyRepository for BadgerDB.
type VocabularyRepository struct {
	backend *Backend
}

var _ storage.VocabularyRepository = (*VocabularyRepository)(nil)

// NewVocabularyRepository creates a new VocabularyRepository.
func NewVocabularyRepository(backend *Backend) *VocabularyRepository {
	return &VocabularyRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *VocabularyRepository) Close() error {
	return nil
}

// SaveVocabulary writes the blocks of vocab that are not stored yet and
// rewrites the tag tables.
func (r *VocabularyRepository) SaveVocabulary(ctx context.Context, vocab *core.Vocabulary) error {
	blocks := vocab.Blocks()
	written := 0
	err := r.backend.WithTransaction(ctx, func(tx *badger.Txn) error {
		stored, err := countBlocks(ctx, tx)
		if err != nil {
			return err
		}
		if stored > len(blocks) {
			return fmt.Errorf("%w: store holds %d vocabulary blocks, saving %d",
				core.ErrInconsistentVocabulary, stored, len(blocks))
		}
		for i := stored; i < len(blocks); i++ {
			if err := tx.Set(makeVocabularyBlockKey(i), storage.MarshalStrings(blocks[i])); err != nil {
				return err
			}
			written++
		}
		if err := tx.Set([]byte(vocabularyTagsKey), storage.MarshalStrings(vocab.Tags())); err != nil {
			return err
		}
		if err := tx.Set([]byte(vocabularyPOSKey), storage.MarshalStrings(vocab.POS())); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.backend.logger.Debug("saved vocabulary", "new_blocks", written, "size", vocab.Size())
	return nil
}

// LoadVocabulary restores the stored vocabulary.
func (r *VocabularyRepository) LoadVocabulary(ctx context.Context) (*core.Vocabulary, error) {
	var blocks [][]string
	var tags, pos []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(vocabularyPrefix + vocabularyBlockPart)
		err := scanPrefix(ctx, tx, prefix, func(_, val []byte) error {
			block, err := storage.UnmarshalStrings(val)
			if err != nil {
				return err
			}
			blocks = append(blocks, block)
			return nil
		})
		if err != nil {
			return err
		}
		if tags, err = readStrings(tx, []byte(vocabularyTagsKey)); err != nil {
			return err
		}
		pos, err = readStrings(tx, []byte(vocabularyPOSKey))
		return err
	}, false)
	if err != nil {
		return nil, err
	}
	return core.RestoreVocabulary(blocks, tags, pos)
}

func countBlocks(ctx context.Context, tx *badger.Txn) (int, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(vocabularyPrefix + vocabularyBlockPart)
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	n := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func readStrings(tx *badger.Txn, key []byte) ([]string, error) {
	val, found, err := readValue(tx, key)
	if err != nil || !found {
		return nil, err
	}
	return storage.UnmarshalStrings(val)
}
