package badger

import (
	"encoding/binary"

	"github.com/poiesic/alignsearch/core"
)

// Key prefixes for different data types
const (
	documentPrefix      = "docrec:"
	documentIDSeq       = "docrecseq"
	embeddingPrefix     = "emb:"
	embeddingHeaderPart = "hdr"
	embeddingChunkPart  = "row:"
	vocabularyPrefix    = "voc:"
	vocabularyBlockPart = "blk:"
	vocabularyTagsKey   = "voc:tags"
	vocabularyPOSKey    = "voc:pos"
)

// makeDocumentKey generates a key for a document by ID.
// Format: prefix + big-endian ID, so iteration follows ID order.
func makeDocumentKey(id core.ID) []byte {
	buf := make([]byte, len(documentPrefix)+8)
	offset := copy(buf, documentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeEmbeddingPrefix generates the prefix shared by all keys of an embedding.
// Format: prefix:name:
func makeEmbeddingPrefix(name string) []byte {
	return []byte(embeddingPrefix + name + ":")
}

// makeEmbeddingHeaderKey generates the key of an embedding header.
func makeEmbeddingHeaderKey(name string) []byte {
	return append(makeEmbeddingPrefix(name), embeddingHeaderPart...)
}

// makeEmbeddingChunkKey generates the key of an embedding row chunk.
// Format: prefix:name:row: + big-endian chunk index
func makeEmbeddingChunkKey(name string, chunk int) []byte {
	key := append(makeEmbeddingPrefix(name), embeddingChunkPart...)
	return binary.BigEndian.AppendUint32(key, uint32(chunk))
}

// makeVocabularyBlockKey generates the key of a vocabulary block.
// Format: prefix:blk: + big-endian block index
func makeVocabularyBlockKey(block int) []byte {
	key := []byte(vocabularyPrefix + vocabularyBlockPart)
	return binary.BigEndian.AppendUint32(key, uint32(block))
}
