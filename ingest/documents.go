package ingest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
	"github.com/poiesic/alignsearch/storage"
)

// DefaultDocumentBatch is the number of documents stored per transaction.
const DefaultDocumentBatch = 100

// JSONToken is a token of an imported document. Tag and POS are optional.
type JSONToken struct {
	Text string `json:"text"`
	Tag  string `json:"tag,omitempty"`
	POS  string `json:"pos,omitempty"`
}

// JSONDocument is the import format of a pre-tokenized document.
type JSONDocument struct {
	Title     string        `json:"title"`
	Sentences [][]JSONToken `json:"sentences"`
}

// ImportStats summarizes a document import.
type ImportStats struct {
	Documents int // documents stored
	Skipped   int // documents already present
	Tokens    int
	NewTokens int // tokens added to the vocabulary
}

// DocumentImporter stores pre-tokenized documents and grows the corpus
// vocabulary with their tokens and tags.
type DocumentImporter struct {
	vocab      *core.Vocabulary
	vocabulary storage.VocabularyRepository
	documents  storage.DocumentRepository
	batchSize  int
	normalize  bool
	logger     *slog.Logger
}

// ImporterOption configures a DocumentImporter.
type ImporterOption func(*DocumentImporter) error

// WithImporterLogger sets a custom logger.
// Default is slog.Default().
func WithImporterLogger(logger *slog.Logger) ImporterOption {
	return func(d *DocumentImporter) error {
		if logger == nil {
			logger = slog.Default()
		}
		d.logger = logger
		return nil
	}
}

// WithBatchSize sets the number of documents stored per transaction.
// Default is DefaultDocumentBatch.
func WithBatchSize(size int) ImporterOption {
	return func(d *DocumentImporter) error {
		if size < 1 {
			return fmt.Errorf("batch size must be at least 1, got %d", size)
		}
		d.batchSize = size
		return nil
	}
}

// WithNormalization sets whether token texts are passed through
// embedding.NormalizeToken. Default is true.
func WithNormalization(normalize bool) ImporterOption {
	return func(d *DocumentImporter) error {
		d.normalize = normalize
		return nil
	}
}

// NewDocumentImporter creates an importer adding to vocab.
// vocab must be the vocabulary last saved to the vocabulary repository.
func NewDocumentImporter(
	vocab *core.Vocabulary,
	vocabulary storage.VocabularyRepository,
	documents storage.DocumentRepository,
	opts ...ImporterOption,
) (*DocumentImporter, error) {
	if vocab == nil || vocabulary == nil || documents == nil {
		return nil, ErrRepositoryRequired
	}
	d := &DocumentImporter{
		vocab:      vocab,
		vocabulary: vocabulary,
		documents:  documents,
		batchSize:  DefaultDocumentBatch,
		normalize:  true,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	d.logger = d.logger.With("component", "document-importer")
	return d, nil
}

// Import reads documents from r, either a JSON array or a stream of JSON
// objects, and stores them in batches. Documents whose content ID is already
// stored are skipped. The vocabulary is saved before each batch of documents
// referring to it.
func (d *DocumentImporter) Import(ctx context.Context, r io.Reader) (ImportStats, error) {
	var stats ImportStats
	next, err := decodeDocuments(r)
	if err != nil {
		return stats, err
	}

	batch := make([]*JSONDocument, 0, d.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := d.store(ctx, batch, &stats)
		batch = batch[:0]
		return err
	}

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		doc, err := next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, fmt.Errorf("%w: document %d: %w", ErrMalformedDocument, n, err)
		}
		if err := validateJSONDocument(doc); err != nil {
			return stats, fmt.Errorf("document %d: %w", n, err)
		}
		batch = append(batch, doc)
		if len(batch) == d.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	d.logger.Info("imported documents",
		"documents", stats.Documents,
		"skipped", stats.Skipped,
		"tokens", stats.Tokens,
		"new_tokens", stats.NewTokens)
	return stats, nil
}

// decodeDocuments returns an iterator over the documents of r. It yields io.EOF at the end.
func decodeDocuments(r io.Reader) (func() (*JSONDocument, error), error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return func() (*JSONDocument, error) { return nil, io.EOF }, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.DisallowUnknownFields()
	array := first == '['
	if array {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
		}
	}
	return func() (*JSONDocument, error) {
		if array && !dec.More() {
			return nil, io.EOF
		}
		var doc JSONDocument
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
		return &doc, nil
	}, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return b, br.UnreadByte()
	}
}

func validateJSONDocument(doc *JSONDocument) error {
	for i, s := range doc.Sentences {
		for j, t := range s {
			if strings.TrimSpace(t.Text) == "" {
				return fmt.Errorf("%w: sentence %d token %d has no text", ErrMalformedDocument, i, j)
			}
		}
	}
	return nil
}

func (d *DocumentImporter) store(ctx context.Context, batch []*JSONDocument, stats *ImportStats) error {
	before := d.vocab.Size()

	texts := make([]string, 0)
	for _, jd := range batch {
		for _, s := range jd.Sentences {
			for _, t := range s {
				texts = append(texts, d.tokenText(t.Text))
			}
		}
	}
	ids := d.vocab.Add(texts...)

	docs := make([]*core.Document, 0, len(batch))
	inBatch := make(map[core.ID]struct{}, len(batch))
	at := 0
	for _, jd := range batch {
		doc := &core.Document{Title: jd.Title}
		var content strings.Builder
		content.WriteString(jd.Title)
		for _, s := range jd.Sentences {
			doc.Sentences = append(doc.Sentences, core.Sentence{TokenAt: len(doc.Tokens), NTokens: len(s)})
			content.WriteByte('\n')
			for _, t := range s {
				tag, err := addTag(t.Tag, d.vocab.AddTag)
				if err != nil {
					return err
				}
				pos, err := addTag(t.POS, d.vocab.AddPOS)
				if err != nil {
					return err
				}
				doc.Tokens = append(doc.Tokens, core.Token{ID: ids[at], Tag: tag, POS: pos})
				content.WriteString(texts[at])
				content.WriteByte(' ')
				at++
			}
		}
		doc.Id = core.IDFromContent(content.String())

		if _, dup := inBatch[doc.Id]; dup {
			stats.Skipped++
			continue
		}
		_, err := d.documents.GetDocument(ctx, doc.Id)
		switch {
		case err == nil:
			stats.Skipped++
			continue
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
		inBatch[doc.Id] = struct{}{}
		docs = append(docs, doc)
	}

	if err := d.vocabulary.SaveVocabulary(ctx, d.vocab); err != nil {
		return err
	}
	if len(docs) > 0 {
		if _, err := d.documents.AddDocuments(ctx, docs...); err != nil {
			return err
		}
	}

	stats.Documents += len(docs)
	for _, doc := range docs {
		stats.Tokens += len(doc.Tokens)
	}
	stats.NewTokens += d.vocab.Size() - before
	d.logger.Debug("stored document batch", "documents", len(docs), "vocabulary", d.vocab.Size())
	return nil
}

func (d *DocumentImporter) tokenText(text string) string {
	if d.normalize {
		return embedding.NormalizeToken(text)
	}
	return text
}

func addTag(name string, add func(string) (int8, error)) (int8, error) {
	if name == "" {
		return core.NoTag, nil
	}
	return add(name)
}
