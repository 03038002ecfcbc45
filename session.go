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


package alignsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
	"github.com/poiesic/alignsearch/ingest"
	"github.com/poiesic/alignsearch/match"
	"github.com/poiesic/alignsearch/metrics"
	"github.com/poiesic/alignsearch/search"
	"github.com/poiesic/alignsearch/storage/badger"
)

// ErrNoEmbeddings is returned when a query is built before any embedding was loaded.
var ErrNoEmbeddings = errors.New("session has no embeddings")

// Session ties a corpus store to the vocabulary and embeddings loaded from it.
type Session struct {
	backend  *badger.Backend
	repos    *badger.Repositories
	vocab    *core.Vocabulary
	registry *embedding.Registry
	metrics  *metrics.SearchMetrics
	logger   *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	inMemory bool
	metrics  *metrics.SearchMetrics
	logger   *slog.Logger
}

// InMemory keeps the store in memory. The path passed to Open is ignored.
func InMemory() SessionOption {
	return func(o *sessionOptions) {
		o.inMemory = true
	}
}

// WithSearchMetrics records every search of the session in m.
func WithSearchMetrics(m *metrics.SearchMetrics) SessionOption {
	return func(o *sessionOptions) {
		o.metrics = m
	}
}

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) SessionOption {
	return func(o *sessionOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens the store at path and loads its vocabulary and every stored embedding.
func Open(ctx context.Context, path string, opts ...SessionOption) (*Session, error) {
	options := &sessionOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		return nil, err
	}

	repos, err := badger.NewRepositories(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	s := &Session{
		backend:  backend,
		repos:    repos,
		registry: embedding.NewRegistry(),
		metrics:  options.metrics,
		logger:   options.logger.With("component", "session"),
	}
	if err := s.load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Session) load(ctx context.Context) error {
	vocab, err := s.repos.Vocabulary.LoadVocabulary(ctx)
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}
	s.vocab = vocab

	names, err := s.repos.Embeddings.ListEmbeddings(ctx)
	if err != nil {
		return fmt.Errorf("failed to list embeddings: %w", err)
	}
	for _, name := range names {
		e, err := s.repos.Embeddings.LoadEmbedding(ctx, name)
		if err != nil {
			return fmt.Errorf("failed to load embedding %s: %w", name, err)
		}
		s.registry.Add(e)
	}
	s.logger.Info("session opened", "vocabulary", vocab.Size(), "embeddings", names)
	return nil
}

// Close closes the repositories and the store.
func (s *Session) Close() error {
	if err := s.repos.Close(); err != nil {
		s.logger.Error("error closing repositories", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (s *Session) Vocabulary() *core.Vocabulary {
	return s.vocab
}

func (s *Session) Registry() *embedding.Registry {
	return s.registry
}

func (s *Session) Repositories() *badger.Repositories {
	return s.repos
}

// AddEmbedding stores e and makes it available to new queries.
func (s *Session) AddEmbedding(ctx context.Context, e *embedding.Static) error {
	if err := s.repos.Embeddings.SaveEmbedding(ctx, e); err != nil {
		return err
	}
	s.registry.Add(e)
	return nil
}

func (s *Session) NewDocumentImporter(opts ...ingest.ImporterOption) (*ingest.DocumentImporter, error) {
	opts = append([]ingest.ImporterOption{ingest.WithImporterLogger(s.logger)}, opts...)
	return ingest.NewDocumentImporter(s.vocab, s.repos.Vocabulary, s.repos.Documents, opts...)
}

// Tokenize splits text on whitespace and looks the words up in the
// vocabulary. Unknown words get a negative id; the vocabulary is not extended.
// The tokens carry no tag or POS, so POS filters, weights and penalties leave
// them alone. Use TokenizeTagged for tagged queries.
func (s *Session) Tokenize(text string) []core.Token {
	words := strings.Fields(text)
	tokens := make([]core.Token, len(words))
	for i, w := range words {
		tokens[i] = core.Token{
			ID:  s.vocab.ID(embedding.NormalizeToken(w)),
			Tag: core.NoTag,
			POS: core.NoTag,
		}
	}
	return tokens
}

// TokenizeTagged maps pre-tagged query tokens, in the form documents are
// imported in, onto the vocabulary. Tag and POS names the corpus never used
// map to core.NoTag. The vocabulary is not extended.
func (s *Session) TokenizeTagged(tokens []ingest.JSONToken) []core.Token {
	out := make([]core.Token, len(tokens))
	for i, t := range tokens {
		out[i] = core.Token{
			ID:  s.vocab.ID(embedding.NormalizeToken(t.Text)),
			Tag: lookupTag(t.Tag, s.vocab.TagID),
			POS: lookupTag(t.POS, s.vocab.POSID),
		}
	}
	return out
}

func lookupTag(name string, lookup func(string) (int8, bool)) int8 {
	if name == "" {
		return core.NoTag
	}
	if id, ok := lookup(name); ok {
		return id
	}
	return core.NoTag
}

// NewQuery tokenizes text and prepares it for matching with opts.
func (s *Session) NewQuery(text string, opts match.Options, options ...match.Option) (*match.Query, error) {
	if len(s.registry.Names()) == 0 {
		return nil, ErrNoEmbeddings
	}
	options = append([]match.Option{match.WithText(text), match.WithLogger(s.logger)}, options...)
	return match.NewQuery(s.vocab, s.registry, s.Tokenize(text), opts, options...)
}

// NewTaggedQuery prepares pre-tagged tokens for matching with opts.
func (s *Session) NewTaggedQuery(tokens []ingest.JSONToken, opts match.Options, options ...match.Option) (*match.Query, error) {
	if len(s.registry.Names()) == 0 {
		return nil, ErrNoEmbeddings
	}
	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.Text
	}
	options = append([]match.Option{match.WithText(strings.Join(words, " ")), match.WithLogger(s.logger)}, options...)
	return match.NewQuery(s.vocab, s.registry, s.TokenizeTagged(tokens), opts, options...)
}

// NewSearcher creates a searcher over the session's documents.
// Caller must Release it when done.
func (s *Session) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	base := []search.Option{search.WithLogger(s.logger)}
	if s.metrics != nil {
		base = append(base, search.WithMetrics(s.metrics))
	}
	return search.NewSearcher(s.repos.Documents, append(base, opts...)...)
}

// Search matches text against every stored document.
func (s *Session) Search(ctx context.Context, text string, opts match.Options) (*search.Report, error) {
	q, err := s.NewQuery(text, opts)
	if err != nil {
		return nil, err
	}
	searcher, err := s.NewSearcher()
	if err != nil {
		return nil, err
	}
	defer searcher.Release()
	return searcher.Search(ctx, q)
}
