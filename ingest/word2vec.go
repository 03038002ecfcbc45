package ingest

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/poiesic/alignsearch/embedding"
)

const maxWord2VecLine = 16 << 20

type word2vecConfig struct {
	normalize bool
	maxRows   int
	logger    *slog.Logger
}

// Word2VecOption configures ImportWord2Vec.
type Word2VecOption func(*word2vecConfig)

// WithTokenNormalization sets whether words are passed through
// embedding.NormalizeToken. Default is true; it must match the setting used
// when importing documents.
func WithTokenNormalization(normalize bool) Word2VecOption {
	return func(c *word2vecConfig) {
		c.normalize = normalize
	}
}

// WithMaxRows stops reading after n vectors. n <= 0 reads everything.
func WithMaxRows(n int) Word2VecOption {
	return func(c *word2vecConfig) {
		c.maxRows = n
	}
}

// WithWord2VecLogger sets a custom logger.
// Default is slog.Default().
func WithWord2VecLogger(logger *slog.Logger) Word2VecOption {
	return func(c *word2vecConfig) {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
	}
}

// ImportWord2Vec reads word vectors in the word2vec text format: an optional
// "<rows> <dim>" header line followed by one "<word> <v1> ... <vdim>" line per
// vector. Blank lines are skipped. When normalization maps two words to the
// same token the first vector wins.
func ImportWord2Vec(r io.Reader, name string, opts ...Word2VecOption) (*embedding.Static, error) {
	cfg := word2vecConfig{normalize: true, logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("component", "word2vec", "embedding", name)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxWord2VecLine)

	var (
		dim        int
		words      []string
		raw        []float32
		seen       = make(map[string]struct{})
		duplicates int
		lineNo     int
	)
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				if d, err := strconv.Atoi(fields[1]); err == nil && d > 0 {
					dim = d
					continue
				}
			}
		}
		if dim == 0 {
			dim = len(fields) - 1
			if dim < 1 {
				return nil, fmt.Errorf("%w: line %d has no vector", ErrMalformedWord2Vec, lineNo)
			}
		}
		if len(fields) != dim+1 {
			return nil, fmt.Errorf("%w: line %d has %d values, expected %d",
				ErrMalformedWord2Vec, lineNo, len(fields)-1, dim)
		}

		word := fields[0]
		if cfg.normalize {
			word = embedding.NormalizeToken(word)
		}
		if _, ok := seen[word]; ok {
			duplicates++
			continue
		}

		at := len(raw)
		raw = append(raw, make([]float32, dim)...)
		for k, f := range fields[1:] {
			v, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d value %d: %w", ErrMalformedWord2Vec, lineNo, k+1, err)
			}
			raw[at+k] = float32(v)
		}
		seen[word] = struct{}{}
		words = append(words, word)

		if cfg.maxRows > 0 && len(words) >= cfg.maxRows {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %s", embedding.ErrEmptyEmbedding, name)
	}

	vectors, err := embedding.NewWordVectors(dim, raw)
	if err != nil {
		return nil, err
	}
	logger.Info("imported word vectors", "rows", len(words), "dim", dim, "duplicates", duplicates)
	return embedding.NewStatic(name, words, vectors)
}
