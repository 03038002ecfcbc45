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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/poiesic/alignsearch"
	"github.com/poiesic/alignsearch/ai"
	"github.com/poiesic/alignsearch/ai/openai"
	"github.com/poiesic/alignsearch/ingest"
	"github.com/poiesic/alignsearch/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "alignsearch",
		Usage: "Semantic sentence search by word alignment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Serve Prometheus metrics on this address (e.g. :9090)",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "import-embedding",
				Usage:     "Import word vectors in word2vec text format",
				ArgsUsage: "<file>",
				Action:    importEmbeddingCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Name the embedding is stored under",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-rows",
						Usage: "Stop after this many vectors (0 reads all)",
					},
					&cli.BoolFlag{
						Name:  "raw-tokens",
						Usage: "Keep tokens as written instead of normalizing them",
					},
				},
			},
			{
				Name:   "embed-vocabulary",
				Usage:  "Vectorize the corpus vocabulary with an embedding service",
				Action: embedVocabularyCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:  "name",
						Usage: "Name the embedding is stored under (defaults to the model name)",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of tokens per embedding request",
						Value: 64,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent embedding requests",
						Value: 4,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "import-documents",
				Usage:     "Import pre-tokenized JSON documents (reads stdin when no file is given)",
				ArgsUsage: "[file]",
				Action:    importDocumentsCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents stored per transaction",
						Value: ingest.DefaultDocumentBatch,
					},
				},
			},
			{
				Name:   "embeddings",
				Usage:  "List stored embeddings",
				Action: listEmbeddingsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:      "search",
				Usage:     "Find the sentences best matching a query",
				ArgsUsage: "[query]",
				Action:    searchCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "YAML file with query options",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of matches to print",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of documents matched concurrently (0 uses all CPUs)",
					},
					&cli.StringFlag{
						Name:  "tokens",
						Usage: `Tagged query as a JSON token list, e.g. '[{"text":"cat","tag":"NN"}]'`,
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Print the aligned tokens of every match",
					},
				},
			},
		},
	}
}

func importEmbeddingCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one word2vec file")
	}
	ctx := c.Context

	f, err := os.Open(c.Args().First())
	if err != nil {
		return err
	}
	defer f.Close()

	static, err := ingest.ImportWord2Vec(f, c.String("name"),
		ingest.WithMaxRows(c.Int("max-rows")),
		ingest.WithTokenNormalization(!c.Bool("raw-tokens")))
	if err != nil {
		return fmt.Errorf("failed to read embedding: %w", err)
	}

	s, err := alignsearch.Open(ctx, c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	if err := s.AddEmbedding(ctx, static); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d vectors of dimension %d as %q\n",
		static.Vectors().Rows(), static.Vectors().Dim(), static.Name())
	return nil
}

func embedVocabularyCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithBatchSize(c.Int("batch-size")),
	)
	if err := aiConfig.Validate(); err != nil {
		return fmt.Errorf("invalid AI configuration: %w", err)
	}
	if c.Int("max-retries") <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	embedder, err := openai.NewEmbedder(aiConfig)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	reg, shutdown := serveMetrics(c)
	defer shutdown()

	vocabEmbedder, err := ingest.NewVocabularyEmbedder(embedder,
		ingest.WithEmbedBatchSize(c.Int("batch-size")),
		ingest.WithPoolSize(c.Int("workers")),
		ingest.WithRetryPolicy(ingest.RetryPolicy{
			MaxAttempts: c.Int("max-retries"),
			BaseDelay:   c.Duration("retry-delay"),
			MaxDelay:    30 * time.Second,
		}),
		ingest.WithIngestMetrics(metrics.NewIngestMetrics(reg)),
		ingest.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}

	s, err := alignsearch.Open(ctx, c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	name := c.String("name")
	if name == "" {
		name = aiConfig.EmbeddingModel
	}

	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", aiConfig.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", aiConfig.EmbeddingModel)
	fmt.Fprintf(c.App.ErrWriter, "Vocabulary: %d tokens\n", s.Vocabulary().Size())

	static, err := vocabEmbedder.Embed(ctx, s.Vocabulary(), name)
	if err != nil {
		return fmt.Errorf("vocabulary embedding failed: %w", err)
	}
	if err := s.AddEmbedding(ctx, static); err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Stored embedding %q (%d x %d)\n",
		name, static.Vectors().Rows(), static.Vectors().Dim())
	return nil
}

func importDocumentsCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var r io.Reader = os.Stdin
	if c.NArg() > 0 && c.Args().First() != "-" {
		f, err := os.Open(c.Args().First())
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	s, err := alignsearch.Open(ctx, c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	importer, err := s.NewDocumentImporter(ingest.WithBatchSize(c.Int("batch-size")))
	if err != nil {
		return err
	}
	stats, err := importer.Import(ctx, r)
	if err != nil {
		return fmt.Errorf("document import failed after %d documents: %w", stats.Documents, err)
	}
	fmt.Fprintf(c.App.Writer, "Imported %d documents (%d skipped), %d tokens, %d new vocabulary entries\n",
		stats.Documents, stats.Skipped, stats.Tokens, stats.NewTokens)
	return nil
}

func listEmbeddingsCommand(c *cli.Context) error {
	s, err := alignsearch.Open(c.Context, c.String("db"))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	for _, name := range s.Registry().Names() {
		e, err := s.Registry().Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "%s\t%d x %d\n", name, e.Vectors().Rows(), e.Vectors().Dim())
	}
	return nil
}

// serveMetrics starts a metrics endpoint when --metrics-addr is set. The
// returned registerer is nil otherwise, which leaves collectors unregistered.
func serveMetrics(c *cli.Context) (prometheus.Registerer, func()) {
	addr := c.String("metrics-addr")
	if addr == "" {
		return nil, func() {}
	}

	reg := prometheus.NewRegistry()
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "err", err)
		}
	}()

	return reg, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
