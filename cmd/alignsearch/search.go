package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/poiesic/alignsearch"
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/ingest"
	"github.com/poiesic/alignsearch/match"
	"github.com/poiesic/alignsearch/metrics"
	"github.com/poiesic/alignsearch/search"
	"github.com/urfave/cli/v2"
)

func searchCommand(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	var tagged []ingest.JSONToken
	if raw := c.String("tokens"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &tagged); err != nil {
			return fmt.Errorf("invalid query tokens: %w", err)
		}
	} else if strings.TrimSpace(text) == "" {
		return fmt.Errorf("query text is required")
	}

	opts := match.DefaultOptions()
	if path := c.String("config"); path != "" {
		var err error
		if opts, err = match.LoadOptions(path); err != nil {
			return fmt.Errorf("invalid query configuration: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, shutdown := serveMetrics(c)
	defer shutdown()

	s, err := alignsearch.Open(ctx, c.String("db"),
		alignsearch.WithSearchMetrics(metrics.NewSearchMetrics(reg)))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	var q *match.Query
	if tagged != nil {
		q, err = s.NewTaggedQuery(tagged, opts)
	} else {
		q, err = s.NewQuery(text, opts)
	}
	if err != nil {
		return err
	}
	var searchOpts []search.Option
	if n := c.Int("workers"); n > 0 {
		searchOpts = append(searchOpts, search.WithPoolSize(n))
	}
	searcher, err := s.NewSearcher(searchOpts...)
	if err != nil {
		return err
	}
	defer searcher.Release()

	report, err := searcher.Search(ctx, q)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Found %d matches in %d documents (%d spans) in %s\n",
		report.Results.Len(), report.Documents, report.Spans, report.Elapsed)
	if report.Aborted {
		fmt.Fprintln(w, "Search interrupted, results are partial")
	}
	for i, m := range report.Results.BestN(c.Int("limit")) {
		doc, err := s.Repositories().Documents.GetDocument(ctx, m.Digest.Document)
		if err != nil {
			return err
		}
		span := findSpan(opts.Partition, doc, m.Digest.Span)
		fmt.Fprintf(w, "%d: [%0.3f] %s #%d (%s): %s\n", i+1, m.Score, doc.Title, m.Digest.Span,
			m.Metric, spanText(s.Vocabulary(), doc, span))
		if c.Bool("explain") {
			explain(w, s.Vocabulary(), q, doc, span, m)
		}
	}
	return nil
}

func findSpan(p match.Partition, doc *core.Document, id int) core.Span {
	for _, span := range p.Spans(doc) {
		if span.Id == id {
			return span
		}
	}
	return core.Span{Id: id}
}

func spanText(vocab *core.Vocabulary, doc *core.Document, span core.Span) string {
	words := make([]string, span.Len)
	for i := range words {
		words[i] = vocab.Token(doc.Tokens[span.TokenAt+i].ID)
	}
	return strings.Join(words, " ")
}

func explain(w io.Writer, vocab *core.Vocabulary, q *match.Query, doc *core.Document, span core.Span, m *core.Match) {
	words := strings.Fields(q.Text())
	for j, u := range m.Digest.Alignment {
		word := vocab.Token(q.Tokens()[j].ID)
		if len(words) == q.Len() {
			word = words[j]
		}
		if u == core.Unmatched {
			fmt.Fprintf(w, "    %-20s -\n", word)
			continue
		}
		source := vocab.Token(doc.Tokens[span.TokenAt+u].ID)
		if j < len(m.Scores) {
			fmt.Fprintf(w, "    %-20s %-20s %0.3f (weight %0.2f)\n", word, source, m.Scores[j].Similarity, m.Scores[j].Weight)
		} else {
			fmt.Fprintf(w, "    %-20s %s\n", word, source)
		}
	}
}
