package match

import "github.com/poiesic/alignsearch/core"

// DebugHook receives a dump of every span a matcher compared. It is called
// synchronously from the matcher's goroutine; matchers running in parallel
// call it concurrently.
type DebugHook func(SpanDump)

// DumpToken is a token as seen by the aligner.
type DumpToken struct {
	ID   int32  `json:"id"`
	Text string `json:"text"`
}

// SpanDump describes one span comparison.
type SpanDump struct {
	Document  core.ID     `json:"document"`
	Span      core.Span   `json:"span"`
	Metric    string      `json:"metric"`
	Algorithm string      `json:"algorithm"`
	Source    []DumpToken `json:"source"`
	Query     []DumpToken `json:"query"`
	Score     float32     `json:"score"`
}

func dumpTokens(vocab *core.Vocabulary, tokens []core.Token) []DumpToken {
	out := make([]DumpToken, len(tokens))
	for i, t := range tokens {
		out[i] = DumpToken{ID: t.ID, Text: vocab.Token(t.ID)}
	}
	return out
}
