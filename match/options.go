package match

import (
	"fmt"

	"github.com/poiesic/alignsearch/alignment"
	"github.com/poiesic/alignsearch/core"
	"github.com/poiesic/alignsearch/embedding"
)

// Partition levels.
const (
	LevelSentence = "sentence"
	LevelToken    = "token"
)

// Composite operators.
const (
	OpLerp = "lerp"
	OpMin  = "min"
	OpMax  = "max"
)

// Defaults
const (
	DefaultMaxMatches = 100
	DefaultMinScore   = 0.2
)

// Partition describes how documents are cut into spans. Windows of
// WindowSize units start every WindowStep units.
type Partition struct {
	Level      string `yaml:"level"`
	WindowSize int    `yaml:"window_size"`
	WindowStep int    `yaml:"window_step"`
}

// MetricSpec names one metric of a query. With an empty Op the metric is the
// embedding named by Embedding (empty selects the default embedding).
// Otherwise it blends the embeddings A and B with Op and ratio T.
type MetricSpec struct {
	Embedding string
	Op        string
	A, B      string
	T         float32
}

// Options configures a Query.
type Options struct {
	Measure   embedding.MeasureSpec
	Algorithm alignment.Config
	Metrics   []MetricSpec

	SimilarityFalloff   float32
	SimilarityThreshold float32
	SubmatchWeight      float32
	Bidirectional       bool

	// POSFilter and TagFilter name POS and tags whose tokens are ignored on the document side.
	POSFilter []string
	TagFilter []string

	// POSWeights maps tag names to query token weights. Unlisted tags weigh 1.
	POSWeights map[string]float32
	// POSMismatchPenalty scales similarities of differently tagged tokens by 1 - penalty.
	POSMismatchPenalty float32

	MaxMatches int
	MinScore   float32
	Partition  Partition
}

// DefaultOptions returns cosine similarity aligned by WatermanSmithBeyer
// without gaps over single sentences of the default embedding.
func DefaultOptions() Options {
	return Options{
		Measure:           embedding.DefaultMeasureSpec(),
		Algorithm:         alignment.DefaultConfig(),
		Metrics:           []MetricSpec{{}},
		SimilarityFalloff: 1,
		MaxMatches:        DefaultMaxMatches,
		MinScore:          DefaultMinScore,
		Partition: Partition{
			Level:      LevelSentence,
			WindowSize: 1,
			WindowStep: 1,
		},
	}
}

// Validate checks option ranges. All failures wrap core.ErrConfiguration.
func (o Options) Validate() error {
	if _, err := embedding.NewMeasure(o.Measure); err != nil {
		return err
	}
	if err := o.Algorithm.Validate(); err != nil {
		return err
	}
	if err := o.Partition.Validate(); err != nil {
		return err
	}
	if len(o.Metrics) == 0 {
		return fmt.Errorf("%w: metrics must not be empty", core.ErrMalformedMetricSpec)
	}
	for _, m := range o.Metrics {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	if !(o.SimilarityFalloff > 0) {
		return fmt.Errorf("%w: similarity_falloff must be > 0, got %v", core.ErrInvalidOptionValue, o.SimilarityFalloff)
	}
	if o.SubmatchWeight < 0 {
		return fmt.Errorf("%w: submatch_weight must be >= 0, got %v", core.ErrInvalidOptionValue, o.SubmatchWeight)
	}
	if o.POSMismatchPenalty < 0 || o.POSMismatchPenalty > 1 {
		return fmt.Errorf("%w: pos_mismatch_penalty must be in [0, 1], got %v", core.ErrInvalidOptionValue, o.POSMismatchPenalty)
	}
	if o.MaxMatches < 1 {
		return fmt.Errorf("%w: max_matches must be >= 1, got %d", core.ErrInvalidOptionValue, o.MaxMatches)
	}
	for tag, w := range o.POSWeights {
		if w < 0 {
			return fmt.Errorf("%w: weight of %q must be >= 0", core.ErrInvalidOptionValue, tag)
		}
	}
	return nil
}

// Validate checks the level and window parameters.
func (p Partition) Validate() error {
	if p.Level != LevelSentence && p.Level != LevelToken {
		return fmt.Errorf("%w: unknown level %q", core.ErrInvalidPartition, p.Level)
	}
	if p.WindowSize < 1 {
		return fmt.Errorf("%w: window_size must be >= 1, got %d", core.ErrInvalidPartition, p.WindowSize)
	}
	if p.WindowStep < 1 {
		return fmt.Errorf("%w: window_step must be >= 1, got %d", core.ErrInvalidPartition, p.WindowStep)
	}
	return nil
}

// Validate checks the operator and mix ratio.
func (m MetricSpec) Validate() error {
	switch m.Op {
	case "":
		return nil
	case OpLerp, OpMin, OpMax:
		if m.A == "" || m.B == "" {
			return fmt.Errorf("%w: %s needs two embeddings", core.ErrMalformedMetricSpec, m.Op)
		}
		if m.T < 0 || m.T > 1 {
			return fmt.Errorf("%w: mix ratio %v outside [0, 1]", core.ErrMalformedMetricSpec, m.T)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown operator %q", core.ErrMalformedMetricSpec, m.Op)
	}
}

// String names the metric as it appears on matches.
func (m MetricSpec) String() string {
	if m.Op == "" {
		return m.Embedding
	}
	return fmt.Sprintf("%s(%s, %s, %g)", m.Op, m.A, m.B, m.T)
}
