package alignment

import (
	"fmt"

	"github.com/poiesic/alignsearch/core"
)

// Algorithm names.
const (
	AlgorithmWSB  = "wsb"
	AlgorithmRWMD = "rwmd"
	AlgorithmWRD  = "wrd"
)

// DefaultZero is the default local alignment reset threshold of WatermanSmithBeyer.
const DefaultZero = 0.5

// Algorithm aligns a Slice. Init pre-sizes working buffers; Align grows them
// if a slice exceeds the initialized bounds.
type Algorithm interface {
	Name() string
	Init(maxLenS, maxLenT int)
	Align(s Slice) Result
}

// Config selects and parameterizes an Algorithm.
type Config struct {
	Name string

	// WatermanSmithBeyer
	Gap  GapCost
	Zero float32

	// RelaxedWordMoversDistance
	NormalizeBOW bool
	Symmetric    bool
	OneTarget    bool

	// POSAware is set when the metric's similarity depends on tags.
	POSAware bool
}

// DefaultConfig returns WatermanSmithBeyer without gaps.
func DefaultConfig() Config {
	return Config{
		Name:         AlgorithmWSB,
		Gap:          NoGaps(),
		Zero:         DefaultZero,
		NormalizeBOW: true,
		Symmetric:    true,
		OneTarget:    true,
	}
}

// Validate reports configuration errors without building an Algorithm.
func (c Config) Validate() error {
	switch c.Name {
	case AlgorithmWSB:
		if c.Gap == nil {
			return nil
		}
		if err := ValidateGap(c.Gap); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidOptionValue, err)
		}
		return nil
	case AlgorithmRWMD, AlgorithmWRD:
		return nil
	default:
		return fmt.Errorf("%w: %q", core.ErrUnsupportedAlgorithm, c.Name)
	}
}

// New validates c and builds a fresh, uninitialized Algorithm.
func New(c Config) (Algorithm, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	switch c.Name {
	case AlgorithmRWMD:
		return NewRelaxedWordMoversDistance(c.NormalizeBOW, c.Symmetric, c.OneTarget, c.POSAware), nil
	case AlgorithmWRD:
		return NewWordRotatorsDistance(), nil
	default:
		return NewWatermanSmithBeyer(c.Gap, c.Zero), nil
	}
}
