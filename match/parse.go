package match

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/poiesic/alignsearch/alignment"
	"github.com/poiesic/alignsearch/core"
	"gopkg.in/yaml.v3"
)

// LoadOptions reads query options from a YAML file holding the same keys
// ParseOptions accepts.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("read query options: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Options{}, fmt.Errorf("%w: parse %s: %w", core.ErrInvalidOptionValue, path, err)
	}
	return ParseOptions(raw)
}

// ParseOptions builds Options from a generic key/value structure, starting
// from DefaultOptions. Unknown keys, including keys of the nested metric,
// algorithm and partition maps, fail with core.ErrIllegalOption.
func ParseOptions(raw map[string]any) (Options, error) {
	o := DefaultOptions()
	if err := checkKeys(raw, topLevelKeys); err != nil {
		return Options{}, err
	}

	var err error
	for _, key := range sortedKeys(raw) {
		v := raw[key]
		switch key {
		case "metric":
			err = parseMeasure(v, &o)
		case "algorithm":
			err = parseAlgorithm(v, &o.Algorithm)
		case "metrics":
			o.Metrics, err = parseMetrics(v)
		case "similarity_falloff":
			o.SimilarityFalloff, err = toFloat(key, v)
		case "similarity_threshold":
			o.SimilarityThreshold, err = toFloat(key, v)
		case "submatch_weight":
			o.SubmatchWeight, err = toFloat(key, v)
		case "bidirectional":
			o.Bidirectional, err = toBool(key, v)
		case "pos_filter":
			o.POSFilter, err = toStrings(key, v)
		case "tag_filter":
			o.TagFilter, err = toStrings(key, v)
		case "pos_weights":
			o.POSWeights, err = toWeights(key, v)
		case "pos_mismatch_penalty":
			o.POSMismatchPenalty, err = toFloat(key, v)
		case "max_matches":
			o.MaxMatches, err = toInt(key, v)
		case "min_score":
			o.MinScore, err = toFloat(key, v)
		case "partition":
			err = parsePartition(v, &o.Partition)
		}
		if err != nil {
			return Options{}, err
		}
	}

	if err := o.Validate(); err != nil {
		return Options{}, err
	}
	return o, nil
}

var (
	topLevelKeys = []string{
		"metric", "algorithm", "metrics", "similarity_falloff", "similarity_threshold",
		"submatch_weight", "bidirectional", "pos_filter", "tag_filter", "pos_weights",
		"pos_mismatch_penalty", "max_matches", "min_score", "partition",
	}
	measureKeys   = []string{"name", "p", "scale"}
	algorithmKeys = []string{"name", "gap", "zero", "normalize_bow", "symmetric", "one_target"}
	partitionKeys = []string{"level", "window_size", "window_step"}
	compositeKeys = []string{"op", "a", "b", "t"}
	gapKeys       = []string{"constant", "linear", "exponential"}
)

func checkKeys(raw map[string]any, allowed []string) error {
	for _, key := range sortedKeys(raw) {
		known := false
		for _, a := range allowed {
			if key == a {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%w %s", core.ErrIllegalOption, key)
		}
	}
	return nil
}

func sortedKeys(raw map[string]any) []string {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// "metric": "cosine" or {name: p-norm, p: 3, scale: 0.5}
func parseMeasure(v any, o *Options) error {
	switch x := v.(type) {
	case string:
		o.Measure.Name = x
		return nil
	case map[string]any:
		if err := checkKeys(x, measureKeys); err != nil {
			return err
		}
		var err error
		if name, ok := x["name"]; ok {
			if o.Measure.Name, err = toString("metric.name", name); err != nil {
				return err
			}
		}
		if p, ok := x["p"]; ok {
			if o.Measure.P, err = toFloat("metric.p", p); err != nil {
				return err
			}
		}
		if s, ok := x["scale"]; ok {
			if o.Measure.Scale, err = toFloat("metric.scale", s); err != nil {
				return err
			}
		}
		return nil
	default:
		return invalid("metric", v)
	}
}

// "algorithm": "rwmd" or {name: wsb, gap: 0.2, zero: 0.5}
func parseAlgorithm(v any, c *alignment.Config) error {
	switch x := v.(type) {
	case string:
		c.Name = x
		return nil
	case map[string]any:
		if err := checkKeys(x, algorithmKeys); err != nil {
			return err
		}
		var err error
		for _, key := range sortedKeys(x) {
			val := x[key]
			switch key {
			case "name":
				c.Name, err = toString("algorithm.name", val)
			case "gap":
				c.Gap, err = parseGap(val)
			case "zero":
				c.Zero, err = toFloat("algorithm.zero", val)
			case "normalize_bow":
				c.NormalizeBOW, err = toBool("algorithm.normalize_bow", val)
			case "symmetric":
				c.Symmetric, err = toBool("algorithm.symmetric", val)
			case "one_target":
				c.OneTarget, err = toBool("algorithm.one_target", val)
			}
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return invalid("algorithm", v)
	}
}

// "gap": 0.2 (per token), [0, 0.2, 0.5] (table) or {exponential: 4}
func parseGap(v any) (alignment.GapCost, error) {
	switch x := v.(type) {
	case []any:
		table := make(alignment.TableGap, len(x))
		for i, e := range x {
			f, err := toFloat("algorithm.gap", e)
			if err != nil {
				return nil, err
			}
			table[i] = f
		}
		return table, nil
	case map[string]any:
		if err := checkKeys(x, gapKeys); err != nil {
			return nil, err
		}
		if len(x) != 1 {
			return nil, fmt.Errorf("%w: algorithm.gap needs exactly one family", core.ErrInvalidOptionValue)
		}
		for family, param := range x {
			f, err := toFloat("algorithm.gap."+family, param)
			if err != nil {
				return nil, err
			}
			switch family {
			case "constant":
				return alignment.ConstantGap(f), nil
			case "linear":
				return alignment.LinearGap(f), nil
			default:
				return alignment.ExponentialGap{Cutoff: f}, nil
			}
		}
		return nil, nil
	default:
		f, err := toFloat("algorithm.gap", v)
		if err != nil {
			return nil, err
		}
		return alignment.LinearGap(f), nil
	}
}

// "metrics": ["fasttext", ["fasttext", "glove", 0.3], {op: max, a: fasttext, b: glove}]
func parseMetrics(v any) ([]MetricSpec, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: metrics must be a list", core.ErrMalformedMetricSpec)
	}
	specs := make([]MetricSpec, 0, len(items))
	for _, item := range items {
		switch x := item.(type) {
		case string:
			specs = append(specs, MetricSpec{Embedding: x})
		case []any:
			if len(x) != 3 {
				return nil, fmt.Errorf("%w: expected [a, b, t], got %d elements", core.ErrMalformedMetricSpec, len(x))
			}
			a, okA := x[0].(string)
			b, okB := x[1].(string)
			t, err := toFloat("metrics.t", x[2])
			if !okA || !okB || err != nil {
				return nil, fmt.Errorf("%w: expected [a, b, t], got %v", core.ErrMalformedMetricSpec, x)
			}
			specs = append(specs, MetricSpec{Op: OpLerp, A: a, B: b, T: t})
		case map[string]any:
			if err := checkKeys(x, compositeKeys); err != nil {
				return nil, err
			}
			spec := MetricSpec{Op: OpLerp, T: 0.5}
			var err error
			if op, ok := x["op"]; ok {
				if spec.Op, err = toString("metrics.op", op); err != nil {
					return nil, err
				}
			}
			a, okA := x["a"].(string)
			b, okB := x["b"].(string)
			if !okA || !okB {
				return nil, fmt.Errorf("%w: composite needs string a and b", core.ErrMalformedMetricSpec)
			}
			spec.A, spec.B = a, b
			if t, ok := x["t"]; ok {
				if spec.T, err = toFloat("metrics.t", t); err != nil {
					return nil, err
				}
			}
			specs = append(specs, spec)
		default:
			return nil, fmt.Errorf("%w: unexpected entry %v", core.ErrMalformedMetricSpec, item)
		}
	}
	return specs, nil
}

// "partition": {level: sentence, window_size: 2, window_step: 1}
func parsePartition(v any, p *Partition) error {
	x, ok := v.(map[string]any)
	if !ok {
		return invalid("partition", v)
	}
	if err := checkKeys(x, partitionKeys); err != nil {
		return err
	}
	var err error
	if level, ok := x["level"]; ok {
		if p.Level, err = toString("partition.level", level); err != nil {
			return err
		}
	}
	if size, ok := x["window_size"]; ok {
		if p.WindowSize, err = toInt("partition.window_size", size); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidPartition, err)
		}
	}
	if step, ok := x["window_step"]; ok {
		if p.WindowStep, err = toInt("partition.window_step", step); err != nil {
			return fmt.Errorf("%w: %w", core.ErrInvalidPartition, err)
		}
	}
	return nil
}

func invalid(key string, v any) error {
	return fmt.Errorf("%w: %s = %v (%T)", core.ErrInvalidOptionValue, key, v, v)
}

func toFloat(key string, v any) (float32, error) {
	switch x := v.(type) {
	case float64:
		return float32(x), nil
	case float32:
		return x, nil
	case int:
		return float32(x), nil
	case int64:
		return float32(x), nil
	case string:
		// YAML writes infinity as .inf, JSON callers may pass "inf"
		switch x {
		case "inf", "+inf", ".inf", "Infinity":
			return float32(math.Inf(1)), nil
		}
	}
	return 0, invalid(key, v)
}

func toInt(key string, v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x == math.Trunc(x) {
			return int(x), nil
		}
	}
	return 0, invalid(key, v)
}

func toBool(key string, v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, invalid(key, v)
}

func toString(key string, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	return "", invalid(key, v)
}

func toStrings(key string, v any) ([]string, error) {
	switch x := v.(type) {
	case []string:
		return x, nil
	case []any:
		out := make([]string, len(x))
		for i, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, invalid(key, v)
			}
			out[i] = s
		}
		return out, nil
	}
	return nil, invalid(key, v)
}

func toWeights(key string, v any) (map[string]float32, error) {
	x, ok := v.(map[string]any)
	if !ok {
		return nil, invalid(key, v)
	}
	out := make(map[string]float32, len(x))
	for tag, w := range x {
		f, err := toFloat(key+"."+tag, w)
		if err != nil {
			return nil, err
		}
		out[tag] = f
	}
	return out, nil
}
