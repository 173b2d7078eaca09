package answer

import "fmt"

// ScoreMetric fixes which direction of a retrieval score counts as weak.
// The convention must match what the vector index actually returns; pgvector's
// <=> operator yields cosine distance, where higher means weaker.
type ScoreMetric int

const (
	// MetricDistance: a score above the threshold is a weak match.
	MetricDistance ScoreMetric = iota
	// MetricSimilarity: a score below the threshold is a weak match.
	MetricSimilarity
)

func ParseMetric(name string) (ScoreMetric, error) {
	switch name {
	case "distance":
		return MetricDistance, nil
	case "similarity":
		return MetricSimilarity, nil
	default:
		return MetricDistance, fmt.Errorf("unknown score metric %q", name)
	}
}

// Gate decides whether local retrieval confidence is too low to answer from
// the corpus, in which case the orchestrator falls back to web search.
type Gate struct {
	Threshold float64
	WeakRatio float64
	Metric    ScoreMetric
}

// ShouldFallback reports whether the share of weak scores reaches WeakRatio.
// An empty score list always falls back: there is no signal to trust.
func (g Gate) ShouldFallback(scores []float64) bool {
	if len(scores) == 0 {
		return true
	}

	weak := 0
	for _, score := range scores {
		if g.isWeak(score) {
			weak++
		}
	}
	return float64(weak) >= float64(len(scores))*g.WeakRatio
}

func (g Gate) isWeak(score float64) bool {
	if g.Metric == MetricSimilarity {
		return score < g.Threshold
	}
	return score > g.Threshold
}
