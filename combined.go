package anyacquire

import (
	"sort"

	"github.com/unixpickle/essentials"
)

// A Selection is one position chosen by a two-stage
// combined selector.
//
// ExampleScore is the example-level score from the first
// stage; the remaining fields come from the feature-level
// stage.
type Selection struct {
	Example      int
	ExampleScore float64
	Position     int
	Benefit      float64
	Cost         float64
	Ratio        float64
	BestClass    int
}

// A Combined composes an example-level strategy with a
// feature-level strategy: examples are ranked first, then
// positions within each chosen example, and the flattened
// result is re-sorted globally by benefit/cost ratio.
type Combined struct {
	Examples ExampleStrategy
	Features FeatureStrategy
}

// Name joins the two strategies' names with a "+".
func (c *Combined) Name() string {
	return c.Examples.Name() + "+" + c.Features.Name()
}

// Select picks numExamples examples and up to numFeatures
// positions within each.
// featureCosts maps example indices to per-position cost
// maps; both cost arguments may be nil for unit costs.
func (c *Combined) Select(d Dataset, numExamples, numFeatures int,
	exampleCosts map[int]float64, featureCosts map[int]map[int]float64) ([]*Selection, error) {
	ids, scores, err := c.Examples.SelectExamples(d, numExamples, exampleCosts)
	if err != nil {
		return nil, essentials.AddCtx("combined select", err)
	}

	var res []*Selection
	for i, id := range ids {
		var posCosts map[int]float64
		if featureCosts != nil {
			posCosts = featureCosts[id]
		}
		features, err := c.Features.SelectFeatures(d, id, numFeatures, posCosts)
		if err != nil {
			return nil, essentials.AddCtx("combined select", err)
		}
		exampleScore := 1.0
		if i < len(scores) {
			exampleScore = scores[i]
		}
		for _, f := range features {
			res = append(res, &Selection{
				Example:      id,
				ExampleScore: exampleScore,
				Position:     f.Position,
				Benefit:      f.Benefit,
				Cost:         f.Cost,
				Ratio:        f.Ratio,
				BestClass:    f.BestClass,
			})
		}
	}

	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Ratio > res[j].Ratio
	})
	return res, nil
}
