package anyacquire

import (
	"errors"
	"math"
	"sort"
)

// GradientExamples selects the examples whose estimated
// training gradients best align with sampled validation
// gradients.
type GradientExamples struct {
	Selector *GradSelector

	// Validation supplies the gradient direction the
	// selected examples should move the model along.
	// It is required; SelectExamples fails without it.
	Validation Dataset
}

// Name returns "gradient".
func (g *GradientExamples) Name() string {
	return "gradient"
}

// SelectExamples ranks examples by mean gradient alignment
// per unit cost.
// The returned scores are the raw alignment values of the
// chosen examples.
func (g *GradientExamples) SelectExamples(d Dataset, numToSelect int,
	costs map[int]float64) ([]int, []float64, error) {
	if g.Validation == nil {
		return nil, nil, errors.New("select examples: " +
			"validation dataset is required for gradient selection")
	}

	valGrads := g.Selector.ValidationGradients(g.Validation)

	type scored struct {
		idx   int
		score float64
		ratio float64
	}
	var all []scored
	for idx := 0; idx < d.Len(); idx++ {
		if len(d.MaskedPositions(idx)) == 0 {
			continue
		}
		ex := d.Example(idx)
		grad := g.Selector.ExampleGradient(ex)
		NormalizeGrad(grad)

		var total float64
		for _, vg := range valGrads {
			total += Alignment(vg, grad)
		}
		var avg float64
		if len(valGrads) > 0 {
			avg = total / float64(len(valGrads))
		}
		cost := costOf(costs, idx)
		all = append(all, scored{
			idx:   idx,
			score: avg,
			ratio: avg / math.Max(cost, costFloor),
		})
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].ratio > all[j].ratio
	})
	if len(all) > numToSelect {
		all = all[:numToSelect]
	}

	var ids []int
	var scores []float64
	for _, s := range all {
		ids = append(ids, s.idx)
		scores = append(scores, s.score)
	}
	return ids, scores, nil
}

// BADGEExamples selects a diverse batch of uncertain
// examples by k-means++ seeding over gradient embeddings.
type BADGEExamples struct {
	Selector *GradSelector
}

// Name returns "badge".
func (b *BADGEExamples) Name() string {
	return "badge"
}

// SelectExamples embeds every maskable example, seeds a
// diverse subset, and returns it with per-example
// uncertainty scores.
// With a costs map, the chosen subset is re-ranked by
// uncertainty/cost ratio.
func (b *BADGEExamples) SelectExamples(d Dataset, numToSelect int,
	costs map[int]float64) ([]int, []float64, error) {
	valid := validExamples(d)
	if len(valid) == 0 {
		return nil, nil, nil
	}

	points := make([][]float64, len(valid))
	uncertainty := make([]float64, len(valid))
	for i, idx := range valid {
		points[i], uncertainty[i] = b.Selector.GradientEmbedding(d.Example(idx))
	}

	if numToSelect > len(valid) {
		numToSelect = len(valid)
	}
	picked := KMeansSeed(points, numToSelect)

	var ids []int
	var scores []float64
	for _, i := range picked {
		ids = append(ids, valid[i])
		scores = append(scores, uncertainty[i])
	}

	if costs != nil {
		ratios := make([]float64, len(ids))
		for i, idx := range ids {
			ratios[i] = scores[i] / math.Max(costOf(costs, idx), costFloor)
		}
		perm := make([]int, len(ids))
		for i := range perm {
			perm[i] = i
		}
		sort.SliceStable(perm, func(i, j int) bool {
			return ratios[perm[i]] > ratios[perm[j]]
		})
		newIDs := make([]int, len(ids))
		newScores := make([]float64, len(scores))
		for i, p := range perm {
			newIDs[i] = ids[p]
			newScores[i] = scores[p]
		}
		ids, scores = newIDs, newScores
	}

	return ids, scores, nil
}
