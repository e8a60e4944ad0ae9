package anyacquire

import (
	"math"
	"math/rand"
	"sort"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
)

// A FeatureScore records one candidate position's benefit,
// annotation cost, and benefit/cost ratio.
//
// BestClass is the most informative class value for
// strategies that estimate one (fast VOI) and -1
// otherwise.
type FeatureScore struct {
	Position  int
	Benefit   float64
	Cost      float64
	Ratio     float64
	BestClass int
}

// An ExampleStrategy ranks whole examples for annotation.
//
// SelectExamples returns at most numToSelect example
// indices with their scores, ordered by decreasing
// benefit/cost ratio unless documented otherwise.
// A nil costs map means unit cost per example.
// A dataset with no maskable examples yields empty
// results, not an error.
type ExampleStrategy interface {
	Name() string
	SelectExamples(d Dataset, numToSelect int, costs map[int]float64) ([]int, []float64, error)
}

// A FeatureStrategy ranks masked positions within one
// example for annotation.
//
// A nil costs map means unit cost per position.
// An example with no masked positions (or no valid target
// positions) yields an empty result, not an error.
type FeatureStrategy interface {
	Name() string
	SelectFeatures(d Dataset, example, numToSelect int, costs map[int]float64) ([]*FeatureScore, error)
}

// SelectBatchFeatures runs a feature strategy over several
// examples, using the per-example cost maps from costs
// when present.
func SelectBatchFeatures(s FeatureStrategy, d Dataset, examples []int, numToSelect int,
	costs map[int]map[int]float64) (map[int][]*FeatureScore, error) {
	res := map[int][]*FeatureScore{}
	for _, idx := range examples {
		var posCosts map[int]float64
		if costs != nil {
			posCosts = costs[idx]
		}
		scores, err := s.SelectFeatures(d, idx, numToSelect, posCosts)
		if err != nil {
			return nil, essentials.AddCtx("select batch features", err)
		}
		res[idx] = scores
	}
	return res, nil
}

// RandomExamples selects examples uniformly at random,
// as a baseline.
// Every selected example gets a score of 1.
type RandomExamples struct{}

// Name returns "random_example".
func (r RandomExamples) Name() string {
	return "random_example"
}

// SelectExamples picks numToSelect random examples from
// those with at least one masked position.
func (r RandomExamples) SelectExamples(d Dataset, numToSelect int,
	costs map[int]float64) ([]int, []float64, error) {
	valid := validExamples(d)
	var selected []int
	if len(valid) <= numToSelect {
		selected = valid
	} else {
		for _, i := range rand.Perm(len(valid))[:numToSelect] {
			selected = append(selected, valid[i])
		}
	}
	scores := make([]float64, len(selected))
	for i := range scores {
		scores[i] = 1
	}
	return selected, scores, nil
}

// RandomFeatures selects masked positions uniformly at
// random, as a baseline.
// Benefit equals cost, so every ratio is 1.
type RandomFeatures struct{}

// Name returns "random_feature".
func (r RandomFeatures) Name() string {
	return "random_feature"
}

// SelectFeatures picks numToSelect random masked positions
// from the example.
func (r RandomFeatures) SelectFeatures(d Dataset, example, numToSelect int,
	costs map[int]float64) ([]*FeatureScore, error) {
	masked := d.MaskedPositions(example)
	var selected []int
	if len(masked) <= numToSelect {
		selected = masked
	} else {
		for _, i := range rand.Perm(len(masked))[:numToSelect] {
			selected = append(selected, masked[i])
		}
	}
	var res []*FeatureScore
	for _, pos := range selected {
		cost := costOf(costs, pos)
		res = append(res, &FeatureScore{
			Position:  pos,
			Benefit:   cost,
			Cost:      cost,
			Ratio:     1,
			BestClass: -1,
		})
	}
	return res, nil
}

// EntropyExamples selects the examples whose masked
// positions have the highest mean predictive entropy.
type EntropyExamples struct {
	Model Model
}

// Name returns "entropy".
func (e *EntropyExamples) Name() string {
	return "entropy"
}

// SelectExamples ranks examples by mean masked-position
// entropy.
// With a costs map the ranking key (and returned score) is
// entropy divided by cost; without one it is the raw
// entropy.
func (e *EntropyExamples) SelectExamples(d Dataset, numToSelect int,
	costs map[int]float64) ([]int, []float64, error) {
	numClasses := e.Model.NumClasses()

	var ids []int
	var scores []float64
	for idx := 0; idx < d.Len(); idx++ {
		masked := d.MaskedPositions(idx)
		if len(masked) == 0 {
			continue
		}
		ex := d.Example(idx)
		out := e.Model.Apply(ex.batch(anydiff.NewConst(ex.Inputs.Copy()), 1))
		data := vectorData(out.Output())

		var total float64
		for _, pos := range masked {
			total += entropyOf(softmax(data[pos*numClasses : (pos+1)*numClasses]))
		}
		score := total / float64(len(masked))
		if costs != nil {
			score /= math.Max(costOf(costs, idx), costFloor)
		}
		ids = append(ids, idx)
		scores = append(scores, score)
	}

	sortByScore(ids, scores)
	if len(ids) > numToSelect {
		ids = ids[:numToSelect]
		scores = scores[:numToSelect]
	}
	return ids, scores, nil
}

// EntropyFeatures selects the masked positions with the
// highest predictive entropy per unit cost.
type EntropyFeatures struct {
	Model Model
}

// Name returns "entropy".
func (e *EntropyFeatures) Name() string {
	return "entropy"
}

// SelectFeatures ranks the example's masked positions by
// entropy/cost ratio.
func (e *EntropyFeatures) SelectFeatures(d Dataset, example, numToSelect int,
	costs map[int]float64) ([]*FeatureScore, error) {
	masked := d.MaskedPositions(example)
	if len(masked) == 0 {
		return nil, nil
	}
	numClasses := e.Model.NumClasses()
	ex := d.Example(example)
	out := e.Model.Apply(ex.batch(anydiff.NewConst(ex.Inputs.Copy()), 1))
	data := vectorData(out.Output())

	var res []*FeatureScore
	for _, pos := range masked {
		entropy := entropyOf(softmax(data[pos*numClasses : (pos+1)*numClasses]))
		cost := costOf(costs, pos)
		res = append(res, &FeatureScore{
			Position:  pos,
			Benefit:   entropy,
			Cost:      cost,
			Ratio:     entropy / math.Max(cost, costFloor),
			BestClass: -1,
		})
	}
	sortByRatio(res)
	if len(res) > numToSelect {
		res = res[:numToSelect]
	}
	return res, nil
}

// validExamples returns the indices of the examples with
// at least one masked position.
func validExamples(d Dataset) []int {
	var res []int
	for idx := 0; idx < d.Len(); idx++ {
		if len(d.MaskedPositions(idx)) > 0 {
			res = append(res, idx)
		}
	}
	return res
}

func costOf(costs map[int]float64, key int) float64 {
	if costs == nil {
		return 1
	}
	if cost, ok := costs[key]; ok {
		return cost
	}
	return 1
}

func sortByRatio(scores []*FeatureScore) {
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Ratio > scores[j].Ratio
	})
}

func sortByScore(ids []int, scores []float64) {
	perm := make([]int, len(ids))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(i, j int) bool {
		return scores[perm[i]] > scores[perm[j]]
	})
	newIDs := make([]int, len(ids))
	newScores := make([]float64, len(scores))
	for i, p := range perm {
		newIDs[i] = ids[p]
		newScores[i] = scores[p]
	}
	copy(ids, newIDs)
	copy(scores, newScores)
}
