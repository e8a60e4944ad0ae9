package anyacquire

// defaultTargetQuestions is used when a VOI strategy has
// no explicit target question list.
var defaultTargetQuestions = []int{0}

// VOIFeatures selects masked positions by exact
// counterfactual VOI against the target questions'
// positions.
type VOIFeatures struct {
	Calc *VOI

	// TargetQuestions are the question IDs whose positions
	// form the VOI target set.
	// A nil slice means question 0.
	TargetQuestions []int
}

// Name returns "voi".
func (v *VOIFeatures) Name() string {
	return "voi"
}

// SelectFeatures ranks the example's masked positions by
// VOI/cost ratio.
func (v *VOIFeatures) SelectFeatures(d Dataset, example, numToSelect int,
	costs map[int]float64) ([]*FeatureScore, error) {
	return selectVOIFeatures(d, example, numToSelect, costs, v.TargetQuestions,
		func(ex *Example, pos int, targets []int, cost float64) *FeatureScore {
			r := v.Calc.Compute(ex, pos, targets, cost)
			return &FeatureScore{
				Position:  pos,
				Benefit:   r.VOI,
				Cost:      cost,
				Ratio:     r.Ratio,
				BestClass: -1,
			}
		})
}

// ArgmaxVOIFeatures is VOIFeatures with the argmax VOI
// estimator: only the candidate's most probable class
// value is simulated.
type ArgmaxVOIFeatures struct {
	Calc *VOI

	// TargetQuestions behaves as in VOIFeatures.
	TargetQuestions []int
}

// Name returns "voi_argmax".
func (a *ArgmaxVOIFeatures) Name() string {
	return "voi_argmax"
}

// SelectFeatures ranks the example's masked positions by
// argmax-VOI/cost ratio.
func (a *ArgmaxVOIFeatures) SelectFeatures(d Dataset, example, numToSelect int,
	costs map[int]float64) ([]*FeatureScore, error) {
	return selectVOIFeatures(d, example, numToSelect, costs, a.TargetQuestions,
		func(ex *Example, pos int, targets []int, cost float64) *FeatureScore {
			r := a.Calc.ComputeArgmax(ex, pos, targets, cost)
			return &FeatureScore{
				Position:  pos,
				Benefit:   r.VOI,
				Cost:      cost,
				Ratio:     r.Ratio,
				BestClass: -1,
			}
		})
}

// FastVOIFeatures is VOIFeatures with the
// gradient-linearized estimator.
// Scores additionally carry the most informative class.
type FastVOIFeatures struct {
	Calc *FastVOI

	// TargetQuestions behaves as in VOIFeatures.
	TargetQuestions []int
}

// Name returns "fast_voi".
func (f *FastVOIFeatures) Name() string {
	return "fast_voi"
}

// SelectFeatures ranks the example's masked positions by
// approximate VOI/cost ratio.
func (f *FastVOIFeatures) SelectFeatures(d Dataset, example, numToSelect int,
	costs map[int]float64) ([]*FeatureScore, error) {
	return selectVOIFeatures(d, example, numToSelect, costs, f.TargetQuestions,
		func(ex *Example, pos int, targets []int, cost float64) *FeatureScore {
			r := f.Calc.Compute(ex, pos, targets, cost)
			return &FeatureScore{
				Position:  pos,
				Benefit:   r.VOI,
				Cost:      cost,
				Ratio:     r.Ratio,
				BestClass: r.BestClass,
			}
		})
}

func selectVOIFeatures(d Dataset, example, numToSelect int, costs map[int]float64,
	questions []int, score func(ex *Example, pos int, targets []int,
		cost float64) *FeatureScore) ([]*FeatureScore, error) {
	masked := d.MaskedPositions(example)
	if len(masked) == 0 {
		return nil, nil
	}
	if questions == nil {
		questions = defaultTargetQuestions
	}
	ex := d.Example(example)
	targets := targetIndices(d, example, ex, questions)
	if len(targets) == 0 {
		return nil, nil
	}

	var res []*FeatureScore
	for _, pos := range masked {
		res = append(res, score(ex, pos, targets, costOf(costs, pos)))
	}
	sortByRatio(res)
	if len(res) > numToSelect {
		res = res[:numToSelect]
	}
	return res, nil
}

// targetIndices finds the positions answering any of the
// requested questions, skipping positions the dataset
// flags as noisy.
func targetIndices(d Dataset, example int, ex *Example, questions []int) []int {
	var res []int
	for _, q := range questions {
		for i, qi := range ex.Questions {
			if qi == q && !d.NoisyPosition(example, i) {
				res = append(res, i)
			}
		}
	}
	return res
}
