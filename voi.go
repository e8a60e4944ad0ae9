package anyacquire

import (
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// costFloor avoids division by zero for free annotations.
const costFloor = 1e-10

// A VOIResult describes the estimated value of observing
// one candidate position.
//
// VOI is the expected reduction in the target uncertainty
// metric and may be negative.
// Ratio is VOI divided by the annotation cost.
type VOIResult struct {
	VOI           float64
	Ratio         float64
	PosteriorLoss float64
}

// A VOI estimates the value of information of observing a
// masked position by counterfactual simulation: the model
// is re-evaluated with the candidate position overwritten
// by hypothetical observed class values.
type VOI struct {
	Model Model
	Loss  Loss
}

// Compute estimates the VOI of observing the candidate
// position, measured by the change in the loss metric over
// the target positions.
//
// Every possible class value is simulated; the hypotheses
// are stacked along the batch axis so the counterfactuals
// cost one extra forward pass.
// The posterior loss is the expectation of the per-class
// losses under the model's current belief about the
// candidate.
//
// All work happens on cloned tensors; the example is never
// mutated.
func (v *VOI) Compute(ex *Example, candidate int, targets []int, cost float64) *VOIResult {
	c := ex.Inputs.Creator()
	numClasses := v.Model.NumClasses()

	outData, initial, candProbs := v.initialPass(ex, candidate, targets)
	rowLen := len(outData)

	in := vectorData(ex.Inputs)
	joined := make([]float64, 0, len(in)*numClasses)
	for class := 0; class < numClasses; class++ {
		hyp := append([]float64{}, in...)
		observe(hyp, candidate, ex.InputDim(), class, numClasses)
		joined = append(joined, hyp...)
	}
	hypBatch := ex.batch(anydiff.NewConst(makeVector(c, joined)), numClasses)
	hypData := vectorData(v.Model.Apply(hypBatch).Output())

	var posterior float64
	for class := 0; class < numClasses; class++ {
		row := hypData[class*rowLen : (class+1)*rowLen]
		loss := v.Loss.Eval(targetLogits(c, row, targets, numClasses), numClasses)
		posterior += candProbs[class] * loss
	}

	return newVOIResult(initial, posterior, cost)
}

// ComputeArgmax is like Compute, but simulates only the
// candidate's most probable class value.
// It trades estimator accuracy for running the model on a
// single hypothesis instead of one per class.
func (v *VOI) ComputeArgmax(ex *Example, candidate int, targets []int, cost float64) *VOIResult {
	c := ex.Inputs.Creator()
	numClasses := v.Model.NumClasses()

	_, initial, candProbs := v.initialPass(ex, candidate, targets)

	hyp := append([]float64{}, vectorData(ex.Inputs)...)
	observe(hyp, candidate, ex.InputDim(), argmax(candProbs), numClasses)
	hypBatch := ex.batch(anydiff.NewConst(makeVector(c, hyp)), 1)
	hypData := vectorData(v.Model.Apply(hypBatch).Output())

	posterior := v.Loss.Eval(targetLogits(c, hypData, targets, numClasses), numClasses)

	return newVOIResult(initial, posterior, cost)
}

// initialPass runs the model on the unmodified example and
// returns the packed output logits, the initial target
// loss, and the candidate's belief distribution.
func (v *VOI) initialPass(ex *Example, candidate int, targets []int) ([]float64, float64, []float64) {
	c := ex.Inputs.Creator()
	numClasses := v.Model.NumClasses()
	out := v.Model.Apply(ex.batch(anydiff.NewConst(ex.Inputs.Copy()), 1))
	outData := vectorData(out.Output())
	initial := v.Loss.Eval(targetLogits(c, outData, targets, numClasses), numClasses)
	candProbs := softmax(outData[candidate*numClasses : (candidate+1)*numClasses])
	return outData, initial, candProbs
}

func newVOIResult(initial, posterior, cost float64) *VOIResult {
	voi := initial - posterior
	return &VOIResult{
		VOI:           voi,
		Ratio:         voi / math.Max(cost, costFloor),
		PosteriorLoss: posterior,
	}
}

// targetLogits stacks the logit rows of the target
// positions so multi-target losses are scored jointly.
func targetLogits(c anyvec.Creator, row []float64, targets []int, numClasses int) anyvec.Vector {
	res := make([]float64, 0, len(targets)*numClasses)
	for _, t := range targets {
		res = append(res, row[t*numClasses:(t+1)*numClasses]...)
	}
	return makeVector(c, res)
}

// hostTargetLogits is targetLogits without the vector
// round-trip, for callers that keep working on the host.
func hostTargetLogits(row []float64, targets []int, numClasses int) []float64 {
	res := make([]float64, 0, len(targets)*numClasses)
	for _, t := range targets {
		res = append(res, row[t*numClasses:(t+1)*numClasses]...)
	}
	return res
}
