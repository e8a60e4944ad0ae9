package anyacquire

import (
	"github.com/unixpickle/anydiff"
)

// A FastVOIResult is a VOIResult extended with the class
// value whose hypothetical observation would most reduce
// the target uncertainty.
type FastVOIResult struct {
	VOIResult
	BestClass int
}

// A FastVOI approximates counterfactual VOI with a
// first-order expansion around the current input.
//
// Instead of one forward pass per hypothetical class
// value, it computes the gradient of each target logit
// with respect to the candidate's one-hot input slot and
// extrapolates the effect of each class linearly.
//
// The approximation is only valid where the model responds
// roughly linearly to the one-hot perturbation; prefer VOI
// when accuracy matters more than speed.
type FastVOI struct {
	Model Model
	Loss  Loss
}

// Compute estimates the VOI of observing the candidate
// position via gradient linearization.
func (f *FastVOI) Compute(ex *Example, candidate int, targets []int, cost float64) *FastVOIResult {
	c := ex.Inputs.Creator()
	numClasses := f.Model.NumClasses()
	inputDim := ex.InputDim()

	inVar := anydiff.NewVar(ex.Inputs.Copy())
	out := f.Model.Apply(ex.batch(inVar, 1))
	outData := vectorData(out.Output())

	targetRow := hostTargetLogits(outData, targets, numClasses)
	initial := f.Loss.Eval(makeVector(c, targetRow), numClasses)
	candProbs := softmax(outData[candidate*numClasses : (candidate+1)*numClasses])

	// Jacobian of the target logits with respect to the
	// candidate's one-hot input components.
	dims := len(targets) * numClasses
	outLen := len(outData)
	jacobian := make([][]float64, dims)
	for d := 0; d < dims; d++ {
		target := targets[d/numClasses]
		class := d % numClasses

		upstream := make([]float64, outLen)
		upstream[target*numClasses+class] = 1

		grad := anydiff.Grad{inVar: c.MakeVector(inVar.Vector.Len())}
		out.Propagate(makeVector(c, upstream), grad)

		base := candidate*inputDim + 1
		slice := vectorData(grad[inVar])[base : base+numClasses]
		jacobian[d] = append([]float64{}, slice...)
	}

	var posterior float64
	classLosses := make([]float64, numClasses)
	for class := range classLosses {
		approx := append([]float64{}, targetRow...)
		for d := 0; d < dims; d++ {
			var effect float64
			for k := 0; k < numClasses; k++ {
				delta := -candProbs[k]
				if k == class {
					delta++
				}
				effect += jacobian[d][k] * delta
			}
			approx[d] += effect
		}
		loss := f.Loss.Eval(makeVector(c, approx), numClasses)
		classLosses[class] = loss
		posterior += candProbs[class] * loss
	}

	best := 0
	for class, loss := range classLosses {
		if initial-loss > initial-classLosses[best] {
			best = class
		}
	}

	res := &FastVOIResult{BestClass: best}
	res.VOIResult = *newVOIResult(initial, posterior, cost)
	return res
}
