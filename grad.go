package anyacquire

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// DefaultGradSamples is the sample count used by a
// GradSelector with a zero NumSamples.
const DefaultGradSamples = 5

// A GradSelector estimates training gradients for examples
// whose answers are partially unobserved.
//
// Unobserved positions are filled in by autoregressive
// sampling from the model's own predictions, so gradients
// are Monte Carlo estimates under the model's beliefs and
// need no ground truth.
//
// Gradients are collected for Params; a nil Params means
// all model parameters.
// Setting Params to the model's OutputParameters restricts
// collection to the top layer.
type GradSelector struct {
	Model      Model
	Params     []*anydiff.Var
	NumSamples int
}

// SampleGradient draws one pseudo-labeled completion of
// the example and returns the gradient of the model's
// supervised loss on it.
//
// Each masked position is sampled in order from the
// model's current belief, and the sampled one-hot is
// written back into a cloned input before the next
// position is sampled.
//
// An example with no masked positions yields a zero
// gradient.
func (g *GradSelector) SampleGradient(ex *Example) anydiff.Grad {
	grad, _ := g.sampleGradient(ex, true)
	return grad
}

// ExampleGradient averages SampleGradient over the
// selector's sample count.
func (g *GradSelector) ExampleGradient(ex *Example) anydiff.Grad {
	sum := anydiff.NewGrad(g.params()...)
	n := g.numSamples()
	for i := 0; i < n; i++ {
		addGrad(sum, g.SampleGradient(ex))
	}
	c := ex.Inputs.Creator()
	sum.Scale(c.MakeNumeric(1 / float64(n)))
	return sum
}

// ValidationGradients estimates the model's expected
// improvement direction on a validation set.
//
// For each of NumSamples rounds, every example's masked
// positions are filled by sampling and its supervised loss
// is backpropagated; the gradients of the examples with a
// positive loss are summed, divided by that count, and
// unit-normalized.
// The result is one independent gradient-direction sample
// per round; rounds where no example produced loss are
// skipped.
//
// Unlike per-example gradients, validation gradients score
// against the true labels, so fully-observed validation
// examples still contribute.
func (g *GradSelector) ValidationGradients(val Dataset) []anydiff.Grad {
	var res []anydiff.Grad
	for i := 0; i < g.numSamples(); i++ {
		sum := anydiff.NewGrad(g.params()...)
		var count int
		var c anyvec.Creator
		for j := 0; j < val.Len(); j++ {
			ex := val.Example(j)
			c = ex.Inputs.Creator()
			grad, loss := g.sampleGradient(ex, false)
			if loss > 0 {
				addGrad(sum, grad)
				count++
			}
		}
		if count == 0 {
			continue
		}
		sum.Scale(c.MakeNumeric(1 / float64(count)))
		NormalizeGrad(sum)
		res = append(res, sum)
	}
	return res
}

// sampleGradient fills the masked positions of a cloned
// copy of ex by sequential sampling, then backpropagates
// the model's supervised loss into a fresh gradient.
//
// With pseudoLabels, the sampled one-hots also replace the
// labels at the sampled positions, and an example with no
// masked positions yields a zero gradient; with the
// example's own labels, its supervised loss is
// backpropagated even when nothing is left to sample.
// The second return value is the loss.
func (g *GradSelector) sampleGradient(ex *Example, pseudoLabels bool) (anydiff.Grad, float64) {
	c := ex.Inputs.Creator()
	numClasses := g.Model.NumClasses()
	inputDim := ex.InputDim()

	grad := anydiff.NewGrad(g.params()...)
	masked := ex.MaskedPositions()
	if pseudoLabels && len(masked) == 0 {
		return grad, 0
	}

	in := append([]float64{}, vectorData(ex.Inputs)...)
	labels := append([]float64{}, vectorData(ex.Labels)...)
	for _, pos := range masked {
		out := g.Model.Apply(ex.batch(anydiff.NewConst(makeVector(c, in)), 1))
		probs := softmax(vectorData(out.Output())[pos*numClasses : (pos+1)*numClasses])
		class := sampleClass(probs)
		observe(in, pos, inputDim, class, numClasses)
		if pseudoLabels {
			for i := 0; i < numClasses; i++ {
				labels[pos*numClasses+i] = 0
			}
			labels[pos*numClasses+class] = 1
		}
	}

	b := ex.batch(anydiff.NewConst(makeVector(c, in)), 1)
	out := g.Model.Apply(b)
	cost := g.Model.TotalCost(out, anydiff.NewConst(makeVector(c, labels)), b, true)

	upstream := c.MakeVector(cost.Output().Len())
	upstream.AddScalar(c.MakeNumeric(1))
	cost.Propagate(upstream, grad)

	var lossVal float64
	for _, x := range vectorData(cost.Output()) {
		lossVal += x
	}
	return grad, lossVal
}

func (g *GradSelector) params() []*anydiff.Var {
	if g.Params != nil {
		return g.Params
	}
	return g.Model.Parameters()
}

func (g *GradSelector) numSamples() int {
	if g.NumSamples > 0 {
		return g.NumSamples
	}
	return DefaultGradSamples
}

// NormalizeGrad scales a gradient so the L2 norm of the
// flattened concatenation of all its entries is 1.
// Gradients with a squared norm of at most 1e-10 are left
// unchanged.
func NormalizeGrad(g anydiff.Grad) {
	var total float64
	var c anyvec.Creator
	for _, v := range g {
		c = v.Creator()
		for _, x := range vectorData(v) {
			total += x * x
		}
	}
	if total <= 1e-10 {
		return
	}
	g.Scale(c.MakeNumeric(1 / math.Sqrt(total)))
}

// Alignment measures how much applying gradient b as a
// parameter update would move against gradient a, as the
// negative dot product over the variables they share.
// Higher alignment means the example's gradient points
// opposite the validation direction and is more valuable
// to annotate.
func Alignment(a, b anydiff.Grad) float64 {
	var dot float64
	for v, av := range a {
		bv, ok := b[v]
		if !ok {
			continue
		}
		ad := vectorData(av)
		bd := vectorData(bv)
		for i, x := range ad {
			dot -= x * bd[i]
		}
	}
	return dot
}

func addGrad(dst, src anydiff.Grad) {
	for v, vec := range src {
		if d, ok := dst[v]; ok {
			d.Add(vec)
		}
	}
}

func sampleClass(probs []float64) int {
	r := rand.Float64()
	for i, p := range probs {
		r -= p
		if r <= 0 {
			return i
		}
	}
	return len(probs) - 1
}
