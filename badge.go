package anyacquire

import (
	"math"

	"github.com/unixpickle/anydiff"
)

// GradientEmbedding computes a fixed-width gradient
// embedding for an example, along with the mean predictive
// entropy over its masked positions.
//
// For each masked position, the model's argmax class is
// taken as a pseudo-label, the cross-entropy gradient with
// respect to the output parameters is flattened and
// unit-normalized, and the per-position vectors are
// mean-pooled so every example yields the same width
// regardless of how many positions are masked.
//
// The embedding width is the total length of the model's
// output parameters; an example with no masked positions
// yields the zero vector and zero entropy.
func (g *GradSelector) GradientEmbedding(ex *Example) ([]float64, float64) {
	params := g.Model.OutputParameters()
	var width int
	for _, p := range params {
		width += p.Vector.Len()
	}
	embedding := make([]float64, width)

	masked := ex.MaskedPositions()
	if len(masked) == 0 || width == 0 {
		return embedding, 0
	}

	c := ex.Inputs.Creator()
	numClasses := g.Model.NumClasses()
	out := g.Model.Apply(ex.batch(anydiff.NewConst(ex.Inputs.Copy()), 1))
	outData := vectorData(out.Output())

	var totalEntropy float64
	for _, pos := range masked {
		probs := softmax(outData[pos*numClasses : (pos+1)*numClasses])
		pred := argmax(probs)
		totalEntropy += entropyOf(probs)

		logProbs := anydiff.LogSoftmax(anydiff.Slice(out, pos*numClasses,
			(pos+1)*numClasses), numClasses)
		loss := anydiff.Scale(anydiff.Slice(logProbs, pred, pred+1),
			c.MakeNumeric(-1))

		grad := anydiff.NewGrad(params...)
		upstream := c.MakeVector(1)
		upstream.AddScalar(c.MakeNumeric(1))
		loss.Propagate(upstream, grad)

		flat := make([]float64, 0, width)
		for _, p := range params {
			flat = append(flat, vectorData(grad[p])...)
		}
		var norm float64
		for _, x := range flat {
			norm += x * x
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for i, x := range flat {
				embedding[i] += x / norm
			}
		}
	}

	for i := range embedding {
		embedding[i] /= float64(len(masked))
	}
	return embedding, totalEntropy / float64(len(masked))
}
