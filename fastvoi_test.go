package anyacquire

import (
	"math"
	"testing"

	"github.com/unixpickle/anyvec/anyvec64"
)

// Linearization is exact for a linear model, so fast VOI
// must reproduce exact VOI when the candidate's mask flag
// has no weight and the placeholder one-hot slot holds the
// candidate's own belief distribution.
func TestFastVOIMatchesExactLinear(t *testing.T) {
	t.Run("Spread", func(t *testing.T) {
		testFastVOIAgainstExact(t, []float64{1, 0.5, 0, -0.5, -1})
	})
	t.Run("NearDeterministic", func(t *testing.T) {
		testFastVOIAgainstExact(t, []float64{8, 0, 0, 0, 0})
	})
}

func testFastVOIAgainstExact(t *testing.T, candidateBias []float64) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 3, 6, 5)
	model.zeroWeights(c)

	candidate := 1
	target := 2
	for class, bias := range candidateBias {
		model.setBias(c, candidate, class, bias)
	}
	for class := 0; class < 5; class++ {
		for j := 0; j < 5; j++ {
			weight := 0.4*float64(class+1) - 0.25*float64(j+1)
			model.setWeight(c, target, class, candidate*6+1+j, weight)
		}
	}

	ex := newTestExample(c, []int{0, 1, 2}, 5, map[int]int{0: 2})
	in := vectorData(ex.Inputs)
	for i, p := range softmax(candidateBias) {
		in[candidate*6+1+i] = p
	}
	ex.Inputs = makeVector(c, in)

	exact := (&VOI{Model: model, Loss: Entropy}).Compute(ex, candidate, []int{target}, 1)
	fast := (&FastVOI{Model: model, Loss: Entropy}).Compute(ex, candidate, []int{target}, 1)

	if math.Abs(exact.VOI-fast.VOI) > 1e-6 {
		t.Errorf("voi mismatch: exact %f, fast %f", exact.VOI, fast.VOI)
	}
	if math.Abs(exact.PosteriorLoss-fast.PosteriorLoss) > 1e-6 {
		t.Errorf("posterior mismatch: exact %f, fast %f",
			exact.PosteriorLoss, fast.PosteriorLoss)
	}
	if fast.BestClass < 0 || fast.BestClass >= 5 {
		t.Errorf("best class out of range: %d", fast.BestClass)
	}
}

func TestFastVOIMultiTarget(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 3, 6, 5)
	ex := newTestExample(c, []int{0, 0, 1}, 5, map[int]int{2: 4})

	res := (&FastVOI{Model: model, Loss: Entropy}).Compute(ex, 0, []int{0, 1}, 0)
	if res.BestClass < 0 || res.BestClass >= 5 {
		t.Errorf("best class out of range: %d", res.BestClass)
	}
	// A zero cost is floored, not divided by directly.
	if math.IsNaN(res.Ratio) || math.IsInf(res.Ratio, 0) {
		t.Errorf("ratio not finite: %f", res.Ratio)
	}
}
