// Package anyacquire implements active-learning strategies
// for deciding which annotations to acquire next.
//
// Given a model that predicts categorical answers at masked
// positions of structured examples, the strategies in this
// package rank unobserved positions (features) or whole
// examples by their expected benefit per unit annotation
// cost.
// Benefit estimates come from counterfactual value of
// information, predictive entropy, or gradient alignment
// against a validation set.
package anyacquire

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// An Example is one fixed-length sequence of annotation
// positions in packed form.
//
// Inputs stores one input vector per position, flattened
// row-major.
// The first component of each position's vector is a mask
// flag (1 = unobserved), followed by a one-hot slot of
// width NumClasses for the observed class value, followed
// by any extra feature components.
//
// Annotators holds one annotator ID per position; negative
// IDs denote synthetic annotators.
// Questions holds the question ID each position answers.
// Embeddings is an optional packed side-embedding vector
// and may be nil.
type Example struct {
	KnownQuestions []int
	Inputs         anyvec.Vector
	Labels         anyvec.Vector
	Annotators     []int
	Questions      []int
	Embeddings     anyvec.Vector
}

// SeqLen returns the number of positions.
func (e *Example) SeqLen() int {
	return len(e.Questions)
}

// InputDim returns the per-position input vector width.
func (e *Example) InputDim() int {
	return e.Inputs.Len() / e.SeqLen()
}

// MaskedPositions returns the positions whose mask flag is
// set in the input encoding, in order.
func (e *Example) MaskedPositions() []int {
	data := vectorData(e.Inputs)
	dim := e.InputDim()
	var res []int
	for i := 0; i < e.SeqLen(); i++ {
		if data[i*dim] > 0.5 {
			res = append(res, i)
		}
	}
	return res
}

// batch packs the example into a model input, replicated n
// times along the batch axis with in as the input tensor.
func (e *Example) batch(in anydiff.Res, n int) *Batch {
	b := &Batch{
		Inputs:     in,
		Annotators: repeatInts(e.Annotators, n),
		Questions:  repeatInts(e.Questions, n),
		Num:        n,
	}
	if e.Embeddings != nil {
		c := e.Embeddings.Creator()
		vs := make([]anyvec.Vector, n)
		for i := range vs {
			vs[i] = e.Embeddings
		}
		b.Embeddings = anydiff.NewConst(c.Concat(vs...))
	}
	return b
}

// A Batch is a packed batch of examples for one model
// forward pass.
//
// Inputs has Num examples' input tensors concatenated.
// Annotators and Questions are tiled to match.
// Embeddings may be nil if the examples carry none.
type Batch struct {
	Inputs     anydiff.Res
	Annotators []int
	Questions  []int
	Embeddings anydiff.Res
	Num        int
}

// A Model predicts class logits for every position of a
// batch of examples.
//
// Apply returns logits packed as Num * seqLen * NumClasses.
//
// OutputParameters returns the designated top-layer subset
// of Parameters, used for restricted gradient collection
// and gradient embeddings.
//
// TotalCost computes the model's differentiable training
// loss for a batch given desired labels.
type Model interface {
	Apply(b *Batch) anydiff.Res
	Parameters() []*anydiff.Var
	OutputParameters() []*anydiff.Var
	TotalCost(outputs, labels anydiff.Res, b *Batch, fullSupervision bool) anydiff.Res
	NumClasses() int
}

// A Dataset is an indexed collection of examples.
//
// MaskedPositions returns the ordered position indices
// currently unobserved in example idx.
// NoisyPosition reports whether a position's annotation is
// flagged as noisy; noisy positions are excluded from VOI
// targets.
//
// Strategies only read from a Dataset; counterfactual
// observations happen on cloned tensors.
type Dataset interface {
	Len() int
	Example(idx int) *Example
	MaskedPositions(idx int) []int
	NoisyPosition(idx, pos int) bool
}

// observe writes an observed class value into a cloned
// input slice: the mask flag is cleared and the one-hot
// slot is overwritten.
func observe(in []float64, pos, inputDim, class, numClasses int) {
	base := pos * inputDim
	in[base] = 0
	for i := 0; i < numClasses; i++ {
		in[base+1+i] = 0
	}
	in[base+1+class] = 1
}

func repeatInts(xs []int, n int) []int {
	res := make([]int, 0, len(xs)*n)
	for i := 0; i < n; i++ {
		res = append(res, xs...)
	}
	return res
}

func vectorData(v anyvec.Vector) []float64 {
	switch data := v.Data().(type) {
	case []float32:
		res := make([]float64, len(data))
		for i, x := range data {
			res[i] = float64(x)
		}
		return res
	case []float64:
		return data
	default:
		panic(fmt.Sprintf("unsupported numeric list: %T", data))
	}
}

func makeVector(c anyvec.Creator, data []float64) anyvec.Vector {
	return c.MakeVectorData(c.MakeNumericList(data))
}
