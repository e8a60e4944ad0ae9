package anyacquire

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynet"
	"github.com/unixpickle/anyvec"
)

// testModel predicts per-position class logits with a
// single fully-connected layer over the whole flattened
// sequence, so every position's input can influence every
// position's logits.
type testModel struct {
	Net     anynet.Net
	Seq     int
	InDim   int
	Classes int
}

func newTestModel(c anyvec.Creator, seqLen, inDim, classes int) *testModel {
	return &testModel{
		Net:     anynet.Net{anynet.NewFC(c, seqLen*inDim, seqLen*classes)},
		Seq:     seqLen,
		InDim:   inDim,
		Classes: classes,
	}
}

func (t *testModel) fc() *anynet.FC {
	return t.Net[0].(*anynet.FC)
}

func (t *testModel) Apply(b *Batch) anydiff.Res {
	return t.Net.Apply(b.Inputs, b.Num)
}

func (t *testModel) Parameters() []*anydiff.Var {
	return t.Net.Parameters()
}

func (t *testModel) OutputParameters() []*anydiff.Var {
	return []*anydiff.Var{t.fc().Biases}
}

func (t *testModel) TotalCost(outputs, labels anydiff.Res, b *Batch,
	fullSupervision bool) anydiff.Res {
	logProbs := anydiff.LogSoftmax(outputs, t.Classes)
	cost := anynet.DotCost{}.Cost(labels, logProbs, b.Num*t.Seq)
	return anydiff.Sum(cost)
}

func (t *testModel) NumClasses() int {
	return t.Classes
}

// zeroWeights clears the whole weight matrix and bias.
func (t *testModel) zeroWeights(c anyvec.Creator) {
	fc := t.fc()
	fc.Weights.Vector.SetData(c.MakeNumericList(
		make([]float64, fc.Weights.Vector.Len())))
	fc.Biases.Vector.SetData(c.MakeNumericList(
		make([]float64, fc.Biases.Vector.Len())))
}

// setWeight sets the coefficient from input component in
// to logit (pos, class).
func (t *testModel) setWeight(c anyvec.Creator, pos, class, in int, value float64) {
	fc := t.fc()
	w := vectorData(fc.Weights.Vector)
	w[(pos*t.Classes+class)*fc.InCount+in] = value
	fc.Weights.Vector.SetData(c.MakeNumericList(w))
}

// setBias sets the bias of logit (pos, class).
func (t *testModel) setBias(c anyvec.Creator, pos, class int, value float64) {
	fc := t.fc()
	b := vectorData(fc.Biases.Vector)
	b[pos*t.Classes+class] = value
	fc.Biases.Vector.SetData(c.MakeNumericList(b))
}

type testDataset struct {
	Examples []*Example
	Noisy    map[[2]int]bool
}

func (t *testDataset) Len() int {
	return len(t.Examples)
}

func (t *testDataset) Example(idx int) *Example {
	return t.Examples[idx]
}

func (t *testDataset) MaskedPositions(idx int) []int {
	return t.Examples[idx].MaskedPositions()
}

func (t *testDataset) NoisyPosition(idx, pos int) bool {
	return t.Noisy[[2]int{idx, pos}]
}

// newTestExample builds an example whose positions are
// masked unless observed maps them to a class value.
// The input width is 1+classes (flag plus one-hot).
func newTestExample(c anyvec.Creator, questions []int, classes int,
	observed map[int]int) *Example {
	seqLen := len(questions)
	inDim := 1 + classes
	inputs := make([]float64, seqLen*inDim)
	labels := make([]float64, seqLen*classes)
	for i := 0; i < seqLen; i++ {
		if class, ok := observed[i]; ok {
			inputs[i*inDim+1+class] = 1
			labels[i*classes+class] = 1
		} else {
			inputs[i*inDim] = 1
		}
	}
	return &Example{
		KnownQuestions: make([]int, seqLen),
		Inputs:         makeVector(c, inputs),
		Labels:         makeVector(c, labels),
		Annotators:     make([]int, seqLen),
		Questions:      questions,
		Embeddings:     nil,
	}
}
