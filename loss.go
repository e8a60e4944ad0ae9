package anyacquire

import (
	"fmt"
	"math"

	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/serializer"
)

// probFloor keeps log() away from zero probabilities.
const probFloor = 1e-10

func init() {
	var l Loss
	serializer.RegisterTypedDeserializer(l.SerializerType(), DeserializeLoss)
}

// A Loss is a scalar uncertainty metric over predicted
// class distributions.
type Loss int

// These are the supported uncertainty metrics.
//
// Entropy is the Shannon entropy of the softmax
// distribution.
// Variance treats the classes as ordinal scores 1..C and
// measures the expected squared deviation from the
// expected score.
// ZeroOne is one minus the maximum class probability.
const (
	Entropy Loss = iota
	Variance
	ZeroOne
)

// ParseLoss maps a metric name to a Loss.
// Recognized names are "cross_entropy" (alias "nll"),
// "l2", and "0-1".
func ParseLoss(name string) (Loss, error) {
	switch name {
	case "cross_entropy", "nll":
		return Entropy, nil
	case "l2":
		return Variance, nil
	case "0-1":
		return ZeroOne, nil
	}
	return 0, fmt.Errorf("parse loss: unknown loss type: %q", name)
}

// DeserializeLoss deserializes a Loss.
func DeserializeLoss(d []byte) (Loss, error) {
	if len(d) != 1 {
		return 0, fmt.Errorf("deserialize Loss: data length (%d) should be 1", len(d))
	}
	l := Loss(d[0])
	if l > ZeroOne {
		return 0, fmt.Errorf("deserialize Loss: unknown loss ID: %d", l)
	}
	return l, nil
}

// Name returns the metric name accepted by ParseLoss.
func (l Loss) Name() string {
	switch l {
	case Entropy:
		return "cross_entropy"
	case Variance:
		return "l2"
	case ZeroOne:
		return "0-1"
	default:
		panic(fmt.Sprintf("unknown loss: %d", l))
	}
}

// Eval computes the metric for a packed batch of logit
// rows, each numClasses wide, and averages over the rows.
//
// Probabilities are taken via a softmax over each row.
func (l Loss) Eval(logits anyvec.Vector, numClasses int) float64 {
	if logits.Len()%numClasses != 0 {
		panic("number of classes must divide logit count")
	}
	cp := logits.Copy()
	anyvec.LogSoftmax(cp, numClasses)
	data := vectorData(cp)
	rows := len(data) / numClasses

	var total float64
	for r := 0; r < rows; r++ {
		probs := make([]float64, numClasses)
		for i := range probs {
			probs[i] = math.Exp(data[r*numClasses+i])
		}
		switch l {
		case Entropy:
			total += entropyOf(probs)
		case Variance:
			var mean float64
			for i, p := range probs {
				mean += p * float64(i+1)
			}
			for i, p := range probs {
				d := float64(i+1) - mean
				total += p * d * d
			}
		case ZeroOne:
			total += 1 - probs[argmax(probs)]
		default:
			panic(fmt.Sprintf("unknown loss: %d", l))
		}
	}
	return total / float64(rows)
}

// SerializerType returns the unique ID used to serialize
// a Loss with the serializer package.
func (l Loss) SerializerType() string {
	return "github.com/unixpickle/anyacquire.Loss"
}

// Serialize serializes the Loss.
func (l Loss) Serialize() ([]byte, error) {
	return []byte{byte(l)}, nil
}

func entropyOf(probs []float64) float64 {
	var res float64
	for _, p := range probs {
		res -= p * math.Log(p+probFloor)
	}
	return res
}

func argmax(xs []float64) int {
	res := 0
	for i, x := range xs {
		if x > xs[res] {
			res = i
		}
	}
	return res
}

func softmax(logits []float64) []float64 {
	max := logits[argmax(logits)]
	res := make([]float64, len(logits))
	var sum float64
	for i, x := range logits {
		res[i] = math.Exp(x - max)
		sum += res[i]
	}
	for i := range res {
		res[i] /= sum
	}
	return res
}
