package anyacquire

import (
	"errors"
	"testing"

	"github.com/unixpickle/anyvec/anyvec64"
)

func TestCombinedSelect(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 3, 6, 5)
	d := &testDataset{Examples: []*Example{
		newTestExample(c, []int{0, 1, 1}, 5, nil),
		newTestExample(c, []int{0, 1, 1}, 5, map[int]int{0: 2}),
		newTestExample(c, []int{0, 1, 1}, 5, map[int]int{0: 0, 1: 1, 2: 2}),
	}}

	combined := &Combined{
		Examples: &EntropyExamples{Model: model},
		Features: &EntropyFeatures{Model: model},
	}

	selections, err := combined.Select(d, 2, 2, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(selections) == 0 || len(selections) > 4 {
		t.Fatalf("expected between 1 and 4 selections but got %d", len(selections))
	}
	for i, s := range selections {
		if s.Example == 2 {
			t.Error("fully observed example should be skipped")
		}
		if i > 0 && s.Ratio > selections[i-1].Ratio {
			t.Error("selections are not globally sorted by ratio")
		}
		if s.BestClass != -1 {
			t.Errorf("entropy features carry no best class, got %d", s.BestClass)
		}
	}
}

func TestCombinedSelectCosts(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 2, 6, 5)
	d := &testDataset{Examples: []*Example{
		newTestExample(c, []int{0, 1}, 5, nil),
	}}

	combined := &Combined{
		Examples: RandomExamples{},
		Features: &EntropyFeatures{Model: model},
	}

	featureCosts := map[int]map[int]float64{0: {0: 4, 1: 4}}
	selections, err := combined.Select(d, 1, 2, nil, featureCosts)
	if err != nil {
		t.Fatal(err)
	}
	if len(selections) != 2 {
		t.Fatalf("expected 2 selections but got %d", len(selections))
	}
	for _, s := range selections {
		if s.Cost != 4 {
			t.Errorf("expected cost 4 but got %f", s.Cost)
		}
		if s.ExampleScore != 1 {
			t.Errorf("expected example score 1 but got %f", s.ExampleScore)
		}
	}
}

type failingExamples struct{}

func (f failingExamples) Name() string {
	return "failing"
}

func (f failingExamples) SelectExamples(d Dataset, n int,
	costs map[int]float64) ([]int, []float64, error) {
	return nil, nil, errors.New("no examples for you")
}

func TestCombinedSelectError(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 2, 6, 5)
	d := &testDataset{Examples: []*Example{
		newTestExample(c, []int{0, 1}, 5, nil),
	}}

	combined := &Combined{
		Examples: failingExamples{},
		Features: &EntropyFeatures{Model: model},
	}
	if _, err := combined.Select(d, 1, 1, nil, nil); err == nil {
		t.Error("expected the example stage's error to propagate")
	}
}
