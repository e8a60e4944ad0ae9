package anyacquire

import (
	"testing"

	"github.com/unixpickle/anyvec/anyvec64"
)

func TestNewExampleStrategy(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 2, 6, 5)

	names := map[string]string{
		"random":       "random_example",
		"gradient":     "gradient",
		"gradient_top": "gradient",
		"entropy":      "entropy",
		"badge":        "badge",
	}
	for arg, expected := range names {
		strat, err := NewExampleStrategy(arg, model)
		if err != nil {
			t.Errorf("create %q: %s", arg, err)
			continue
		}
		if strat.Name() != expected {
			t.Errorf("create %q: expected name %q but got %q", arg, expected,
				strat.Name())
		}
	}

	if _, err := NewExampleStrategy("bogus", model); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}

func TestNewExampleStrategyTopOnly(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 2, 6, 5)

	strat, err := NewExampleStrategy("gradient_top", model)
	if err != nil {
		t.Fatal(err)
	}
	sel := strat.(*GradientExamples).Selector
	if len(sel.Params) != len(model.OutputParameters()) {
		t.Error("gradient_top should restrict to the output parameters")
	}
}

func TestNewFeatureStrategy(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 2, 6, 5)

	names := map[string]string{
		"random":     "random_feature",
		"sequential": "random_feature",
		"voi":        "voi",
		"fast_voi":   "fast_voi",
		"voi_argmax": "voi_argmax",
		"entropy":    "entropy",
	}
	for arg, expected := range names {
		strat, err := NewFeatureStrategy(arg, model)
		if err != nil {
			t.Errorf("create %q: %s", arg, err)
			continue
		}
		if strat.Name() != expected {
			t.Errorf("create %q: expected name %q but got %q", arg, expected,
				strat.Name())
		}
	}

	if _, err := NewFeatureStrategy("bogus", model); err == nil {
		t.Error("expected error for unknown strategy name")
	}
}

func TestNewCombined(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	model := newTestModel(c, 2, 6, 5)

	combined, err := NewCombined("entropy", "fast_voi", model)
	if err != nil {
		t.Fatal(err)
	}
	if combined.Name() != "entropy+fast_voi" {
		t.Errorf("unexpected name: %q", combined.Name())
	}

	if _, err := NewCombined("bogus", "voi", model); err == nil {
		t.Error("expected error for unknown example strategy")
	}
	if _, err := NewCombined("random", "bogus", model); err == nil {
		t.Error("expected error for unknown feature strategy")
	}
}
