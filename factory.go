package anyacquire

import "fmt"

// NewExampleStrategy creates the example-level strategy
// registered under name.
//
// Recognized names are "random", "gradient",
// "gradient_top" (gradient alignment restricted to the
// model's output parameters), "entropy", and "badge".
// A *GradientExamples result still needs its Validation
// dataset set before use.
func NewExampleStrategy(name string, m Model) (ExampleStrategy, error) {
	switch name {
	case "random":
		return RandomExamples{}, nil
	case "gradient":
		return &GradientExamples{Selector: &GradSelector{Model: m}}, nil
	case "gradient_top":
		return &GradientExamples{Selector: &GradSelector{
			Model:  m,
			Params: m.OutputParameters(),
		}}, nil
	case "entropy":
		return &EntropyExamples{Model: m}, nil
	case "badge":
		return &BADGEExamples{Selector: &GradSelector{Model: m}}, nil
	}
	return nil, fmt.Errorf("unknown example selection strategy: %q", name)
}

// NewFeatureStrategy creates the feature-level strategy
// registered under name.
//
// Recognized names are "random", "sequential" (an alias
// for random), "voi", "fast_voi", "voi_argmax", and
// "entropy".
// VOI strategies default to the entropy loss metric.
func NewFeatureStrategy(name string, m Model) (FeatureStrategy, error) {
	switch name {
	case "random", "sequential":
		return RandomFeatures{}, nil
	case "voi":
		return &VOIFeatures{Calc: &VOI{Model: m, Loss: Entropy}}, nil
	case "fast_voi":
		return &FastVOIFeatures{Calc: &FastVOI{Model: m, Loss: Entropy}}, nil
	case "voi_argmax":
		return &ArgmaxVOIFeatures{Calc: &VOI{Model: m, Loss: Entropy}}, nil
	case "entropy":
		return &EntropyFeatures{Model: m}, nil
	}
	return nil, fmt.Errorf("unknown feature selection strategy: %q", name)
}

// NewCombined creates a two-stage selector from an example
// strategy name and a feature strategy name.
func NewCombined(exampleName, featureName string, m Model) (*Combined, error) {
	examples, err := NewExampleStrategy(exampleName, m)
	if err != nil {
		return nil, err
	}
	features, err := NewFeatureStrategy(featureName, m)
	if err != nil {
		return nil, err
	}
	return &Combined{Examples: examples, Features: features}, nil
}
