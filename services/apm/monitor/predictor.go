package monitor

// Predictor decides whether one feature vector indicates an imminent
// failure.
type Predictor interface {
	Predict(features map[string]float64) (bool, error)
}

// ThresholdRule bounds one feature. A nil bound is unchecked.
type ThresholdRule struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// ThresholdPredictor flags a failure when any feature leaves its
// configured range. Features without a rule are ignored.
type ThresholdPredictor struct {
	Rules map[string]ThresholdRule
}

func (p ThresholdPredictor) Predict(features map[string]float64) (bool, error) {
	for name, rule := range p.Rules {
		value, ok := features[name]
		if !ok {
			continue
		}
		if rule.Min != nil && value < *rule.Min {
			return true, nil
		}
		if rule.Max != nil && value > *rule.Max {
			return true, nil
		}
	}
	return false, nil
}
