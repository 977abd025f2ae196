package directive

// Thresholds are the per-scorer confidence cutoffs used by the fusion policy.
type Thresholds struct {
	Emotion  float64 `mapstructure:"emotion" yaml:"emotion" json:"emotion"`
	Polarity float64 `mapstructure:"polarity" yaml:"polarity" json:"polarity"`
	Intent   float64 `mapstructure:"intent" yaml:"intent" json:"intent"`
}

// DefaultThresholds returns the default fusion thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Emotion:  0.6,
		Polarity: 0.9,
		Intent:   0.7,
	}
}

// ApplyDefaults applies default values to unset fields.
func (t *Thresholds) ApplyDefaults() {
	if t.Emotion == 0 {
		t.Emotion = 0.6
	}
	if t.Polarity == 0 {
		t.Polarity = 0.9
	}
	if t.Intent == 0 {
		t.Intent = 0.7
	}
}

// Fuse resolves the three ensemble verdicts into one directive.
//
// The rules are evaluated in fixed order and the first one that fires wins:
//
//  1. emotion confidence above the emotion threshold -> tone:<emotion label>
//  2. negative polarity above the polarity threshold -> tone:sarcasm_or_complaint
//  3. intent confidence above the intent threshold   -> intent:<intent label>
//  4. otherwise                                      -> none
//
// The ordering is a policy, not a confidence comparison: scorer confidences
// live on heterogeneous scales and must never be compared cross-stage. A nil
// verdict means the scorer failed or timed out and is treated as confidence 0.
func Fuse(emotion, polarity, intent *Score, th Thresholds) Directive {
	if emotion != nil && emotion.Confidence > th.Emotion {
		return Tone(emotion.Label, emotion.Confidence, StageEnsemble)
	}

	if polarity != nil && polarity.Label == PolarityNegative && polarity.Confidence > th.Polarity {
		return Tone(LabelSarcasmOrComplaint, polarity.Confidence, StageEnsemble)
	}

	if intent != nil && intent.Confidence > th.Intent {
		return Intent(intent.Label, intent.Confidence, StageEnsemble)
	}

	return None()
}
