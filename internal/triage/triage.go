// Package triage converts a raw classification confidence into a
// keep-or-discard verdict and a priority ranking.
package triage

import "math"

// Category describes how a classification is filed.
type Category string

const (
	// CategoryMiscellaneous marks low-confidence classifications that are
	// treated as noise and excluded from persisted reports.
	CategoryMiscellaneous Category = "miscellaneous"
	// CategoryDetected marks classifications confident enough to persist.
	CategoryDetected Category = "detected"
)

// Verdict is the triage decision for a single classification.
type Verdict struct {
	Category  Category // miscellaneous or detected
	Priority  int      // clamped to [1, priority scale]
	Discarded bool     // true when the record must not reach the report store
}

// Engine applies the triage policy. It is pure and safe for concurrent use.
type Engine struct {
	threshold     float64
	priorityScale int
}

// New returns an Engine with the given confidence threshold and priority
// scale. Classifications below the threshold are discarded; priority is
// confidence scaled linearly and clamped to [1, priorityScale].
func New(threshold float64, priorityScale int) *Engine {
	return &Engine{
		threshold:     threshold,
		priorityScale: priorityScale,
	}
}

// Triage maps a label and confidence to a verdict. The verdict is total over
// any label string and any confidence in [0, 1]; priority is computed even
// for discarded classifications so callers can report it back.
func (e *Engine) Triage(label string, confidence float64) Verdict {
	_ = label // the current policy ranks on confidence alone

	verdict := Verdict{
		Category: CategoryDetected,
		Priority: e.priority(confidence),
	}

	if confidence < e.threshold {
		verdict.Category = CategoryMiscellaneous
		verdict.Discarded = true
	}

	return verdict
}

// Threshold returns the configured confidence threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}

func (e *Engine) priority(confidence float64) int {
	p := int(math.Round(confidence * float64(e.priorityScale)))
	if p < 1 {
		p = 1
	}
	if p > e.priorityScale {
		p = e.priorityScale
	}
	return p
}
