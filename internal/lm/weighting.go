package lm

import "math"

// DefaultDecay is the per-order decay applied to shorter, less specific
// suffix matches during backward-reasoning scoring.
const DefaultDecay = 0.85

// BackoffWeighter computes the fragment weight a suffix of a given
// length contributes to a candidate's score. The interface mirrors the
// teacher's pluggable smoother: one method, one small concrete struct.
type BackoffWeighter interface {
	Name() string
	Weight(length, maxContext int) float64
}

// DecayWeighter implements the engine's default weighting rule:
// w(L) = L * decay^(maxContext - L).
type DecayWeighter struct {
	Decay float64
}

// NewDecayWeighter returns a DecayWeighter using DefaultDecay.
func NewDecayWeighter() DecayWeighter {
	return DecayWeighter{Decay: DefaultDecay}
}

// Name identifies this weighter for logging.
func (d DecayWeighter) Name() string { return "decay" }

// Weight returns the fragment weight for a suffix of the given length
// relative to the longest suffix tried in this prediction, maxContext.
func (d DecayWeighter) Weight(length, maxContext int) float64 {
	return float64(length) * math.Pow(d.Decay, float64(maxContext-length))
}
