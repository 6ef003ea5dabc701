package lm

import (
	"math"
	"strings"

	"suffixlm/internal/token"
)

const (
	// ContextWindowSize bounds how many trailing tokens feed the next
	// prediction call during generation.
	ContextWindowSize = 7

	// HardMaxTokens is the absolute ceiling on requested generation
	// length, regardless of the caller's maxTokens argument.
	HardMaxTokens = 100

	// HardLengthCap stops generation even when maxTokens allows more.
	HardLengthCap = 25

	// LowConfidenceCutoff stops generation once the top prediction score
	// drops below this and at least MinTokensForLowConfidence have been
	// emitted.
	LowConfidenceCutoff        = 0.03
	MinTokensForLowConfidence  = 3
	MinTokensForTerminatorStop = 5

	// TopKForGeneration is how many candidates Predict is asked for on
	// each generation step.
	TopKForGeneration = 10

	// GreedyTemperatureThreshold is the temperature at and below which
	// sampling degenerates to picking the top token.
	GreedyTemperatureThreshold = 0.01

	samplingEpsilon = 1e-9
)

// DefaultTerminators is the literal terminator-word set the generator
// checks against once at least MinTokensForTerminatorStop tokens have
// been emitted. Callers needing a different list can set
// Model.Terminators directly.
var DefaultTerminators = []string{
	"wah", "aduh", "yah", "eh", "hmm", "oh", "astaga",
}

// Terminators, when non-nil, overrides DefaultTerminators for this
// model's Generate calls.
func (m *Model) terminators() []string {
	if m.Terminators != nil {
		return m.Terminators
	}
	return DefaultTerminators
}

func isTerminator(word string, list []string) bool {
	for _, t := range list {
		if word == t {
			return true
		}
	}
	return false
}

func lastSentenceByte(s string) byte {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '?' || b == '!'
}

// Generate runs the auto-regressive loop spec section 4.5 describes:
// repeatedly predict, sample, append, and check stop conditions, up to
// maxTokens (itself capped at HardMaxTokens).
func (m *Model) Generate(input string, maxTokens int, temperature float64) string {
	if maxTokens > HardMaxTokens {
		maxTokens = HardMaxTokens
	}
	if maxTokens < 0 {
		maxTokens = 0
	}

	window := lastTokens(token.Tokenize([]byte(input)), ContextWindowSize)

	var history []uint32
	var output strings.Builder
	emitted := 0

	for emitted < maxTokens {
		contextStr := strings.Join(window, " ")
		slots := m.Predict(contextStr, TopKForGeneration)

		if len(slots) == 0 || slots[0].Score <= 0 {
			break
		}

		chosenID := m.sampleToken(slots, temperature)
		text := m.Vocab.TokenOf(chosenID)
		if text == "" {
			break
		}

		if emitted > 0 {
			output.WriteByte(' ')
		}
		output.WriteString(text)

		window = slideWindow(window, text)
		history = append(history, chosenID)
		emitted++

		if m.shouldStopGenerating(text, history, emitted, slots[0].Score) {
			break
		}
	}

	return output.String()
}

func lastTokens(tokens []string, n int) []string {
	if len(tokens) <= n {
		return tokens
	}
	return tokens[len(tokens)-n:]
}

// slideWindow keeps the last ContextWindowSize-1 tokens of window and
// appends next, matching "keep the last 6 old tokens, append the new
// one" for a 7-token window.
func slideWindow(window []string, next string) []string {
	keep := ContextWindowSize - 1
	start := 0
	if len(window) > keep {
		start = len(window) - keep
	}
	updated := make([]string, 0, keep+1)
	updated = append(updated, window[start:]...)
	updated = append(updated, next)
	return updated
}

func (m *Model) shouldStopGenerating(lastText string, history []uint32, emitted int, topScore float64) bool {
	if isSentenceEnd(lastSentenceByte(lastText)) {
		return true
	}
	if emitted >= MinTokensForTerminatorStop && isTerminator(lastText, m.terminators()) {
		return true
	}
	if topScore < LowConfidenceCutoff && emitted >= MinTokensForLowConfidence {
		return true
	}
	if emitted >= HardLengthCap {
		return true
	}
	if repetitionDetected(history) {
		return true
	}
	return false
}

func repetitionDetected(h []uint32) bool {
	n := len(h)
	if n >= 3 && h[n-1] == h[n-2] && h[n-2] == h[n-3] {
		return true
	}
	if n >= 4 && h[n-1] == h[n-3] && h[n-2] == h[n-4] {
		return true
	}
	return false
}

// sampleToken implements the temperature rule: at or below
// GreedyTemperatureThreshold it is greedy (top token); otherwise it
// truncates the candidate list at the first non-positive score,
// computes temperature-adjusted weights via a max-shifted log-sum-exp
// (numerically identical to the direct formula but overflow-safe), and
// draws from the resulting distribution.
func (m *Model) sampleToken(slots []Slot, temperature float64) uint32 {
	top := slots[0].ID
	if temperature <= GreedyTemperatureThreshold {
		return top
	}

	cut := len(slots)
	for i, s := range slots {
		if s.Score <= 0 {
			cut = i
			break
		}
	}
	candidates := slots[:cut]
	if len(candidates) == 0 {
		return top
	}

	logWeights := make([]float64, len(candidates))
	maxLog := math.Inf(-1)
	for i, s := range candidates {
		lw := math.Log(s.Score+samplingEpsilon) / temperature
		logWeights[i] = lw
		if lw > maxLog {
			maxLog = lw
		}
	}

	weights := make([]float64, len(candidates))
	var total float64
	for i, lw := range logWeights {
		w := math.Exp(lw - maxLog)
		weights[i] = w
		total += w
	}
	if total <= 0 || math.IsNaN(total) {
		return top
	}

	target := m.rng.Float64() * total
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if cumulative >= target {
			return candidates[i].ID
		}
	}
	return top
}
