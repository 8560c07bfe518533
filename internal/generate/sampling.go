// Package generate implements autoregressive decoding for retention models.
//
// The package provides sampling strategies over next-token logits and a
// TextGenerator that drives a recurrently-decoding model token by token.
package generate

import (
	"math"
	"math/rand"
	"sort"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// SamplingConfig configures the sampling strategy for text generation.
type SamplingConfig struct {
	// Temperature controls randomness. 0 = greedy, 1 = normal, >1 = more random.
	Temperature float32

	// TopK limits sampling to top K tokens. 0 = disabled.
	TopK int

	// TopP (nucleus sampling) limits to tokens with cumulative prob <= P. 1.0 = disabled.
	TopP float32

	// MinP filters tokens with prob < max_prob * MinP. 0 = disabled.
	MinP float32

	// Repetition control
	RepeatPenalty    float32 // Penalty for repeated tokens. 1.0 = no penalty.
	FrequencyPenalty float32 // Penalty based on frequency. 0 = disabled.
	PresencePenalty  float32 // Penalty for presence. 0 = disabled.
	RepeatWindow     int     // Number of tokens to consider. 0 = all.

	// Seed for reproducibility. -1 = random.
	Seed int64
}

// DefaultSamplingConfig returns sensible defaults for text generation.
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		Temperature:      1.0,
		TopK:             0,
		TopP:             1.0,
		MinP:             0.0,
		RepeatPenalty:    1.0,
		FrequencyPenalty: 0.0,
		PresencePenalty:  0.0,
		RepeatWindow:     64,
		Seed:             -1,
	}
}

// GreedySamplingConfig returns a configuration that always picks the argmax.
func GreedySamplingConfig() SamplingConfig {
	config := DefaultSamplingConfig()
	config.Temperature = 0
	return config
}

// Sampler samples tokens from logits using configurable strategies.
type Sampler struct {
	config SamplingConfig
	rng    *rand.Rand
}

// NewSampler creates a new sampler with the given configuration.
func NewSampler(config SamplingConfig) *Sampler {
	var rng *rand.Rand
	if config.Seed >= 0 {
		rng = rand.New(rand.NewSource(config.Seed)) //nolint:gosec // Intentional deterministic seed for reproducibility
	} else {
		rng = rand.New(rand.NewSource(rand.Int63())) //nolint:gosec // User requested random seed
	}

	return &Sampler{
		config: config,
		rng:    rng,
	}
}

// Sample returns the next token ID from logits.
//
// Parameters:
//   - logits: next-token logits, shape [vocab_size]
//   - previousTokens: tokens seen so far (for repetition penalties)
//
// The sampling process:
//  1. Apply repetition penalty
//  2. Apply frequency/presence penalties
//  3. Apply temperature scaling (or argmax if temperature=0)
//  4. Apply Top-K filtering
//  5. Apply Top-P (nucleus) filtering
//  6. Apply Min-P filtering
//  7. Sample from the remaining distribution
func (s *Sampler) Sample(logits []float32, previousTokens []int32) int32 {
	// Work on a copy, callers keep their logits
	logits = append([]float32{}, logits...)

	if s.config.RepeatPenalty != 1.0 && len(previousTokens) > 0 {
		s.applyRepetitionPenalty(logits, previousTokens)
	}

	if s.config.FrequencyPenalty != 0 || s.config.PresencePenalty != 0 {
		s.applyFrequencyPenalty(logits, previousTokens)
	}

	if s.config.Temperature == 0 {
		return argmax(logits)
	}

	if s.config.Temperature != 1.0 {
		for i := range logits {
			logits[i] /= s.config.Temperature
		}
	}

	if s.config.TopK > 0 && s.config.TopK < len(logits) {
		topKFilter(logits, s.config.TopK)
	}

	if s.config.TopP > 0 && s.config.TopP < 1.0 {
		topPFilter(logits, s.config.TopP)
	}

	if s.config.MinP > 0 {
		minPFilter(logits, s.config.MinP)
	}

	probs := softmax(logits)

	return s.multinomial(probs)
}

// SampleRaw samples from a raw logits tensor.
//
// Accepts [vocab], [seq, vocab], or [batch, seq, vocab] shapes; for the
// higher-rank shapes the last position of the first batch row is used.
func (s *Sampler) SampleRaw(logits *tensor.RawTensor, previousTokens []int32) int32 {
	return s.Sample(lastLogits(logits), previousTokens)
}

// argmax returns the index of the maximum value.
func argmax(logits []float32) int32 {
	maxIdx := 0
	maxVal := logits[0]
	for i, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
			maxIdx = i + 1
		}
	}
	return int32(maxIdx) //nolint:gosec // vocab size is bounded by model architecture
}

// applyRepetitionPenalty penalizes tokens that appeared recently.
func (s *Sampler) applyRepetitionPenalty(logits []float32, prev []int32) {
	penalty := s.config.RepeatPenalty

	seen := make(map[int32]bool)
	for _, tok := range recentTokens(prev, s.config.RepeatWindow) {
		seen[tok] = true
	}

	for tok := range seen {
		if int(tok) < len(logits) {
			if logits[tok] > 0 {
				logits[tok] /= penalty
			} else {
				logits[tok] *= penalty
			}
		}
	}
}

// applyFrequencyPenalty penalizes based on token frequency and presence.
func (s *Sampler) applyFrequencyPenalty(logits []float32, prev []int32) {
	freqPen := s.config.FrequencyPenalty
	presPen := s.config.PresencePenalty

	freq := make(map[int32]int)
	for _, tok := range recentTokens(prev, s.config.RepeatWindow) {
		freq[tok]++
	}

	for tok, count := range freq {
		if int(tok) < len(logits) {
			logits[tok] -= freqPen * float32(count)
			if presPen != 0 {
				logits[tok] -= presPen
			}
		}
	}
}

// recentTokens returns the last window tokens, or all when window is 0.
func recentTokens(prev []int32, window int) []int32 {
	if window > 0 && len(prev) > window {
		return prev[len(prev)-window:]
	}
	return prev
}

// topKFilter keeps only the top K logits, sets the rest to -inf.
// Ties at the K-th value are all kept.
func topKFilter(logits []float32, k int) {
	if k >= len(logits) {
		return
	}

	sorted := append([]float32{}, logits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })
	threshold := sorted[k-1]

	for i := range logits {
		if logits[i] < threshold {
			logits[i] = float32(math.Inf(-1))
		}
	}
}

// topPFilter implements nucleus sampling: the smallest set of tokens whose
// cumulative probability exceeds p is kept, the rest set to -inf.
func topPFilter(logits []float32, p float32) {
	probs := softmax(logits)

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return probs[order[i]] > probs[order[j]] })

	// Walk down the sorted distribution until p is covered. The token that
	// crosses the boundary is included, so at least one token survives.
	keep := make([]bool, len(probs))
	cumSum := float32(0)
	for _, idx := range order {
		keep[idx] = true
		cumSum += probs[idx]
		if cumSum > p {
			break
		}
	}

	for i := range logits {
		if !keep[i] {
			logits[i] = float32(math.Inf(-1))
		}
	}
}

// minPFilter keeps tokens with prob >= max_prob * minP.
func minPFilter(logits []float32, minP float32) {
	probs := softmax(logits)

	maxProb := float32(0)
	for _, p := range probs {
		if p > maxProb {
			maxProb = p
		}
	}

	threshold := maxProb * minP

	for i := range logits {
		if probs[i] < threshold {
			logits[i] = float32(math.Inf(-1))
		}
	}
}

// multinomial samples from a categorical distribution.
func (s *Sampler) multinomial(probs []float32) int32 {
	r := s.rng.Float32()

	cumSum := float32(0)
	for i, p := range probs {
		cumSum += p
		if r < cumSum {
			return int32(i) //nolint:gosec // vocab size is bounded by model architecture
		}
	}

	// Rounding errors: fall back to the last token
	return int32(len(probs) - 1) //nolint:gosec // vocab size is bounded by model architecture
}

// softmax converts logits to probabilities. -inf logits map to zero.
func softmax(logits []float32) []float32 {
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}

	probs := make([]float32, len(logits))
	sum := float32(0)
	for i, v := range logits {
		if math.IsInf(float64(v), -1) {
			probs[i] = 0
		} else {
			probs[i] = float32(math.Exp(float64(v - maxVal)))
			sum += probs[i]
		}
	}

	if sum > 0 {
		for i := range probs {
			probs[i] /= sum
		}
	}

	return probs
}

// lastLogits extracts the logits for the last sequence position.
func lastLogits(logits *tensor.RawTensor) []float32 {
	shape := logits.Shape()
	data := logits.AsFloat32()

	switch len(shape) {
	case 3: // [batch, seq, vocab]
		vocabSize := shape[2]
		start := (shape[1] - 1) * vocabSize
		return data[start : start+vocabSize]
	case 2: // [seq, vocab]
		vocabSize := shape[1]
		start := (shape[0] - 1) * vocabSize
		return data[start : start+vocabSize]
	default: // [vocab]
		return data
	}
}
