package generate

import (
	"fmt"
	"strings"

	"github.com/mnemo-ml/mnemo/internal/tokenizer"
)

// Model is the decode-side interface generation drives.
//
// Retention models implement it with O(1) recurrent state per layer (see
// RetNetDecoder): Prefill absorbs the prompt into the state, then each Step
// consumes one token and returns logits for the next position.
type Model interface {
	// Prefill consumes the prompt tokens and returns next-token logits,
	// shape [vocab_size].
	Prefill(tokens []int32) ([]float32, error)

	// Step consumes one token and returns next-token logits, shape
	// [vocab_size].
	Step(token int32) ([]float32, error)

	// Reset clears the decode state so a new sequence can start.
	Reset()

	// VocabSize returns the width of the returned logits.
	VocabSize() int
}

// GenerateConfig configures text generation.
//
//nolint:revive // GenerateConfig is clearer than Config
type GenerateConfig struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// MinTokens is the minimum number of tokens before stopping.
	MinTokens int

	// StopStrings are strings that trigger stopping.
	StopStrings []string

	// StopTokens are token IDs that trigger stopping.
	StopTokens []int32

	// EchoPrompt includes the prompt in output.
	EchoPrompt bool

	// Sampling is the sampling configuration.
	Sampling SamplingConfig
}

// DefaultGenerateConfig returns sensible defaults for generation.
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		MaxTokens:   256,
		MinTokens:   0,
		StopStrings: nil,
		StopTokens:  nil,
		EchoPrompt:  false,
		Sampling:    DefaultSamplingConfig(),
	}
}

// GenerateResult is a single result from streaming generation.
//
//nolint:revive // GenerateResult is clearer than Result
type GenerateResult struct {
	Token   string // Decoded token text
	TokenID int32  // Token ID
	Done    bool   // Is generation complete
	Reason  string // Stop reason: "eos", "max_tokens", "stop_string", "stop_token"
	Error   error  // Error if any
}

// TextGenerator generates text by decoding a Model token by token.
type TextGenerator struct {
	model     Model
	tokenizer tokenizer.Tokenizer
	sampler   *Sampler

	maxSeqLen int
}

// GeneratorOption configures a TextGenerator.
type GeneratorOption func(*generatorOptions)

type generatorOptions struct {
	maxSeqLen int
}

// WithMaxSeqLen sets the maximum total sequence length (prompt plus
// generated tokens). Default 2048.
func WithMaxSeqLen(n int) GeneratorOption {
	return func(o *generatorOptions) {
		o.maxSeqLen = n
	}
}

// NewTextGenerator creates a new text generator.
func NewTextGenerator(
	model Model,
	tok tokenizer.Tokenizer,
	samplingConfig SamplingConfig,
	opts ...GeneratorOption,
) *TextGenerator {
	options := &generatorOptions{
		maxSeqLen: 2048,
	}
	for _, opt := range opts {
		opt(options)
	}

	return &TextGenerator{
		model:     model,
		tokenizer: tok,
		sampler:   NewSampler(samplingConfig),
		maxSeqLen: options.maxSeqLen,
	}
}

// Generate generates text from a prompt.
func (g *TextGenerator) Generate(prompt string, config GenerateConfig) (string, error) {
	inputIDs, err := g.tokenizer.Encode(prompt)
	if err != nil {
		return "", fmt.Errorf("encode prompt: %w", err)
	}

	var result strings.Builder
	if config.EchoPrompt {
		result.WriteString(prompt)
	}

	err = g.generate(inputIDs, config, func(res GenerateResult) bool {
		if res.Error != nil {
			return false
		}
		// EOS and stop tokens terminate the text, they are not part of it
		if res.Reason != "eos" && res.Reason != "stop_token" {
			result.WriteString(res.Token)
		}
		return !res.Done
	})

	if err != nil {
		return "", err
	}

	return result.String(), nil
}

// GenerateStream generates text and returns a channel of results.
//
// The channel is closed when generation finishes. A result with a non-nil
// Error terminates the stream.
func (g *TextGenerator) GenerateStream(prompt string, config GenerateConfig) (<-chan GenerateResult, error) {
	inputIDs, err := g.tokenizer.Encode(prompt)
	if err != nil {
		return nil, fmt.Errorf("encode prompt: %w", err)
	}

	ch := make(chan GenerateResult, 1)

	go func() {
		defer close(ch)

		if config.EchoPrompt {
			promptText, _ := g.tokenizer.Decode(inputIDs)
			ch <- GenerateResult{Token: promptText}
		}

		err := g.generate(inputIDs, config, func(res GenerateResult) bool {
			ch <- res
			return !res.Done && res.Error == nil
		})
		if err != nil {
			ch <- GenerateResult{Done: true, Reason: "error", Error: err}
		}
	}()

	return ch, nil
}

// generate is the core decoding loop: recurrent prefill over the prompt,
// then one Step per generated token.
func (g *TextGenerator) generate(
	inputIDs []int32,
	config GenerateConfig,
	callback func(GenerateResult) bool,
) error {
	if len(inputIDs) == 0 {
		return fmt.Errorf("empty input")
	}

	if len(inputIDs) >= g.maxSeqLen {
		return fmt.Errorf("input too long: %d >= %d", len(inputIDs), g.maxSeqLen)
	}

	g.model.Reset()

	logits, err := g.model.Prefill(inputIDs)
	if err != nil {
		return fmt.Errorf("prefill: %w", err)
	}

	generated := make([]int32, 0, config.MaxTokens)
	prevTokens := append([]int32{}, inputIDs...) // For repetition penalties

	for i := 0; i < config.MaxTokens; i++ {
		nextToken := g.sampler.Sample(logits, prevTokens)

		generated = append(generated, nextToken)
		prevTokens = append(prevTokens, nextToken)

		tokenStr, _ := g.tokenizer.Decode([]int32{nextToken})

		done, reason := g.checkStopConditions(nextToken, generated, config)
		if !done && len(prevTokens) >= g.maxSeqLen {
			done, reason = true, "max_tokens"
		}

		shouldContinue := callback(GenerateResult{
			Token:   tokenStr,
			TokenID: nextToken,
			Done:    done,
			Reason:  reason,
		})

		if done || !shouldContinue {
			break
		}

		logits, err = g.model.Step(nextToken)
		if err != nil {
			return fmt.Errorf("decode step %d: %w", i, err)
		}
	}

	return nil
}

// checkStopConditions checks if generation should stop.
func (g *TextGenerator) checkStopConditions(
	token int32,
	generated []int32,
	config GenerateConfig,
) (bool, string) {
	if len(generated) < config.MinTokens {
		return false, ""
	}

	if token == g.tokenizer.EosToken() {
		return true, "eos"
	}

	for _, stopToken := range config.StopTokens {
		if token == stopToken {
			return true, "stop_token"
		}
	}

	if len(config.StopStrings) > 0 {
		fullText, _ := g.tokenizer.Decode(generated)
		for _, stopStr := range config.StopStrings {
			if strings.HasSuffix(fullText, stopStr) {
				return true, "stop_string"
			}
		}
	}

	if len(generated) >= config.MaxTokens {
		return true, "max_tokens"
	}

	return false, ""
}
