package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// encodingInfo carries the per-encoding constants tiktoken-go does not expose.
type encodingInfo struct {
	vocabSize int
	eosToken  int32
	// Special token ID range (inclusive); -1 disables the range check.
	specialLo int32
	specialHi int32
}

// knownEncodings maps encoding names to their vocabulary constants.
//
//   - cl100k_base: GPT-4, GPT-3.5-turbo, text-embedding-ada-002
//   - p50k_base: GPT-3, Codex
//   - r50k_base: older GPT-3 models
var knownEncodings = map[string]encodingInfo{
	"cl100k_base": {vocabSize: 100256, eosToken: 100257, specialLo: 100256, specialHi: 100276},
	"p50k_base":   {vocabSize: 50257, eosToken: 50256, specialLo: -1, specialHi: -1},
	"r50k_base":   {vocabSize: 50257, eosToken: 50256, specialLo: -1, specialHi: -1},
}

// TikToken wraps the pkoukk/tiktoken-go library for OpenAI-style BPE tokenizers.
//
// The first use of an encoding downloads its BPE rank file unless a local
// cache is present (TIKTOKEN_CACHE_DIR).
type TikToken struct {
	encoding *tiktoken.Tiktoken
	name     string
	info     encodingInfo
}

// NewTikToken creates a TikToken tokenizer for the named encoding.
//
// Supported encodings: "cl100k_base", "p50k_base", "r50k_base".
func NewTikToken(encodingName string) (*TikToken, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encodingName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     encodingName,
		info:     knownEncodings[encodingName],
	}, nil
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
// Encoding constants (vocab size, EOS) are only known for models listed in
// modelEncodings; others fall back to conservative defaults.
func NewTikTokenForModel(modelName string) (*TikToken, error) {
	if encodingName, ok := modelEncodings[modelName]; ok {
		tok, err := NewTikToken(encodingName)
		if err != nil {
			return nil, err
		}
		tok.name = modelName
		return tok, nil
	}

	encoding, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken for model %q: %w", modelName, err)
	}

	return &TikToken{
		encoding: encoding,
		name:     modelName,
	}, nil
}

// modelEncodings maps common model names to their tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-4":                  "cl100k_base",
	"gpt-3.5-turbo":          "cl100k_base",
	"text-embedding-ada-002": "cl100k_base",
	"gpt-3":                  "p50k_base",
	"text-davinci-003":       "p50k_base",
}

// Encode converts text to token IDs.
func (t *TikToken) Encode(text string) ([]int32, error) {
	tokens := t.encoding.Encode(text, nil, nil)

	result := make([]int32, len(tokens))
	for i, tok := range tokens {
		result[i] = int32(tok) //nolint:gosec // G115: Token ID fits in int32 - vocab size < 2^31.
	}

	return result, nil
}

// Decode converts token IDs back to text.
func (t *TikToken) Decode(tokens []int32) (string, error) {
	intTokens := make([]int, len(tokens))
	for i, tok := range tokens {
		intTokens[i] = int(tok)
	}

	return t.encoding.Decode(intTokens), nil
}

// VocabSize returns the total vocabulary size.
func (t *TikToken) VocabSize() int {
	if t.info.vocabSize > 0 {
		return t.info.vocabSize
	}
	return 100000 // Conservative default for unlisted encodings.
}

// BosToken returns -1; tiktoken encodings do not use a BOS token.
func (t *TikToken) BosToken() int32 {
	return -1
}

// EosToken returns the <|endoftext|> token ID for the encoding.
func (t *TikToken) EosToken() int32 {
	if t.info.vocabSize > 0 {
		return t.info.eosToken
	}
	return -1
}

// PadToken returns -1; tiktoken encodings do not define padding.
func (t *TikToken) PadToken() int32 {
	return -1
}

// UnkToken returns -1; tiktoken handles unknown input via byte-level fallback.
func (t *TikToken) UnkToken() int32 {
	return -1
}

// IsSpecialToken checks if a token ID is a special token.
func (t *TikToken) IsSpecialToken(token int32) bool {
	if eos := t.EosToken(); eos >= 0 && token == eos {
		return true
	}
	if t.info.specialLo >= 0 && token >= t.info.specialLo && token <= t.info.specialHi {
		return true
	}
	return false
}

// Name returns the encoding or model name this tokenizer was created with.
func (t *TikToken) Name() string {
	return t.name
}
