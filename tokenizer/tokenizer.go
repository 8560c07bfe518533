// Package tokenizer provides text tokenization for retention-model inference.
//
// This package wraps the internal tokenizer implementations and provides
// a clean public API for tokenization tasks.
//
// Supported tokenizers:
//   - TikToken: OpenAI BPE tokenizers (cl100k_base, p50k_base, r50k_base)
//   - Byte: byte-level tokenizer with a fixed 259-entry vocabulary,
//     useful for tests and examples with no external data
//
// Example usage:
//
//	import "github.com/mnemo-ml/mnemo/tokenizer"
//
//	// Load tiktoken
//	tok, err := tokenizer.NewTikToken("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Encode text
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Decode tokens
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer

import (
	"github.com/mnemo-ml/mnemo/internal/tokenizer"
)

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations must implement this interface.
type Tokenizer = tokenizer.Tokenizer

// NewTikToken creates a new TikToken tokenizer with the specified encoding.
//
// Supported encodings: "cl100k_base" (GPT-4), "p50k_base" and
// "r50k_base" (GPT-3).
func NewTikToken(encodingName string) (Tokenizer, error) {
	return tokenizer.NewTikToken(encodingName)
}

// NewTikTokenForModel creates a TikToken tokenizer for a specific model.
//
// Example models: "gpt-4", "gpt-3.5-turbo", "text-embedding-ada-002".
func NewTikTokenForModel(modelName string) (Tokenizer, error) {
	return tokenizer.NewTikTokenForModel(modelName)
}

// NewByteTokenizer creates the built-in byte-level tokenizer.
//
// Every byte maps to one token, plus BOS/EOS/PAD specials. It needs no
// external vocabulary data, which makes it the tokenizer of choice for
// tests and self-contained examples.
func NewByteTokenizer() Tokenizer {
	return tokenizer.NewByteTokenizer()
}

// Load resolves a tokenizer by name.
//
// It tries multiple strategies:
//  1. "byte" loads the built-in byte-level tokenizer
//  2. A tiktoken encoding name ("cl100k_base", "p50k_base", "r50k_base")
//  3. A tiktoken model name ("gpt-4", "gpt-3.5-turbo")
func Load(name string) (Tokenizer, error) {
	return tokenizer.Load(name)
}
