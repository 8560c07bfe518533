package tokenizer

import "fmt"

// Tokenizer is the core interface for text tokenization.
//
// All tokenizer implementations (tiktoken, byte-level) must implement this interface.
type Tokenizer interface {
	// Encode converts text to token IDs.
	Encode(text string) ([]int32, error)

	// Decode converts token IDs back to text.
	Decode(tokens []int32) (string, error)

	// VocabSize returns the total vocabulary size.
	VocabSize() int

	// BosToken returns the beginning-of-sequence token ID.
	// Returns -1 if not applicable.
	BosToken() int32

	// EosToken returns the end-of-sequence token ID.
	// Returns -1 if not applicable.
	EosToken() int32

	// PadToken returns the padding token ID.
	// Returns -1 if not applicable.
	PadToken() int32

	// UnkToken returns the unknown token ID.
	// Returns -1 if not applicable.
	UnkToken() int32

	// IsSpecialToken checks if a token ID is a special token.
	IsSpecialToken(token int32) bool
}

// Load resolves a tokenizer by name.
//
// It tries multiple strategies:
//  1. "byte" loads the built-in byte-level tokenizer (no external data)
//  2. A tiktoken encoding name ("cl100k_base", "p50k_base", "r50k_base")
//  3. A tiktoken model name ("gpt-4", "gpt-3.5-turbo")
func Load(name string) (Tokenizer, error) {
	if name == ByteTokenizerName {
		return NewByteTokenizer(), nil
	}

	if tok, err := NewTikToken(name); err == nil {
		return tok, nil
	}

	if tok, err := NewTikTokenForModel(name); err == nil {
		return tok, nil
	}

	return nil, fmt.Errorf("unknown tokenizer %q", name)
}
