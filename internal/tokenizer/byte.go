package tokenizer

import "strings"

// ByteTokenizerName is the name the Load factory resolves to NewByteTokenizer.
const ByteTokenizerName = "byte"

// Byte-level vocabulary: IDs 0-255 are raw bytes, specials follow.
const (
	byteVocabSize = 256

	// ByteBOS marks the beginning of a sequence.
	ByteBOS int32 = 256
	// ByteEOS marks the end of a sequence.
	ByteEOS int32 = 257
	// BytePAD is the padding token.
	BytePAD int32 = 258
)

// ByteTokenizer tokenizes text one byte per token.
//
// It needs no vocabulary files and never produces unknown tokens, which makes
// it the deterministic fallback for tests, examples, and offline use. Every
// UTF-8 rune outside ASCII encodes to multiple tokens.
type ByteTokenizer struct {
	specialTokens map[int32]bool
}

// NewByteTokenizer creates a byte-level tokenizer with BOS/EOS/PAD specials.
func NewByteTokenizer() *ByteTokenizer {
	return &ByteTokenizer{
		specialTokens: map[int32]bool{
			ByteBOS: true,
			ByteEOS: true,
			BytePAD: true,
		},
	}
}

// Encode converts text to one token ID per byte.
func (b *ByteTokenizer) Encode(text string) ([]int32, error) {
	raw := []byte(text)
	tokens := make([]int32, len(raw))
	for i, c := range raw {
		tokens[i] = int32(c)
	}
	return tokens, nil
}

// Decode converts token IDs back to text.
//
// Special tokens are skipped; IDs outside the vocabulary decode to the
// Unicode replacement character.
func (b *ByteTokenizer) Decode(tokens []int32) (string, error) {
	var sb strings.Builder
	sb.Grow(len(tokens))

	for _, token := range tokens {
		switch {
		case token >= 0 && token < byteVocabSize:
			sb.WriteByte(byte(token))
		case b.specialTokens[token]:
			// skip
		default:
			sb.WriteRune('�')
		}
	}

	return sb.String(), nil
}

// VocabSize returns the total vocabulary size including special tokens.
func (b *ByteTokenizer) VocabSize() int {
	return byteVocabSize + len(b.specialTokens)
}

// BosToken returns the beginning-of-sequence token ID.
func (b *ByteTokenizer) BosToken() int32 {
	return ByteBOS
}

// EosToken returns the end-of-sequence token ID.
func (b *ByteTokenizer) EosToken() int32 {
	return ByteEOS
}

// PadToken returns the padding token ID.
func (b *ByteTokenizer) PadToken() int32 {
	return BytePAD
}

// UnkToken returns -1; every byte is in the vocabulary.
func (b *ByteTokenizer) UnkToken() int32 {
	return -1
}

// IsSpecialToken checks if a token ID is a special token.
func (b *ByteTokenizer) IsSpecialToken(token int32) bool {
	return b.specialTokens[token]
}
