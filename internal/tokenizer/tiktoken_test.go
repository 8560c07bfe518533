package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loadEncoding loads a tiktoken encoding or skips the test when the BPE rank
// file is unavailable (first use downloads it unless TIKTOKEN_CACHE_DIR is
// populated).
func loadEncoding(t *testing.T, name string) *TikToken {
	t.Helper()
	tok, err := NewTikToken(name)
	if err != nil {
		t.Skipf("tiktoken encoding %q unavailable: %v", name, err)
	}
	return tok
}

func TestTikToken_NewTikToken(t *testing.T) {
	tests := []struct {
		name              string
		encoding          string
		expectedVocabSize int
	}{
		{
			name:              "cl100k_base",
			encoding:          "cl100k_base",
			expectedVocabSize: 100256,
		},
		{
			name:              "p50k_base",
			encoding:          "p50k_base",
			expectedVocabSize: 50257,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := loadEncoding(t, tt.encoding)
			assert.Equal(t, tt.expectedVocabSize, tok.VocabSize())
			assert.Equal(t, tt.encoding, tok.Name())
		})
	}
}

func TestTikToken_InvalidEncoding(t *testing.T) {
	tok, err := NewTikToken("invalid_encoding_xyz")
	assert.Error(t, err)
	assert.Nil(t, tok)
}

func TestTikToken_Roundtrip(t *testing.T) {
	tok := loadEncoding(t, "cl100k_base")

	tests := []struct {
		name string
		text string
	}{
		{
			name: "simple text",
			text: "Hello, world!",
		},
		{
			name: "with newlines",
			text: "Hello\nWorld\n",
		},
		{
			name: "unicode",
			text: "Hello 世界! 🌍",
		},
		{
			name: "empty string",
			text: "",
		},
		{
			name: "long text",
			text: "The quick brown fox jumps over the lazy dog. " +
				"This is a longer piece of text to test tokenization.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := tok.Encode(tt.text)
			require.NoError(t, err)

			decoded, err := tok.Decode(tokens)
			require.NoError(t, err)

			assert.Equal(t, tt.text, decoded)
		})
	}
}

func TestTikToken_SpecialTokens(t *testing.T) {
	tok := loadEncoding(t, "cl100k_base")

	t.Run("BOS token", func(t *testing.T) {
		assert.Equal(t, int32(-1), tok.BosToken(), "tiktoken doesn't use BOS")
	})

	t.Run("EOS token", func(t *testing.T) {
		eos := tok.EosToken()
		assert.Equal(t, int32(100257), eos)
		assert.True(t, tok.IsSpecialToken(eos))
	})

	t.Run("PAD token", func(t *testing.T) {
		assert.Equal(t, int32(-1), tok.PadToken(), "tiktoken doesn't define PAD")
	})

	t.Run("UNK token", func(t *testing.T) {
		assert.Equal(t, int32(-1), tok.UnkToken(), "tiktoken uses BPE fallback")
	})

	t.Run("special token detection", func(t *testing.T) {
		// cl100k_base special tokens: 100256-100276 (ChatML tokens).
		assert.True(t, tok.IsSpecialToken(100256))
		assert.True(t, tok.IsSpecialToken(100270))
		assert.True(t, tok.IsSpecialToken(100276))
		assert.False(t, tok.IsSpecialToken(0))
		assert.False(t, tok.IsSpecialToken(1000))
	})
}

func TestTikToken_NewTikTokenForModel(t *testing.T) {
	tok, err := NewTikTokenForModel("gpt-4")
	if err != nil {
		t.Skipf("tiktoken for gpt-4 unavailable: %v", err)
	}

	require.NotNil(t, tok)
	assert.Equal(t, "gpt-4", tok.Name())
	// Mapped models keep their encoding constants.
	assert.Equal(t, 100256, tok.VocabSize())
	assert.Equal(t, int32(100257), tok.EosToken())
}

func TestTikToken_EmptyInput(t *testing.T) {
	tok := loadEncoding(t, "cl100k_base")

	tokens, err := tok.Encode("")
	require.NoError(t, err)
	assert.Empty(t, tokens)

	decoded, err := tok.Decode([]int32{})
	require.NoError(t, err)
	assert.Equal(t, "", decoded)
}

func TestTikToken_VocabSize(t *testing.T) {
	tests := []struct {
		encoding          string
		expectedVocabSize int
	}{
		{"cl100k_base", 100256},
		{"p50k_base", 50257},
		{"r50k_base", 50257},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			tok := loadEncoding(t, tt.encoding)
			assert.Equal(t, tt.expectedVocabSize, tok.VocabSize())
		})
	}
}
