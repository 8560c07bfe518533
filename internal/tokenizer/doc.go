// Package tokenizer provides text tokenization for language model inference.
//
// Two implementations are available behind the Tokenizer interface:
//   - tiktoken: OpenAI-style BPE encodings (cl100k_base, p50k_base, r50k_base)
//     via pkoukk/tiktoken-go
//   - byte: one token per byte with BOS/EOS/PAD specials, no external data
//
// Example usage:
//
//	tok, err := tokenizer.Load("cl100k_base")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tokens, err := tok.Encode("Hello, world!")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := tok.Decode(tokens)
//	if err != nil {
//	    log.Fatal(err)
//	}
package tokenizer
