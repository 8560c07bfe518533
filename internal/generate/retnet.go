package generate

import (
	"fmt"

	"github.com/mnemo-ml/mnemo/internal/nn"
	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// RetNetDecoder adapts a retention network to the Model interface.
//
// Decoding runs through RetNet.ForwardRecurrent with a StateCache, so each
// step costs O(1) in the sequence length and the prompt is absorbed into the
// recurrent state token by token. The model is switched to evaluation mode
// on construction; recurrent decoding requires dropout disabled.
type RetNetDecoder[B tensor.Backend] struct {
	model   *nn.RetNet[B]
	cache   *nn.StateCache[B]
	backend B
}

// NewRetNetDecoder creates a decoder over the given model.
func NewRetNetDecoder[B tensor.Backend](model *nn.RetNet[B], backend B) *RetNetDecoder[B] {
	model.Eval()
	return &RetNetDecoder[B]{
		model:   model,
		cache:   nn.NewStateCache[B](model.NumLayers()),
		backend: backend,
	}
}

// Prefill feeds the prompt through the recurrence and returns logits for
// the position after the last prompt token.
func (d *RetNetDecoder[B]) Prefill(tokens []int32) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("empty prompt")
	}

	var logits []float32
	var err error
	for _, token := range tokens {
		logits, err = d.Step(token)
		if err != nil {
			return nil, err
		}
	}
	return logits, nil
}

// Step consumes one token, updates the retention states, and returns logits
// for the next position.
func (d *RetNetDecoder[B]) Step(token int32) ([]float32, error) {
	input, err := tensor.FromSlice[int32]([]int32{token}, tensor.Shape{1}, d.backend)
	if err != nil {
		return nil, fmt.Errorf("step input: %w", err)
	}

	logits := d.model.ForwardRecurrent(input, d.cache) // [1, vocab]

	out := make([]float32, d.model.Config().VocabSize)
	copy(out, logits.Data())
	return out, nil
}

// Reset clears the retention states so a new sequence can start.
func (d *RetNetDecoder[B]) Reset() {
	d.cache.Reset()
}

// VocabSize returns the model's vocabulary size.
func (d *RetNetDecoder[B]) VocabSize() int {
	return d.model.Config().VocabSize
}

// Position returns the number of tokens absorbed since the last Reset.
func (d *RetNetDecoder[B]) Position() int {
	return d.cache.Len()
}
