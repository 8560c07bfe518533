package nn

import (
	"fmt"
	"strings"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// mergeStateDict copies all entries of src into dst under "prefix.".
//
// Composite modules use this to build a flat state dictionary from their
// submodules (e.g., "layers.0.retention.qProj.weight").
func mergeStateDict(dst map[string]*tensor.RawTensor, prefix string, src map[string]*tensor.RawTensor) {
	for name, raw := range src {
		dst[prefix+"."+name] = raw
	}
}

// subStateDict extracts the entries of stateDict under "prefix.", with the
// prefix stripped. Missing prefixes yield an empty map; the caller's
// LoadStateDict reports the missing parameters by name.
func subStateDict(stateDict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	sub := make(map[string]*tensor.RawTensor)
	p := prefix + "."
	for name, raw := range stateDict {
		if strings.HasPrefix(name, p) {
			sub[strings.TrimPrefix(name, p)] = raw
		}
	}
	return sub
}

// loadTensorData validates a state-dict entry against the expected shape and
// dtype and copies its data into dst.
func loadTensorData(stateDict map[string]*tensor.RawTensor, name string, expected tensor.Shape, dst []float32) error {
	raw, ok := stateDict[name]
	if !ok {
		return fmt.Errorf("missing %s in state dict", name)
	}
	if !raw.Shape().Equal(expected) {
		return fmt.Errorf("%s shape mismatch: expected %v, got %v", name, expected, raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		return fmt.Errorf("%s dtype mismatch: expected float32, got %v", name, raw.DType())
	}
	copy(dst, raw.AsFloat32())
	return nil
}
