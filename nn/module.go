// Copyright 2025 Mnemo ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/mnemo-ml/mnemo/internal/nn"
	"github.com/mnemo-ml/mnemo/internal/serialization"
	"github.com/mnemo-ml/mnemo/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all trainable parameters
//
// Modules with a single float32 input satisfy this interface directly
// (Linear, LayerNorm, DecoderLayer). Modules with richer signatures
// (MultiheadRetention, RetNet) provide the same methods but are not
// Module values themselves.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] = nn.Module[B]

// Stateful is satisfied by modules whose parameters can be exported to
// and restored from a state dictionary (Linear, MultiheadRetention,
// RetNet, ...). It is the contract Save and Load operate on.
type Stateful interface {
	// StateDict returns a map of parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict loads parameters from a state dictionary.
	//
	// Returns an error if a required parameter is missing or has the
	// wrong shape.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// Header describes a .mnemo file: format version, model type, creation
// time, tensor index and custom metadata.
type Header = serialization.Header

// SaveOptions configures how a state dictionary is written.
type SaveOptions = serialization.WriteOptions

// Save saves a module to a .mnemo file.
//
// This is a convenience function that exports the module's state dictionary
// and writes it to a file using the Mnemo native format.
//
// Parameters:
//   - module: The module to save
//   - path: File path to write to
//   - modelType: Type name of the model (e.g., "RetNet", "Linear")
//   - metadata: Optional metadata (can be nil)
//
// Returns an error if saving fails.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	err := nn.Save(model, "model.mnemo", "Linear", nil)
func Save(module Stateful, path, modelType string, metadata map[string]string) error {
	return SaveWithOptions(module, path, SaveOptions{
		ModelType: modelType,
		Metadata:  metadata,
	})
}

// SaveWithOptions saves a module to a .mnemo file with explicit write
// options, e.g. half-precision payload encoding:
//
//	err := nn.SaveWithOptions(model, "model.mnemo", nn.SaveOptions{
//	    ModelType:     "RetNet",
//	    HalfPrecision: true,
//	})
func SaveWithOptions(module Stateful, path string, opts SaveOptions) error {
	stateDict := module.StateDict()

	writer, err := serialization.NewMnemoWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = writer.Close()
	}()

	return writer.WriteStateDict(stateDict, opts)
}

// Load loads a module from a .mnemo file.
//
// This is a convenience function that reads a state dictionary from a file
// and loads it into the provided module.
//
// Parameters:
//   - path: File path to read from
//   - backend: Backend to use for tensors
//   - module: The module to load into (will be modified)
//
// Returns the header and an error if loading fails.
//
// Example:
//
//	backend := cpu.New()
//	model := nn.NewLinear(784, 10, backend)
//	header, err := nn.Load("model.mnemo", backend, model)
func Load(path string, backend tensor.Backend, module Stateful) (Header, error) {
	reader, err := serialization.NewMnemoReader(path)
	if err != nil {
		return Header{}, err
	}
	defer func() {
		_ = reader.Close()
	}()

	stateDict, err := reader.ReadStateDict(backend)
	if err != nil {
		return Header{}, err
	}

	if err := module.LoadStateDict(stateDict); err != nil {
		return Header{}, err
	}

	return reader.Header(), nil
}
