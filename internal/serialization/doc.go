// Package serialization provides the native .mnemo format for saving and
// loading Mnemo models.
//
// A .mnemo file is a fixed binary header followed by a JSON tensor index and
// the raw tensor payload:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00  Magic "MNMO"
//	    0x04  Version (uint32 LE)
//	    0x08  Flags (uint32 LE)
//	    0x0C  Reserved
//	    0x10  Header size (uint64 LE)
//	    0x18  Data size (uint64 LE)
//	    0x20  SHA-256 checksum of the data section
//	  [Header: JSON metadata and tensor index]
//	  [Tensor data: raw bytes, 64-byte aligned]
//
// The format supports:
//   - float32, float64, int32, int64 tensors
//   - Optional float16 storage of float32 tensors (half file size, lossy)
//   - Arbitrary tensor shapes
//   - Metadata preservation
//   - Payload integrity via SHA-256
//
// Example usage:
//
//	// Save a model
//	writer, _ := serialization.NewMnemoWriter("model.mnemo")
//	err := writer.WriteStateDict(model.StateDict(), serialization.WriteOptions{
//	    ModelType: "RetNet",
//	})
//	writer.Close()
//
//	// Load a model
//	reader, _ := serialization.NewMnemoReader("model.mnemo")
//	stateDict, err := reader.ReadStateDict(backend)
//	model.LoadStateDict(stateDict)
//	reader.Close()
package serialization
