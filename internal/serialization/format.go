package serialization

import (
	"encoding/binary"
	"time"

	"github.com/x448/float16"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

const mnemoVersion = "0.3.0" // Current Mnemo version

// Format constants.
const (
	MagicBytes      = "MNMO"
	FormatVersion   = 1    // Current .mnemo format version
	HeaderAlignment = 64   // Tensor data alignment in bytes
	FixedHeaderSize = 64   // Fixed header size (0x40 bytes)
	ChecksumSize    = 32   // SHA-256 checksum size
	ChecksumOffset  = 0x20 // Checksum offset in the fixed header
)

// Data type string constants for the tensor index.
const (
	DTypeFloat32 = "float32"
	DTypeFloat64 = "float64"
	DTypeInt32   = "int32"
	DTypeInt64   = "int64"
	DTypeFloat16 = "float16" // Storage-only; loads back as float32
)

// Flags in the fixed header.
const (
	FlagHasMetadata   uint32 = 1 << 0 // bit 0: custom metadata included
	FlagHalfPrecision uint32 = 1 << 1 // bit 1: float32 tensors stored as float16
)

// Header is the JSON header of a .mnemo file.
type Header struct {
	FormatVersion int               `json:"format_version"` // Version of the .mnemo format
	MnemoVersion  string            `json:"mnemo_version"`  // Version of Mnemo that created this file
	ModelType     string            `json:"model_type"`     // Type of model (e.g., "RetNet")
	CreatedAt     time.Time         `json:"created_at"`     // When the file was created
	Tensors       []TensorMeta      `json:"tensors"`        // Tensor index
	Metadata      map[string]string `json:"metadata"`       // Custom metadata
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // Parameter name (e.g., "layers.0.retention.qProj.weight")
	DType  string `json:"dtype"`  // Stored data type
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset from the start of the data section
	Size   int64  `json:"size"`   // Stored size in bytes
}

// dtypeToString converts tensor.DataType to its index representation.
func dtypeToString(dt tensor.DataType) string {
	switch dt {
	case tensor.Float32:
		return DTypeFloat32
	case tensor.Float64:
		return DTypeFloat64
	case tensor.Int32:
		return DTypeInt32
	case tensor.Int64:
		return DTypeInt64
	default:
		return "unknown"
	}
}

// stringToDtype converts an index representation to tensor.DataType.
//
// DTypeFloat16 has no in-memory DataType; the reader decodes it to Float32.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeFloat32:
		return tensor.Float32, true
	case DTypeFloat64:
		return tensor.Float64, true
	case DTypeInt32:
		return tensor.Int32, true
	case DTypeInt64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}

// encodeFloat16 packs float32 values into IEEE 754 half precision, little
// endian. Values outside the float16 range saturate to ±Inf.
func encodeFloat16(src []float32) []byte {
	out := make([]byte, len(src)*2)
	for i, f := range src {
		binary.LittleEndian.PutUint16(out[i*2:], float16.Fromfloat32(f).Bits())
	}
	return out
}

// decodeFloat16 unpacks little-endian half-precision values into dst.
func decodeFloat16(src []byte, dst []float32) {
	for i := range dst {
		bits := binary.LittleEndian.Uint16(src[i*2:])
		dst[i] = float16.Frombits(bits).Float32()
	}
}
