package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// WriteOptions configures how a state dictionary is written.
type WriteOptions struct {
	ModelType     string            // Model type recorded in the header (e.g., "RetNet")
	Metadata      map[string]string // Custom metadata
	HalfPrecision bool              // Store float32 tensors as float16 (half size, lossy)
}

// MnemoWriter writes models in .mnemo format.
type MnemoWriter struct {
	file   *os.File
	closed bool
}

// NewMnemoWriter creates a new .mnemo file writer.
func NewMnemoWriter(path string) (*MnemoWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &MnemoWriter{
		file:   file,
		closed: false,
	}, nil
}

// WriteStateDict writes a state dictionary to the .mnemo file.
//
// The state dictionary is a map from parameter names to tensors. Tensors are
// laid out in sorted name order, so the file layout does not depend on map
// iteration order.
func (w *MnemoWriter) WriteStateDict(stateDict map[string]*tensor.RawTensor, opts WriteOptions) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	return writeContainer(w.file, stateDict, opts)
}

// Close closes the writer and the underlying file.
func (w *MnemoWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// WriteTo writes a state dictionary to an io.Writer.
// This is useful for writing to buffers or network connections.
func WriteTo(writer io.Writer, stateDict map[string]*tensor.RawTensor, opts WriteOptions) error {
	return writeContainer(writer, stateDict, opts)
}

// writeContainer encodes the full .mnemo container: fixed header, JSON
// header, alignment padding, and the tensor data section.
func writeContainer(writer io.Writer, stateDict map[string]*tensor.RawTensor, opts WriteOptions) error {
	names := make([]string, 0, len(stateDict))
	for name := range stateDict {
		names = append(names, name)
	}
	sort.Strings(names)

	// Encode the data section and build the tensor index. Half precision
	// applies to float32 tensors only; other dtypes are stored verbatim.
	header := Header{
		FormatVersion: FormatVersion,
		MnemoVersion:  mnemoVersion,
		ModelType:     opts.ModelType,
		CreatedAt:     time.Now().UTC(),
		Tensors:       make([]TensorMeta, 0, len(stateDict)),
		Metadata:      opts.Metadata,
	}
	if header.Metadata == nil {
		header.Metadata = make(map[string]string)
	}

	var dataBuf []byte
	var currentOffset int64
	for _, name := range names {
		raw := stateDict[name]

		var payload []byte
		dtypeStr := dtypeToString(raw.DType())
		if opts.HalfPrecision && raw.DType() == tensor.Float32 {
			payload = encodeFloat16(raw.AsFloat32())
			dtypeStr = DTypeFloat16
		} else {
			payload = raw.Data()
		}

		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeStr,
			Shape:  []int(raw.Shape()),
			Offset: currentOffset,
			Size:   int64(len(payload)),
		})

		dataBuf = append(dataBuf, payload...)
		currentOffset += int64(len(payload))
	}

	checksum := ComputeChecksum(dataBuf)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	headerSize := uint64(len(headerJSON))
	dataSize := uint64(len(dataBuf))

	// Fixed 64-byte header
	fixedHeader := make([]byte, FixedHeaderSize)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))

	flags := uint32(0)
	if len(header.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if opts.HalfPrecision {
		flags |= FlagHalfPrecision
	}
	binary.LittleEndian.PutUint32(fixedHeader[8:12], flags)

	// 0x0C-0x0F reserved, zero from make()
	binary.LittleEndian.PutUint64(fixedHeader[16:24], headerSize)
	binary.LittleEndian.PutUint64(fixedHeader[24:32], dataSize)
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := writer.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}

	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	// Pad so the data section starts 64-byte aligned
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize, conversion is safe
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		paddingBytes := make([]byte, padding)
		if _, err := writer.Write(paddingBytes); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := writer.Write(dataBuf); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}

	return nil
}
