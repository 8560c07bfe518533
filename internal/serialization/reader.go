package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mnemo-ml/mnemo/internal/tensor"
)

// MnemoReader reads models from .mnemo format.
type MnemoReader struct {
	file       *os.File
	header     Header
	flags      uint32
	version    uint32
	dataOffset int64    // Offset where the data section starts
	dataSize   int64    // Size of the data section per the fixed header
	checksum   [32]byte // SHA-256 checksum of the data section
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures the behavior of MnemoReader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// NewMnemoReader creates a new .mnemo file reader with default options
// (strict validation, checksum verified).
func NewMnemoReader(path string) (*MnemoReader, error) {
	return NewMnemoReaderWithOptions(path, ReaderOptions{
		ValidationLevel: ValidationStrict,
	})
}

// NewMnemoReaderWithOptions creates a new .mnemo file reader with custom options.
func NewMnemoReaderWithOptions(path string, opts ReaderOptions) (*MnemoReader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	reader := &MnemoReader{
		file:   file,
		opts:   opts,
		closed: false,
	}

	if err := reader.parseHeader(); err != nil {
		_ = file.Close() // Best effort close on error
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}

	// The data section must fit inside the file
	fileInfo, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if reader.dataOffset+reader.dataSize > fileInfo.Size() {
		_ = file.Close()
		return nil, fmt.Errorf("data section truncated: header claims %d bytes at offset %d, file has %d",
			reader.dataSize, reader.dataOffset, fileInfo.Size())
	}

	if err := ValidateHeader(&reader.header, reader.dataSize, opts.ValidationLevel); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	if !opts.SkipChecksumValidation {
		if err := reader.verifyChecksum(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	return reader, nil
}

// parseHeader reads the fixed header and the JSON header.
func (r *MnemoReader) parseHeader() error {
	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r.file, fixedHeader); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixedHeader[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	r.version = binary.LittleEndian.Uint32(fixedHeader[4:8])
	if r.version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, r.version, FormatVersion)
	}

	r.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])
	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])
	copy(r.checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r.file, headerBytes); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}

	// Data section starts at the next 64-byte boundary
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize, conversion is safe
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	r.dataOffset = currentPos + padding
	r.dataSize = int64(dataSize)

	return nil
}

// verifyChecksum reads the whole data section and compares its SHA-256
// against the stored checksum.
func (r *MnemoReader) verifyChecksum() error {
	data := make([]byte, r.dataSize)
	if _, err := r.file.Seek(r.dataOffset, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to tensor data: %w", err)
	}
	if _, err := io.ReadFull(r.file, data); err != nil {
		return fmt.Errorf("failed to read tensor data for checksum: %w", err)
	}
	return ValidateChecksum(ComputeChecksum(data), r.checksum)
}

// Header returns the file header.
func (r *MnemoReader) Header() Header {
	return r.header
}

// Metadata returns the metadata map from the header.
func (r *MnemoReader) Metadata() map[string]string {
	return r.header.Metadata
}

// HalfPrecision reports whether float32 tensors were stored as float16.
func (r *MnemoReader) HalfPrecision() bool {
	return r.flags&FlagHalfPrecision != 0
}

// TensorNames returns a list of all tensor names in the file.
func (r *MnemoReader) TensorNames() []string {
	names := make([]string, len(r.header.Tensors))
	for i, meta := range r.header.Tensors {
		names[i] = meta.Name
	}
	return names
}

// TensorInfo returns metadata for a specific tensor.
func (r *MnemoReader) TensorInfo(name string) (*TensorMeta, error) {
	for _, meta := range r.header.Tensors {
		if meta.Name == name {
			return &meta, nil
		}
	}
	return nil, fmt.Errorf("tensor %s not found", name)
}

// ReadTensorData reads the stored bytes of a tensor, without decoding.
func (r *MnemoReader) ReadTensorData(name string) ([]byte, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	if _, err := r.file.Seek(r.dataOffset+meta.Offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to tensor data: %w", err)
	}

	data := make([]byte, meta.Size)
	if _, err := io.ReadFull(r.file, data); err != nil {
		return nil, fmt.Errorf("failed to read tensor data: %w", err)
	}

	return data, nil
}

// LoadTensor loads a single tensor from the file.
//
// Tensors stored as float16 are decoded back to float32.
func (r *MnemoReader) LoadTensor(name string, backend tensor.Backend) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	meta, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	data, err := r.ReadTensorData(name)
	if err != nil {
		return nil, err
	}

	return decodeTensor(meta, data, backend)
}

// ReadStateDict reads all tensors into a state dictionary.
func (r *MnemoReader) ReadStateDict(backend tensor.Backend) (map[string]*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}

	stateDict := make(map[string]*tensor.RawTensor)
	for _, meta := range r.header.Tensors {
		raw, err := r.LoadTensor(meta.Name, backend)
		if err != nil {
			return nil, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, nil
}

// Close closes the reader and the underlying file.
func (r *MnemoReader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

// decodeTensor turns a tensor's stored bytes into a RawTensor per its index
// entry.
func decodeTensor(meta *TensorMeta, data []byte, backend tensor.Backend) (*tensor.RawTensor, error) {
	shape := tensor.Shape(meta.Shape)
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
	}

	// float16 is storage-only; decode it back to float32
	if meta.DType == DTypeFloat16 {
		if len(data) != shape.NumElements()*2 {
			return nil, fmt.Errorf("tensor %s: float16 payload is %d bytes, expected %d",
				meta.Name, len(data), shape.NumElements()*2)
		}
		raw, err := tensor.NewRaw(shape, tensor.Float32, backend.Device())
		if err != nil {
			return nil, fmt.Errorf("failed to create tensor: %w", err)
		}
		decodeFloat16(data, raw.AsFloat32())
		return raw, nil
	}

	dtype, ok := stringToDtype(meta.DType)
	if !ok {
		return nil, fmt.Errorf("unsupported dtype: %s", meta.DType)
	}

	raw, err := tensor.NewRaw(shape, dtype, backend.Device())
	if err != nil {
		return nil, fmt.Errorf("failed to create tensor: %w", err)
	}
	if len(data) != len(raw.Data()) {
		return nil, fmt.Errorf("tensor %s: payload is %d bytes, expected %d",
			meta.Name, len(data), len(raw.Data()))
	}
	copy(raw.Data(), data)

	return raw, nil
}

// ReadFrom reads a state dictionary from an io.Reader.
// This is useful for reading from buffers or network connections.
func ReadFrom(reader io.Reader, backend tensor.Backend) (map[string]*tensor.RawTensor, Header, error) {
	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(reader, fixedHeader); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixedHeader[0:4]) != MagicBytes {
		return nil, Header{}, ErrInvalidMagic
	}
	version := binary.LittleEndian.Uint32(fixedHeader[4:8])
	if version != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	headerSize := binary.LittleEndian.Uint64(fixedHeader[16:24])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[24:32])
	var checksum [32]byte
	copy(checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return nil, Header{}, ErrHeaderTooLarge
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(reader, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header JSON: %w", err)
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	// Skip alignment padding
	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize, conversion is safe
	currentPos := int64(FixedHeaderSize) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := io.ReadFull(reader, make([]byte, padding)); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read padding: %w", err)
		}
	}

	// Streams cannot seek, so read the whole data section and slice tensors
	// out of it by offset
	data := make([]byte, dataSize)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read tensor data: %w", err)
	}

	if err := ValidateChecksum(ComputeChecksum(data), checksum); err != nil {
		return nil, Header{}, err
	}
	if err := ValidateHeader(&header, int64(dataSize), ValidationStrict); err != nil {
		return nil, Header{}, fmt.Errorf("validation failed: %w", err)
	}

	stateDict := make(map[string]*tensor.RawTensor)
	for i := range header.Tensors {
		meta := &header.Tensors[i]
		raw, err := decodeTensor(meta, data[meta.Offset:meta.Offset+meta.Size], backend)
		if err != nil {
			return nil, Header{}, fmt.Errorf("failed to load tensor %s: %w", meta.Name, err)
		}
		stateDict[meta.Name] = raw
	}

	return stateDict, header, nil
}
