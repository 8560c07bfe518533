package serialization

import (
	"errors"
	"testing"
)

// TestComputeChecksum verifies SHA-256 checksum computation.
func TestComputeChecksum(t *testing.T) {
	data := []byte("test data")
	checksum1 := ComputeChecksum(data)
	checksum2 := ComputeChecksum(data)

	// Same data should produce same checksum
	if checksum1 != checksum2 {
		t.Error("Checksums should match for identical data")
	}

	// Different data should produce different checksum
	checksum3 := ComputeChecksum([]byte("different data"))
	if checksum1 == checksum3 {
		t.Error("Checksums should differ for different data")
	}

	if len(checksum1) != ChecksumSize {
		t.Errorf("Expected checksum length %d, got %d", ChecksumSize, len(checksum1))
	}
}

// TestValidateChecksum verifies checksum validation.
func TestValidateChecksum(t *testing.T) {
	checksum := ComputeChecksum([]byte("test data"))

	if err := ValidateChecksum(checksum, checksum); err != nil {
		t.Errorf("Expected no error for matching checksums, got: %v", err)
	}

	var tampered [32]byte
	copy(tampered[:], checksum[:])
	tampered[0] ^= 0xFF

	err := ValidateChecksum(checksum, tampered)
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("Expected ErrChecksumMismatch, got: %v", err)
	}
}
