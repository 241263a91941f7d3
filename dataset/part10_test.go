package dataset

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// createValidPart10File creates a minimal valid DICOM Part 10 file for testing.
func createValidPart10File() []byte {
	var data []byte

	preamble := make([]byte, 128)
	data = append(data, preamble...)
	data = append(data, []byte("DICM")...)

	// Transfer Syntax UID (0002,0010)
	data = append(data, 0x02, 0x00, 0x10, 0x00)
	data = append(data, 'U', 'I')
	tsUID := "1.2.840.10008.1.2.1\x00" // Explicit VR Little Endian, padded
	tsLength := make([]byte, 2)
	binary.LittleEndian.PutUint16(tsLength, uint16(len(tsUID)))
	data = append(data, tsLength...)
	data = append(data, []byte(tsUID)...)

	// Dataset starts here (group > 0x0002): Patient Name (0010,0010)
	data = append(data, 0x10, 0x00, 0x10, 0x00)
	data = append(data, 'P', 'N')
	patientName := "TEST^PATIENT"
	nameLength := make([]byte, 2)
	binary.LittleEndian.PutUint16(nameLength, uint16(len(patientName)))
	data = append(data, nameLength...)
	data = append(data, []byte(patientName)...)

	return data
}

func TestStripPart10Header_ValidFile(t *testing.T) {
	data := createValidPart10File()

	ds, transferSyntaxUID, err := StripPart10Header(data)
	if err != nil {
		t.Fatalf("StripPart10Header() error = %v", err)
	}
	if transferSyntaxUID != "1.2.840.10008.1.2.1" {
		t.Errorf("transferSyntaxUID = %q, want explicit VR little endian", transferSyntaxUID)
	}

	if len(ds) < 4 {
		t.Fatal("dataset too short")
	}
	expectedTag := []byte{0x10, 0x00, 0x10, 0x00}
	if !bytes.Equal(ds[0:4], expectedTag) {
		t.Errorf("expected dataset to start with tag 0010,0010, got % x", ds[0:4])
	}
}

func TestStripPart10Header_TooShort(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}

	_, _, err := StripPart10Header(data)
	if err == nil {
		t.Error("expected error for data too short")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("too short")) {
		t.Errorf("expected 'too short' error, got: %v", err)
	}
}

func TestStripPart10Header_MissingDICM(t *testing.T) {
	data := make([]byte, 200)

	_, _, err := StripPart10Header(data)
	if err == nil {
		t.Error("expected error for missing DICM prefix")
	}
	if !bytes.Contains([]byte(err.Error()), []byte("missing DICM")) {
		t.Errorf("expected 'missing DICM' error, got: %v", err)
	}
}

func TestStripPart10Header_InvalidDICM(t *testing.T) {
	data := make([]byte, 200)
	copy(data[128:132], []byte("XXXX"))

	_, _, err := StripPart10Header(data)
	if err == nil {
		t.Error("expected error for invalid DICM prefix")
	}
}

func TestStripPart10Header_EmptyMetaInfo(t *testing.T) {
	var data []byte
	preamble := make([]byte, 128)
	data = append(data, preamble...)
	data = append(data, []byte("DICM")...)

	// Immediately start dataset (group 0x0010), no meta elements at all.
	data = append(data, 0x10, 0x00, 0x10, 0x00)
	data = append(data, 'P', 'N')
	data = append(data, 0x04, 0x00)
	data = append(data, []byte("TEST")...)

	ds, transferSyntaxUID, err := StripPart10Header(data)
	if err != nil {
		t.Fatalf("StripPart10Header() error = %v", err)
	}
	if transferSyntaxUID != "" {
		t.Errorf("transferSyntaxUID = %q, want empty (no meta group present)", transferSyntaxUID)
	}
	if len(ds) < 4 {
		t.Fatal("dataset too short")
	}
	expectedTag := []byte{0x10, 0x00, 0x10, 0x00}
	if !bytes.Equal(ds[0:4], expectedTag) {
		t.Errorf("expected dataset to start with tag 0010,0010")
	}
}

func TestStripPart10Header_MultipleMetaElements(t *testing.T) {
	var data []byte
	preamble := make([]byte, 128)
	data = append(data, preamble...)
	data = append(data, []byte("DICM")...)

	// Media Storage SOP Class UID (0002,0002)
	data = append(data, 0x02, 0x00, 0x02, 0x00)
	data = append(data, 'U', 'I')
	sopClass := "1.2.3.4\x00"
	sopLength := make([]byte, 2)
	binary.LittleEndian.PutUint16(sopLength, uint16(len(sopClass)))
	data = append(data, sopLength...)
	data = append(data, []byte(sopClass)...)

	// Transfer Syntax UID (0002,0010)
	data = append(data, 0x02, 0x00, 0x10, 0x00)
	data = append(data, 'U', 'I')
	tsUID := "1.2.840.10008.1.2\x00" // Implicit VR Little Endian
	tsLength := make([]byte, 2)
	binary.LittleEndian.PutUint16(tsLength, uint16(len(tsUID)))
	data = append(data, tsLength...)
	data = append(data, []byte(tsUID)...)

	// Dataset
	data = append(data, 0x10, 0x00, 0x10, 0x00)
	data = append(data, 'P', 'N')
	data = append(data, 0x04, 0x00)
	data = append(data, []byte("TEST")...)

	ds, transferSyntaxUID, err := StripPart10Header(data)
	if err != nil {
		t.Fatalf("StripPart10Header() error = %v", err)
	}
	if transferSyntaxUID != "1.2.840.10008.1.2" {
		t.Errorf("transferSyntaxUID = %q, want implicit VR little endian", transferSyntaxUID)
	}
	if len(ds) < 4 {
		t.Fatal("dataset too short")
	}
	expectedTag := []byte{0x10, 0x00, 0x10, 0x00}
	if !bytes.Equal(ds[0:4], expectedTag) {
		t.Errorf("expected dataset to start with tag 0010,0010")
	}
}

func TestStripPart10Header_LongVRElement(t *testing.T) {
	var data []byte
	preamble := make([]byte, 128)
	data = append(data, preamble...)
	data = append(data, []byte("DICM")...)

	// OB VR uses a 32-bit length with two reserved bytes.
	data = append(data, 0x02, 0x00, 0x01, 0x00)
	data = append(data, 'O', 'B')
	data = append(data, 0x00, 0x00)
	valueData := make([]byte, 100)
	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(len(valueData)))
	data = append(data, length...)
	data = append(data, valueData...)

	data = append(data, 0x10, 0x00, 0x10, 0x00)
	data = append(data, 'P', 'N')
	data = append(data, 0x04, 0x00)
	data = append(data, []byte("TEST")...)

	ds, _, err := StripPart10Header(data)
	if err != nil {
		t.Fatalf("StripPart10Header() error = %v", err)
	}
	expectedTag := []byte{0x10, 0x00, 0x10, 0x00}
	if !bytes.Equal(ds[0:4], expectedTag) {
		t.Errorf("expected dataset to start with tag 0010,0010")
	}
}

func TestHasPart10Header_Valid(t *testing.T) {
	data := createValidPart10File()

	if !HasPart10Header(data) {
		t.Error("expected HasPart10Header to return true for valid Part 10 file")
	}
}

func TestHasPart10Header_TooShort(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03}

	if HasPart10Header(data) {
		t.Error("expected HasPart10Header to return false for short data")
	}
}

func TestHasPart10Header_NoDICM(t *testing.T) {
	data := make([]byte, 200)
	copy(data[128:132], []byte("XXXX"))

	if HasPart10Header(data) {
		t.Error("expected HasPart10Header to return false without DICM prefix")
	}
}

func TestHasPart10Header_RawDataset(t *testing.T) {
	var data []byte
	data = append(data, 0x10, 0x00, 0x10, 0x00)
	data = append(data, 'P', 'N')
	data = append(data, 0x04, 0x00)
	data = append(data, []byte("TEST")...)

	if HasPart10Header(data) {
		t.Error("expected HasPart10Header to return false for raw dataset")
	}
}
