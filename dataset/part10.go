package dataset

import (
	"fmt"
	"strings"
)

// StripPart10Header removes a DICOM Part 10 file's 128-byte preamble, the
// "DICM" prefix and the File Meta Information group (0002,eeee), returning
// just the dataset bytes and the Transfer Syntax UID (0002,0010) declared
// in the meta group. DIMSE operations like C-STORE send only the dataset,
// so a caller loading a .dcm file needs this before handing the bytes to
// transfersyntax.Deserialize.
func StripPart10Header(data []byte) (datasetBytes []byte, transferSyntaxUID string, err error) {
	if len(data) < 132 {
		return nil, "", fmt.Errorf("data too short to be DICOM Part 10 (need at least 132 bytes, got %d)", len(data))
	}
	if string(data[128:132]) != "DICM" {
		return nil, "", fmt.Errorf("not a valid DICOM Part 10 file (missing DICM prefix at offset 128)")
	}

	offset := 132
	for offset+8 <= len(data) {
		group := uint16(data[offset]) | (uint16(data[offset+1]) << 8)
		element := uint16(data[offset+2]) | (uint16(data[offset+3]) << 8)
		if group != 0x0002 {
			break
		}

		vrCode := string(data[offset+4 : offset+6])

		var length uint32
		var valueOffset int
		switch vrCode {
		case "OB", "OW", "OF", "SQ", "UN", "UT":
			offset += 8 // tag(4) + VR(2) + reserved(2)
			if offset+4 > len(data) {
				return nil, "", fmt.Errorf("truncated File Meta Information at offset %d", offset)
			}
			length = uint32(data[offset]) | (uint32(data[offset+1]) << 8) |
				(uint32(data[offset+2]) << 16) | (uint32(data[offset+3]) << 24)
			offset += 4
			valueOffset = offset
		default:
			offset += 6 // tag(4) + VR(2)
			if offset+2 > len(data) {
				return nil, "", fmt.Errorf("truncated File Meta Information at offset %d", offset)
			}
			length = uint32(data[offset]) | (uint32(data[offset+1]) << 8)
			offset += 2
			valueOffset = offset
		}

		if group == 0x0002 && element == 0x0010 && valueOffset+int(length) <= len(data) {
			transferSyntaxUID = strings.TrimRight(string(data[valueOffset:valueOffset+int(length)]), "\x00 ")
		}

		offset += int(length)
		if offset > len(data) {
			return nil, "", fmt.Errorf("element value overruns File Meta Information at offset %d", offset)
		}
	}

	if offset >= len(data) {
		return nil, "", fmt.Errorf("failed to find dataset after File Meta Information")
	}
	return data[offset:], transferSyntaxUID, nil
}

// HasPart10Header reports whether data begins with the 128-byte preamble
// and "DICM" magic that mark a DICOM Part 10 file.
func HasPart10Header(data []byte) bool {
	if len(data) < 132 {
		return false
	}
	return string(data[128:132]) == "DICM"
}
