package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/vr"
)

// writePart10File assembles a minimal but valid Part 10 file (preamble,
// DICM magic, a File Meta group naming the transfer syntax, then the
// implicit-VR-little-endian-encoded dataset) for LoadPart10File to read back.
func writePart10File(t *testing.T, dir string, ds *dataset.Dataset) string {
	t.Helper()

	meta := dataset.NewDataset()
	meta.Put(dataset.NewStringElement(tag.Tag{Group: 0x0002, Element: 0x0010}, vr.UI, transfersyntax.UIDImplicitVRLittleEndian))

	var file []byte
	file = append(file, make([]byte, 128)...)
	file = append(file, []byte("DICM")...)
	// File Meta Information is always explicit VR little endian, per the
	// standard, regardless of the transfer syntax it names for the dataset.
	file = append(file, transfersyntax.Serialize(meta, transfersyntax.ExplicitLE)...)
	file = append(file, transfersyntax.Serialize(ds, transfersyntax.ImplicitLE)...)

	path := filepath.Join(dir, "sample.dcm")
	if err := os.WriteFile(path, file, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadPart10File(t *testing.T) {
	ds := dataset.NewDataset()
	ds.Put(dataset.NewStringElement(tagSOPClassUID, vr.UI, "1.2.840.10008.5.1.4.1.1.2"))
	ds.Put(dataset.NewStringElement(tagSOPInstanceUID, vr.UI, "1.2.3.4.5"))

	path := writePart10File(t, t.TempDir(), ds)

	loaded, sopClassUID, sopInstanceUID, err := LoadPart10File(path)
	if err != nil {
		t.Fatalf("LoadPart10File: %v", err)
	}
	if sopClassUID != "1.2.840.10008.5.1.4.1.1.2" {
		t.Errorf("sopClassUID = %q, want CT Image Storage UID", sopClassUID)
	}
	if sopInstanceUID != "1.2.3.4.5" {
		t.Errorf("sopInstanceUID = %q, want 1.2.3.4.5", sopInstanceUID)
	}
	if loaded == nil {
		t.Fatal("expected a non-nil dataset")
	}
}

func TestLoadPart10File_MissingFile(t *testing.T) {
	_, _, _, err := LoadPart10File(filepath.Join(t.TempDir(), "missing.dcm"))
	if err == nil {
		t.Error("expected an error for a missing file")
	}
}
