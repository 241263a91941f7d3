package client

import (
	"fmt"
	"os"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dictionary"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
)

var (
	tagSOPClassUID    = tag.Tag{Group: 0x0008, Element: 0x0016}
	tagSOPInstanceUID = tag.Tag{Group: 0x0008, Element: 0x0018}
)

// LoadPart10File reads a DICOM Part 10 file from disk and decodes its
// dataset under the transfer syntax declared in the file's meta group,
// returning the identifiers a C-STORE sub-operation needs alongside the
// decoded dataset itself.
func LoadPart10File(path string) (ds *dataset.Dataset, sopClassUID, sopInstanceUID string, err error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, "", "", fmt.Errorf("reading %s: %w", path, err)
	}

	body, transferSyntaxUID, err := dataset.StripPart10Header(raw)
	if err != nil {
		return nil, "", "", fmt.Errorf("stripping part 10 header from %s: %w", path, err)
	}
	if transferSyntaxUID == "" {
		transferSyntaxUID = transfersyntax.UIDImplicitVRLittleEndian
	}

	profile := transfersyntax.ProfileFor(transferSyntaxUID)
	ds, _, err = transfersyntax.Deserialize(body, 0, profile, dictionary.Builtin)
	if err != nil {
		return nil, "", "", fmt.Errorf("decoding dataset from %s: %w", path, err)
	}

	if el, ok := ds.Get(tagSOPClassUID); ok {
		sopClassUID = el.String()
	}
	if el, ok := ds.Get(tagSOPInstanceUID); ok {
		sopInstanceUID = el.String()
	}
	return ds, sopClassUID, sopInstanceUID, nil
}
