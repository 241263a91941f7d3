// Package transfersyntax implements the transfer processor (spec §4.2):
// the four transfer-syntax profiles, dataset serialization and
// deserialization, the byte-level enclosure finder, and the encapsulated
// pixel-data codec.
package transfersyntax

import (
	"encoding/binary"

	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// Well-known transfer syntax UIDs (PS3.5 Annex A), the only ones spec's
// profile table names explicitly.
const (
	UIDImplicitVRLittleEndian = "1.2.840.10008.1.2"
	UIDExplicitVRLittleEndian = "1.2.840.10008.1.2.1"
	UIDExplicitVRBigEndian    = "1.2.840.10008.1.2.2"
)

// Profile is one of the four wire encodings spec §4.2 names.
type Profile struct {
	Name         string
	UID          string
	Explicit     bool
	Endian       binary.ByteOrder
	Encapsulated bool // pixel data is OB with undefined length, fragmented
}

var (
	ImplicitLE = Profile{Name: "implicit-LE", UID: UIDImplicitVRLittleEndian, Explicit: false, Endian: binary.LittleEndian}
	ExplicitLE = Profile{Name: "explicit-LE", UID: UIDExplicitVRLittleEndian, Explicit: true, Endian: binary.LittleEndian}
	ExplicitBE = Profile{Name: "explicit-BE", UID: UIDExplicitVRBigEndian, Explicit: true, Endian: binary.BigEndian}
)

// encapsulatedProfile is returned for any UID not among the three named
// above: explicit-LE framing with fragmented pixel data (spec's table
// entry "encapsulated"), covering the compressed transfer syntaxes
// (JPEG, RLE, ...) without enumerating every one of them.
func encapsulatedProfile(uid string) Profile {
	return Profile{Name: "encapsulated", UID: uid, Explicit: true, Endian: binary.LittleEndian, Encapsulated: true}
}

// ProfileFor resolves a transfer syntax UID to its wire profile. Any UID
// other than the three explicitly-named ones is treated as an
// encapsulated/compressed profile, per spec §4.2's table.
func ProfileFor(uid string) Profile {
	switch uid {
	case UIDImplicitVRLittleEndian:
		return ImplicitLE
	case UIDExplicitVRLittleEndian:
		return ExplicitLE
	case UIDExplicitVRBigEndian:
		return ExplicitBE
	default:
		return encapsulatedProfile(uid)
	}
}

// overrideEntry is one row of the syntax-specific VR override table spec
// §4.2 requires, consulted before the dictionary when resolving a tag's
// VR under implicit encoding.
type overrideEntry struct {
	tag       tag.Tag
	groupMask uint16
	groupBase uint16
	elemMask  uint16
	elemValue uint16
	vr        vr.VR
	exact     bool
}

// overrideTable is the fixed pixel-data/LUT override list spec §4.2 names:
// tag (7FE0,0010) -> OW; group 6000 with element-mask 3000 under group-mask
// FF00 -> OW (overlay data repeating groups 6000-60FF); plus a small set
// of look-up-table tags whose implicit VR would otherwise be ambiguous.
var overrideTable = []overrideEntry{
	{tag: tag.PixelData, vr: vr.OW, exact: true},
	{groupMask: 0xFF00, groupBase: 0x6000, elemMask: 0x3000, elemValue: 0x3000, vr: vr.OW},
	{tag: lutTag(0x0028, 0x1200), vr: vr.OW, exact: true}, // GrayLookupTableData
	{tag: lutTag(0x0028, 0x1201), vr: vr.OW, exact: true}, // RedPaletteColorLUTData
	{tag: lutTag(0x0028, 0x1202), vr: vr.OW, exact: true}, // GreenPaletteColorLUTData
	{tag: lutTag(0x0028, 0x1203), vr: vr.OW, exact: true}, // BluePaletteColorLUTData
}

func lutTag(g, e uint16) tag.Tag { return tag.Tag{Group: g, Element: e} }

// overrideVR consults the override table; ok is false when no row matches
// and the caller should fall back to the dictionary.
func overrideVR(t tag.Tag) (vr.VR, bool) {
	for _, e := range overrideTable {
		if e.exact {
			if t == e.tag {
				return e.vr, true
			}
			continue
		}
		if t.Group&e.groupMask == e.groupBase && t.Element&e.elemMask == e.elemValue {
			return e.vr, true
		}
	}
	return "", false
}
