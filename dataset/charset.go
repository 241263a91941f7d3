package dataset

import (
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"

	"github.com/dicomnet-go/dicomcore/tag"
)

// charsetEncodings maps the defined-term values a (0008,0005)
// SpecificCharacterSet element carries (PS3.3 Annex C.12.1.1.2) to the
// x/text codec that decodes them. Only non-ISO-2022 designators (the
// single-byte ISO 8859 sets plus Shift-JIS and EUC-KR) are listed here; this stack does not implement the ISO
// 2022 escape-sequence code-extension techniques (multi-byte Japanese
// and Korean designators, and mixed single/multi-byte switching within
// one value) — PatientName-class strings in this profile are expected
// to use a single fixed designator throughout a dataset, which covers
// every defined term below without escape handling.
var charsetEncodings = map[string]encoding.Encoding{
	"":           encoding.Nop, // ISO_IR 6, default repertoire: ASCII
	"ISO_IR 6":   encoding.Nop,
	"ISO_IR 100": charmap.ISO8859_1,
	"ISO_IR 101": charmap.ISO8859_2,
	"ISO_IR 109": charmap.ISO8859_3,
	"ISO_IR 110": charmap.ISO8859_4,
	"ISO_IR 144": charmap.ISO8859_5,
	"ISO_IR 127": charmap.ISO8859_6,
	"ISO_IR 126": charmap.ISO8859_7,
	"ISO_IR 138": charmap.ISO8859_8,
	"ISO_IR 148": charmap.ISO8859_9,
	"ISO_IR 203": charmap.ISO8859_15,
	"ISO_IR 13":  japanese.ShiftJIS,
	"ISO_IR 149": korean.EUCKR,
	"ISO_IR 192": encoding.Nop, // UTF-8: already the wire bytes' natural decoding
}

// decodeCharacterSet transcodes raw element bytes according to the
// dataset's negotiated SpecificCharacterSet, returning the string
// unchanged if the designator is unrecognized (falling back to treating
// the bytes as already being in the Go-native UTF-8 form, per PS3.5
// Annex J guidance for implementations that cannot resolve a code
// extension).
func decodeCharacterSet(raw []byte, specificCharacterSet string) string {
	enc, ok := charsetEncodings[specificCharacterSet]
	if !ok || enc == nil {
		return string(raw)
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

// DecodeStrings re-decodes every string-valued element of ds using the
// character set named by its own SpecificCharacterSet element (falling
// back to the default repertoire when absent), in place. Call this once
// after Deserialize if the dataset's strings need to render outside the
// default repertoire; decoding element values is otherwise charset-naive
// (spec §4.1's codec layer reads fields, it does not interpret them).
func (d *Dataset) DecodeStrings() {
	charset := ""
	if el, ok := d.Get(tag.SpecificCharacterSet); ok {
		charset = el.String()
	}
	for _, e := range d.elements {
		vals, ok := e.Value.([]string)
		if !ok {
			continue
		}
		decoded := make([]string, len(vals))
		for i, v := range vals {
			decoded[i] = decodeCharacterSet([]byte(v), charset)
		}
		e.Value = decoded
	}
}
