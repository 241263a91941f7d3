// Package dictionary defines the narrow interface the transfer processor
// and command-set composer use to resolve a tag's VR, keyword and value
// multiplicity, plus a small built-in table covering the tags this core
// itself needs (spec §6 "Dictionary file format"). Callers may supply
// their own Dictionary loaded from a full registry file; unknown tags
// always fall back to the sentinel UN entry spec mandates.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gobwas/glob"

	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// Entry is one dictionary record: a tag's standard VR(s), keyword, value
// multiplicity and retired flag. The message-field column of the file
// format is read past and not stored.
type Entry struct {
	Tag     tag.Tag
	VRs     []vr.VR // first is primary; additional are alternates (e.g. "US or SS")
	Keyword string
	VM      string
	Retired bool
}

// VR returns the entry's primary VR.
func (e Entry) VR() vr.VR {
	if len(e.VRs) == 0 {
		return vr.UN
	}
	return e.VRs[0]
}

// unknown is the sentinel entry spec requires for unrecognized tags:
// VR=UN, no keyword, unconstrained multiplicity.
func unknown(t tag.Tag) Entry {
	return Entry{Tag: t, VRs: []vr.VR{vr.UN}, Keyword: "", VM: "1-n"}
}

// Dictionary resolves a tag to its dictionary entry. Implementations must
// be safe for concurrent read-only use (spec §5 "the dictionary is
// immutable after load; read-concurrent").
type Dictionary interface {
	Lookup(t tag.Tag) Entry
	// Find returns every entry whose keyword matches a glob pattern
	// (e.g. "Patient*"), used by keyword-search tooling.
	Find(pattern string) ([]Entry, error)
}

// Table is an in-memory Dictionary backed by a map, loadable from the
// semicolon-separated line format spec §6 specifies:
//
//	(gggg,eeee); VR[ VR2[ VR3]]; message-field; keyword; vm; RET?
type Table struct {
	entries map[tag.Tag]Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[tag.Tag]Entry)}
}

// Put inserts or replaces an entry.
func (t *Table) Put(e Entry) {
	t.entries[e.Tag] = e
}

// Lookup implements Dictionary.
func (t *Table) Lookup(tg tag.Tag) Entry {
	if e, ok := t.entries[tg]; ok {
		return e
	}
	return unknown(tg)
}

// Find implements Dictionary using gobwas/glob keyword matching, mirroring
// the query-retrieve matcher tvbird-go-dicom builds on the same library.
func (t *Table) Find(pattern string) ([]Entry, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("dictionary: compile pattern %q: %w", pattern, err)
	}
	var out []Entry
	for _, e := range t.entries {
		if e.Keyword != "" && g.Match(e.Keyword) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Load parses the dictionary file format described in spec §6 and merges
// every record into t.
func (t *Table) Load(r io.Reader) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		e, err := parseLine(raw)
		if err != nil {
			return fmt.Errorf("dictionary: line %d: %w", line, err)
		}
		t.Put(e)
	}
	return sc.Err()
}

func parseLine(raw string) (Entry, error) {
	fields := strings.Split(raw, ";")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if len(fields) < 4 {
		return Entry{}, fmt.Errorf("expected at least 4 fields, got %d", len(fields))
	}
	tg, err := parseTag(fields[0])
	if err != nil {
		return Entry{}, err
	}
	var vrs []vr.VR
	for _, v := range strings.Fields(fields[1]) {
		if v == "or" {
			continue
		}
		vrs = append(vrs, vr.VR(v))
	}
	e := Entry{Tag: tg, VRs: vrs, Keyword: fields[3]}
	if len(fields) >= 5 {
		e.VM = fields[4]
	}
	if len(fields) >= 6 && strings.EqualFold(fields[5], "RET") {
		e.Retired = true
	}
	return e, nil
}

// parseTag decodes "(gggg,eeee)" into a tag.Tag.
func parseTag(s string) (tag.Tag, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return tag.Tag{}, fmt.Errorf("malformed tag %q", s)
	}
	group, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("malformed group in %q: %w", s, err)
	}
	elem, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 16)
	if err != nil {
		return tag.Tag{}, fmt.Errorf("malformed element in %q: %w", s, err)
	}
	return tag.Tag{Group: uint16(group), Element: uint16(elem)}, nil
}
