package dictionary

import (
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// Builtin is a minimal table covering the command-group tags and the
// handful of dataset tags this core's own codec and services touch
// directly. It is intended as a fallback default, not a complete PS3.6
// registry; callers needing full coverage load a Table from a real
// dictionary file via Table.Load.
var Builtin = newBuiltin()

func newBuiltin() *Table {
	t := NewTable()
	for _, e := range []Entry{
		{Tag: tag.CommandGroupLength, VRs: []vr.VR{vr.UL}, Keyword: "CommandGroupLength", VM: "1"},
		{Tag: tag.AffectedSOPClassUID, VRs: []vr.VR{vr.UI}, Keyword: "AffectedSOPClassUID", VM: "1"},
		{Tag: tag.CommandField, VRs: []vr.VR{vr.US}, Keyword: "CommandField", VM: "1"},
		{Tag: tag.MessageID, VRs: []vr.VR{vr.US}, Keyword: "MessageID", VM: "1"},
		{Tag: tag.MessageIDBeingRespondedTo, VRs: []vr.VR{vr.US}, Keyword: "MessageIDBeingRespondedTo", VM: "1"},
		{Tag: tag.MoveDestination, VRs: []vr.VR{vr.AE}, Keyword: "MoveDestination", VM: "1"},
		{Tag: tag.Priority, VRs: []vr.VR{vr.US}, Keyword: "Priority", VM: "1"},
		{Tag: tag.CommandDataSetType, VRs: []vr.VR{vr.US}, Keyword: "CommandDataSetType", VM: "1"},
		{Tag: tag.Status, VRs: []vr.VR{vr.US}, Keyword: "Status", VM: "1"},
		{Tag: tag.AffectedSOPInstanceUID, VRs: []vr.VR{vr.UI}, Keyword: "AffectedSOPInstanceUID", VM: "1"},
		{Tag: tag.RequestedSOPClassUID, VRs: []vr.VR{vr.UI}, Keyword: "RequestedSOPClassUID", VM: "1"},
		{Tag: tag.RequestedSOPInstanceUID, VRs: []vr.VR{vr.UI}, Keyword: "RequestedSOPInstanceUID", VM: "1"},
		{Tag: tag.NumberOfRemainingSuboperations, VRs: []vr.VR{vr.US}, Keyword: "NumberOfRemainingSuboperations", VM: "1"},
		{Tag: tag.NumberOfCompletedSuboperations, VRs: []vr.VR{vr.US}, Keyword: "NumberOfCompletedSuboperations", VM: "1"},
		{Tag: tag.NumberOfFailedSuboperations, VRs: []vr.VR{vr.US}, Keyword: "NumberOfFailedSuboperations", VM: "1"},
		{Tag: tag.NumberOfWarningSuboperations, VRs: []vr.VR{vr.US}, Keyword: "NumberOfWarningSuboperations", VM: "1"},

		{Tag: tag.SpecificCharacterSet, VRs: []vr.VR{vr.CS}, Keyword: "SpecificCharacterSet", VM: "1-n"},
		{Tag: tag.PixelData, VRs: []vr.VR{vr.OW, vr.OB}, Keyword: "PixelData", VM: "1"},

		{Tag: tag.Tag{Group: 0x0008, Element: 0x0016}, VRs: []vr.VR{vr.UI}, Keyword: "SOPClassUID", VM: "1"},
		{Tag: tag.Tag{Group: 0x0008, Element: 0x0018}, VRs: []vr.VR{vr.UI}, Keyword: "SOPInstanceUID", VM: "1"},
		{Tag: tag.Tag{Group: 0x0008, Element: 0x0060}, VRs: []vr.VR{vr.CS}, Keyword: "Modality", VM: "1"},
		{Tag: tag.Tag{Group: 0x0010, Element: 0x0010}, VRs: []vr.VR{vr.PN}, Keyword: "PatientName", VM: "1"},
		{Tag: tag.Tag{Group: 0x0010, Element: 0x0020}, VRs: []vr.VR{vr.LO}, Keyword: "PatientID", VM: "1"},
		{Tag: tag.Tag{Group: 0x0020, Element: 0x000D}, VRs: []vr.VR{vr.UI}, Keyword: "StudyInstanceUID", VM: "1"},
		{Tag: tag.Tag{Group: 0x0020, Element: 0x000E}, VRs: []vr.VR{vr.UI}, Keyword: "SeriesInstanceUID", VM: "1"},
		{Tag: tag.Tag{Group: 0x0028, Element: 0x0002}, VRs: []vr.VR{vr.US}, Keyword: "SamplesPerPixel", VM: "1"},
		{Tag: tag.Tag{Group: 0x0028, Element: 0x0010}, VRs: []vr.VR{vr.US}, Keyword: "Rows", VM: "1"},
		{Tag: tag.Tag{Group: 0x0028, Element: 0x0011}, VRs: []vr.VR{vr.US}, Keyword: "Columns", VM: "1"},
		{Tag: tag.Tag{Group: 0x0040, Element: 0x0275}, VRs: []vr.VR{vr.SQ}, Keyword: "RequestAttributesSequence", VM: "1"},
		{Tag: tag.Tag{Group: 0x0040, Element: 0x0009}, VRs: []vr.VR{vr.SH}, Keyword: "ScheduledProcedureStepID", VM: "1"},
	} {
		t.Put(e)
	}
	return t
}
