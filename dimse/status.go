package dimse

import "github.com/dicomnet-go/dicomcore/errors"

// StatusClass is the band a DIMSE status code falls into (spec §4.4
// "Status taxonomy").
type StatusClass int

const (
	StatusSuccess StatusClass = iota
	StatusWarning
	StatusFailure
	StatusCancel
	StatusPending
)

func (c StatusClass) String() string {
	switch c {
	case StatusSuccess:
		return "SUCCESS"
	case StatusWarning:
		return "WARNING"
	case StatusFailure:
		return "FAILURE"
	case StatusCancel:
		return "CANCEL"
	case StatusPending:
		return "PENDING"
	default:
		return "UNKNOWN"
	}
}

// ClassifyStatus maps a raw (0000,0900) status code to its class, per
// spec §4.4: 0x0000 SUCCESS; 0x0001 or 0xB000-0xBFFF WARNING;
// 0xA000-0xAFFF or 0xC000-0xCFFF FAILURE; 0xFE00 CANCEL; 0xFF00 or
// 0xFF01 PENDING; anything else is errors.UnknownStatusError.
func ClassifyStatus(status uint16) (StatusClass, error) {
	switch {
	case status == 0x0000:
		return StatusSuccess, nil
	case status == 0x0001 || (status >= 0xB000 && status <= 0xBFFF):
		return StatusWarning, nil
	case (status >= 0xA000 && status <= 0xAFFF) || (status >= 0xC000 && status <= 0xCFFF):
		return StatusFailure, nil
	case status == 0xFE00:
		return StatusCancel, nil
	case status == 0xFF00 || status == 0xFF01:
		return StatusPending, nil
	default:
		return 0, errors.NewUnknownStatusError(status)
	}
}

// FailureStatus is the generic failure code the DIMSE layer reports when
// a dataset fails to decode (spec §7 "MalformedDataset").
const FailureStatus uint16 = 0xC000
