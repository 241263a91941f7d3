package client

import (
	"context"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dimse"
	derrors "github.com/dicomnet-go/dicomcore/errors"
)

// StudyRootFindSOPClassUID is the Study Root Query/Retrieve Information
// Model - FIND SOP class, the default abstract syntax for SendCFind.
const StudyRootFindSOPClassUID = "1.2.840.10008.5.1.4.1.2.2.1"

// CFindResult is one response to a C-FIND request: either a match
// (Status a PENDING code, 0xFF00 or 0xFF01, Dataset set) or the terminating
// status (Dataset nil).
type CFindResult struct {
	Status  uint16
	Dataset *dataset.Dataset
}

// SendCFind issues a C-FIND query against sopClassUID (the Study Root
// Find model if empty) using query as the identifier, returning every
// match the SCP sent in order, including the final terminating status.
func (a *Association) SendCFind(ctx context.Context, sopClassUID string, query *dataset.Dataset) ([]*CFindResult, error) {
	if sopClassUID == "" {
		sopClassUID = StudyRootFindSOPClassUID
	}
	contextID, err := a.contextFor(sopClassUID)
	if err != nil {
		return nil, err
	}

	req := &dimse.Message{
		Command: &dimse.Command{AffectedSOPClassUID: sopClassUID, CommandField: dimse.CFindRQ},
		Dataset: query,
	}

	var results []*CFindResult
	err = a.provider.SendStreamingRequest(ctx, contextID, req, func(resp *dimse.Message) (bool, error) {
		if _, clsErr := dimse.ClassifyStatus(resp.Command.Status); clsErr != nil {
			return true, clsErr
		}
		results = append(results, &CFindResult{Status: resp.Command.Status, Dataset: resp.Dataset})

		dimseErr := derrors.NewDIMSEError("C-FIND", resp.Command.Status, sopClassUID)
		if dimseErr.IsFailure() {
			return true, dimseErr
		}
		if dimseErr.IsWarning() {
			a.logger.Warn("C-FIND response carried a warning status", "sop_class_uid", sopClassUID, "status", resp.Command.Status)
		}
		return !dimseErr.IsPending(), nil
	})
	return results, err
}
