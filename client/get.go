package client

import (
	"context"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dimse"
	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
)

// StudyRootGetSOPClassUID is the Study Root Query/Retrieve Information
// Model - GET SOP class, the default abstract syntax for SendCGet.
const StudyRootGetSOPClassUID = "1.2.840.10008.5.1.4.1.2.2.3"

// CGetResult is one response to a C-GET request.
type CGetResult struct {
	Status                         uint16
	NumberOfRemainingSuboperations uint16
	NumberOfCompletedSuboperations uint16
	NumberOfFailedSuboperations    uint16
	NumberOfWarningSuboperations   uint16
}

// SendCGet performs a C-GET retrieval against sopClassUID (the Study
// Root Get model if empty) using query as the identifier. The SCP pushes
// matching instances back as C-STORE-RQs on this same association;
// register a handler for the relevant storage SOP classes on
// Association.Registry before calling SendCGet so those pushes are
// served.
func (a *Association) SendCGet(ctx context.Context, sopClassUID string, query *dataset.Dataset) ([]*CGetResult, error) {
	if sopClassUID == "" {
		sopClassUID = StudyRootGetSOPClassUID
	}
	contextID, err := a.contextFor(sopClassUID)
	if err != nil {
		return nil, err
	}

	req := &dimse.Message{
		Command: &dimse.Command{AffectedSOPClassUID: sopClassUID, CommandField: dimse.CGetRQ},
		Dataset: query,
	}

	var results []*CGetResult
	err = a.provider.SendStreamingRequest(ctx, contextID, req, func(resp *dimse.Message) (bool, error) {
		if _, clsErr := dimse.ClassifyStatus(resp.Command.Status); clsErr != nil {
			return true, clsErr
		}
		results = append(results, &CGetResult{
			Status:                         resp.Command.Status,
			NumberOfRemainingSuboperations: suboperationCount(resp.Command, tag.NumberOfRemainingSuboperations),
			NumberOfCompletedSuboperations: suboperationCount(resp.Command, tag.NumberOfCompletedSuboperations),
			NumberOfFailedSuboperations:    suboperationCount(resp.Command, tag.NumberOfFailedSuboperations),
			NumberOfWarningSuboperations:   suboperationCount(resp.Command, tag.NumberOfWarningSuboperations),
		})

		dimseErr := derrors.NewDIMSEError("C-GET", resp.Command.Status, sopClassUID)
		if dimseErr.IsFailure() {
			return true, dimseErr
		}
		if dimseErr.IsWarning() {
			a.logger.Warn("C-GET response carried a warning status", "sop_class_uid", sopClassUID, "status", resp.Command.Status)
		}
		return !dimseErr.IsPending(), nil
	})
	return results, err
}

func suboperationCount(cmd *dimse.Command, t tag.Tag) uint16 {
	if cmd.Raw == nil {
		return 0
	}
	el, ok := cmd.Raw.Get(t)
	if !ok {
		return 0
	}
	vals := el.Ints()
	if len(vals) == 0 {
		return 0
	}
	return uint16(vals[0])
}
