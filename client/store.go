package client

import (
	"context"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dimse"
	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/vr"
)

// CStoreResult is the outcome of a C-STORE operation.
type CStoreResult struct {
	Status uint16
}

// SendCStore stores ds to the peer over the negotiated presentation
// context for sopClassUID, identifying the instance as sopInstanceUID.
func (a *Association) SendCStore(ctx context.Context, sopClassUID, sopInstanceUID string, ds *dataset.Dataset) (*CStoreResult, error) {
	contextID, err := a.contextFor(sopClassUID)
	if err != nil {
		return nil, err
	}

	raw := dataset.NewDataset()
	if sopInstanceUID != "" {
		raw.Put(dataset.NewStringElement(tag.AffectedSOPInstanceUID, vr.UI, sopInstanceUID))
	}

	req := &dimse.Message{
		Command: &dimse.Command{
			AffectedSOPClassUID: sopClassUID,
			CommandField:        dimse.CStoreRQ,
			Raw:                 raw,
		},
		Dataset: ds,
	}

	resp, err := a.provider.SendRequest(ctx, contextID, req)
	if err != nil {
		return nil, err
	}

	status := resp.Command.Status
	dimseErr := derrors.NewDIMSEError("C-STORE", status, sopInstanceUID)
	if dimseErr.IsFailure() {
		return nil, dimseErr
	}
	return &CStoreResult{Status: status}, nil
}
