package client

import (
	"context"

	"github.com/dicomnet-go/dicomcore/dimse"
)

// SendCEcho performs a C-ECHO verification request over the negotiated
// Verification SOP Class presentation context.
func (a *Association) SendCEcho(ctx context.Context) error {
	contextID, err := a.contextFor(dimse.VerificationSOPClassUID)
	if err != nil {
		return err
	}
	return dimse.Echo(ctx, a.provider, contextID)
}
