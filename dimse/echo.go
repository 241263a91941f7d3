package dimse

import (
	"context"
	"fmt"

	"github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/sopclass"
)

// VerificationSOPClassUID is the Verification SOP Class (C-ECHO), the
// smallest DIMSE service group and the one spec §8's scenarios exercise
// end-to-end.
const VerificationSOPClassUID = sopclass.VerificationSOPClass

// RegisterEcho installs a trivial C-ECHO responder (SUCCESS, no dataset)
// on registry, the way every DICOM provider supports verification.
func RegisterEcho(registry *Registry) {
	registry.Register(VerificationSOPClassUID, func(ctx context.Context, req *Message) (*Message, error) {
		return &Message{Command: &Command{Status: 0x0000}}, nil
	})
}

// Echo issues a C-ECHO-RQ on contextID and waits for the response
// status, returning a non-nil error if it did not classify as SUCCESS.
func Echo(ctx context.Context, p *Provider, contextID byte) error {
	req := &Message{Command: &Command{
		AffectedSOPClassUID: VerificationSOPClassUID,
		CommandField:        CEchoRQ,
	}}
	resp, err := p.SendRequest(ctx, contextID, req)
	if err != nil {
		return err
	}
	class, err := ClassifyStatus(resp.Command.Status)
	if err != nil {
		return err
	}
	if class != StatusSuccess {
		return errors.NewDIMSEError("C-ECHO", resp.Command.Status, fmt.Sprintf("status class %s", class))
	}
	return nil
}
