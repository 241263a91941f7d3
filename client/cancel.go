package client

import (
	"fmt"

	"github.com/dicomnet-go/dicomcore/dimse"
)

// SendCCancel sends a C-CANCEL-RQ canceling the outstanding C-FIND,
// C-GET, or C-MOVE operation identified by messageID on sopClassUID's
// presentation context. C-CANCEL has no response.
func (a *Association) SendCCancel(messageID uint16, sopClassUID string) error {
	if messageID == 0 {
		return fmt.Errorf("dicomclient: messageID must be non-zero for C-CANCEL")
	}
	if sopClassUID == "" {
		return fmt.Errorf("dicomclient: sopClassUID must be provided for C-CANCEL")
	}

	contextID, err := a.contextFor(sopClassUID)
	if err != nil {
		return err
	}

	req := &dimse.Message{
		Command: &dimse.Command{CommandField: dimse.CCancelRQ, MessageIDBeingRespondedTo: messageID},
	}
	if err := a.provider.Send(contextID, req); err != nil {
		return fmt.Errorf("dicomclient: failed to send C-CANCEL: %w", err)
	}

	a.logger.Debug("C-CANCEL sent", "message_id", messageID, "sop_class_uid", sopClassUID)
	return nil
}
