package services

import (
	"context"
	"log/slog"

	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/tag"
)

// StoreService is a stub C-STORE handler: the storage backend is a
// non-goal, so it accepts every instance unconditionally and answers
// success without persisting the dataset. A real application supplies
// its own ServiceHandler backed by a storage layer and registers it in
// place of this one, under the SOP classes it actually accepts.
type StoreService struct {
	Logger *slog.Logger
}

// NewStoreService creates a new stub C-STORE service instance.
func NewStoreService(logger *slog.Logger) *StoreService {
	return &StoreService{Logger: logger}
}

// Handle implements dimse.ServiceHandler.
func (s *StoreService) Handle(ctx context.Context, req *dimse.Message) (*dimse.Message, error) {
	sopInstanceUID := ""
	if req.Command.Raw != nil {
		if el, ok := req.Command.Raw.Get(tag.AffectedSOPInstanceUID); ok {
			sopInstanceUID = el.String()
		}
	}

	s.logger().DebugContext(ctx, "processing C-STORE request (discarded: stub service)",
		"message_id", req.Command.MessageID,
		"sop_class_uid", req.Command.AffectedSOPClassUID,
		"sop_instance_uid", sopInstanceUID)

	return NewResponseBuilder(req).CStoreResponse(0x0000), nil
}

func (s *StoreService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
