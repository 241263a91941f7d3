package services

import (
	"context"
	"log/slog"

	"github.com/dicomnet-go/dicomcore/dimse"
)

// GetService is a stub C-GET handler: retrieval policy is a non-goal, so
// it always answers with zero sub-operations and a final success status
// rather than pushing C-STORE-RQ messages back over the association. A
// real application supplies its own StreamingServiceHandler that, for
// each match, sends a C-STORE-RQ over a presentation context negotiated
// for the storage SOP class on this same association.
type GetService struct {
	Logger *slog.Logger
}

// NewGetService creates a new stub C-GET service instance.
func NewGetService(logger *slog.Logger) *GetService {
	return &GetService{Logger: logger}
}

// Handle implements dimse.StreamingServiceHandler.
func (s *GetService) Handle(ctx context.Context, req *dimse.Message, respond func(*dimse.Message) error) error {
	s.logger().DebugContext(ctx, "processing C-GET request (no sub-operations: stub service)",
		"message_id", req.Command.MessageID,
		"sop_class_uid", req.Command.AffectedSOPClassUID)

	return respond(NewResponseBuilder(req).CGetResponse(0x0000, 0, 0, 0, 0))
}

func (s *GetService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
