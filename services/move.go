package services

import (
	"context"
	"log/slog"

	"github.com/dicomnet-go/dicomcore/dimse"
)

// MoveService is a stub C-MOVE handler: retrieval and storage-commitment
// policy are non-goals, so it always answers with zero sub-operations and
// a final success status rather than actually pushing C-STORE-RQ messages
// to a destination AE. It exists to exercise the streaming DIMSE path
// (including the sub-operation counters) end to end.
type MoveService struct {
	Logger *slog.Logger
}

// NewMoveService creates a new stub C-MOVE service instance.
func NewMoveService(logger *slog.Logger) *MoveService {
	return &MoveService{Logger: logger}
}

// Handle implements dimse.StreamingServiceHandler.
func (s *MoveService) Handle(ctx context.Context, req *dimse.Message, respond func(*dimse.Message) error) error {
	s.logger().DebugContext(ctx, "processing C-MOVE request (no sub-operations: stub service)",
		"message_id", req.Command.MessageID,
		"sop_class_uid", req.Command.AffectedSOPClassUID)

	return respond(NewResponseBuilder(req).CMoveResponse(0x0000, 0, 0, 0, 0))
}

func (s *MoveService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
