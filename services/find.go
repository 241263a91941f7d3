package services

import (
	"context"
	"log/slog"

	"github.com/dicomnet-go/dicomcore/dimse"
)

// FindService is a stub C-FIND handler: query/retrieve matching policy is
// a non-goal, so it always answers with zero matches and a final success
// status. It exists to exercise the streaming DIMSE path end to end - a
// real application supplies its own StreamingServiceHandler backed by a
// query index and registers it in place of this one.
type FindService struct {
	Logger *slog.Logger
}

// NewFindService creates a new stub C-FIND service instance.
func NewFindService(logger *slog.Logger) *FindService {
	return &FindService{Logger: logger}
}

// Handle implements dimse.StreamingServiceHandler.
func (s *FindService) Handle(ctx context.Context, req *dimse.Message, respond func(*dimse.Message) error) error {
	s.logger().DebugContext(ctx, "processing C-FIND request (no matches: stub service)",
		"message_id", req.Command.MessageID,
		"sop_class_uid", req.Command.AffectedSOPClassUID)

	return respond(NewResponseBuilder(req).CFindResponse(0x0000, nil))
}

func (s *FindService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
