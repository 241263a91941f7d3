package services

import (
	"context"
	"log/slog"

	"github.com/dicomnet-go/dicomcore/dimse"
)

// EchoService handles C-ECHO verification requests.
//
// C-ECHO is used to verify connectivity and application-level communication
// between two DICOM Application Entities (AEs). It's the DICOM equivalent
// of a "ping" operation.
//
// The C-ECHO service is stateless and requires no external dependencies.
// It simply echoes back a success response to verify that the DICOM
// application entity is operational.
type EchoService struct {
	Logger *slog.Logger
}

// NewEchoService creates a new C-ECHO service instance.
func NewEchoService(logger *slog.Logger) *EchoService {
	return &EchoService{Logger: logger}
}

// Handle processes a C-ECHO request and returns a success response. It
// implements dimse.ServiceHandler.
func (s *EchoService) Handle(ctx context.Context, req *dimse.Message) (*dimse.Message, error) {
	s.logger().DebugContext(ctx, "processing C-ECHO request",
		"message_id", req.Command.MessageID)

	return NewResponseBuilder(req).CEchoResponse(0x0000), nil
}

// HealthCheck verifies that the echo service is operational. Since the
// echo service is stateless with no external dependencies, this always
// returns healthy.
func (s *EchoService) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *EchoService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
