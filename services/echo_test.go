package services

import (
	"context"
	"testing"

	"github.com/dicomnet-go/dicomcore/dimse"
)

func TestNewEchoService(t *testing.T) {
	service := NewEchoService(nil)
	if service == nil {
		t.Fatal("Expected non-nil service")
	}
}

func TestEchoService_Handle(t *testing.T) {
	service := NewEchoService(nil)
	ctx := context.Background()

	tests := []struct {
		name      string
		messageID uint16
	}{
		{name: "Basic C-ECHO request", messageID: 1},
		{name: "C-ECHO with different message ID", messageID: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &dimse.Message{
				Command: &dimse.Command{
					CommandField:        dimse.CEchoRQ,
					MessageID:           tt.messageID,
					AffectedSOPClassUID: dimse.VerificationSOPClassUID,
				},
			}

			resp, err := service.Handle(ctx, req)
			if err != nil {
				t.Fatalf("Handle() error = %v", err)
			}
			if resp == nil {
				t.Fatal("Expected non-nil response message")
			}
			if resp.Command.CommandField != dimse.CEchoRSP {
				t.Errorf("CommandField = 0x%04x, want 0x%04x", resp.Command.CommandField, dimse.CEchoRSP)
			}
			if resp.Command.Status != 0x0000 {
				t.Errorf("Status = 0x%04x, want 0x0000", resp.Command.Status)
			}
			if resp.Command.MessageIDBeingRespondedTo != tt.messageID {
				t.Errorf("MessageIDBeingRespondedTo = %d, want %d", resp.Command.MessageIDBeingRespondedTo, tt.messageID)
			}
			if resp.Command.AffectedSOPClassUID != dimse.VerificationSOPClassUID {
				t.Errorf("AffectedSOPClassUID = %s, want %s", resp.Command.AffectedSOPClassUID, dimse.VerificationSOPClassUID)
			}
			if resp.Dataset != nil {
				t.Error("Expected nil response dataset for C-ECHO")
			}
		})
	}
}

func TestEchoService_HandleWithCancelledContext(t *testing.T) {
	service := NewEchoService(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &dimse.Message{
		Command: &dimse.Command{
			CommandField:        dimse.CEchoRQ,
			MessageID:           1,
			AffectedSOPClassUID: dimse.VerificationSOPClassUID,
		},
	}

	resp, err := service.Handle(ctx, req)
	if err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if resp.Command.Status != 0x0000 {
		t.Errorf("Status = 0x%04x, want success", resp.Command.Status)
	}
}

func TestEchoService_HealthCheck(t *testing.T) {
	service := NewEchoService(nil)
	if err := service.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}
