// Command sample_server is a minimal DICOM SCP demonstrating the
// server/dimse/services stack: it answers C-ECHO, serves C-FIND and C-MOVE
// against an in-memory instance store seeded with synthetic data, and falls
// back to the services package's stub for C-GET (see GetService - pushing
// C-GET sub-operations back over the *same* association requires the
// handler to reach its connection's Provider, which the shared Registry
// this server wires handlers into does not expose).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dicomnet-go/dicomcore/client"
	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/server"
	"github.com/dicomnet-go/dicomcore/services"
	"github.com/dicomnet-go/dicomcore/sopclass"
	"github.com/dicomnet-go/dicomcore/tag"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/vr"
)

var (
	tagStudyInstanceUID  = tag.Tag{Group: 0x0020, Element: 0x000D}
	tagSeriesInstanceUID = tag.Tag{Group: 0x0020, Element: 0x000E}
	tagSOPInstanceUID    = tag.Tag{Group: 0x0008, Element: 0x0018}
	tagSOPClassUID       = tag.Tag{Group: 0x0008, Element: 0x0016}
)

// instance is a synthetic DICOM object held by the sample store, indexed
// by SOP Instance UID.
type instance struct {
	sopClassUID    string
	sopInstanceUID string
	studyUID       string
	seriesUID      string
	dataset        *dataset.Dataset
}

// store is an in-memory Query/Retrieve backend: a real application wires
// its own storage layer behind the same StreamingServiceHandler/
// ServiceHandler shape this file registers.
type store struct {
	mu        sync.RWMutex
	instances map[string]*instance
}

func newStore() *store {
	return &store{instances: make(map[string]*instance)}
}

func (s *store) put(inst *instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instances[inst.sopInstanceUID] = inst
}

func (s *store) matching(studyUID, seriesUID, sopUID string) []*instance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []*instance
	for _, inst := range s.instances {
		switch {
		case sopUID != "":
			if inst.sopInstanceUID == sopUID {
				matches = append(matches, inst)
			}
		case seriesUID != "":
			if inst.seriesUID == seriesUID {
				matches = append(matches, inst)
			}
		case studyUID != "":
			if inst.studyUID == studyUID {
				matches = append(matches, inst)
			}
		}
	}
	return matches
}

func queryKeys(query *dataset.Dataset) (studyUID, seriesUID, sopUID string) {
	if query == nil {
		return "", "", ""
	}
	if el, ok := query.Get(tagStudyInstanceUID); ok {
		studyUID = el.String()
	}
	if el, ok := query.Get(tagSeriesInstanceUID); ok {
		seriesUID = el.String()
	}
	if el, ok := query.Get(tagSOPInstanceUID); ok {
		sopUID = el.String()
	}
	return studyUID, seriesUID, sopUID
}

// findHandler answers C-FIND with one PENDING response per matching
// instance, each carrying a minimal identifier dataset, then a final
// success status.
func findHandler(st *store, logger *slog.Logger) dimse.StreamingServiceHandler {
	return func(ctx context.Context, req *dimse.Message, respond func(*dimse.Message) error) error {
		studyUID, seriesUID, sopUID := queryKeys(req.Dataset)
		matches := st.matching(studyUID, seriesUID, sopUID)
		logger.InfoContext(ctx, "C-FIND query", "study_uid", studyUID, "series_uid", seriesUID, "matches", len(matches))

		builder := services.NewResponseBuilder(req)
		for _, inst := range matches {
			match := dataset.NewDataset()
			match.Put(dataset.NewStringElement(tagSOPClassUID, vr.UI, inst.sopClassUID))
			match.Put(dataset.NewStringElement(tagSOPInstanceUID, vr.UI, inst.sopInstanceUID))
			match.Put(dataset.NewStringElement(tagStudyInstanceUID, vr.UI, inst.studyUID))
			match.Put(dataset.NewStringElement(tagSeriesInstanceUID, vr.UI, inst.seriesUID))
			if err := respond(builder.CFindResponse(0xFF00, match)); err != nil {
				return err
			}
		}
		return respond(builder.CFindResponse(0x0000, nil))
	}
}

// moveHandler answers C-MOVE by performing a C-STORE sub-operation to the
// move destination for each matching instance, reporting progress via
// PENDING responses before the final status.
func moveHandler(st *store, destinations map[string]string, callingAETitle string, logger *slog.Logger) dimse.StreamingServiceHandler {
	return func(ctx context.Context, req *dimse.Message, respond func(*dimse.Message) error) error {
		destinationAE := ""
		if req.Command.Raw != nil {
			if el, ok := req.Command.Raw.Get(tag.MoveDestination); ok {
				destinationAE = el.String()
			}
		}
		destAddr, ok := destinations[destinationAE]
		if !ok {
			logger.WarnContext(ctx, "unknown move destination", "destination_ae", destinationAE)
			return respond(services.NewResponseBuilder(req).CMoveResponse(dimse.FailureStatus, 0, 0, 0, 0))
		}

		studyUID, seriesUID, sopUID := queryKeys(req.Dataset)
		matches := st.matching(studyUID, seriesUID, sopUID)
		logger.InfoContext(ctx, "C-MOVE query", "destination_ae", destinationAE, "matches", len(matches))

		builder := services.NewResponseBuilder(req)
		var completed, failed uint16
		total := len(matches)
		for i, inst := range matches {
			remaining := uint16(total - i)
			if err := respond(builder.CMoveResponse(0xFF00, completed, failed, 0, remaining)); err != nil {
				return err
			}
			if err := pushCStore(ctx, destAddr, destinationAE, callingAETitle, inst); err != nil {
				logger.ErrorContext(ctx, "C-STORE sub-operation failed", "error", err, "sop_instance_uid", inst.sopInstanceUID)
				failed++
			} else {
				completed++
			}
		}
		return respond(builder.CMoveResponse(0x0000, completed, failed, 0, 0))
	}
}

// pushCStore opens its own association to the move destination and sends
// one instance - C-MOVE's sub-operations run over a fresh association to
// the destination AE, distinct from the association the C-MOVE-RQ arrived
// on (spec's external-interfaces model, PS3.7 Annex C.4.2).
func pushCStore(ctx context.Context, address, calledAETitle, callingAETitle string, inst *instance) error {
	assoc, err := client.Connect(ctx, address, client.Config{
		CallingAETitle: callingAETitle,
		CalledAETitle:  calledAETitle,
		PresentationContexts: []client.PresentationContextProposal{
			{AbstractSyntax: inst.sopClassUID, TransferSyntaxes: []string{transfersyntax.UIDImplicitVRLittleEndian}},
		},
	})
	if err != nil {
		return fmt.Errorf("connecting to move destination: %w", err)
	}
	defer assoc.Release()

	result, err := assoc.SendCStore(ctx, inst.sopClassUID, inst.sopInstanceUID, inst.dataset)
	if err != nil {
		return err
	}
	if result.Status != 0x0000 {
		return fmt.Errorf("destination returned status 0x%04x", result.Status)
	}
	return nil
}

// sampleInstance synthesizes a minimal but structurally valid DICOM
// dataset for demonstration: no pixel data, just the identifying tags
// C-FIND/C-MOVE/C-GET need to match and report on.
func sampleInstance(sopClassUID, sopInstanceUID, studyUID, seriesUID string) *instance {
	ds := dataset.NewDataset()
	ds.Put(dataset.NewStringElement(tagSOPClassUID, vr.UI, sopClassUID))
	ds.Put(dataset.NewStringElement(tagSOPInstanceUID, vr.UI, sopInstanceUID))
	ds.Put(dataset.NewStringElement(tagStudyInstanceUID, vr.UI, studyUID))
	ds.Put(dataset.NewStringElement(tagSeriesInstanceUID, vr.UI, seriesUID))
	ds.Put(dataset.NewStringElement(tag.Tag{Group: 0x0010, Element: 0x0010}, vr.PN, "Sample^Patient"))
	ds.Put(dataset.NewStringElement(tag.Tag{Group: 0x0008, Element: 0x0060}, vr.CS, "CT"))

	return &instance{
		sopClassUID:    sopClassUID,
		sopInstanceUID: sopInstanceUID,
		studyUID:       studyUID,
		seriesUID:      seriesUID,
		dataset:        ds,
	}
}

func main() {
	port := flag.Int("port", 4242, "TCP port to listen on")
	aeTitle := flag.String("ae", "SAMPLE_SCP", "Server AE Title")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := newStore()
	studyUID := "1.2.840.999.999.1.1.1.1"
	seriesUID := "1.2.840.999.999.1.1.1.1.1"
	for i := 1; i <= 3; i++ {
		sopInstanceUID := fmt.Sprintf("1.2.840.999.999.1.1.1.1.1.%d", i)
		st.put(sampleInstance(sopclass.CTImageStorage, sopInstanceUID, studyUID, seriesUID))
	}

	// No destinations configured by default; C-MOVE requests fail with the
	// generic failure status (0xC000) rather than silently no-op'ing. Add entries
	// (AE title -> "host:port") to exercise a real C-MOVE sub-operation.
	destinations := map[string]string{}

	registry := services.NewDefaultRegistry(logger)
	registry.RegisterStreaming(services.CommonFindSOPClasses[0], findHandler(st, logger))
	registry.RegisterStreaming(services.CommonFindSOPClasses[1], findHandler(st, logger))
	registry.RegisterStreaming(services.CommonMoveSOPClasses[0], moveHandler(st, destinations, *aeTitle, logger))
	registry.RegisterStreaming(services.CommonMoveSOPClasses[1], moveHandler(st, destinations, *aeTitle, logger))

	address := fmt.Sprintf(":%d", *port)
	err := server.ListenAndServe(ctx, address, *aeTitle, registry, server.WithLogger(logger))
	switch {
	case err == nil:
		logger.Info("Sample server shutdown complete")
	case errors.Is(err, context.Canceled):
		logger.Info("Sample server stopped", "reason", err.Error())
	default:
		logger.Error("Sample server terminated unexpectedly", "error", err)
		os.Exit(1)
	}
}
