// Package client provides an SCU-side DICOM association: it negotiates
// presentation contexts over TCP and exposes the DIMSE services (C-ECHO,
// C-FIND, C-GET, C-STORE, C-CANCEL) as blocking calls on top of the
// upperlayer/dimse engines.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/dicomnet-go/dicomcore/dimse"
	"github.com/dicomnet-go/dicomcore/pdu"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/upperlayer"
)

// PresentationContextProposal is one abstract syntax this client offers
// to negotiate, with the transfer syntaxes it is willing to use for it
// (most preferred first).
type PresentationContextProposal struct {
	AbstractSyntax   string
	TransferSyntaxes []string
}

var defaultTransferSyntaxes = []string{
	transfersyntax.UIDExplicitVRLittleEndian,
	transfersyntax.UIDImplicitVRLittleEndian,
}

// Config holds client association configuration.
type Config struct {
	CallingAETitle string
	CalledAETitle  string
	MaxPDULength   uint32
	ConnectTimeout time.Duration
	ARTIMTimeout   time.Duration
	Logger         *slog.Logger

	PresentationContexts []PresentationContextProposal

	// Registry, if set, is used instead of a fresh empty registry - it
	// lets a caller register handlers for requests the peer initiates
	// on this association (e.g. the C-STORE sub-operations a C-GET
	// retrieval pushes back).
	Registry *dimse.Registry
}

// Association is a client-side DICOM association.
type Association struct {
	assoc      *upperlayer.Association
	provider   *dimse.Provider
	conn       net.Conn
	contextIDs map[string]byte
	logger     *slog.Logger
}

// negotiationHandler wraps a Provider to additionally signal Connect
// once the association negotiation itself resolves, without disturbing
// the Provider's own handling of the same events.
type negotiationHandler struct {
	*dimse.Provider
	done chan negotiationResult
}

type negotiationResult struct {
	ac *pdu.AssociateAC
	rj *pdu.AssociateRJ
}

func (h *negotiationHandler) OnAssociateAccept(ac *pdu.AssociateAC) {
	h.Provider.OnAssociateAccept(ac)
	select {
	case h.done <- negotiationResult{ac: ac}:
	default:
	}
}

func (h *negotiationHandler) OnAssociateReject(rj *pdu.AssociateRJ) {
	h.Provider.OnAssociateReject(rj)
	select {
	case h.done <- negotiationResult{rj: rj}:
	default:
	}
}

// Connect dials address, negotiates an association offering cfg's
// proposed presentation contexts, and returns a ready-to-use
// Association. It blocks until negotiation completes, is rejected, or
// ctx is done.
func Connect(ctx context.Context, address string, cfg Config) (*Association, error) {
	if cfg.MaxPDULength == 0 {
		cfg.MaxPDULength = 16384
	}
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}
	if cfg.ARTIMTimeout == 0 {
		cfg.ARTIMTimeout = upperlayer.DefaultARTIMTimeout
	}
	if len(cfg.PresentationContexts) == 0 {
		return nil, fmt.Errorf("dicomclient: at least one presentation context must be proposed")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dicomclient: dial: %w", err)
	}

	registry := cfg.Registry
	if registry == nil {
		registry = dimse.NewRegistry()
	}
	provider := dimse.NewProvider(registry, logger)
	handler := &negotiationHandler{Provider: provider, done: make(chan negotiationResult, 1)}

	assoc := upperlayer.NewClientAssociation(conn, upperlayer.Config{
		CallingAETitle: cfg.CallingAETitle,
		CalledAETitle:  cfg.CalledAETitle,
		MaxPDULength:   cfg.MaxPDULength,
		ARTIMTimeout:   cfg.ARTIMTimeout,
		Logger:         logger,
	}, handler)
	provider.Bind(assoc)

	go func() {
		if runErr := assoc.Run(); runErr != nil {
			logger.Debug("client association ended", "error", runErr)
		}
	}()

	rq, contextIDs := buildAssociateRQ(cfg)
	assoc.RequestAssociation(rq)

	select {
	case result := <-handler.done:
		if result.rj != nil {
			conn.Close()
			return nil, fmt.Errorf("dicomclient: association rejected (result=%d source=%d reason=%d)",
				result.rj.Result, result.rj.Source, result.rj.Reason)
		}
	case <-ctx.Done():
		assoc.Abort(pdu.AbortSourceServiceUser, pdu.AbortReasonNotSpecified)
		conn.Close()
		return nil, ctx.Err()
	}

	return &Association{
		assoc:      assoc,
		provider:   provider,
		conn:       conn,
		contextIDs: contextIDs,
		logger:     logger,
	}, nil
}

func buildAssociateRQ(cfg Config) (*pdu.AssociateRQ, map[string]byte) {
	items := make([]*pdu.PresentationContextRQItem, 0, len(cfg.PresentationContexts))
	ids := make(map[string]byte, len(cfg.PresentationContexts))

	id := byte(1)
	for _, proposal := range cfg.PresentationContexts {
		ts := proposal.TransferSyntaxes
		if len(ts) == 0 {
			ts = defaultTransferSyntaxes
		}
		items = append(items, &pdu.PresentationContextRQItem{
			ID:               id,
			AbstractSyntax:   proposal.AbstractSyntax,
			TransferSyntaxes: ts,
		})
		ids[proposal.AbstractSyntax] = id
		id += 2
	}

	return &pdu.AssociateRQ{
		CalledAETitle:        cfg.CalledAETitle,
		CallingAETitle:       cfg.CallingAETitle,
		ApplicationContext:   pdu.ApplicationContextItem{Name: pdu.DICOMApplicationContextName},
		PresentationContexts: items,
		UserInformation:      pdu.UserInformationItem{MaximumLength: pdu.MaximumLengthSubItem{MaximumLength: cfg.MaxPDULength}},
	}, ids
}

// Registry returns the handler registry backing this association, so
// callers can add handlers (e.g. for C-STORE pushed back during a
// C-GET) after Connect.
func (a *Association) Registry() *dimse.Registry { return a.provider.Registry() }

// Release performs an orderly A-RELEASE.
func (a *Association) Release() { a.assoc.Release() }

// Abort tears down the association immediately.
func (a *Association) Abort() {
	a.assoc.Abort(pdu.AbortSourceServiceUser, pdu.AbortReasonNotSpecified)
}

// contextFor returns the presentation context ID negotiated for
// abstractSyntax, failing if it was never proposed or the peer refused
// it.
func (a *Association) contextFor(abstractSyntax string) (byte, error) {
	id, ok := a.contextIDs[abstractSyntax]
	if !ok {
		return 0, fmt.Errorf("dicomclient: no presentation context was proposed for %s", abstractSyntax)
	}
	if !a.provider.HasContext(id) {
		return 0, fmt.Errorf("dicomclient: presentation context for %s was not accepted", abstractSyntax)
	}
	return id, nil
}
