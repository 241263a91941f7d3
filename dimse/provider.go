package dimse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dicomnet-go/dicomcore/dataset"
	"github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/pdu"
	"github.com/dicomnet-go/dicomcore/transfersyntax"
	"github.com/dicomnet-go/dicomcore/upperlayer"
)

// ServiceHandler processes one inbound DIMSE request for the SOP class it
// is registered against and returns the response to send back (spec
// §4.4 "Dispatch to the SOP-class handler ... on handler return of a
// response").
type ServiceHandler func(ctx context.Context, req *Message) (*Message, error)

// StreamingServiceHandler processes one inbound DIMSE request for a
// service that may answer with more than one response (C-FIND, C-GET,
// C-MOVE all send zero or more PENDING responses before a final status,
// per spec §4.4). respond sends one response immediately rather than
// waiting for the handler to return; the handler must itself send the
// terminating non-PENDING response before returning.
type StreamingServiceHandler func(ctx context.Context, req *Message, respond func(*Message) error) error

// Registry is the reverse map from SOP-class UID (abstract syntax) to
// registered handler that spec §4.4 requires each association to carry.
type Registry struct {
	mu        sync.RWMutex
	handlers  map[string]ServiceHandler
	streaming map[string]StreamingServiceHandler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:  make(map[string]ServiceHandler),
		streaming: make(map[string]StreamingServiceHandler),
	}
}

// Register installs h as the single-response handler for sopClassUID,
// replacing any previous registration (streaming or not).
func (r *Registry) Register(sopClassUID string, h ServiceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.streaming, sopClassUID)
	r.handlers[sopClassUID] = h
}

// RegisterStreaming installs h as the multi-response handler for
// sopClassUID, replacing any previous registration (streaming or not).
func (r *Registry) RegisterStreaming(sopClassUID string, h StreamingServiceHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, sopClassUID)
	r.streaming[sopClassUID] = h
}

func (r *Registry) lookup(sopClassUID string) (ServiceHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[sopClassUID]
	return h, ok
}

func (r *Registry) lookupStreaming(sopClassUID string) (StreamingServiceHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.streaming[sopClassUID]
	return h, ok
}

// Lookup returns the single-response handler registered for sopClassUID,
// if any.
func (r *Registry) Lookup(sopClassUID string) (ServiceHandler, bool) {
	return r.lookup(sopClassUID)
}

// LookupStreaming returns the multi-response handler registered for
// sopClassUID, if any.
func (r *Registry) LookupStreaming(sopClassUID string) (StreamingServiceHandler, bool) {
	return r.lookupStreaming(sopClassUID)
}

// hasHandler reports whether any handler, streaming or not, is
// registered for sopClassUID.
func (r *Registry) hasHandler(sopClassUID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.handlers[sopClassUID]; ok {
		return true
	}
	_, ok := r.streaming[sopClassUID]
	return ok
}

// wellKnownTransferSyntaxes are the UIDs spec §6 names as supported: the
// three uncompressed profiles plus the three named encapsulated variants.
var wellKnownTransferSyntaxes = map[string]bool{
	transfersyntax.UIDImplicitVRLittleEndian: true,
	transfersyntax.UIDExplicitVRLittleEndian: true,
	transfersyntax.UIDExplicitVRBigEndian:    true,
	"1.2.840.10008.1.2.4.50":                 true,
	"1.2.840.10008.1.2.4.70":                 true,
	"1.2.840.10008.1.2.4.57":                 true,
}

func chooseTransferSyntax(offered []string) (string, bool) {
	for _, ts := range offered {
		if wellKnownTransferSyntaxes[ts] {
			return ts, true
		}
	}
	return "", false
}

func responseField(req CommandField) CommandField {
	return req | 0x8000
}

type pendingResult struct {
	msg *Message
	err error
}

// Provider is the DIMSE layer for one association (spec §4.4): it
// implements upperlayer.Handler, holding the presentation-context to
// transfer-syntax map and dispatching complete messages either to the
// Registry (inbound requests) or to a waiting SendRequest caller
// (inbound responses, matched by message-id).
type Provider struct {
	assoc    *upperlayer.Association
	registry *Registry
	logger   *slog.Logger

	mu             sync.Mutex
	contexts       map[byte]transfersyntax.Profile
	abstractSyntax map[byte]string
	assemblers     map[byte]*assembler

	nextMessageID uint32

	pendingMu sync.Mutex
	pending   map[uint16]chan *pendingResult
}

// NewProvider builds a Provider dispatching inbound requests through
// registry. Call Bind once the Association exists, before Run.
func NewProvider(registry *Registry, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		registry:       registry,
		logger:         logger,
		contexts:       make(map[byte]transfersyntax.Profile),
		abstractSyntax: make(map[byte]string),
		assemblers:     make(map[byte]*assembler),
		pending:        make(map[uint16]chan *pendingResult),
	}
}

// Bind attaches the Association this Provider sends responses and
// requests through.
func (p *Provider) Bind(a *upperlayer.Association) { p.assoc = a }

// Registry returns the SOP-class-UID to handler map this Provider
// dispatches inbound requests through, so callers can register
// additional handlers (e.g. a client accepting C-STORE sub-operations
// pushed back during a C-GET) after construction.
func (p *Provider) Registry() *Registry { return p.registry }

// HasContext reports whether contextID was negotiated (accepted by
// both peers) on the bound association.
func (p *Provider) HasContext(contextID byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.contexts[contextID]
	return ok
}

// ContextForAbstractSyntax returns the negotiated presentation-context id
// whose abstract syntax is sopClassUID, if one was accepted. A server
// handler uses this to push a message (e.g. a C-GET sub-operation's
// C-STORE-RQ) over a context distinct from the one its request arrived
// on, without the caller having to re-derive the negotiation itself.
func (p *Provider) ContextForAbstractSyntax(sopClassUID string) (byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, uid := range p.abstractSyntax {
		if uid == sopClassUID {
			return id, true
		}
	}
	return 0, false
}

// OnAssociateRequest accepts every presentation context whose abstract
// syntax (SOP class UID) has a registered handler and whose offered
// transfer syntax list includes a supported UID; everything else is
// rejected per-context (spec §4.4's presentation-context map).
func (p *Provider) OnAssociateRequest(rq *pdu.AssociateRQ) (*pdu.AssociateAC, *pdu.AssociateRJ) {
	contexts := make(map[byte]transfersyntax.Profile)
	abstractSyntax := make(map[byte]string)
	acItems := make([]*pdu.PresentationContextACItem, 0, len(rq.PresentationContexts))

	for _, pc := range rq.PresentationContexts {
		if !p.registry.hasHandler(pc.AbstractSyntax) {
			acItems = append(acItems, &pdu.PresentationContextACItem{ID: pc.ID, Result: pdu.PresentationResultAbstractSyntaxNotSupported})
			continue
		}
		ts, ok := chooseTransferSyntax(pc.TransferSyntaxes)
		if !ok {
			acItems = append(acItems, &pdu.PresentationContextACItem{ID: pc.ID, Result: pdu.PresentationResultTransferSyntaxNotSupported})
			continue
		}
		contexts[pc.ID] = transfersyntax.ProfileFor(ts)
		abstractSyntax[pc.ID] = pc.AbstractSyntax
		acItems = append(acItems, &pdu.PresentationContextACItem{ID: pc.ID, Result: pdu.PresentationResultAcceptance, TransferSyntax: ts})
	}

	p.mu.Lock()
	p.contexts = contexts
	p.abstractSyntax = abstractSyntax
	p.assemblers = make(map[byte]*assembler)
	p.mu.Unlock()

	ac := &pdu.AssociateAC{
		CalledAETitle:        rq.CalledAETitle,
		CallingAETitle:       rq.CallingAETitle,
		ApplicationContext:   rq.ApplicationContext,
		PresentationContexts: acItems,
		UserInformation:      rq.UserInformation,
	}
	return ac, nil
}

// OnAssociateAccept records the negotiated profile per context, for
// either the client learning the peer's choices or the server noting
// its own.
func (p *Provider) OnAssociateAccept(ac *pdu.AssociateAC) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.contexts == nil {
		p.contexts = make(map[byte]transfersyntax.Profile)
	}
	for _, pc := range ac.PresentationContexts {
		if pc.Result == pdu.PresentationResultAcceptance {
			p.contexts[pc.ID] = transfersyntax.ProfileFor(pc.TransferSyntax)
		}
	}
	if p.assemblers == nil {
		p.assemblers = make(map[byte]*assembler)
	}
}

// OnAssociateReject fails every outstanding request with an
// AssociationError carrying the peer's reason (spec §7
// "AssociationRejected").
func (p *Provider) OnAssociateReject(rj *pdu.AssociateRJ) {
	p.failAllPending(errors.NewAssociationError(
		errors.AssociationRejectSource(rj.Source),
		errors.AssociationRejectReason(rj.Reason),
		"association rejected by peer"))
}

// OnPDataTF feeds one PDV into the assembler for its presentation
// context, dispatching once a full message has arrived.
func (p *Provider) OnPDataTF(item *pdu.PresentationDataValueItem) {
	p.mu.Lock()
	profile, ok := p.contexts[item.PresentationContextID]
	asm, hasAsm := p.assemblers[item.PresentationContextID]
	if !hasAsm {
		asm = &assembler{}
		p.assemblers[item.PresentationContextID] = asm
	}
	p.mu.Unlock()

	if !ok {
		p.logger.Warn("P-DATA-TF on unnegotiated presentation context", "context_id", item.PresentationContextID)
		return
	}

	msg, err := asm.feed(item, profile)
	if err != nil {
		p.logger.Error("failed to decode DIMSE message", "error", err, "context_id", item.PresentationContextID)
		p.mu.Lock()
		delete(p.assemblers, item.PresentationContextID)
		p.mu.Unlock()
		if asm.command != nil && asm.command.CommandField&0x8000 == 0 {
			resp := &Message{Command: &Command{Status: FailureStatus}}
			p.finishResponse(&Message{Command: asm.command}, resp)
			if err := p.send(item.PresentationContextID, resp); err != nil {
				p.logger.Error("failed to send DIMSE response", "error", err)
			}
		}
		return
	}
	if msg == nil {
		return
	}
	p.mu.Lock()
	delete(p.assemblers, item.PresentationContextID)
	p.mu.Unlock()

	p.dispatch(item.PresentationContextID, msg)
}

func (p *Provider) dispatch(contextID byte, msg *Message) {
	if msg.Command.CommandField&0x8000 != 0 {
		p.deliverResponse(msg)
		return
	}
	p.serve(contextID, msg)
}

func (p *Provider) serve(contextID byte, req *Message) {
	if streaming, ok := p.registry.lookupStreaming(req.Command.AffectedSOPClassUID); ok {
		respond := func(resp *Message) error {
			p.finishResponse(req, resp)
			return p.send(contextID, resp)
		}
		if err := streaming(context.Background(), req, respond); err != nil {
			p.logger.Error("streaming service handler failed", "error", err)
		}
		return
	}

	handler, ok := p.registry.lookup(req.Command.AffectedSOPClassUID)
	if !ok {
		p.logger.Warn("no handler registered for SOP class", "sop_class_uid", req.Command.AffectedSOPClassUID)
		return
	}

	resp, err := handler(context.Background(), req)
	if err != nil {
		p.logger.Error("service handler failed", "error", err)
		resp = &Message{Command: &Command{Status: FailureStatus}}
	}
	if resp == nil {
		resp = &Message{Command: &Command{Status: 0x0000}}
	}
	p.finishResponse(req, resp)

	if err := p.send(contextID, resp); err != nil {
		p.logger.Error("failed to send DIMSE response", "error", err)
	}
}

// finishResponse fills in the fields a handler shouldn't need to set
// itself: the fields that tie resp back to req.
func (p *Provider) finishResponse(req, resp *Message) {
	if resp.Command.Raw == nil {
		resp.Command.Raw = dataset.NewDataset()
	}
	resp.Command.AffectedSOPClassUID = req.Command.AffectedSOPClassUID
	resp.Command.CommandField = responseField(req.Command.CommandField)
	resp.Command.MessageIDBeingRespondedTo = req.Command.MessageID
}

func (p *Provider) deliverResponse(msg *Message) {
	p.pendingMu.Lock()
	ch, ok := p.pending[msg.Command.MessageIDBeingRespondedTo]
	p.pendingMu.Unlock()
	if !ok {
		p.logger.Warn("response with no matching pending request", "message_id", msg.Command.MessageIDBeingRespondedTo)
		return
	}
	select {
	case ch <- &pendingResult{msg: msg}:
	default:
	}
}

// Send transmits msg on contextID without waiting for a response. Used
// for requests that have no reply, such as C-CANCEL-RQ.
func (p *Provider) Send(contextID byte, msg *Message) error {
	return p.send(contextID, msg)
}

func (p *Provider) send(contextID byte, msg *Message) error {
	p.mu.Lock()
	profile, ok := p.contexts[contextID]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("dimse: no negotiated transfer syntax for presentation context %d", contextID)
	}
	items := EncodeMessage(contextID, msg, profile, p.assoc.MaxPeerPDULength())
	p.assoc.SendPData(items)
	return nil
}

// SendRequest assigns req a message-id (spec §4.4's "monotonic 16-bit
// request ids") if it doesn't already carry one, sends it on contextID,
// and blocks for the matching response.
func (p *Provider) SendRequest(ctx context.Context, contextID byte, req *Message) (*Message, error) {
	var resp *Message
	err := p.SendStreamingRequest(ctx, contextID, req, func(m *Message) (bool, error) {
		resp = m
		return true, nil
	})
	return resp, err
}

// SendStreamingRequest sends req and invokes onResponse for every
// response matched to it by message-id, in order. Operations that carry
// more than one response per request (C-FIND, C-GET, C-MOVE all answer
// with zero or more PENDING responses followed by one final status, per
// spec §4.4) drive the whole exchange through this entry point; onResponse
// reports whether the exchange is finished (the final response) or an
// error aborting it early. SendStreamingRequest returns once onResponse
// reports completion, returns a non-nil error, or ctx is done.
func (p *Provider) SendStreamingRequest(ctx context.Context, contextID byte, req *Message, onResponse func(*Message) (bool, error)) error {
	if req.Command.MessageID == 0 {
		req.Command.MessageID = p.allocateMessageID()
	}

	result := make(chan *pendingResult, 16)
	p.pendingMu.Lock()
	p.pending[req.Command.MessageID] = result
	p.pendingMu.Unlock()
	defer func() {
		p.pendingMu.Lock()
		delete(p.pending, req.Command.MessageID)
		p.pendingMu.Unlock()
	}()

	if err := p.send(contextID, req); err != nil {
		return err
	}

	for {
		select {
		case r := <-result:
			if r.err != nil {
				return r.err
			}
			done, err := onResponse(r.msg)
			if err != nil || done {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (p *Provider) allocateMessageID() uint16 {
	return uint16(atomic.AddUint32(&p.nextMessageID, 1))
}

// OnReleaseRequest is a no-op: AR-2's action already queues the
// A-RELEASE-RP reply, the Provider has nothing further to do.
func (p *Provider) OnReleaseRequest() {}

// OnReleaseConfirm is a no-op: the caller that invoked Association.Release
// already knows it asked to release.
func (p *Provider) OnReleaseConfirm() {}

// OnAbort fails every outstanding request with an error describing the
// abort.
func (p *Provider) OnAbort(source pdu.AbortSource, reason pdu.AbortReason) {
	p.failAllPending(fmt.Errorf("dimse: association aborted (source=%d reason=%d)", source, reason))
}

// OnClosed fails every outstanding request with the transport's closing
// error, or ErrConnectionClosed if the close was orderly.
func (p *Provider) OnClosed(err error) {
	if err == nil {
		err = errors.ErrConnectionClosed
	}
	p.failAllPending(err)
}

func (p *Provider) failAllPending(err error) {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	for id, ch := range p.pending {
		select {
		case ch <- &pendingResult{err: err}:
		default:
		}
		delete(p.pending, id)
	}
}
