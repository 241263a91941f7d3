package upperlayer

import (
	"log/slog"
	"net"
	"time"

	derrors "github.com/dicomnet-go/dicomcore/errors"
	"github.com/dicomnet-go/dicomcore/pdu"
)

// role distinguishes the two sides of an association for the one
// decision that differs before the state machine takes over: who posts
// the first event (TRANS_CONN_INDIC for a server, A_ASSOCIATE_RQ for a
// client).
type role int

const (
	roleServer role = iota
	roleClient
)

// Handler receives the upward notifications an association's event loop
// produces (spec §4.3.2's "dispatch an upward notification" action and
// §5's per-association task). Implementations must not block for long;
// each association already runs its own goroutine, but a slow handler
// still delays that one association's write queue.
type Handler interface {
	// OnAssociateRequest is called on the server side when a peer's
	// A-ASSOCIATE-RQ has been received. Returning a non-nil ac accepts
	// the association; returning a non-nil rj rejects it. Exactly one
	// of the two must be non-nil.
	OnAssociateRequest(rq *pdu.AssociateRQ) (ac *pdu.AssociateAC, rj *pdu.AssociateRJ)
	// OnAssociateAccept fires once the association reaches Sta6: on the
	// client side when the peer's A-ASSOCIATE-AC arrives, on the
	// server side once this side's own A-ASSOCIATE-AC has been queued.
	OnAssociateAccept(ac *pdu.AssociateAC)
	// OnAssociateReject is called on the client side if the peer
	// refuses the association outright.
	OnAssociateReject(rj *pdu.AssociateRJ)
	// OnPDataTF delivers one inbound presentation data value.
	OnPDataTF(item *pdu.PresentationDataValueItem)
	// OnReleaseRequest is called when the peer asks to release.
	OnReleaseRequest()
	// OnReleaseConfirm is called once a release this association
	// requested has been confirmed.
	OnReleaseConfirm()
	// OnAbort is called when the association aborts, locally or
	// peer-initiated, before the transport closes.
	OnAbort(source pdu.AbortSource, reason pdu.AbortReason)
	// OnClosed is called once the transport has actually closed and
	// the association has returned to Sta1.
	OnClosed(err error)
}

// Config parameterizes one Association.
type Config struct {
	CalledAETitle  string
	CallingAETitle string
	MaxPDULength   uint32
	ARTIMTimeout   time.Duration
	Logger         *slog.Logger
}

// signal is one item the reader goroutine or the ARTIM timer posts into
// the event-loop channel; pdu is only populated for RECV_* events.
type signal struct {
	event Event
	pdu   pdu.PDU
}

// Association wires the state machine in state.go to one net.Conn: a
// reader goroutine turns wire PDUs into events, a single event-loop
// goroutine (Run) applies Step and executes the resulting actions, and
// the ARTIM timer and write queue live alongside it (spec §5's
// "per-association single-threaded cooperative" task model — the reader
// goroutine exists only because Go has no select-on-blocking-read, not
// because two independent tasks are active; all state mutation happens
// in Run's goroutine).
type Association struct {
	conn    net.Conn
	cfg     Config
	handler Handler
	logger  *slog.Logger
	role    role

	state State
	timer *artimTimer
	queue *writeQueue

	maxPeerPDULength uint32
	discardNext      bool

	pendingRQ    *pdu.AssociateRQ
	pendingAC    *pdu.AssociateAC
	pendingRJ    *pdu.AssociateRJ
	pendingAbort *pdu.Abort
	pendingPData *pdu.PDataTF

	events chan signal
	closed chan struct{}
}

func newAssociation(conn net.Conn, cfg Config, handler Handler, r role) *Association {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.MaxPDULength == 0 {
		cfg.MaxPDULength = 16384
	}
	a := &Association{
		conn:             conn,
		cfg:              cfg,
		handler:          handler,
		logger:           cfg.Logger,
		role:             r,
		state:            Sta1,
		queue:            newWriteQueue(),
		maxPeerPDULength: 16384,
		events:           make(chan signal, 8),
		closed:           make(chan struct{}),
	}
	a.timer = newARTIMTimer(cfg.ARTIMTimeout, func() {
		select {
		case a.events <- signal{event: EvArtimExpired}:
		case <-a.closed:
		}
	})
	return a
}

// NewServerAssociation wraps an already-accepted connection, ready for
// Run to drive the server side of association establishment.
func NewServerAssociation(conn net.Conn, cfg Config, handler Handler) *Association {
	return newAssociation(conn, cfg, handler, roleServer)
}

// NewClientAssociation wraps an already-dialed connection. Call
// RequestAssociation after Run has started to send the A-ASSOCIATE-RQ.
func NewClientAssociation(conn net.Conn, cfg Config, handler Handler) *Association {
	return newAssociation(conn, cfg, handler, roleClient)
}

// State reports the association's current Upper Layer state.
func (a *Association) State() State { return a.state }

// Run drives the association until the transport closes; it returns
// once the machine reaches Sta1 again following a close. The caller runs this in its own goroutine
// per association, matching spec §5's "multiple associations run in
// parallel tasks".
func (a *Association) Run() error {
	go a.readLoop()

	if a.role == roleServer {
		a.events <- signal{event: EvTransConnIndic}
	}

	var runErr error
	for {
		sig, ok := <-a.events
		if !ok {
			break
		}
		if err := a.handle(sig); err != nil {
			runErr = err
		}
		if a.state == Sta1 && sig.event == EvTransConnClosed {
			break
		}
	}
	close(a.closed)
	a.handler.OnClosed(runErr)
	return runErr
}

// RequestAssociation begins the client side of association
// establishment: AE-1 already happened (the caller dialed conn before
// constructing this Association), so this posts A_ASSOCIATE_RQ followed
// by the transport-confirmation event, queuing rq for the write loop.
func (a *Association) RequestAssociation(rq *pdu.AssociateRQ) {
	a.pendingRQ = rq
	a.events <- signal{event: EvAAssociateRQ}
	a.events <- signal{event: EvTransConnConf}
}

// Release asks the association to begin an orderly release (AR-1).
func (a *Association) Release() {
	a.events <- signal{event: EvLoclReleaseRQ}
}

// Abort asks the association to abort locally (AA-1).
func (a *Association) Abort(source pdu.AbortSource, reason pdu.AbortReason) {
	a.pendingAbort = &pdu.Abort{Source: source, Reason: reason}
	a.events <- signal{event: EvLoclAbort}
}

// SendPData queues an already-fragmented P-DATA-TF for transmission.
func (a *Association) SendPData(items []*pdu.PresentationDataValueItem) {
	a.pendingPData = &pdu.PDataTF{Items: items}
	a.events <- signal{event: EvLoclPDataTF}
}

// MaxPeerPDULength is the negotiated maximum PDU length the peer
// advertised, for use by the fragmentation helper when sending.
func (a *Association) MaxPeerPDULength() uint32 { return a.maxPeerPDULength }

func (a *Association) readLoop() {
	for {
		p, err := pdu.Decode(a.conn)
		if err != nil {
			select {
			case a.events <- signal{event: EvTransConnClosed}:
			case <-a.closed:
			}
			return
		}
		ev, ok := eventForPDU(p)
		if !ok {
			select {
			case a.events <- signal{event: EvUnrecognizedPDU}:
			case <-a.closed:
			}
			continue
		}
		select {
		case a.events <- signal{event: ev, pdu: p}:
		case <-a.closed:
			return
		}
	}
}

func eventForPDU(p pdu.PDU) (Event, bool) {
	switch p.(type) {
	case *pdu.AssociateRQ:
		return EvRecvAssociateRQ, true
	case *pdu.AssociateAC:
		return EvRecvAssociateAC, true
	case *pdu.AssociateRJ:
		return EvRecvAssociateRJ, true
	case *pdu.PDataTF:
		return EvRecvPDataTF, true
	case *pdu.ReleaseRQ:
		return EvRecvReleaseRQ, true
	case *pdu.ReleaseRP:
		return EvRecvReleaseRP, true
	case *pdu.Abort:
		return EvRecvAbort, true
	default:
		return 0, false
	}
}

func (a *Association) handle(sig signal) error {
	if a.discardNext {
		a.discardNext = false
		if sig.event >= EvRecvAssociateRQ && sig.event <= EvRecvAbort {
			return nil
		}
	}

	tr := Step(a.state, sig.event, a.role)
	a.logger.Debug("upper layer transition", "from", a.state, "event", sig.event, "to", tr.Next)
	a.state = tr.Next

	for _, act := range tr.Actions {
		if err := a.execute(act, sig); err != nil {
			return err
		}
	}
	return nil
}

func (a *Association) execute(act Action, sig signal) error {
	switch act.Kind {
	case ActionIssueTransportConnect:
		// The transport is already connected by the time an
		// Association exists; nothing to do here.

	case ActionQueueAssociateRQ:
		return a.writeNow(pdu.Encode(a.pendingRQ))

	case ActionQueueAssociateAC:
		return a.writeNow(pdu.Encode(a.pendingAC))

	case ActionQueueAssociateRJ:
		return a.writeNow(pdu.Encode(a.pendingRJ))

	case ActionQueuePDataTF:
		return a.writeNow(pdu.Encode(a.pendingPData))

	case ActionQueueReleaseRQ:
		return a.writeNow(pdu.Encode(&pdu.ReleaseRQ{}))

	case ActionQueueReleaseRP:
		return a.writeNow(pdu.Encode(&pdu.ReleaseRP{}))

	case ActionQueueAbort, ActionQueueAbortFront:
		ab := a.pendingAbort
		if ab == nil {
			ab = &pdu.Abort{Source: pdu.AbortSourceServiceProvider, Reason: pdu.AbortReasonNotSpecified}
		}
		return a.writeNow(pdu.Encode(ab))

	case ActionStartARTIM:
		a.timer.start()

	case ActionStopARTIM:
		a.timer.stop()

	case ActionCloseTransport:
		a.queue.drain()
		_ = a.conn.Close()
		if sig.event == EvArtimExpired {
			return derrors.NewTimeoutError("ARTIM", a.cfg.ARTIMTimeout.String())
		}

	case ActionDiscardNextPDU:
		a.discardNext = true

	case ActionIndicateAssociateRequest:
		rq, ok := sig.pdu.(*pdu.AssociateRQ)
		if !ok {
			break
		}
		ac, rj := a.handler.OnAssociateRequest(rq)
		if ac != nil {
			a.pendingAC = ac
			a.events <- signal{event: EvLoclAssociateAC}
		} else {
			a.pendingRJ = rj
			a.events <- signal{event: EvLoclAssociateRJ}
		}

	case ActionIndicateAssociateConfirm:
		if ac, ok := sig.pdu.(*pdu.AssociateAC); ok {
			a.maxPeerPDULength = ac.UserInformation.MaximumLength.MaximumLength
			a.handler.OnAssociateAccept(ac)
		} else if a.pendingAC != nil {
			a.handler.OnAssociateAccept(a.pendingAC)
		}

	case ActionIndicateAssociateReject:
		if rj, ok := sig.pdu.(*pdu.AssociateRJ); ok {
			a.handler.OnAssociateReject(rj)
		} else if a.pendingRJ != nil {
			a.handler.OnAssociateReject(a.pendingRJ)
		}

	case ActionIndicatePDataTF:
		if pd, ok := sig.pdu.(*pdu.PDataTF); ok {
			for _, item := range pd.Items {
				a.handler.OnPDataTF(item)
			}
		}

	case ActionIndicateReleaseRequest:
		a.handler.OnReleaseRequest()

	case ActionIndicateReleaseConfirm:
		a.handler.OnReleaseConfirm()

	case ActionIndicateAbort:
		source, reason := pdu.AbortSourceServiceProvider, pdu.AbortReasonNotSpecified
		if ab, ok := sig.pdu.(*pdu.Abort); ok {
			source, reason = ab.Source, ab.Reason
		} else if a.pendingAbort != nil {
			source, reason = a.pendingAbort.Source, a.pendingAbort.Reason
		}
		a.handler.OnAbort(source, reason)
		return derrors.NewAbortError(byte(source), byte(reason))
	}
	return nil
}

// writeNow pushes pdu onto the queue and immediately drains one entry.
// Because the event loop is single-threaded and every action completes
// before the next event is pulled (spec §5's ordering guarantee), the
// queue never actually holds more than the one entry each action
// enqueues — front-insertion by AA-* actions only matters when a write
// is already in flight, which writeNow's synchronous Write precludes.
// The queue type is kept (rather than writing inline) so a future
// asynchronous writer can be dropped in without changing call sites.
func (a *Association) writeNow(encoded []byte) error {
	a.queue.push(encoded)
	pduBytes, ok := a.queue.pop()
	if !ok {
		return nil
	}
	if _, err := a.conn.Write(pduBytes); err != nil {
		return derrors.NewTransportError("", "write", err)
	}
	return nil
}
