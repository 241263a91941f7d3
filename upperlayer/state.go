// Package upperlayer implements the DICOM Upper Layer state machine
// (PS3.8 Annex A): thirteen states, nineteen events, and the action set
// that drives PDU framing, the ARTIM timer, and the outbound write queue
// for one association.
package upperlayer

// State is one of the thirteen Upper Layer states (Sta1..Sta13).
type State int

const (
	Sta1 State = iota + 1
	Sta2
	Sta3
	Sta4
	Sta5
	Sta6
	Sta7
	Sta8
	Sta9
	Sta10
	Sta11
	Sta12
	Sta13
)

func (s State) String() string {
	names := [...]string{"", "Sta1", "Sta2", "Sta3", "Sta4", "Sta5", "Sta6", "Sta7", "Sta8", "Sta9", "Sta10", "Sta11", "Sta12", "Sta13"}
	if int(s) < len(names) {
		return names[s]
	}
	return "Sta?"
}

// Event is one of the nineteen inputs the state machine reacts to:
// local service primitives, peer-PDU arrivals, and timer/transport
// signals (spec §4.3.2).
type Event int

const (
	EvAAssociateRQ Event = iota + 1 // local: A-ASSOCIATE request issued by the service user
	EvLoclAssociateAC
	EvLoclAssociateRJ
	EvLoclPDataTF
	EvLoclReleaseRQ
	EvLoclReleaseRP
	EvLoclAbort
	EvTransConnConf

	EvRecvAssociateRQ
	EvRecvAssociateAC
	EvRecvAssociateRJ
	EvRecvPDataTF
	EvRecvReleaseRQ
	EvRecvReleaseRP
	EvRecvAbort

	EvTransConnIndic
	EvTransConnClosed
	EvArtimExpired
	EvUnrecognizedPDU
)

func (e Event) String() string {
	names := map[Event]string{
		EvAAssociateRQ:     "A-ASSOCIATE-RQ",
		EvLoclAssociateAC:  "LOCL-A-ASSOCIATE-AC",
		EvLoclAssociateRJ:  "LOCL-A-ASSOCIATE-RJ",
		EvLoclPDataTF:      "LOCL-P-DATA-TF",
		EvLoclReleaseRQ:    "LOCL-A-RELEASE-RQ",
		EvLoclReleaseRP:    "LOCL-A-RELEASE-RP",
		EvLoclAbort:        "LOCL-A-ABORT",
		EvTransConnConf:    "TRANS-CONN-CONF",
		EvRecvAssociateRQ:  "RECV-A-ASSOCIATE-RQ",
		EvRecvAssociateAC:  "RECV-A-ASSOCIATE-AC",
		EvRecvAssociateRJ:  "RECV-A-ASSOCIATE-RJ",
		EvRecvPDataTF:      "RECV-P-DATA-TF",
		EvRecvReleaseRQ:    "RECV-A-RELEASE-RQ",
		EvRecvReleaseRP:    "RECV-A-RELEASE-RP",
		EvRecvAbort:        "RECV-A-ABORT",
		EvTransConnIndic:   "TRANS-CONN-INDIC",
		EvTransConnClosed:  "TRANS-CONN-CLOSED",
		EvArtimExpired:     "ARTIM-EXPIRED",
		EvUnrecognizedPDU:  "UNRECOG-PDU",
	}
	if n, ok := names[e]; ok {
		return n
	}
	return "EvUnknown"
}

// ActionKind names one effect a transition can have. A single transition
// may fire several; Transition.Actions lists them in the order the
// standard's action tables apply them.
type ActionKind int

const (
	ActionQueueAssociateRQ ActionKind = iota
	ActionQueueAssociateAC
	ActionQueueAssociateRJ
	ActionQueuePDataTF
	ActionQueueReleaseRQ
	ActionQueueReleaseRP
	ActionQueueAbort
	ActionQueueAbortFront // AA-* actions: front-insert, bypassing FIFO order
	ActionStartARTIM
	ActionStopARTIM
	ActionCloseTransport
	ActionIndicateAssociateRequest
	ActionIndicateAssociateConfirm
	ActionIndicateAssociateReject
	ActionIndicatePDataTF
	ActionIndicateReleaseConfirm
	ActionIndicateReleaseRequest
	ActionIndicateAbort
	ActionIssueTransportConnect
	ActionDiscardNextPDU
)

// Action is one effect attached to a transition, carrying the action
// table's label (AE-1, AA-8, ...) purely for diagnostics/logging.
type Action struct {
	Kind  ActionKind
	Label string
}

// Transition is the result of feeding one Event to the machine in one
// State: the next state plus the ordered actions to perform.
type Transition struct {
	Next    State
	Actions []Action
}

func a(kind ActionKind, label string) Action { return Action{Kind: kind, Label: label} }

// unexpectedPDU is the AA-8 branch shared by every state in which an
// out-of-sequence peer PDU arrives: abort with high priority and wait
// for the transport to close (spec §4.3.2, "Any unexpected PDU causes
// an AA-8 action").
func unexpectedPDU() Transition {
	return Transition{
		Next: Sta13,
		Actions: []Action{
			a(ActionQueueAbortFront, "AA-8"),
			a(ActionStartARTIM, "AA-8"),
			a(ActionIndicateAbort, "AA-8"),
		},
	}
}

// Step applies one event to the machine in the given state, returning
// the next state and the actions to run. It encodes the full PS3.8
// Annex A transition table literally; states not named for an event
// fall through to the unexpected-PDU (AA-8) branch, which is itself part
// of the table (every per-state row names it for events the row does
// not otherwise define). r distinguishes the association's requestor
// (roleClient) from its acceptor (roleServer) — the one transition the
// table's outcome depends on role for is Sta7's AR-8 collision, where
// the requestor side moves to Sta9 and the acceptor side moves to Sta10.
func Step(s State, e Event, r role) Transition {
	switch s {
	case Sta1:
		switch e {
		case EvTransConnIndic:
			return Transition{Sta2, []Action{a(ActionStartARTIM, "AE-5")}}
		case EvAAssociateRQ:
			return Transition{Sta4, []Action{a(ActionIssueTransportConnect, "AE-1")}}
		}

	case Sta2:
		switch e {
		case EvRecvAssociateRQ:
			return Transition{Sta3, []Action{a(ActionStopARTIM, "AE-6"), a(ActionIndicateAssociateRequest, "AE-6")}}
		case EvRecvAssociateAC, EvRecvAssociateRJ, EvRecvPDataTF, EvRecvReleaseRQ, EvRecvReleaseRP:
			return Transition{Sta13, []Action{a(ActionQueueAbortFront, "AA-1"), a(ActionStartARTIM, "AA-1")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-2")}}
		case EvTransConnClosed:
			return Transition{Sta1, nil}
		case EvArtimExpired:
			return Transition{Sta1, []Action{a(ActionStopARTIM, "AA-2"), a(ActionCloseTransport, "AA-2")}}
		}

	case Sta3:
		switch e {
		case EvLoclAssociateAC:
			return Transition{Sta6, []Action{a(ActionQueueAssociateAC, "AE-7"), a(ActionIndicateAssociateConfirm, "AE-7")}}
		case EvLoclAssociateRJ:
			return Transition{Sta13, []Action{a(ActionQueueAssociateRJ, "AE-8"), a(ActionStartARTIM, "AE-8")}}
		case EvTransConnClosed:
			return Transition{Sta1, nil}
		}

	case Sta4:
		switch e {
		case EvTransConnConf:
			return Transition{Sta5, []Action{a(ActionQueueAssociateRQ, "AE-2")}}
		}

	case Sta5:
		switch e {
		case EvRecvAssociateAC:
			return Transition{Sta6, []Action{a(ActionIndicateAssociateConfirm, "AE-3")}}
		case EvRecvAssociateRJ:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AE-4"), a(ActionIndicateAssociateReject, "AE-4")}}
		case EvRecvPDataTF, EvRecvReleaseRQ, EvRecvReleaseRP:
			return Transition{Sta13, []Action{a(ActionQueueAbortFront, "AA-1"), a(ActionStartARTIM, "AA-1")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-2")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAssociateReject, "AA-4")}}
		}

	case Sta6:
		switch e {
		case EvLoclPDataTF:
			return Transition{Sta6, []Action{a(ActionQueuePDataTF, "DT-1")}}
		case EvRecvPDataTF:
			return Transition{Sta6, []Action{a(ActionIndicatePDataTF, "DT-2")}}
		case EvLoclReleaseRQ:
			return Transition{Sta7, []Action{a(ActionQueueReleaseRQ, "AR-1")}}
		case EvRecvReleaseRQ:
			return Transition{Sta8, []Action{a(ActionIndicateReleaseRequest, "AR-2")}}
		case EvLoclAbort:
			return Transition{Sta13, []Action{a(ActionQueueAbortFront, "AA-1"), a(ActionStartARTIM, "AA-1")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAbort, "AA-4")}}
		}

	case Sta7:
		switch e {
		case EvRecvReleaseRP:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AR-3"), a(ActionIndicateReleaseConfirm, "AR-3")}}
		case EvRecvReleaseRQ: // collision: both sides requested release
			next := Sta10
			if r == roleClient {
				next = Sta9
			}
			return Transition{next, []Action{a(ActionIndicateReleaseRequest, "AR-8")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAbort, "AA-4")}}
		}

	case Sta8:
		switch e {
		case EvLoclReleaseRP:
			return Transition{Sta13, []Action{a(ActionQueueReleaseRP, "AR-4"), a(ActionStartARTIM, "AR-4")}}
		case EvLoclAbort:
			return Transition{Sta13, []Action{a(ActionQueueAbortFront, "AA-1"), a(ActionStartARTIM, "AA-1")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAbort, "AA-4")}}
		}

	case Sta9: // collision, local user has not yet answered the peer's release
		switch e {
		case EvLoclReleaseRP:
			return Transition{Sta11, []Action{a(ActionQueueReleaseRP, "AR-9")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAbort, "AA-4")}}
		}

	case Sta10: // collision, we requested release, awaiting peer's RP after ours
		switch e {
		case EvRecvReleaseRP:
			return Transition{Sta12, nil}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAbort, "AA-4")}}
		}

	case Sta11: // collision, we answered the peer's RQ, awaiting transport close
		switch e {
		case EvRecvReleaseRP:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AR-10")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateAbort, "AA-4")}}
		}

	case Sta12: // collision, peer answered our RQ with RP, our own RP already queued
		switch e {
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionIndicateReleaseConfirm, "AR-3")}}
		case EvRecvAbort:
			return Transition{Sta1, []Action{a(ActionCloseTransport, "AA-3")}}
		}

	case Sta13: // awaiting transport close after we sent A-ABORT or rejected an unexpected PDU
		switch e {
		case EvTransConnClosed:
			return Transition{Sta1, []Action{a(ActionStopARTIM, "AR-5")}}
		case EvArtimExpired:
			return Transition{Sta1, []Action{a(ActionStopARTIM, "AA-2"), a(ActionCloseTransport, "AA-2")}}
		case EvRecvAssociateRQ, EvRecvAssociateAC, EvRecvAssociateRJ, EvRecvPDataTF, EvRecvReleaseRQ, EvRecvReleaseRP, EvRecvAbort:
			return Transition{Sta13, []Action{a(ActionDiscardNextPDU, "AA-7")}}
		}
	}

	return unexpectedPDU()
}
