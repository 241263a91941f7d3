package upperlayer

import "testing"

func TestNormalAssociationSequence(t *testing.T) {
	events := []Event{
		EvTransConnIndic,
		EvRecvAssociateRQ,
		EvLoclAssociateAC,
		EvRecvPDataTF,
		EvLoclPDataTF,
		EvRecvReleaseRQ,
		EvLoclReleaseRP,
		EvTransConnClosed,
	}
	want := []State{Sta2, Sta3, Sta6, Sta6, Sta6, Sta8, Sta13, Sta1}

	s := Sta1
	for i, e := range events {
		tr := Step(s, e, roleServer)
		if tr.Next != want[i] {
			t.Fatalf("step %d: event %v in %v: got %v want %v", i, e, s, tr.Next, want[i])
		}
		s = tr.Next
	}
}

func TestUnexpectedPDUTriggersAA8(t *testing.T) {
	tr := Step(Sta6, EvRecvAssociateRQ, roleServer)
	if tr.Next != Sta13 {
		t.Fatalf("got next state %v, want Sta13", tr.Next)
	}
	var sawAbortFront, sawStartARTIM bool
	for _, act := range tr.Actions {
		switch act.Kind {
		case ActionQueueAbortFront:
			sawAbortFront = true
		case ActionStartARTIM:
			sawStartARTIM = true
		}
	}
	if !sawAbortFront || !sawStartARTIM {
		t.Fatalf("got actions %+v, want abort-front and start-artim", tr.Actions)
	}
}

func TestStepNeverPanicsAndAlwaysDefined(t *testing.T) {
	for _, r := range []role{roleServer, roleClient} {
		for s := Sta1; s <= Sta13; s++ {
			for e := EvAAssociateRQ; e <= EvUnrecognizedPDU; e++ {
				tr := Step(s, e, r)
				if tr.Next < Sta1 || tr.Next > Sta13 {
					t.Fatalf("role %v state %v event %v: got invalid next state %v", r, s, e, tr.Next)
				}
			}
		}
	}
}

// TestReleaseCollisionRequestorSide exercises the Sta7->Sta9->Sta11->Sta1
// path: this side requested release, the peer's own A-RELEASE-RQ arrives
// before our response (the collision AR-8 covers), we answer it, and wait
// for the transport to close.
func TestReleaseCollisionRequestorSide(t *testing.T) {
	tr := Step(Sta7, EvRecvReleaseRQ, roleClient)
	if tr.Next != Sta9 {
		t.Fatalf("requestor collision: got %v, want Sta9", tr.Next)
	}

	tr = Step(Sta9, EvLoclReleaseRP, roleClient)
	if tr.Next != Sta11 {
		t.Fatalf("requestor collision AR-9: got %v, want Sta11", tr.Next)
	}

	tr = Step(Sta11, EvRecvReleaseRP, roleClient)
	if tr.Next != Sta1 {
		t.Fatalf("requestor collision AR-10: got %v, want Sta1", tr.Next)
	}
}

// TestReleaseCollisionAcceptorSide exercises the Sta7->Sta10->Sta12->Sta1
// path: this side is the association's acceptor, already sent its own
// A-RELEASE-RQ, then the peer's A-RELEASE-RQ arrives before its response
// (collision), and the peer's A-RELEASE-RP eventually closes things out.
func TestReleaseCollisionAcceptorSide(t *testing.T) {
	tr := Step(Sta7, EvRecvReleaseRQ, roleServer)
	if tr.Next != Sta10 {
		t.Fatalf("acceptor collision: got %v, want Sta10", tr.Next)
	}
	var sawIndication bool
	for _, act := range tr.Actions {
		if act.Kind == ActionIndicateReleaseRequest {
			sawIndication = true
		}
	}
	if !sawIndication {
		t.Fatalf("acceptor collision: got actions %+v, want a release-request indication", tr.Actions)
	}

	tr = Step(Sta10, EvRecvReleaseRP, roleServer)
	if tr.Next != Sta12 {
		t.Fatalf("acceptor collision AR-10: got %v, want Sta12", tr.Next)
	}

	tr = Step(Sta12, EvTransConnClosed, roleServer)
	if tr.Next != Sta1 {
		t.Fatalf("acceptor collision AR-3: got %v, want Sta1", tr.Next)
	}
}
