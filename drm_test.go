package sgp

import "testing"

func TestPlanCreateMasterStateA(t *testing.T) {
	actor := UIDFromUint64(1)

	state, next, err := planCreateMaster(nil, actor, true, false)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateCreate {
		t.Fatalf("expected StateCreate, got %v", state)
	}
	if next.OriginalUID != actor || next.CurrentUID != ZeroUID {
		t.Fatalf("unexpected record for a fresh master: %+v", next)
	}
	if !next.AllowDerivative || next.AllowReprint {
		t.Fatalf("expected actor's requested flags to be used, got %+v", next)
	}
}

func TestPlanCreateMasterStateB(t *testing.T) {
	actor := UIDFromUint64(7)
	existing := Record{OriginalUID: actor, CurrentUID: ZeroUID, AllowDerivative: false, AllowReprint: false}

	state, next, err := planCreateMaster(&existing, actor, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateUpdate {
		t.Fatalf("expected StateUpdate, got %v", state)
	}
	if next.OriginalUID != actor || next.CurrentUID != ZeroUID {
		t.Fatalf("update must still yield a master stamped with the actor's own uid: %+v", next)
	}
	if !next.AllowDerivative || !next.AllowReprint {
		t.Fatalf("expected the newly requested flags, got %+v", next)
	}
}

func TestPlanCreateMasterStateC(t *testing.T) {
	owner := UIDFromUint64(1)
	actor := UIDFromUint64(2)
	existing := Record{OriginalUID: owner, CurrentUID: UIDFromUint64(3), AllowDerivative: true}

	state, next, err := planCreateMaster(&existing, actor, false, true)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateFork {
		t.Fatalf("expected StateFork, got %v", state)
	}
	if next.OriginalUID != actor {
		t.Fatal("forking a new master must be owned by the actor, independent of the prior owner")
	}
	if next.CurrentUID != ZeroUID {
		t.Fatal("a forked master must still have current_uid zero")
	}
}

func TestPlanCreateMasterStateD(t *testing.T) {
	owner := UIDFromUint64(1)
	actor := UIDFromUint64(2)
	existing := Record{OriginalUID: owner, CurrentUID: UIDFromUint64(3), AllowDerivative: false}

	state, next, err := planCreateMaster(&existing, actor, true, true)
	if state != StateReject {
		t.Fatalf("expected StateReject, got %v", state)
	}
	if next != (Record{}) {
		t.Fatalf("a rejected call must not produce a usable record, got %+v", next)
	}
	dfe, ok := err.(*DerivativeForbiddenError)
	if !ok {
		t.Fatalf("expected *DerivativeForbiddenError, got %T: %v", err, err)
	}
	if dfe.OwnerUID != owner {
		t.Fatalf("expected owner %v in rejection, got %v", owner, dfe.OwnerUID)
	}
}

func TestPlanPermissionUpdateRequiresMaster(t *testing.T) {
	distCopy := Record{OriginalUID: UIDFromUint64(1), CurrentUID: UIDFromUint64(2)}
	if _, err := planPermissionUpdate(distCopy, true, true); err != ErrNotAMaster {
		t.Fatalf("expected ErrNotAMaster, got %v", err)
	}
}

func TestPlanPermissionUpdateOnMaster(t *testing.T) {
	master := Record{OriginalUID: UIDFromUint64(1), CurrentUID: ZeroUID, AllowDerivative: false, AllowReprint: false}
	updated, err := planPermissionUpdate(master, true, true)
	if err != nil {
		t.Fatal(err)
	}
	if !updated.AllowDerivative || !updated.AllowReprint {
		t.Fatalf("expected both flags set, got %+v", updated)
	}
	if updated.OriginalUID != master.OriginalUID {
		t.Fatal("updating permissions must not change the original owner")
	}
}
