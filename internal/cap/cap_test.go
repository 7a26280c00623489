package cap

import "testing"

func TestInsertQueryObject(t *testing.T) {
	tbl := NewTable(4)
	h, err := tbl.Insert(KindChannel, RightRead|RightWrite, "payload")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	kind, rights, gen, err := tbl.Query(h)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if kind != KindChannel || rights != RightRead|RightWrite || gen != h.Generation {
		t.Fatalf("Query = (%v, %v, %d), want (KindChannel, RightRead|RightWrite, %d)", kind, rights, gen, h.Generation)
	}
	obj, err := tbl.Object(h)
	if err != nil || obj != "payload" {
		t.Fatalf("Object = (%v, %v), want (\"payload\", nil)", obj, err)
	}
}

func TestInsertFullTableFails(t *testing.T) {
	tbl := NewTable(2)
	if _, err := tbl.Insert(KindFile, RightRead, 1); err != nil {
		t.Fatalf("Insert 1: %v", err)
	}
	if _, err := tbl.Insert(KindFile, RightRead, 2); err != nil {
		t.Fatalf("Insert 2: %v", err)
	}
	if _, err := tbl.Insert(KindFile, RightRead, 3); err == nil {
		t.Fatalf("Insert into a full table succeeded")
	}
}

func TestDeriveNarrowsRightsOnly(t *testing.T) {
	tbl := NewTable(4)
	h, err := tbl.Insert(KindFile, RightRead|RightWrite, "f")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	derived, err := tbl.Derive(h, RightRead|RightDerive)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	_, rights, _, err := tbl.Query(derived)
	if err != nil {
		t.Fatalf("Query derived: %v", err)
	}
	if rights != RightRead {
		t.Fatalf("Derive rights = %v, want RightRead (RightDerive was not held by the source handle)", rights)
	}
}

func TestRevokeInvalidatesHandle(t *testing.T) {
	tbl := NewTable(4)
	h, err := tbl.Insert(KindBlob, RightRead, "x")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tbl.Revoke(h); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := tbl.Object(h); err == nil {
		t.Fatalf("Object succeeded on a revoked handle")
	}
}

func TestRevokeThenReinsertBumpsGeneration(t *testing.T) {
	tbl := NewTable(1)
	h1, err := tbl.Insert(KindBlob, RightRead, "first")
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := tbl.Revoke(h1); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	h2, err := tbl.Insert(KindBlob, RightRead, "second")
	if err != nil {
		t.Fatalf("Insert after revoke: %v", err)
	}
	if h2.Index != h1.Index {
		t.Fatalf("reinsert used index %d, want the freed slot %d", h2.Index, h1.Index)
	}
	if h2.Generation == h1.Generation {
		t.Fatalf("reinsert reused generation %d, want a bumped generation", h2.Generation)
	}
	if _, err := tbl.Object(h1); err == nil {
		t.Fatalf("stale handle h1 resolved successfully after the slot was recycled")
	}
}

func TestListReturnsOnlyLiveHandles(t *testing.T) {
	tbl := NewTable(3)
	h1, _ := tbl.Insert(KindFile, RightRead, 1)
	_, _ = tbl.Insert(KindFile, RightRead, 2)
	if err := tbl.Revoke(h1); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	live := tbl.List()
	if len(live) != 1 {
		t.Fatalf("List returned %d handles, want 1 (one revoked, one live)", len(live))
	}
}

func TestQueryOutOfRangeIndexFails(t *testing.T) {
	tbl := NewTable(2)
	if _, _, _, err := tbl.Query(Handle{Index: 99}); err == nil {
		t.Fatalf("Query with an out-of-range index succeeded")
	}
}
