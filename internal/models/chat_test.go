package models

import "testing"

func TestThreadPairKeyIsOrderIndependent(t *testing.T) {
	if got, want := ThreadPairKey(1, 2), "1:2"; got != want {
		t.Errorf("ThreadPairKey(1,2) = %q, want %q", got, want)
	}
	if got, want := ThreadPairKey(2, 1), "1:2"; got != want {
		t.Errorf("ThreadPairKey(2,1) = %q, want %q", got, want)
	}
	if ThreadPairKey(42, 7) != ThreadPairKey(7, 42) {
		t.Error("pair key differs depending on argument order")
	}
}

func TestThreadPairKeyDistinguishesPairs(t *testing.T) {
	// "1:23" 和 "12:3" 不能混淆
	if ThreadPairKey(1, 23) == ThreadPairKey(12, 3) {
		t.Error("distinct pairs produced the same key")
	}
}

func TestEnsureCanonicalOrder(t *testing.T) {
	thread := &ChatThread{UserID1: 9, UserID2: 3}
	thread.EnsureCanonicalOrder()
	if thread.UserID1 != 3 || thread.UserID2 != 9 {
		t.Errorf("canonical order = (%d,%d), want (3,9)", thread.UserID1, thread.UserID2)
	}

	ordered := &ChatThread{UserID1: 3, UserID2: 9}
	ordered.EnsureCanonicalOrder()
	if ordered.UserID1 != 3 || ordered.UserID2 != 9 {
		t.Errorf("already-ordered pair changed: (%d,%d)", ordered.UserID1, ordered.UserID2)
	}
}
