package reconf

import "testing"

type fakeStage struct {
	reconfs int
	fail    bool
}

func (f *fakeStage) Reconf() error {
	f.reconfs++
	if f.fail {
		return errTest
	}
	return nil
}

var errTest = &testError{"boom"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestReconfAllCallsEveryLiveStageOnce(t *testing.T) {
	a := &fakeStage{}
	b := &fakeStage{}
	ha := Register(a)
	hb := Register(b)
	defer Deregister(ha)
	defer Deregister(hb)

	errs := ReconfAll()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if a.reconfs != 1 || b.reconfs != 1 {
		t.Fatalf("expected 1 reconf each, got a=%d b=%d", a.reconfs, b.reconfs)
	}

	ReconfAll()
	if a.reconfs != 2 || b.reconfs != 2 {
		t.Fatalf("expected 2 reconfs each after second call, got a=%d b=%d", a.reconfs, b.reconfs)
	}
}

func TestReconfAllCollectsErrorsWithoutStopping(t *testing.T) {
	a := &fakeStage{fail: true}
	b := &fakeStage{}
	ha := Register(a)
	hb := Register(b)
	defer Deregister(ha)
	defer Deregister(hb)

	errs := ReconfAll()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if b.reconfs != 1 {
		t.Fatalf("expected sibling stage to still reconf, got %d", b.reconfs)
	}
}

func TestDeregisterRemovesStage(t *testing.T) {
	before := Count()
	a := &fakeStage{}
	h := Register(a)
	if Count() != before+1 {
		t.Fatalf("expected count to increase by 1")
	}
	Deregister(h)
	if Count() != before {
		t.Fatalf("expected count to return to %d, got %d", before, Count())
	}
}
