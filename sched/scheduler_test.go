package sched

import "testing"

// withFakeDispatch redirects dispatchToFn to a recorder so ready-queue
// ordering can be observed without a real context switch.
func withFakeDispatch(t *testing.T) *[]*Thread {
	t.Helper()
	var log []*Thread
	prev := dispatchToFn
	dispatchToFn = func(from, to *Thread) {
		log = append(log, to)
	}
	t.Cleanup(func() { dispatchToFn = prev })
	return &log
}

func TestCooperativeYieldOrder(t *testing.T) {
	log := withFakeDispatch(t)

	a, b, c := &Thread{}, &Thread{}, &Thread{}
	s := New()

	s.Add(a)
	s.Add(b)
	s.Add(c)

	s.Yield() // dispatches to a
	s.Yield() // dispatches to b
	s.Yield() // dispatches to c

	if len(*log) != 3 {
		t.Fatalf("expected 3 dispatches; got %d", len(*log))
	}
	if (*log)[0] != a || (*log)[1] != b || (*log)[2] != c {
		t.Fatalf("expected dispatch order [a b c]; got %v", *log)
	}
}

func TestYieldDoesNotReenqueueTheYieldingThread(t *testing.T) {
	withFakeDispatch(t)

	a := &Thread{}
	s := New()
	s.Add(a)

	s.Yield()
	if s.Len() != 0 {
		t.Fatalf("expected the ready queue to be empty after dispatching to the only thread; len = %d", s.Len())
	}
}

func TestYieldOnEmptyQueueIsNoop(t *testing.T) {
	log := withFakeDispatch(t)

	s := New()
	before := s.Current()
	s.Yield()

	if len(*log) != 0 {
		t.Fatal("expected no dispatch when the ready queue is empty")
	}
	if s.Current() != before {
		t.Fatal("expected the current thread to be unchanged by a no-op yield")
	}
}

func TestTerminateRemovesEveryOccurrenceBeforeDispatch(t *testing.T) {
	log := withFakeDispatch(t)

	a, b, c := &Thread{}, &Thread{}, &Thread{}
	s := New()

	s.Add(a)
	s.Add(b)
	s.Add(b) // b queued twice
	s.Add(c)

	s.Terminate(b)
	if s.Len() != 2 {
		t.Fatalf("expected 2 threads left after terminating b; got %d", s.Len())
	}

	s.Yield()
	s.Yield()

	if len(*log) != 2 || (*log)[0] != a || (*log)[1] != c {
		t.Fatalf("expected dispatch order [a c] once b is terminated; got %v", *log)
	}
}

func TestResumeBehavesLikeAdd(t *testing.T) {
	log := withFakeDispatch(t)

	a := &Thread{}
	s := New()
	s.Resume(a)
	s.Yield()

	if len(*log) != 1 || (*log)[0] != a {
		t.Fatalf("expected Resume to make a runnable just like Add; got %v", *log)
	}
}
