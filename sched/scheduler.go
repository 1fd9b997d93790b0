package sched

import (
	"github.com/imatson9119/CSCE410/kernel"
	"github.com/imatson9119/CSCE410/kfmt"
)

// maxReadyThreads bounds the ready queue, in the same fixed-capacity spirit
// as this module's other process-wide structures: the frame-pool registry,
// a page table's registered-pool list, a VM pool's region array. A
// teaching kernel's thread count never approaches this.
const maxReadyThreads = 256

var errReadyQueueFull = &kernel.Error{Module: "sched", Message: "ready queue is full"}

// Scheduler is a strict FIFO ready queue with cooperative dispatch: no
// priorities, no preemption. Control transfers between threads only at
// explicit Yield calls.
type Scheduler struct {
	queue      [maxReadyThreads]*Thread
	head, tail int
	n          int

	// running is the thread the scheduler believes is currently
	// executing: the one Yield last dispatched to, or a synthetic
	// bootstrap handle before the first Yield. Add/resume/terminate
	// calls concerning threads other than this one don't touch it.
	running *Thread
}

// New constructs an empty Scheduler. running starts as a synthetic handle
// standing in for whatever context called into this package before any
// thread was ever dispatched to. The scheduler never enqueues it on its own;
// a caller may still Add it like any other thread (disk's waitUntilReady
// does so with Current()).
func New() *Scheduler {
	return &Scheduler{running: &Thread{}}
}

func (s *Scheduler) push(t *Thread) {
	if s.n == maxReadyThreads {
		kfmt.Panic(errReadyQueueFull)
	}
	s.queue[s.tail] = t
	s.tail = (s.tail + 1) % maxReadyThreads
	s.n++
}

func (s *Scheduler) pop() *Thread {
	if s.n == 0 {
		return nil
	}
	t := s.queue[s.head]
	s.queue[s.head] = nil
	s.head = (s.head + 1) % maxReadyThreads
	s.n--
	return t
}

// Add appends t to the tail of the ready queue: a newly runnable thread.
func (s *Scheduler) Add(t *Thread) { s.push(t) }

// Resume appends t to the tail of the ready queue: a thread that was
// running and has become ready again. Identical to Add; the two names
// exist so callers can say which case applies at the call site.
func (s *Scheduler) Resume(t *Thread) { s.push(t) }

// Yield pops the head of the ready queue and dispatches the calling
// thread's context to it. If the queue is empty, Yield is a no-op and the
// caller keeps running. The yielding thread is NOT re-added automatically:
// a caller that wants to run again later must Add(self) before yielding.
func (s *Scheduler) Yield() {
	next := s.pop()
	if next == nil {
		return
	}
	current := s.running
	s.running = next
	current.DispatchTo(next)
}

// Terminate removes every occurrence of t from the ready queue, preserving
// the relative order of everything else.
func (s *Scheduler) Terminate(t *Thread) {
	var kept [maxReadyThreads]*Thread
	k := 0
	for i := 0; i < s.n; i++ {
		th := s.queue[(s.head+i)%maxReadyThreads]
		if th != t {
			kept[k] = th
			k++
		}
	}

	s.queue = [maxReadyThreads]*Thread{}
	copy(s.queue[:], kept[:k])
	s.head = 0
	s.tail = k % maxReadyThreads
	s.n = k
}

// Current returns the thread the scheduler most recently dispatched to (the
// one it believes is running now).
func (s *Scheduler) Current() *Thread { return s.running }

// Len returns the number of threads currently waiting in the ready queue.
func (s *Scheduler) Len() int { return s.n }
