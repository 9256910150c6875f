package core

// submission_gate.go lets one remote submission run at a time.
//
// The claim service is called with a single credential pair and the
// workflow has no notion of parallel submissions, so the gate holds one
// token. A second caller waits up to maxWait for it and then fails with
// ErrSubmissionBusy. Shutdown waits on the idle channel rather than
// polling.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSubmissionBusy is returned when another submission holds the gate for
// the whole wait. Clients should retry after a short delay.
var ErrSubmissionBusy = errors.New("another submission is in progress, please try again later")

// DefaultMaxWaitTime is how long to wait for the gate before rejecting.
const DefaultMaxWaitTime = 30 * time.Second

// SubmissionGate serializes submissions to the claim service.
type SubmissionGate struct {
	token   chan struct{}
	maxWait time.Duration

	mu        sync.Mutex
	operation string
	since     time.Time
	idle      chan struct{} // closed while no submission holds the gate
	served    int
}

// NewSubmissionGate creates an open gate. Callers that cannot pass within
// maxWait receive ErrSubmissionBusy.
func NewSubmissionGate(maxWait time.Duration) *SubmissionGate {
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}
	idle := make(chan struct{})
	close(idle)
	return &SubmissionGate{
		token:   make(chan struct{}, 1),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Acquire waits for the gate on behalf of operation.
// The caller MUST call Release() when the submission completes (use defer).
func (g *SubmissionGate) Acquire(ctx context.Context, operation string) error {
	waitCtx, cancel := context.WithTimeout(ctx, g.maxWait)
	defer cancel()

	select {
	case g.token <- struct{}{}:
		g.enter(operation)
		return nil
	case <-waitCtx.Done():
		// Caller cancellation takes precedence over our own timeout
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrSubmissionBusy
	}
}

// TryAcquire takes the gate only if it is free.
func (g *SubmissionGate) TryAcquire(operation string) bool {
	select {
	case g.token <- struct{}{}:
		g.enter(operation)
		return true
	default:
		return false
	}
}

func (g *SubmissionGate) enter(operation string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.operation = operation
	g.since = time.Now()
	g.idle = make(chan struct{})
	g.served++
}

// Release opens the gate. Must be called exactly once per successful
// Acquire/TryAcquire.
func (g *SubmissionGate) Release() {
	g.mu.Lock()
	g.operation = ""
	g.since = time.Time{}
	close(g.idle)
	g.mu.Unlock()

	<-g.token
}

// WaitForDrain blocks until the running submission, if any, completes or
// ctx is done.
func (g *SubmissionGate) WaitForDrain(ctx context.Context) error {
	g.mu.Lock()
	idle := g.idle
	g.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmissionStatus is a snapshot of the gate.
type SubmissionStatus struct {
	Active    int       `json:"active"`
	Operation string    `json:"operation,omitempty"`
	Since     time.Time `json:"since,omitzero"`
	Served    int       `json:"served"`
}

// Status reports whether a submission is running, which one and since
// when.
func (g *SubmissionGate) Status() SubmissionStatus {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := SubmissionStatus{Operation: g.operation, Since: g.since, Served: g.served}
	if g.operation != "" || len(g.token) > 0 {
		st.Active = 1
	}
	return st
}
