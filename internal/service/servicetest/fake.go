// Package servicetest provides an in-memory service.Manager for tests.
package servicetest

import (
	"context"
	"sync"

	"github.com/rescale/svctray/internal/service"
)

// Call records one mutating request made against a Fake.
type Call struct {
	Op      service.Op
	Service string
}

// Fake is a concurrency-safe in-memory service directory. Start and Stop
// flip the status immediately unless Settle is false, in which case the
// service stays in its pending state until SetStatus is called.
type Fake struct {
	mu       sync.Mutex
	records  []service.Record
	calls    []Call
	listErr  error
	opErrs   map[string]error
	Settle   bool
	listHits int
}

// NewFake returns a Fake holding records in the given order.
func NewFake(records ...service.Record) *Fake {
	f := &Fake{opErrs: make(map[string]error), Settle: true}
	f.records = append(f.records, records...)
	return f
}

// SetStatus changes a service's status as if done outside the tool.
func (f *Fake) SetStatus(name string, status service.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.records {
		if f.records[i].Name == name {
			f.records[i].Status = status
		}
	}
}

// Add appends a new service.
func (f *Fake) Add(r service.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
}

// FailList makes List return err until cleared with nil.
func (f *Fake) FailList(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

// FailOps makes Start and Stop on name return err.
func (f *Fake) FailOps(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opErrs[name] = err
}

// Calls returns the mutating requests seen so far.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// ListCount returns how many times List was called.
func (f *Fake) ListCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listHits
}

func (f *Fake) List(ctx context.Context) ([]service.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listHits++
	if f.listErr != nil {
		return nil, &service.EnumerationError{Err: f.listErr}
	}
	return append([]service.Record(nil), f.records...), nil
}

func (f *Fake) Query(ctx context.Context, name string) (service.Status, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.Name == name {
			return r.Status, nil
		}
	}
	return service.StatusUnknown, &service.OperationError{Op: service.OpQuery, Service: name, Err: service.ErrNotFound}
}

func (f *Fake) Start(ctx context.Context, name string) error {
	return f.mutate(service.OpStart, name, service.StatusStartPending, service.StatusRunning)
}

func (f *Fake) Stop(ctx context.Context, name string) error {
	return f.mutate(service.OpStop, name, service.StatusStopPending, service.StatusStopped)
}

func (f *Fake) Close() error { return nil }

func (f *Fake) mutate(op service.Op, name string, pending, settled service.Status) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Service: name})
	if err := f.opErrs[name]; err != nil {
		return &service.OperationError{Op: op, Service: name, Err: err}
	}
	for i := range f.records {
		if f.records[i].Name == name {
			if f.Settle {
				f.records[i].Status = settled
			} else {
				f.records[i].Status = pending
			}
			return nil
		}
	}
	return &service.OperationError{Op: op, Service: name, Err: service.ErrNotFound}
}
