package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rescale/svctray/internal/config"
	"github.com/rescale/svctray/internal/events"
	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/notify"
	"github.com/rescale/svctray/internal/notify/notifytest"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/service/servicetest"
	"github.com/rescale/svctray/internal/state"
)

func newExecutor(t *testing.T, fake *servicetest.Fake, values map[string]string) (*Executor, *state.Context, *notifytest.Recorder) {
	t.Helper()
	if _, ok := values["name"]; !ok {
		values["name"] = ".*"
	}
	opts, err := config.Build(values)
	if err != nil {
		t.Fatalf("config.Build() error = %v", err)
	}
	st := state.NewContext(opts)
	rec := &notifytest.Recorder{}
	e := NewExecutor(fake, st, rec, nil, logging.Nop())
	e.SetPollInterval(10 * time.Millisecond)
	return e, st, rec
}

func TestExecuteStartsStoppedService(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "wuauserv", DisplayName: "Windows Update", Status: service.StatusStopped})
	e, st, _ := newExecutor(t, fake, map[string]string{
		"name":         "^wuauserv$",
		"notify":       "always",
		"started-icon": "warning",
	})

	out := e.Execute(context.Background(), "wuauserv", false)

	if out.Err != nil {
		t.Fatalf("Execute() error = %v", out.Err)
	}
	if out.Action != ActionStart || out.Status != service.StatusRunning {
		t.Errorf("Execute() = %s/%s, want start/Running", out.Action, out.Status)
	}
	calls := fake.Calls()
	if len(calls) != 1 || calls[0].Op != service.OpStart {
		t.Errorf("calls = %v, want one start", calls)
	}
	if out.Notification == nil {
		t.Fatal("expected a started notification with policy always")
	}
	if out.Notification.Title != "Service started" || out.Notification.Severity != notify.SeverityWarning {
		t.Errorf("notification = %+v, want started with configured severity", out.Notification)
	}
	if st.Ignore.Len() != 0 {
		t.Errorf("ignore set has %v with watching disabled", st.Ignore.Names())
	}
}

func TestExecuteStopsRunningService(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "Spooler", Status: service.StatusRunning})
	e, _, _ := newExecutor(t, fake, map[string]string{"notify": "always"})

	out := e.Execute(context.Background(), "Spooler", false)

	if out.Err != nil {
		t.Fatalf("Execute() error = %v", out.Err)
	}
	if out.Action != ActionStop || out.Status != service.StatusStopped {
		t.Errorf("Execute() = %s/%s, want stop/Stopped", out.Action, out.Status)
	}
	for _, c := range fake.Calls() {
		if c.Op == service.OpStart {
			t.Errorf("running service was started: %v", fake.Calls())
		}
	}
	if out.Notification == nil || out.Notification.Title != "Service stopped" {
		t.Errorf("notification = %+v, want stopped", out.Notification)
	}
}

func TestExecutePendingIsNoop(t *testing.T) {
	for _, st := range []service.Status{service.StatusStartPending, service.StatusStopPending, service.StatusPaused} {
		t.Run(st.String(), func(t *testing.T) {
			fake := servicetest.NewFake(service.Record{Name: "svc", Status: st})
			e, sc, _ := newExecutor(t, fake, map[string]string{"notify": "always"})

			out := e.Execute(context.Background(), "svc", true)

			if out.Err != nil || out.Action != ActionNone || out.Notification != nil {
				t.Errorf("Execute() = %+v, want silent no-op", out)
			}
			if len(fake.Calls()) != 0 {
				t.Errorf("calls = %v, want none", fake.Calls())
			}
			if sc.Ignore.Len() != 0 {
				t.Errorf("ignore set = %v, want empty", sc.Ignore.Names())
			}
		})
	}
}

func TestExecuteNotificationPolicy(t *testing.T) {
	tests := []struct {
		policy      string
		fail        bool
		wantNotices bool
	}{
		{"never", false, false},
		{"never", true, false},
		{"onerror", false, false},
		{"onerror", true, true},
		{"always", false, true},
		{"always", true, true},
	}

	for _, tt := range tests {
		name := tt.policy + "/success"
		if tt.fail {
			name = tt.policy + "/failure"
		}
		t.Run(name, func(t *testing.T) {
			fake := servicetest.NewFake(service.Record{Name: "svc", Status: service.StatusStopped})
			if tt.fail {
				fake.FailOps("svc", service.ErrPermissionDenied)
			}
			e, _, rec := newExecutor(t, fake, map[string]string{"notify": tt.policy})

			out := <-e.Submit(context.Background(), "svc")
			e.Wait()

			if (out.Err != nil) != tt.fail {
				t.Fatalf("Err = %v, fail %v", out.Err, tt.fail)
			}
			if got := rec.Len() > 0; got != tt.wantNotices {
				t.Errorf("notifications sent = %d, want any: %v", rec.Len(), tt.wantNotices)
			}
			if (out.Notification != nil) != tt.wantNotices {
				t.Errorf("Notification = %+v, want present: %v", out.Notification, tt.wantNotices)
			}
		})
	}
}

func TestExecuteRequestFailure(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svc", Status: service.StatusRunning})
	fake.FailOps("svc", service.ErrPermissionDenied)
	e, st, _ := newExecutor(t, fake, map[string]string{"notify": "onerror", "error-icon": "warning"})

	out := e.Execute(context.Background(), "svc", true)

	if !errors.Is(out.Err, service.ErrPermissionDenied) {
		t.Fatalf("Err = %v, want ErrPermissionDenied", out.Err)
	}
	var opErr *service.OperationError
	if !errors.As(out.Err, &opErr) || opErr.Op != service.OpStop {
		t.Errorf("Err = %#v, want stop OperationError", out.Err)
	}
	if out.Notification == nil || out.Notification.Severity != notify.SeverityWarning {
		t.Errorf("Notification = %+v, want configured error severity", out.Notification)
	}
	if st.Ignore.Contains("svc") {
		t.Error("ignore entry left behind after rejected request")
	}
}

func TestExecuteRequestFailureKeepsEarlierIgnoreEntry(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svc", Status: service.StatusRunning})
	fake.FailOps("svc", service.ErrPermissionDenied)
	e, st, _ := newExecutor(t, fake, map[string]string{})

	// An earlier toggle whose transition the watcher has not seen yet.
	st.Ignore.Add("svc")

	out := e.Execute(context.Background(), "svc", true)

	if !errors.Is(out.Err, service.ErrPermissionDenied) {
		t.Fatalf("Err = %v, want ErrPermissionDenied", out.Err)
	}
	if !st.Ignore.Contains("svc") {
		t.Errorf("ignore set = %v, want earlier svc entry kept", st.Ignore.Names())
	}
}

func TestExecuteNotFound(t *testing.T) {
	fake := servicetest.NewFake()
	e, _, _ := newExecutor(t, fake, map[string]string{"notify": "onerror"})

	out := e.Execute(context.Background(), "missing", true)

	if !errors.Is(out.Err, service.ErrNotFound) {
		t.Fatalf("Err = %v, want ErrNotFound", out.Err)
	}
	if out.Action != ActionNone {
		t.Errorf("Action = %s, want none", out.Action)
	}
	if out.Notification == nil {
		t.Error("expected an error notification")
	}
}

func TestExecuteWaitTimesOut(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "hung", Status: service.StatusStopped})
	fake.Settle = false
	e, st, _ := newExecutor(t, fake, map[string]string{"timeout": "1", "notify": "onerror"})

	start := time.Now()
	out := e.Execute(context.Background(), "hung", true)

	if !errors.Is(out.Err, service.ErrTimeout) {
		t.Fatalf("Err = %v, want ErrTimeout", out.Err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("wait took %v, should be bounded by the 1s timeout", elapsed)
	}
	if out.Status != service.StatusStartPending {
		t.Errorf("Status = %s, want last observed Start Pending", out.Status)
	}
	if !st.Ignore.Contains("hung") {
		t.Error("ignore entry should survive a timed out wait")
	}
}

func TestSubmitAddsIgnoreEntryAndPublishes(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svcX", Status: service.StatusStopped})
	opts, err := config.Build(map[string]string{"name": "svcX", "watch": "5000", "notify": "never"})
	if err != nil {
		t.Fatal(err)
	}
	st := state.NewContext(opts)
	bus := events.NewEventBus(4)
	defer bus.Close()
	completed := bus.Subscribe(events.EventCommandCompleted)

	e := NewExecutor(fake, st, nil, bus, logging.Nop())
	e.SetPollInterval(10 * time.Millisecond)

	out := <-e.Submit(context.Background(), "svcX")
	if out.Err != nil {
		t.Fatalf("Submit() error = %v", out.Err)
	}
	if !st.Ignore.Contains("svcX") {
		t.Error("watching enabled but svcX not in ignore set")
	}

	select {
	case ev := <-completed:
		done := ev.(*events.CommandCompletedEvent)
		if done.Service != "svcX" || done.Action != "start" || done.Error != nil {
			t.Errorf("event = %+v", done)
		}
	case <-time.After(time.Second):
		t.Fatal("no CommandCompletedEvent published")
	}
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svc", Status: service.StatusRunning})
	e, _, _ := newExecutor(t, fake, map[string]string{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := <-e.Submit(ctx, "svc")
	if out.Err != nil {
		t.Fatalf("Submit() with cancelled caller context error = %v", out.Err)
	}
	if out.Status != service.StatusStopped {
		t.Errorf("Status = %s, want Stopped", out.Status)
	}
}

func TestSubmitConcurrent(t *testing.T) {
	fake := servicetest.NewFake(
		service.Record{Name: "a", Status: service.StatusStopped},
		service.Record{Name: "b", Status: service.StatusRunning},
		service.Record{Name: "c", Status: service.StatusStopped},
	)
	e, _, _ := newExecutor(t, fake, map[string]string{"watch": "5000"})

	results := []<-chan Outcome{
		e.Submit(context.Background(), "a"),
		e.Submit(context.Background(), "b"),
		e.Submit(context.Background(), "c"),
	}
	e.Wait()

	want := map[string]service.Status{"a": service.StatusRunning, "b": service.StatusStopped, "c": service.StatusRunning}
	for _, ch := range results {
		out := <-ch
		if out.Err != nil {
			t.Errorf("%s: %v", out.Service, out.Err)
		}
		if out.Status != want[out.Service] {
			t.Errorf("%s: Status = %s, want %s", out.Service, out.Status, want[out.Service])
		}
	}
}
