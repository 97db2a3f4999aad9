package menu

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rescale/svctray/internal/config"
	"github.com/rescale/svctray/internal/logging"
	"github.com/rescale/svctray/internal/service"
	"github.com/rescale/svctray/internal/service/servicetest"
	"github.com/rescale/svctray/internal/snapshot"
	"github.com/rescale/svctray/internal/state"
)

// recordingView logs every call as a string.
type recordingView struct {
	ops []string
}

func (v *recordingView) Clear()        { v.ops = append(v.ops, "clear") }
func (v *recordingView) AddSeparator() { v.ops = append(v.ops, "---") }
func (v *recordingView) AddService(e Entry) {
	v.ops = append(v.ops, fmt.Sprintf("svc:%s checked=%t enabled=%t", e.Label, e.Checked, e.Enabled))
}
func (v *recordingView) AddFixed(f Fixed) {
	v.ops = append(v.ops, "fixed:"+f.Kind.String())
}

func mustOptions(t *testing.T, values map[string]string) *config.Options {
	t.Helper()
	if _, ok := values["name"]; !ok {
		values["name"] = ".*"
	}
	opts, err := config.Build(values)
	if err != nil {
		t.Fatalf("config.Build() error = %v", err)
	}
	return opts
}

func TestBuildModelEnabledAndChecked(t *testing.T) {
	snap := snapshot.Snapshot{
		{Name: "run", DisplayName: "Running One", Status: service.StatusRunning},
		{Name: "stop", DisplayName: "Stopped One", Status: service.StatusStopped},
		{Name: "pend", DisplayName: "Pending One", Status: service.StatusStartPending},
	}

	tests := []struct {
		name     string
		mode     string
		elevated bool
		want     []bool // enabled per entry
	}{
		{"manage elevated", "manage", true, []bool{true, true, false}},
		{"manage not elevated", "manage", false, []bool{false, false, false}},
		{"readonly elevated", "readonly", true, []bool{false, false, false}},
		{"never elevated", "never", true, []bool{false, false, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildModel(snap, mustOptions(t, map[string]string{"manage": tt.mode}), tt.elevated)
			if len(m.Services) != 3 {
				t.Fatalf("Services = %v", m.Services)
			}
			for i, e := range m.Services {
				if e.Enabled != tt.want[i] {
					t.Errorf("%s Enabled = %v, want %v", e.Service, e.Enabled, tt.want[i])
				}
				if e.Checked != (snap[i].Status == service.StatusRunning) {
					t.Errorf("%s Checked = %v", e.Service, e.Checked)
				}
			}
			if m.Running != 1 {
				t.Errorf("Running = %d, want 1", m.Running)
			}
		})
	}
}

func TestBuildModelLabels(t *testing.T) {
	snap := snapshot.Snapshot{{Name: "wuauserv", DisplayName: "Windows Update", Status: service.StatusStopped}}

	m := BuildModel(snap, mustOptions(t, map[string]string{"show": "name"}), true)
	if m.Services[0].Label != "wuauserv" {
		t.Errorf("Label = %q, want name", m.Services[0].Label)
	}
	m = BuildModel(snap, mustOptions(t, map[string]string{"show": "displayname"}), true)
	if m.Services[0].Label != "Windows Update" {
		t.Errorf("Label = %q, want display name", m.Services[0].Label)
	}
}

func TestBuildModelServiceManagerEntry(t *testing.T) {
	m := BuildModel(snapshot.Snapshot{}, mustOptions(t, map[string]string{"service-manager": ""}), true)
	if m.Fixed[0].Kind != ActionOpenManager || m.Fixed[0].Enabled {
		t.Errorf("Fixed[0] = %+v, want disabled service manager entry", m.Fixed[0])
	}
	m = BuildModel(snapshot.Snapshot{}, mustOptions(t, map[string]string{"service-manager": "services.msc"}), true)
	if !m.Fixed[0].Enabled {
		t.Error("service manager entry disabled with a configured path")
	}
}

func TestRenderSeparator(t *testing.T) {
	opts := mustOptions(t, map[string]string{})

	v := &recordingView{}
	Render(v, BuildModel(snapshot.Snapshot{}, opts, true))
	want := []string{"clear", "fixed:open-manager", "fixed:about", "fixed:exit"}
	if fmt.Sprint(v.ops) != fmt.Sprint(want) {
		t.Errorf("empty render = %v, want %v", v.ops, want)
	}

	v = &recordingView{}
	Render(v, BuildModel(snapshot.Snapshot{{Name: "a", Status: service.StatusRunning}}, opts, true))
	want = []string{"clear", "svc:a checked=true enabled=true", "---", "fixed:open-manager", "fixed:about", "fixed:exit"}
	if fmt.Sprint(v.ops) != fmt.Sprint(want) {
		t.Errorf("render = %v, want %v", v.ops, want)
	}
}

func newSync(t *testing.T, fake *servicetest.Fake, elevatedCalls *int) (*Synchronizer, *recordingView, *state.Context) {
	t.Helper()
	st := state.NewContext(mustOptions(t, map[string]string{"name": "^svc"}))
	v := &recordingView{}
	elevated := func() bool {
		*elevatedCalls++
		return true
	}
	return NewSynchronizer(fake, st, v, elevated, logging.Nop()), v, st
}

func TestSyncSkipsUnchanged(t *testing.T) {
	fake := servicetest.NewFake(
		service.Record{Name: "svcA", Status: service.StatusRunning},
		service.Record{Name: "other", Status: service.StatusRunning},
	)
	var elevatedCalls int
	s, v, _ := newSync(t, fake, &elevatedCalls)
	ctx := context.Background()

	rebuilt, err := s.Sync(ctx)
	if err != nil || !rebuilt {
		t.Fatalf("first Sync() = %v, %v; want rebuild", rebuilt, err)
	}
	opsAfterFirst := len(v.ops)
	model := s.Model()

	// A change to an unmatched service does not count.
	fake.SetStatus("other", service.StatusStopped)
	rebuilt, err = s.Sync(ctx)
	if err != nil || rebuilt {
		t.Fatalf("second Sync() = %v, %v; want skip", rebuilt, err)
	}
	if len(v.ops) != opsAfterFirst {
		t.Errorf("view touched on unchanged sync: %v", v.ops[opsAfterFirst:])
	}
	if fmt.Sprint(s.Model()) != fmt.Sprint(model) {
		t.Error("model changed on skipped sync")
	}
	if elevatedCalls != 1 || s.Rebuilds() != 1 {
		t.Errorf("elevated calls = %d, rebuilds = %d; want 1 and 1", elevatedCalls, s.Rebuilds())
	}
}

func TestSyncRebuildsOnChange(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svcA", Status: service.StatusRunning})
	var elevatedCalls int
	s, v, _ := newSync(t, fake, &elevatedCalls)
	ctx := context.Background()

	s.Sync(ctx)
	fake.SetStatus("svcA", service.StatusStopped)
	rebuilt, err := s.Sync(ctx)
	if err != nil || !rebuilt {
		t.Fatalf("Sync() = %v, %v; want rebuild", rebuilt, err)
	}
	if s.Model().Services[0].Checked {
		t.Error("stopped service still checked")
	}
	if v.ops[len(v.ops)-6] != "clear" {
		t.Errorf("rebuild did not clear first: %v", v.ops)
	}

	fake.Add(service.Record{Name: "svcB", Status: service.StatusStopped})
	if rebuilt, _ := s.Sync(ctx); !rebuilt {
		t.Error("new matched service did not trigger rebuild")
	}
	if len(s.Model().Services) != 2 {
		t.Errorf("Services = %v, want 2", s.Model().Services)
	}
}

func TestSyncEnumerationFailureKeepsMenu(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svcA", Status: service.StatusRunning})
	var elevatedCalls int
	s, v, _ := newSync(t, fake, &elevatedCalls)
	ctx := context.Background()

	s.Sync(ctx)
	ops := len(v.ops)

	fake.FailList(errors.New("access denied"))
	rebuilt, err := s.Sync(ctx)
	var enumErr *service.EnumerationError
	if rebuilt || !errors.As(err, &enumErr) {
		t.Errorf("Sync() = %v, %v; want EnumerationError without rebuild", rebuilt, err)
	}
	if len(v.ops) != ops {
		t.Error("view touched after enumeration failure")
	}

	fake.FailList(nil)
	if rebuilt, _ := s.Sync(ctx); rebuilt {
		t.Error("recovered sync rebuilt an unchanged menu")
	}
}

func TestSyncInvalidate(t *testing.T) {
	fake := servicetest.NewFake(service.Record{Name: "svcA", DisplayName: "Service A", Status: service.StatusRunning})
	var elevatedCalls int
	s, _, st := newSync(t, fake, &elevatedCalls)
	ctx := context.Background()

	s.Sync(ctx)

	st.SetOptions(mustOptions(t, map[string]string{"name": "^svc", "show": "name"}))
	if rebuilt, _ := s.Sync(ctx); rebuilt {
		t.Error("options change alone should not rebuild before Invalidate")
	}

	s.Invalidate()
	if rebuilt, _ := s.Sync(ctx); !rebuilt {
		t.Fatal("Sync after Invalidate did not rebuild")
	}
	if s.Model().Services[0].Label != "svcA" {
		t.Errorf("Label = %q, want new label preference", s.Model().Services[0].Label)
	}
}
