package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/internal/infrastructure/memory"
	"github.com/daylog-hq/daylog/pkg/sheets"
)

// failingMirror always errors; the service must treat that as non-fatal.
type failingMirror struct {
	mu      sync.Mutex
	appends int
}

func (m *failingMirror) ListProjectNames(ctx context.Context) ([]string, error) {
	return nil, errors.New("sheets unavailable")
}

func (m *failingMirror) AppendEntry(ctx context.Context, row sheets.EntryRow) error {
	m.mu.Lock()
	m.appends++
	m.mu.Unlock()
	return errors.New("sheets unavailable")
}

// recordingMirror captures appended rows and serves a fixed project column.
type recordingMirror struct {
	mu    sync.Mutex
	names []string
	rows  []sheets.EntryRow
	done  chan struct{}
}

func (m *recordingMirror) ListProjectNames(ctx context.Context) ([]string, error) {
	return m.names, nil
}

func (m *recordingMirror) AppendEntry(ctx context.Context, row sheets.EntryRow) error {
	m.mu.Lock()
	m.rows = append(m.rows, row)
	m.mu.Unlock()
	if m.done != nil {
		m.done <- struct{}{}
	}
	return nil
}

func newTestService(t *testing.T) (*TimesheetService, *memory.Store, *entity.User, *entity.Project) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, "alice@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p, err := store.CreateProject(ctx, "Client A")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return NewTimesheetService(store, nil, nil, nil), store, u, p
}

func TestAdmitEntryValidation(t *testing.T) {
	svc, _, u, p := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		date  string
		spent float64
		field string
	}{
		{"zero time", "2024-01-02", 0, "timeSpent"},
		{"quarter day", "2024-01-02", 0.25, "timeSpent"},
		{"over a day", "2024-01-02", 1.5, "timeSpent"},
		{"negative", "2024-01-02", -0.5, "timeSpent"},
		{"bad date", "02/01/2024", entity.FullDay, "date"},
		{"empty date", "", entity.HalfDay, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AdmitEntry(ctx, u.ID, p.ID, tc.date, tc.spent)
			var verr *errs.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestAdmitEntryCap(t *testing.T) {
	svc, _, u, p := newTestService(t)
	ctx := context.Background()
	const date = "2024-01-02"

	if _, err := svc.AdmitEntry(ctx, u.ID, p.ID, date, entity.HalfDay); err != nil {
		t.Fatalf("first half day: %v", err)
	}
	if _, err := svc.AdmitEntry(ctx, u.ID, p.ID, date, entity.HalfDay); err != nil {
		t.Fatalf("second half day: %v", err)
	}

	_, err := svc.AdmitEntry(ctx, u.ID, p.ID, date, entity.HalfDay)
	var cerr *errs.CapacityError
	if !errors.As(err, &cerr) {
		t.Fatalf("third half day: err = %v, want CapacityError", err)
	}
	if cerr.Date != date || cerr.Current != 1.0 || cerr.Requested != entity.HalfDay {
		t.Errorf("CapacityError = %+v", cerr)
	}

	// A different date is unaffected.
	if _, err := svc.AdmitEntry(ctx, u.ID, p.ID, "2024-01-03", entity.FullDay); err != nil {
		t.Errorf("next date: %v", err)
	}

	entries, err := svc.EntriesForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("EntriesForUser: %v", err)
	}
	var total float64
	for _, e := range entries {
		if e.Date == date {
			total += e.TimeSpent
		}
	}
	if total != entity.MaxDailyTime {
		t.Errorf("total for %s = %g, want %g", date, total, entity.MaxDailyTime)
	}
}

func TestAdmitEntryDanglingProject(t *testing.T) {
	svc, _, u, _ := newTestService(t)

	_, err := svc.AdmitEntry(context.Background(), u.ID, 999, "2024-01-02", entity.FullDay)
	if !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAdmitEntryConcurrent(t *testing.T) {
	svc, _, u, p := newTestService(t)
	const date = "2024-01-02"
	const workers = 16

	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AdmitEntry(context.Background(), u.ID, p.ID, date, entity.FullDay)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		var cerr *errs.CapacityError
		if !errors.As(err, &cerr) {
			t.Errorf("unexpected error: %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
}

func TestAdmitEntryMirrorFailureDoesNotBlock(t *testing.T) {
	svc, _, u, p := newTestService(t)
	svc.Mirror = &failingMirror{}

	e, err := svc.AdmitEntry(context.Background(), u.ID, p.ID, "2024-01-02", entity.FullDay)
	if err != nil {
		t.Fatalf("AdmitEntry with failing mirror: %v", err)
	}
	if e.ID == 0 {
		t.Error("entry not persisted")
	}
}

func TestAdmitEntryMirrorsRow(t *testing.T) {
	svc, _, u, p := newTestService(t)
	mirror := &recordingMirror{done: make(chan struct{}, 1)}
	svc.Mirror = mirror

	e, err := svc.AdmitEntry(context.Background(), u.ID, p.ID, "2024-01-02", entity.HalfDay)
	if err != nil {
		t.Fatalf("AdmitEntry: %v", err)
	}

	select {
	case <-mirror.done:
	case <-time.After(5 * time.Second):
		t.Fatal("mirror append never happened")
	}

	mirror.mu.Lock()
	defer mirror.mu.Unlock()
	if len(mirror.rows) != 1 {
		t.Fatalf("mirrored rows = %d, want 1", len(mirror.rows))
	}
	row := mirror.rows[0]
	if row.ID != e.ID || row.Username != u.Username || row.ProjectName != p.Name || row.Date != "2024-01-02" || row.TimeSpent != entity.HalfDay {
		t.Errorf("mirrored row = %+v", row)
	}
}

func TestListProjectsRefreshesFromMirror(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	svc.Mirror = &recordingMirror{names: []string{"Client A", "Client C"}}

	projects, err := svc.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	names := map[string]bool{}
	for _, p := range projects {
		names[p.Name] = true
	}
	if !names["Client A"] || !names["Client C"] {
		t.Errorf("projects = %v, want Client A and Client C", names)
	}

	// Upsert is idempotent: no duplicates on the next call.
	again, err := svc.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects again: %v", err)
	}
	if len(again) != len(projects) {
		t.Errorf("project count changed: %d -> %d", len(projects), len(again))
	}
}

func TestListProjectsMirrorFailureFallsBack(t *testing.T) {
	svc, _, _, p := newTestService(t)
	svc.Mirror = &failingMirror{}

	projects, err := svc.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects with failing mirror: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != p.Name {
		t.Errorf("projects = %+v", projects)
	}
}

func TestEnsureDefaultProjects(t *testing.T) {
	store := memory.NewStore()
	svc := NewTimesheetService(store, nil, nil, nil)
	ctx := context.Background()

	if err := svc.EnsureDefaultProjects(ctx); err != nil {
		t.Fatalf("EnsureDefaultProjects: %v", err)
	}
	projects, err := store.ListActiveProjects(ctx)
	if err != nil {
		t.Fatalf("ListActiveProjects: %v", err)
	}
	if len(projects) != len(DefaultProjects) {
		t.Fatalf("seeded %d projects, want %d", len(projects), len(DefaultProjects))
	}

	// A non-empty table is left alone.
	if err := svc.EnsureDefaultProjects(ctx); err != nil {
		t.Fatalf("second EnsureDefaultProjects: %v", err)
	}
	again, _ := store.ListActiveProjects(ctx)
	if len(again) != len(DefaultProjects) {
		t.Errorf("reseeded: %d projects", len(again))
	}
}
