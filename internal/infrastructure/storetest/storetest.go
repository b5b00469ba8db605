// Package storetest is the shared contract suite for repository.Store
// implementations. Both backends must pass it unchanged; that is what makes
// them interchangeable at process start.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/internal/domain/repository"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) repository.Store

// Run exercises the full Store contract against the given backend.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Projects", func(t *testing.T) { testProjects(t, newStore(t)) })
	t.Run("Entries", func(t *testing.T) { testEntries(t, newStore(t)) })
	t.Run("EntryOrdering", func(t *testing.T) { testEntryOrdering(t, newStore(t)) })
	t.Run("EntryCap", func(t *testing.T) { testEntryCap(t, newStore(t)) })
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "alice@example.com", "hash-a", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if u.Role != entity.RoleEmployee {
		t.Errorf("default role = %q, want %q", u.Role, entity.RoleEmployee)
	}

	if _, err := s.CreateUser(ctx, "alice@example.com", "hash-b", ""); !errors.Is(err, errs.ErrConflict) {
		t.Errorf("duplicate username: err = %v, want ErrConflict", err)
	}

	admin, err := s.CreateUser(ctx, "boss@example.com", "hash-c", entity.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateUser admin: %v", err)
	}
	if !admin.IsAdmin() {
		t.Errorf("admin role not preserved: %q", admin.Role)
	}

	got, err := s.GetUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "alice@example.com" || got.Password != "hash-a" {
		t.Errorf("GetUser = %+v", got)
	}

	byName, err := s.GetUserByUsername(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if byName.ID != u.ID {
		t.Errorf("GetUserByUsername id = %d, want %d", byName.ID, u.ID)
	}

	if _, err := s.GetUser(ctx, u.ID+1000); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing user: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing username: err = %v, want ErrNotFound", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Errorf("ListUsers len = %d, want 2", len(users))
	}
}

func testProjects(t *testing.T, s repository.Store) {
	ctx := context.Background()

	p1, err := s.CreateProject(ctx, "Internal R&D")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if !p1.IsActive {
		t.Error("new project not active")
	}

	// Idempotent by name: second create must not duplicate.
	p2, err := s.CreateProject(ctx, "Internal R&D")
	if err != nil {
		t.Fatalf("CreateProject again: %v", err)
	}
	if p2.ID != p1.ID {
		t.Errorf("duplicate create returned new id %d, want %d", p2.ID, p1.ID)
	}

	if _, err := s.CreateProject(ctx, "Client A"); err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	active, err := s.ListActiveProjects(ctx)
	if err != nil {
		t.Fatalf("ListActiveProjects: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("active projects = %d, want 2", len(active))
	}

	all, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all projects = %d, want 2", len(all))
	}
}

func testEntries(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "carol@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p, err := s.CreateProject(ctx, "Marketing")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	// Dangling project reference must fail and leave no row behind.
	if _, err := s.CreateEntry(ctx, u.ID, p.ID+1000, "2024-01-01", entity.FullDay); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("dangling project: err = %v, want ErrNotFound", err)
	}
	if got, _ := s.ListEntriesForUser(ctx, u.ID); len(got) != 0 {
		t.Errorf("entries after failed create = %d, want 0", len(got))
	}

	e, err := s.CreateEntry(ctx, u.ID, p.ID, "2024-01-01", entity.HalfDay)
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if e.ID == 0 || e.CreatedAt.IsZero() {
		t.Errorf("entry missing server-assigned fields: %+v", e)
	}

	// Round-trip: the re-fetched entry carries exactly what was submitted.
	entries, err := s.ListEntriesForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListEntriesForUser: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.UserID != u.ID || got.ProjectID != p.ID || got.Date != "2024-01-01" || got.TimeSpent != entity.HalfDay {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Project == nil || got.Project.Name != "Marketing" {
		t.Errorf("project join missing: %+v", got.Project)
	}

	all, err := s.ListAllEntries(ctx)
	if err != nil {
		t.Fatalf("ListAllEntries: %v", err)
	}
	if len(all) != 1 || all[0].User == nil || all[0].User.Username != "carol@example.com" {
		t.Errorf("user join missing: %+v", all)
	}

	byDate, err := s.ListEntriesForUserAndDate(ctx, u.ID, "2024-01-01")
	if err != nil {
		t.Fatalf("ListEntriesForUserAndDate: %v", err)
	}
	if len(byDate) != 1 || byDate[0].TimeSpent != entity.HalfDay {
		t.Errorf("by-date listing = %+v", byDate)
	}
	if byDate, _ = s.ListEntriesForUserAndDate(ctx, u.ID, "2024-01-02"); len(byDate) != 0 {
		t.Errorf("by-date listing for empty day = %+v", byDate)
	}
}

func testEntryOrdering(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "dave@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p, err := s.CreateProject(ctx, "Client B")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	// Oldest date first on purpose; listing must come back date-descending
	// with same-date entries ordered newest creation first.
	dates := []string{"2024-01-01", "2024-01-03", "2024-01-02", "2024-01-03"}
	for _, d := range dates {
		if _, err := s.CreateEntry(ctx, u.ID, p.ID, d, entity.HalfDay); err != nil {
			t.Fatalf("CreateEntry %s: %v", d, err)
		}
	}

	entries, err := s.ListEntriesForUser(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListEntriesForUser: %v", err)
	}
	wantDates := []string{"2024-01-03", "2024-01-03", "2024-01-02", "2024-01-01"}
	if len(entries) != len(wantDates) {
		t.Fatalf("entries = %d, want %d", len(entries), len(wantDates))
	}
	for i, want := range wantDates {
		if entries[i].Date != want {
			t.Errorf("entries[%d].Date = %s, want %s", i, entries[i].Date, want)
		}
	}
	// The two 2024-01-03 rows: later creation wins the tie.
	if entries[0].CreatedAt.Before(entries[1].CreatedAt) {
		t.Error("same-date entries not ordered by creation time descending")
	}
}

func testEntryCap(t *testing.T, s repository.Store) {
	ctx := context.Background()

	u, err := s.CreateUser(ctx, "erin@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	p, err := s.CreateProject(ctx, "Client A")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	if _, err := s.CreateEntry(ctx, u.ID, p.ID, "2024-02-01", entity.FullDay); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}

	_, err = s.CreateEntry(ctx, u.ID, p.ID, "2024-02-01", entity.HalfDay)
	var capErr *errs.CapacityError
	if !errors.As(err, &capErr) {
		t.Fatalf("over-cap create: err = %v, want CapacityError", err)
	}
	if capErr.Current != entity.FullDay || capErr.Date != "2024-02-01" {
		t.Errorf("CapacityError = %+v", capErr)
	}

	// Store total unchanged after the rejection.
	entries, _ := s.ListEntriesForUserAndDate(ctx, u.ID, "2024-02-01")
	var total float64
	for _, e := range entries {
		total += e.TimeSpent
	}
	if total != entity.FullDay {
		t.Errorf("total after rejection = %g, want %g", total, entity.FullDay)
	}

	// A different date is unaffected by the cap.
	if _, err := s.CreateEntry(ctx, u.ID, p.ID, "2024-02-02", entity.FullDay); err != nil {
		t.Errorf("CreateEntry other date: %v", err)
	}
}
