package application

import (
	"context"
	"testing"
	"time"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/infrastructure/memory"
)

func seedReportFixture(t *testing.T) (*ReportService, *entity.User, *entity.Project, *entity.Project) {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()

	u, err := store.CreateUser(ctx, "alice@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	pa, err := store.CreateProject(ctx, "Client A")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	pb, err := store.CreateProject(ctx, "Client B")
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	return NewReportService(store, nil), u, pa, pb
}

func mustEntry(t *testing.T, s *ReportService, userID, projectID int64, date string, spent float64) {
	t.Helper()
	if _, err := s.Store.CreateEntry(context.Background(), userID, projectID, date, spent); err != nil {
		t.Fatalf("CreateEntry(%d, %d, %s, %g): %v", userID, projectID, date, spent, err)
	}
}

func TestEmployeeRollupTotals(t *testing.T) {
	svc, u, pa, pb := seedReportFixture(t)
	ctx := context.Background()

	// Mon 1.0 on A, Tue 0.5 on A + 0.5 on B.
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-01", entity.FullDay)
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-02", entity.HalfDay)
	mustEntry(t, svc, u.ID, pb.ID, "2024-01-02", entity.HalfDay)

	now := time.Date(2024, 1, 2, 18, 0, 0, 0, time.UTC)
	rollups, err := svc.EmployeeRollups(ctx, now)
	if err != nil {
		t.Fatalf("EmployeeRollups: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("rollups = %d, want 1", len(rollups))
	}
	r := rollups[0]
	if r.TotalDays != 2.0 {
		t.Errorf("TotalDays = %g, want 2.0", r.TotalDays)
	}
	if r.SubmissionsLast7Days != 3 {
		t.Errorf("SubmissionsLast7Days = %d, want 3", r.SubmissionsLast7Days)
	}

	projects, err := svc.ProjectRollups(ctx)
	if err != nil {
		t.Fatalf("ProjectRollups: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("project rollups = %d, want 2", len(projects))
	}
	if projects[0].ProjectID != pa.ID || projects[0].TotalDays != 1.5 {
		t.Errorf("projects[0] = %+v, want Client A with 1.5", projects[0])
	}
	if projects[1].ProjectID != pb.ID || projects[1].TotalDays != 0.5 {
		t.Errorf("projects[1] = %+v, want Client B with 0.5", projects[1])
	}
}

func TestEmployeeRollupCompliance(t *testing.T) {
	svc, u, pa, _ := seedReportFixture(t)

	// Today is Friday 2024-01-05. The five recent weekdays are Mon..Fri of
	// that week. Logged: Mon 1.0, Tue 1.0, Wed 0.5. Wed is short, Thu and
	// Fri are empty.
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-01", entity.FullDay)
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-02", entity.FullDay)
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-03", entity.HalfDay)

	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	rollups, err := svc.EmployeeRollups(context.Background(), now)
	if err != nil {
		t.Fatalf("EmployeeRollups: %v", err)
	}
	r := rollups[0]
	if r.IsCompliant {
		t.Error("IsCompliant = true, want false")
	}
	if r.MissingDaysCount != 3 {
		t.Errorf("MissingDaysCount = %d, want 3", r.MissingDaysCount)
	}
}

func TestEmployeeRollupHalfDaysFillADate(t *testing.T) {
	svc, u, pa, pb := seedReportFixture(t)

	// Two halves on different projects make the date fully logged.
	for _, date := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04"} {
		mustEntry(t, svc, u.ID, pa.ID, date, entity.FullDay)
	}
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-05", entity.HalfDay)
	mustEntry(t, svc, u.ID, pb.ID, "2024-01-05", entity.HalfDay)

	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	rollups, err := svc.EmployeeRollups(context.Background(), now)
	if err != nil {
		t.Fatalf("EmployeeRollups: %v", err)
	}
	r := rollups[0]
	if !r.IsCompliant {
		t.Errorf("IsCompliant = false, MissingDaysCount = %d", r.MissingDaysCount)
	}
}

func TestEmployeeRollupSkipsWeekends(t *testing.T) {
	svc, u, pa, _ := seedReportFixture(t)

	// Today is Monday 2024-01-08. The compliance window reaches back over
	// the weekend: Mon 8th, Fri 5th, Thu 4th, Wed 3rd, Tue 2nd.
	for _, date := range []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-08"} {
		mustEntry(t, svc, u.ID, pa.ID, date, entity.FullDay)
	}

	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)
	rollups, err := svc.EmployeeRollups(context.Background(), now)
	if err != nil {
		t.Fatalf("EmployeeRollups: %v", err)
	}
	if r := rollups[0]; !r.IsCompliant || r.MissingDaysCount != 0 {
		t.Errorf("rollup = %+v, want compliant", r)
	}
}

func TestEmployeeRollupIncludesZeroEntryUsers(t *testing.T) {
	svc, u, pa, _ := seedReportFixture(t)
	ctx := context.Background()

	idle, err := svc.Store.CreateUser(ctx, "bob@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-02", entity.FullDay)

	now := time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)
	rollups, err := svc.EmployeeRollups(ctx, now)
	if err != nil {
		t.Fatalf("EmployeeRollups: %v", err)
	}
	if len(rollups) != 2 {
		t.Fatalf("rollups = %d, want 2", len(rollups))
	}
	// Sorted by total days descending, so the idle user comes last.
	last := rollups[1]
	if last.UserID != idle.ID {
		t.Fatalf("rollups[1].UserID = %d, want %d", last.UserID, idle.ID)
	}
	if last.TotalDays != 0 || last.SubmissionsLast7Days != 0 {
		t.Errorf("idle totals = %+v", last)
	}
	if last.IsCompliant || last.MissingDaysCount != complianceWindow {
		t.Errorf("idle compliance = %+v, want %d missing", last, complianceWindow)
	}
}

func TestProjectRollupsSkipUnusedProjects(t *testing.T) {
	svc, u, pa, _ := seedReportFixture(t)
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-02", entity.HalfDay)

	rollups, err := svc.ProjectRollups(context.Background())
	if err != nil {
		t.Fatalf("ProjectRollups: %v", err)
	}
	if len(rollups) != 1 {
		t.Fatalf("rollups = %d, want 1 (Client B has no entries)", len(rollups))
	}
	if rollups[0].Name != "Client A" || rollups[0].TotalDays != entity.HalfDay {
		t.Errorf("rollups[0] = %+v", rollups[0])
	}
}

func TestEntriesFilter(t *testing.T) {
	svc, u, pa, pb := seedReportFixture(t)
	ctx := context.Background()

	other, err := svc.Store.CreateUser(ctx, "bob@example.com", "hash", "")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	mustEntry(t, svc, u.ID, pa.ID, "2024-01-02", entity.FullDay)
	mustEntry(t, svc, u.ID, pb.ID, "2024-01-10", entity.HalfDay)
	mustEntry(t, svc, other.ID, pa.ID, "2024-01-10", entity.FullDay)

	now := time.Date(2024, 1, 12, 12, 0, 0, 0, time.UTC)

	all, err := svc.Entries(ctx, EntryFilter{}, now)
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered = %d, want 3", len(all))
	}

	byUser, _ := svc.Entries(ctx, EntryFilter{UserID: other.ID}, now)
	if len(byUser) != 1 || byUser[0].UserID != other.ID {
		t.Errorf("by user = %+v", byUser)
	}

	byProject, _ := svc.Entries(ctx, EntryFilter{ProjectID: pb.ID}, now)
	if len(byProject) != 1 || byProject[0].ProjectID != pb.ID {
		t.Errorf("by project = %+v", byProject)
	}

	recent, _ := svc.Entries(ctx, EntryFilter{Days: 7}, now)
	if len(recent) != 2 {
		t.Errorf("last 7 days = %d entries, want 2", len(recent))
	}
	for _, e := range recent {
		if e.Date < "2024-01-05" {
			t.Errorf("entry %s predates the cutoff", e.Date)
		}
	}

	combined, _ := svc.Entries(ctx, EntryFilter{UserID: u.ID, ProjectID: pa.ID}, now)
	if len(combined) != 1 || combined[0].Date != "2024-01-02" {
		t.Errorf("combined = %+v", combined)
	}
}

func TestLastWeekdays(t *testing.T) {
	// Monday: the window reaches back across the weekend.
	got := lastWeekdays(time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), 5)
	want := []string{"2024-01-08", "2024-01-05", "2024-01-04", "2024-01-03", "2024-01-02"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("lastWeekdays = %v, want %v", got, want)
		}
	}

	// Saturday: today itself is skipped.
	got = lastWeekdays(time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC), 2)
	if got[0] != "2024-01-05" || got[1] != "2024-01-04" {
		t.Fatalf("lastWeekdays from Saturday = %v", got)
	}
}
