package application

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/repository"
)

// complianceWindow is how many recent weekdays must be fully logged for a
// user to count as compliant.
const complianceWindow = 5

// EmployeeRollup is one row of the admin "by employee" view.
type EmployeeRollup struct {
	UserID               int64   `json:"userId"`
	Username             string  `json:"username"`
	TotalDays            float64 `json:"totalDays"`
	SubmissionsLast7Days int     `json:"submissionsLast7Days"`
	IsCompliant          bool    `json:"isCompliant"`
	MissingDaysCount     int     `json:"missingDaysCount"`
}

// ProjectRollup is one row of the admin "by project" view. Projects with no
// entries never appear.
type ProjectRollup struct {
	ProjectID int64   `json:"projectId"`
	Name      string  `json:"name"`
	TotalDays float64 `json:"totalDays"`
}

// EntryFilter narrows the raw admin listing. Zero values mean "no filter";
// Days limits to entries dated within the last N calendar days.
type EntryFilter struct {
	UserID    int64
	ProjectID int64
	Days      int
}

// ReportService computes read-only rollups from the full entry set. It keeps
// no state and re-reads the store on every call.
type ReportService struct {
	Store  repository.Store
	Logger *logrus.Logger
}

func NewReportService(store repository.Store, logger *logrus.Logger) *ReportService {
	return &ReportService{Store: store, Logger: logger}
}

// EmployeeRollups returns one row per known user, sorted by total days
// descending. Users with no entries still appear: zero totals and all recent
// weekdays missing.
func (s *ReportService) EmployeeRollups(ctx context.Context, now time.Time) ([]EmployeeRollup, error) {
	users, err := s.Store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.Store.ListAllEntries(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[int64][]entity.TimeEntry, len(users))
	for _, e := range entries {
		byUser[e.UserID] = append(byUser[e.UserID], e)
	}

	recentDates := lastNDates(now, 7)
	weekdays := lastWeekdays(now, complianceWindow)

	rollups := make([]EmployeeRollup, 0, len(users))
	for _, u := range users {
		userEntries := byUser[u.ID]

		var total float64
		perDate := map[string]float64{}
		recentCount := 0
		for _, e := range userEntries {
			total += e.TimeSpent
			perDate[e.Date] += e.TimeSpent
			if _, ok := recentDates[e.Date]; ok {
				recentCount++
			}
		}

		missing := 0
		for _, d := range weekdays {
			if perDate[d] < entity.FullDay {
				missing++
			}
		}

		rollups = append(rollups, EmployeeRollup{
			UserID:               u.ID,
			Username:             u.Username,
			TotalDays:            total,
			SubmissionsLast7Days: recentCount,
			IsCompliant:          missing == 0,
			MissingDaysCount:     missing,
		})
	}

	sort.SliceStable(rollups, func(i, j int) bool {
		return rollups[i].TotalDays > rollups[j].TotalDays
	})
	return rollups, nil
}

// ProjectRollups sums time per project across all entries, sorted by total
// descending.
func (s *ReportService) ProjectRollups(ctx context.Context) ([]ProjectRollup, error) {
	entries, err := s.Store.ListAllEntries(ctx)
	if err != nil {
		return nil, err
	}

	totals := map[int64]*ProjectRollup{}
	for _, e := range entries {
		r, ok := totals[e.ProjectID]
		if !ok {
			name := ""
			if e.Project != nil {
				name = e.Project.Name
			}
			r = &ProjectRollup{ProjectID: e.ProjectID, Name: name}
			totals[e.ProjectID] = r
		}
		r.TotalDays += e.TimeSpent
	}

	rollups := make([]ProjectRollup, 0, len(totals))
	for _, r := range totals {
		rollups = append(rollups, *r)
	}
	sort.SliceStable(rollups, func(i, j int) bool {
		if rollups[i].TotalDays != rollups[j].TotalDays {
			return rollups[i].TotalDays > rollups[j].TotalDays
		}
		return rollups[i].ProjectID < rollups[j].ProjectID
	})
	return rollups, nil
}

// Entries returns the raw joined entry list with the admin view's filters
// applied. Filtering narrows presentation only; the rollups above always see
// the full set.
func (s *ReportService) Entries(ctx context.Context, f EntryFilter, now time.Time) ([]entity.TimeEntry, error) {
	entries, err := s.Store.ListAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	if f.UserID == 0 && f.ProjectID == 0 && f.Days == 0 {
		return entries, nil
	}

	cutoff := ""
	if f.Days > 0 {
		// ISO dates compare correctly as strings.
		cutoff = now.AddDate(0, 0, -f.Days).Format(entity.DateLayout)
	}
	out := []entity.TimeEntry{}
	for _, e := range entries {
		if f.UserID != 0 && e.UserID != f.UserID {
			continue
		}
		if f.ProjectID != 0 && e.ProjectID != f.ProjectID {
			continue
		}
		if cutoff != "" && e.Date < cutoff {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// lastNDates returns the n calendar dates ending at now, inclusive, as a set.
func lastNDates(now time.Time, n int) map[string]struct{} {
	dates := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		dates[now.AddDate(0, 0, -i).Format(entity.DateLayout)] = struct{}{}
	}
	return dates
}

// lastWeekdays walks backward from now, skipping Saturdays and Sundays,
// until n weekdays are collected. The newest weekday comes first.
func lastWeekdays(now time.Time, n int) []string {
	out := make([]string, 0, n)
	d := now
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d.Format(entity.DateLayout))
		}
		d = d.AddDate(0, 0, -1)
	}
	return out
}
