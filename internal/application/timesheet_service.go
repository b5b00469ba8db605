package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/internal/domain/repository"
	"github.com/daylog-hq/daylog/pkg/helpers"
	"github.com/daylog-hq/daylog/pkg/sheets"
)

// Mirror is the spreadsheet-backed copy of the entry log. Both methods are
// best effort from the core's point of view: refresh failures fall back to
// cached data, append failures are logged and dropped.
type Mirror interface {
	ListProjectNames(ctx context.Context) ([]string, error)
	AppendEntry(ctx context.Context, row sheets.EntryRow) error
}

// DefaultProjects are seeded when the project table is empty at startup.
var DefaultProjects = []string{"Internal R&D", "Client A", "Client B", "Marketing"}

// TimesheetService owns entry admission and project listing. Mirror and
// MirrorPub are both optional; when MirrorPub is set, mirrored entries go
// through the queue (a worker appends them), otherwise a detached goroutine
// appends directly.
type TimesheetService struct {
	Store     repository.Store
	Mirror    Mirror
	MirrorPub *helpers.RabbitPublisher
	Logger    *logrus.Logger
}

func NewTimesheetService(store repository.Store, mirror Mirror, pub *helpers.RabbitPublisher, logger *logrus.Logger) *TimesheetService {
	return &TimesheetService{Store: store, Mirror: mirror, MirrorPub: pub, Logger: logger}
}

// AdmitEntry validates a proposed entry against the one-day-per-date cap and
// persists it. The pre-check here reads the current total so rejections carry
// the exact amount already logged; the store repeats the check under its
// per-(user,date) serialization point, which is what actually closes the
// concurrent-admission window.
func (s *TimesheetService) AdmitEntry(ctx context.Context, userID, projectID int64, date string, timeSpent float64) (*entity.TimeEntry, error) {
	if !entity.ValidTimeSpent(timeSpent) {
		return nil, &errs.ValidationError{Field: "timeSpent", Reason: "must be 0.5 or 1"}
	}
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		return nil, &errs.ValidationError{Field: "date", Reason: "must be a YYYY-MM-DD date"}
	}

	existing, err := s.Store.ListEntriesForUserAndDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	var current float64
	for _, e := range existing {
		current += e.TimeSpent
	}
	if current+timeSpent > entity.MaxDailyTime {
		return nil, &errs.CapacityError{Date: date, Current: current, Requested: timeSpent}
	}

	e, err := s.Store.CreateEntry(ctx, userID, projectID, date, timeSpent)
	if err != nil {
		return nil, err
	}
	s.notifyMirror(e)
	return e, nil
}

// EntriesForUser returns the caller's own entries, newest first, joined with
// their projects.
func (s *TimesheetService) EntriesForUser(ctx context.Context, userID int64) ([]entity.TimeEntry, error) {
	return s.Store.ListEntriesForUser(ctx, userID)
}

// ListProjects returns active projects for assignment. The mirror's project
// column is upserted first so names added in the spreadsheet show up without
// a deploy; a mirror failure never fails the read.
func (s *TimesheetService) ListProjects(ctx context.Context) ([]entity.Project, error) {
	s.refreshProjectsFromMirror(ctx)
	return s.Store.ListActiveProjects(ctx)
}

// EnsureDefaultProjects seeds the standard project list when the table is
// empty (first boot).
func (s *TimesheetService) EnsureDefaultProjects(ctx context.Context) error {
	projects, err := s.Store.ListActiveProjects(ctx)
	if err != nil {
		return err
	}
	if len(projects) > 0 {
		return nil
	}
	for _, name := range DefaultProjects {
		if _, err := s.Store.CreateProject(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *TimesheetService) refreshProjectsFromMirror(ctx context.Context) {
	if s.Mirror == nil {
		return
	}
	names, err := s.Mirror.ListProjectNames(ctx)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).Warn("mirror project refresh failed")
		}
		return
	}
	for _, name := range names {
		if _, err := s.Store.CreateProject(ctx, name); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("project", name).Warn("mirror project upsert failed")
		}
	}
}

// notifyMirror hands the new entry off without blocking the caller. The
// entry is already persisted; whatever happens here is logged and dropped.
func (s *TimesheetService) notifyMirror(e *entity.TimeEntry) {
	if s.Mirror == nil && s.MirrorPub == nil {
		return
	}
	entry := *e
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		row, err := s.mirrorRow(ctx, &entry)
		if err != nil {
			if s.Logger != nil {
				s.Logger.WithError(err).WithField("entry_id", entry.ID).Warn("mirror row build failed")
			}
			return
		}
		if s.MirrorPub != nil {
			if err := s.MirrorPub.PublishJSON(ctx, row); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithField("entry_id", entry.ID).Warn("mirror publish failed")
			}
			return
		}
		if err := s.Mirror.AppendEntry(ctx, row); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("entry_id", entry.ID).Warn("mirror append failed")
		}
	}()
}

func (s *TimesheetService) mirrorRow(ctx context.Context, e *entity.TimeEntry) (sheets.EntryRow, error) {
	u, err := s.Store.GetUser(ctx, e.UserID)
	if err != nil {
		return sheets.EntryRow{}, err
	}
	projectName := ""
	projects, err := s.Store.ListProjects(ctx)
	if err != nil {
		return sheets.EntryRow{}, err
	}
	for _, p := range projects {
		if p.ID == e.ProjectID {
			projectName = p.Name
			break
		}
	}
	return sheets.EntryRow{
		ID:          e.ID,
		Username:    u.Username,
		ProjectName: projectName,
		Date:        e.Date,
		TimeSpent:   e.TimeSpent,
		CreatedAt:   e.CreatedAt,
	}, nil
}
