package repository

import (
	"context"

	"github.com/daylog-hq/daylog/internal/domain/entity"
)

// Store is the persistence contract for users, projects, and time entries.
// Two implementations exist: a durable Postgres store and a volatile
// in-memory store, selected at startup by configuration presence. Both must
// be observably identical for every call given identical prior calls; the
// storetest package enforces that.
type Store interface {
	GetUser(ctx context.Context, id int64) (*entity.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entity.User, error)
	// CreateUser stores a new user with an already-hashed password. Role
	// defaults to employee when empty. Returns errs.ErrConflict when the
	// username is taken.
	CreateUser(ctx context.Context, username, passwordHash, role string) (*entity.User, error)
	ListUsers(ctx context.Context) ([]entity.User, error)

	// ListActiveProjects returns active projects in stable id order.
	ListActiveProjects(ctx context.Context) ([]entity.Project, error)
	// ListProjects returns every project, active or not, for admin display.
	ListProjects(ctx context.Context) ([]entity.Project, error)
	// CreateProject is idempotent by name: creating an existing name
	// reactivates the project instead of duplicating it.
	CreateProject(ctx context.Context, name string) (*entity.Project, error)

	// ListEntriesForUser returns the user's entries joined with their
	// project, ordered by date descending then creation time descending.
	ListEntriesForUser(ctx context.Context, userID int64) ([]entity.TimeEntry, error)
	// ListAllEntries returns every entry joined with user and project, same
	// ordering as ListEntriesForUser.
	ListAllEntries(ctx context.Context) ([]entity.TimeEntry, error)
	// ListEntriesForUserAndDate returns the user's entries on one calendar
	// date, unordered. Input to the admission check.
	ListEntriesForUserAndDate(ctx context.Context, userID int64, date string) ([]entity.TimeEntry, error)
	// CreateEntry persists a new entry, assigning id and creation timestamp.
	// Returns errs.ErrNotFound when projectID references no project, and
	// *errs.CapacityError when the daily cap would be exceeded. The cap
	// check and the insert happen under a per-(user,date) serialization
	// point, so concurrent admissions cannot both win.
	CreateEntry(ctx context.Context, userID, projectID int64, date string, timeSpent float64) (*entity.TimeEntry, error)

	Close()
}
