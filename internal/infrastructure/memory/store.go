// Package memory holds the volatile repository.Store used when no database
// is configured (local development, tests). A single mutex guards all maps;
// it doubles as the per-(user,date) serialization point for the daily cap,
// since this backend has no transactional isolation of its own.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/internal/domain/repository"
)

type Store struct {
	mu sync.Mutex

	users    map[int64]*entity.User
	projects map[int64]*entity.Project
	entries  map[int64]*entity.TimeEntry

	nextUserID    int64
	nextProjectID int64
	nextEntryID   int64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]*entity.User),
		projects: make(map[int64]*entity.Project),
		entries:  make(map[int64]*entity.TimeEntry),
	}
}

func (s *Store) Close() {}

func (s *Store) GetUser(_ context.Context, id int64) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (s *Store) CreateUser(_ context.Context, username, passwordHash, role string) (*entity.User, error) {
	if role == "" {
		role = entity.RoleEmployee
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username {
			return nil, errs.ErrConflict
		}
	}
	s.nextUserID++
	u := &entity.User{ID: s.nextUserID, Username: username, Password: passwordHash, Role: role}
	s.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(_ context.Context) ([]entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]entity.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) ListActiveProjects(_ context.Context) ([]entity.Project, error) {
	return s.listProjects(true), nil
}

func (s *Store) ListProjects(_ context.Context) ([]entity.Project, error) {
	return s.listProjects(false), nil
}

func (s *Store) listProjects(activeOnly bool) []entity.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	projects := make([]entity.Project, 0, len(s.projects))
	for _, p := range s.projects {
		if activeOnly && !p.IsActive {
			continue
		}
		projects = append(projects, *p)
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].ID < projects[j].ID })
	return projects
}

func (s *Store) CreateProject(_ context.Context, name string) (*entity.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.projects {
		if p.Name == name {
			p.IsActive = true
			cp := *p
			return &cp, nil
		}
	}
	s.nextProjectID++
	p := &entity.Project{ID: s.nextProjectID, Name: name, IsActive: true}
	s.projects[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *Store) ListEntriesForUser(_ context.Context, userID int64) ([]entity.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []entity.TimeEntry{}
	for _, e := range s.entries {
		if e.UserID != userID {
			continue
		}
		cp := *e
		if p, ok := s.projects[e.ProjectID]; ok {
			pc := *p
			cp.Project = &pc
		}
		entries = append(entries, cp)
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) ListAllEntries(_ context.Context) ([]entity.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []entity.TimeEntry{}
	for _, e := range s.entries {
		cp := *e
		if u, ok := s.users[e.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		if p, ok := s.projects[e.ProjectID]; ok {
			pc := *p
			cp.Project = &pc
		}
		entries = append(entries, cp)
	}
	sortEntries(entries)
	return entries, nil
}

func (s *Store) ListEntriesForUserAndDate(_ context.Context, userID int64, date string) ([]entity.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []entity.TimeEntry{}
	for _, e := range s.entries {
		if e.UserID == userID && e.Date == date {
			entries = append(entries, *e)
		}
	}
	return entries, nil
}

// CreateEntry performs the cap check and the insert under the store mutex,
// mirroring the advisory-lock discipline of the Postgres backend.
func (s *Store) CreateEntry(_ context.Context, userID, projectID int64, date string, timeSpent float64) (*entity.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[projectID]; !ok {
		return nil, errs.ErrNotFound
	}

	var current float64
	for _, e := range s.entries {
		if e.UserID == userID && e.Date == date {
			current += e.TimeSpent
		}
	}
	if current+timeSpent > entity.MaxDailyTime {
		return nil, &errs.CapacityError{Date: date, Current: current, Requested: timeSpent}
	}

	s.nextEntryID++
	e := &entity.TimeEntry{
		ID:        s.nextEntryID,
		UserID:    userID,
		ProjectID: projectID,
		Date:      date,
		TimeSpent: timeSpent,
		CreatedAt: time.Now().UTC(),
	}
	s.entries[e.ID] = e
	cp := *e
	return &cp, nil
}

// sortEntries matches the Postgres ordering: date desc, created_at desc,
// id desc as the final tiebreak so the order stays stable within the same
// timestamp granularity.
func sortEntries(entries []entity.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

var _ repository.Store = (*Store)(nil)
