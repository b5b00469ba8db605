package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/daylog-hq/daylog/internal/domain/entity"
	"github.com/daylog-hq/daylog/internal/domain/errs"
	"github.com/daylog-hq/daylog/internal/domain/repository"
)

const uniqueViolation = "23505"

// Store is the durable repository.Store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) GetUser(ctx context.Context, id int64) (*entity.User, error) {
	u := &entity.User{}
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role
		FROM users
		WHERE id = $1
	`, id)
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	u := &entity.User{}
	row := s.pool.QueryRow(ctx, `
		SELECT id, username, password, role
		FROM users
		WHERE username = $1
	`, username)
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash, role string) (*entity.User, error) {
	if role == "" {
		role = entity.RoleEmployee
	}
	u := &entity.User{Username: username, Password: passwordHash, Role: role}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, password, role)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, passwordHash, role)
	if err := row.Scan(&u.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, errs.ErrConflict
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]entity.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, username, password, role
		FROM users
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []entity.User{}
	for rows.Next() {
		var u entity.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Password, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) ListActiveProjects(ctx context.Context) ([]entity.Project, error) {
	return s.listProjects(ctx, `
		SELECT id, name, is_active
		FROM projects
		WHERE is_active
		ORDER BY id
	`)
}

func (s *Store) ListProjects(ctx context.Context) ([]entity.Project, error) {
	return s.listProjects(ctx, `
		SELECT id, name, is_active
		FROM projects
		ORDER BY id
	`)
}

func (s *Store) listProjects(ctx context.Context, query string) ([]entity.Project, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []entity.Project{}
	for rows.Next() {
		var p entity.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject upserts by name: a name collision reactivates the existing
// project instead of inserting a duplicate row.
func (s *Store) CreateProject(ctx context.Context, name string) (*entity.Project, error) {
	p := &entity.Project{}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO projects (name, is_active)
		VALUES ($1, TRUE)
		ON CONFLICT (name) DO UPDATE SET is_active = TRUE
		RETURNING id, name, is_active
	`, name)
	if err := row.Scan(&p.ID, &p.Name, &p.IsActive); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Store) ListEntriesForUser(ctx context.Context, userID int64) ([]entity.TimeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT e.id, e.user_id, e.project_id, e.date, e.time_spent::float8, e.created_at,
		       p.id, p.name, p.is_active
		FROM time_entries e
		JOIN projects p ON p.id = e.project_id
		WHERE e.user_id = $1
		ORDER BY e.date DESC, e.created_at DESC, e.id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entity.TimeEntry{}
	for rows.Next() {
		var e entity.TimeEntry
		var p entity.Project
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Date, &e.TimeSpent, &e.CreatedAt,
			&p.ID, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		e.Project = &p
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ListAllEntries(ctx context.Context) ([]entity.TimeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT e.id, e.user_id, e.project_id, e.date, e.time_spent::float8, e.created_at,
		       u.id, u.username, u.role,
		       p.id, p.name, p.is_active
		FROM time_entries e
		JOIN users u ON u.id = e.user_id
		JOIN projects p ON p.id = e.project_id
		ORDER BY e.date DESC, e.created_at DESC, e.id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entity.TimeEntry{}
	for rows.Next() {
		var e entity.TimeEntry
		var u entity.User
		var p entity.Project
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Date, &e.TimeSpent, &e.CreatedAt,
			&u.ID, &u.Username, &u.Role,
			&p.ID, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		e.User = &u
		e.Project = &p
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) ListEntriesForUserAndDate(ctx context.Context, userID int64, date string) ([]entity.TimeEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, project_id, date, time_spent::float8, created_at
		FROM time_entries
		WHERE user_id = $1 AND date = $2
	`, userID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []entity.TimeEntry{}
	for rows.Next() {
		var e entity.TimeEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Date, &e.TimeSpent, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CreateEntry inserts a new entry while holding a transaction-scoped advisory
// lock keyed on (user, date). The lock serializes the sum-then-insert against
// concurrent admissions for the same user and day, so the daily cap holds no
// matter how many requests race.
func (s *Store) CreateEntry(ctx context.Context, userID, projectID int64, date string, timeSpent float64) (*entity.TimeEntry, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		SELECT pg_advisory_xact_lock(hashtextextended($1::text || ':' || $2, 0))
	`, userID, date); err != nil {
		return nil, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)
	`, projectID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.ErrNotFound
	}

	var current float64
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(time_spent), 0)::float8
		FROM time_entries
		WHERE user_id = $1 AND date = $2
	`, userID, date).Scan(&current); err != nil {
		return nil, err
	}
	if current+timeSpent > entity.MaxDailyTime {
		return nil, &errs.CapacityError{Date: date, Current: current, Requested: timeSpent}
	}

	e := &entity.TimeEntry{UserID: userID, ProjectID: projectID, Date: date, TimeSpent: timeSpent}
	if err := tx.QueryRow(ctx, `
		INSERT INTO time_entries (user_id, project_id, date, time_spent)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, userID, projectID, date, timeSpent).Scan(&e.ID, &e.CreatedAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return e, nil
}

var _ repository.Store = (*Store)(nil)
