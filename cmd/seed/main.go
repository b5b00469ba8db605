package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/daylog-hq/daylog/config"
	"github.com/daylog-hq/daylog/internal/application"
	"github.com/daylog-hq/daylog/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	if !cfg.UsePostgres() {
		log.Fatal("DATABASE_URL not set; the in-memory store seeds itself at server start")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	username := "admin@example.com"
	password := "changeme-admin"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var id int64
	err = db.QueryRow(`
		INSERT INTO users (username, password, role)
		VALUES ($1, $2, 'admin')
		ON CONFLICT (username) DO UPDATE SET role='admin'
		RETURNING id
	`, username, hash).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%d username=%s password=%s\n", id, username, password)

	// Ensure the base project list exists
	for _, name := range application.DefaultProjects {
		var pid int64
		if err := db.QueryRow(`
			INSERT INTO projects (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET is_active = TRUE
			RETURNING id
		`, name).Scan(&pid); err != nil {
			log.Fatalf("failed to seed project %q: %v", name, err)
		}
		fmt.Printf("project ensured: id=%d name=%s\n", pid, name)
	}
}
