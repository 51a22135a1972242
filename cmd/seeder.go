package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

type seedUser struct {
	Email string
	Role  internal.Role
}

type seedTask struct {
	Title       string
	Description string
	Priority    string
	Status      string
	Creator     string
	Assignee    string
}

var seedUsers = []seedUser{
	{"admin@example.com", internal.RoleAdmin},
	{"manager@example.com", internal.RoleManager},
	{"employee@example.com", internal.RoleEmployee},
}

var seedTasks = []seedTask{
	{"Sprint planen", "Ziele und Kapazitaet fuer den naechsten Sprint festlegen", "high", "in_progress", "manager@example.com", "manager@example.com"},
	{"Login-Seite testen", "Fehlermeldungen bei falschem Passwort pruefen", "medium", "in_progress", "manager@example.com", "employee@example.com"},
	{"Rechnung hochladen", "PDF der Hosting-Rechnung anhaengen", "low", "later", "employee@example.com", "employee@example.com"},
	{"Datenbank-Backup pruefen", "", "high", "done", "admin@example.com", "manager@example.com"},
	{"Onboarding-Dokument schreiben", "Erste Schritte fuer neue Kolleginnen und Kollegen", "medium", "later", "manager@example.com", "employee@example.com"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users and tasks for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if err := runSeed(context.Background(), db, cfg.Security.BCryptCost, clearData); err != nil {
			log.Fatalf("seed failed: %v", err)
		}
	},
}

func runSeed(ctx context.Context, db *sqlx.DB, cost int, clear bool) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if clear {
		if err := clearSeed(ctx, tx); err != nil {
			return err
		}
		fmt.Println("Cleared seeded users and tasks")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), cost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	ids := make(map[string]int64, len(seedUsers))
	for _, u := range seedUsers {
		var id int64
		err := tx.GetContext(ctx, &id, tx.Rebind(`
			INSERT INTO users (email, password_hash, role)
			VALUES (?, ?, ?)
			ON CONFLICT (email) DO NOTHING
			RETURNING id`), u.Email, string(hash), string(u.Role))
		if errors.Is(err, sql.ErrNoRows) {
			if err := tx.GetContext(ctx, &id, tx.Rebind(`SELECT id FROM users WHERE email = ?`), u.Email); err != nil {
				return fmt.Errorf("lookup user %s: %w", u.Email, err)
			}
			fmt.Println("user already exists:", u.Email)
		} else if err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		} else {
			fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
		}
		ids[u.Email] = id
	}

	for _, t := range seedTasks {
		creator, assignee := ids[t.Creator], ids[t.Assignee]

		var exists int
		err := tx.GetContext(ctx, &exists, tx.Rebind(`SELECT 1 FROM tasks WHERE title = ? AND creator_id = ?`), t.Title, creator)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("lookup task %q: %w", t.Title, err)
		}

		var description *string
		if t.Description != "" {
			description = &t.Description
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO tasks (title, description, priority, status, creator_id, assignee_id)
			VALUES (?, ?, ?, ?, ?, ?)`),
			t.Title, description, t.Priority, t.Status, creator, assignee); err != nil {
			return fmt.Errorf("insert task %q: %w", t.Title, err)
		}
		fmt.Println("Seeded task:", t.Title)
	}

	return tx.Commit()
}

func clearSeed(ctx context.Context, tx *sqlx.Tx) error {
	emails := make([]string, len(seedUsers))
	for i, u := range seedUsers {
		emails[i] = u.Email
	}
	query, args, err := sqlx.In(`DELETE FROM users WHERE email IN (?)`, emails)
	if err != nil {
		return err
	}
	// tasks created by these users go with them, and their attachments too
	if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
		return fmt.Errorf("clear seed users: %w", err)
	}
	return nil
}
