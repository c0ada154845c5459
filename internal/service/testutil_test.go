package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

func createTestUser(t *testing.T, db *sqlx.DB) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := db.Exec("INSERT INTO users (id, email, username) VALUES (?, ?, ?)",
		id, id.String()+"@test.local", "captain-"+id.String()[:8])
	require.NoError(t, err)
	return id
}

func createOpenTournament(t *testing.T, svc *TournamentService, organizerID uuid.UUID, in CreateTournamentInput) string {
	t.Helper()

	if in.Name == "" {
		in.Name = "Test Cup"
	}
	if in.Capacity == 0 {
		in.Capacity = 8
	}
	if in.Discipline == "" {
		in.Discipline = "1v1_howling_abyss"
	}
	if in.Deadline.IsZero() {
		in.Deadline = time.Now().Add(time.Hour)
	}
	if in.StartTime.IsZero() {
		in.StartTime = in.Deadline.Add(time.Hour)
	}

	id, err := svc.CreateTournament(context.Background(), organizerID, in)
	require.NoError(t, err)
	return id.String()
}
