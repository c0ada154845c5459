package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/pwierzba/lol-tournament-backend/internal/db"
	"github.com/pwierzba/lol-tournament-backend/internal/middleware"
	"github.com/pwierzba/lol-tournament-backend/internal/service"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "lol_tournament.db"
	}

	database := db.InitDB(dbPath)
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tournamentStore := store.NewTournamentStore(database)
	autoStarter := service.NewAutoStarter(tournamentStore, service.NewTournamentService(database, tournamentStore), time.Minute)
	go autoStarter.Run(ctx)

	router := newRouter(sessionManager)

	log.Println("Server starting on http://localhost:8080")
	if err := http.ListenAndServe(":8080", router); err != nil {
		log.Fatal(err)
	}
}
