package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/markbates/goth/gothic"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/db"
	"github.com/pwierzba/lol-tournament-backend/internal/httputil"
	"github.com/pwierzba/lol-tournament-backend/internal/middleware"
	"github.com/pwierzba/lol-tournament-backend/internal/service"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
	"github.com/pwierzba/lol-tournament-backend/pkg/types"
)

func newRouter(sessionManager *scs.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	// Public reads: listing and snapshots need no session, but a session (if
	// present) decides which votes the snapshot discloses.
	r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn))

		tournaments, err := tournamentService.ListTournaments(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			httputil.InternalServerError(w, "Failed to list tournaments", err)
			return
		}

		summaries := make([]map[string]any, 0, len(tournaments))
		for _, t := range tournaments {
			summaries = append(summaries, map[string]any{
				"id":         t.ID,
				"name":       t.Name,
				"discipline": t.Discipline,
				"capacity":   t.Capacity,
				"deadline":   t.Deadline,
				"start_time": t.StartTime,
				"status":     t.Status,
			})
		}
		httputil.JSON(w, http.StatusOK, summaries)
	})

	r.Get("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn))

		data, err := tournamentService.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			httputil.DomainError(w, err)
			return
		}

		viewerID := uuid.Nil
		if idStr := sessionManager.GetString(r.Context(), "userID"); idStr != "" {
			if id, err := uuid.Parse(idStr); err == nil {
				viewerID = id
			}
		}

		httputil.JSON(w, http.StatusOK, service.BuildSnapshot(data, viewerID))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessionManager, store.NewUserStore(db.GetDB())))

		r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn))

			var req types.CreateTournamentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			discipline := bracket.Discipline(req.Discipline)
			if !discipline.Valid() {
				httputil.BadRequest(w, "Unknown discipline", nil)
				return
			}
			if strings.TrimSpace(req.Name) == "" {
				httputil.BadRequest(w, "Name is required", nil)
				return
			}
			if req.Capacity < 2 {
				httputil.BadRequest(w, "Capacity must be at least 2", nil)
				return
			}

			organizerID, _ := middleware.GetUserIDFromContext(r.Context())
			id, err := tournamentService.CreateTournament(r.Context(), organizerID, service.CreateTournamentInput{
				Name:        req.Name,
				Discipline:  discipline,
				Description: req.Description,
				LocationURL: req.LocationURL,
				Capacity:    req.Capacity,
				Deadline:    req.Deadline,
				StartTime:   req.StartTime,
			})
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.JSON(w, http.StatusCreated, map[string]any{"id": id})
		})

		r.Patch("/tournaments/{id}", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn))

			var req types.EditTournamentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}

			callerID, _ := middleware.GetUserIDFromContext(r.Context())
			if _, err := tournamentService.EditTournament(r.Context(), callerID, chi.URLParam(r, "id"), req); err != nil {
				httputil.DomainError(w, err)
				return
			}

			data, err := tournamentService.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, service.BuildSnapshot(data, callerID))
		})

		r.Post("/tournaments/{id}/join", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			registrationService := service.NewRegistrationService(dbConn, store.NewTournamentStore(dbConn))

			var req types.JoinTournamentRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}

			var teammates []string
			for _, name := range strings.Split(req.Teammates, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					teammates = append(teammates, trimmed)
				}
			}

			captainID, _ := middleware.GetUserIDFromContext(r.Context())
			participant, err := registrationService.Register(r.Context(), captainID, chi.URLParam(r, "id"), service.RegisterInput{
				TeamName:     req.TeamName,
				SummonerName: req.SummonerName,
				Rating:       req.Rating,
				Teammates:    teammates,
			})
			if err != nil {
				httputil.DomainError(w, err)
				return
			}

			httputil.JSON(w, http.StatusCreated, types.ParticipantView{
				ID:           participant.ID,
				TeamName:     participant.TeamName,
				SummonerName: participant.SummonerName,
				Rating:       participant.Rating,
				Teammates:    participant.Teammates,
				Seed:         participant.Seed,
			})
		})

		r.Post("/tournaments/{id}/start", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn))

			callerID, _ := middleware.GetUserIDFromContext(r.Context())
			if _, err := tournamentService.StartTournament(r.Context(), callerID, chi.URLParam(r, "id")); err != nil {
				httputil.DomainError(w, err)
				return
			}

			data, err := tournamentService.GetTournamentData(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputil.DomainError(w, err)
				return
			}
			httputil.JSON(w, http.StatusOK, service.BuildSnapshot(data, callerID))
		})

		r.Post("/tournaments/{id}/matches/{matchID}/report", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			matchService := service.NewMatchService(dbConn, store.NewTournamentStore(dbConn))

			matchID, err := uuid.Parse(chi.URLParam(r, "matchID"))
			if err != nil {
				httputil.BadRequest(w, "Invalid match ID", err)
				return
			}

			var req types.ReportResultRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			winnerID, err := uuid.Parse(req.WinnerID)
			if err != nil {
				httputil.BadRequest(w, "Invalid winner ID", err)
				return
			}

			voterID, _ := middleware.GetUserIDFromContext(r.Context())
			outcome, err := matchService.ReportResult(r.Context(), voterID, chi.URLParam(r, "id"), matchID, winnerID)
			if err != nil {
				httputil.DomainError(w, err)
				return
			}

			resp := types.ReportResultResponse{Status: string(outcome)}
			switch outcome {
			case bracket.VoteAwaitingOpponent:
				resp.Message = "Vote recorded. Waiting for opponent."
			case bracket.VoteConflict:
				resp.Message = "Both captains submitted different results. Votes have been reset."
			case bracket.VoteFinalized:
				resp.Message = "Match finished."
			}
			httputil.JSON(w, http.StatusOK, resp)
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		dbConn := db.GetDB()
		userService := service.NewUserService(dbConn, store.NewUserStore(dbConn))
		user, err := userService.FindOrCreateUserByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, "Failed to find or create user", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.JSON(w, http.StatusOK, map[string]string{"id": user.ID.String(), "username": user.Username})
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		userService := service.NewUserService(dbConn, store.NewUserStore(dbConn))

		user, err := userService.EnsureGuestUser(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to login as guest", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.JSON(w, http.StatusOK, map[string]string{"id": user.ID.String(), "username": user.Username})
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
