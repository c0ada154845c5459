package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
)

// AutoStarter periodically starts open tournaments whose registration deadline
// has passed, acting on behalf of their organizers. Tournaments without enough
// teams are left open and logged.
type AutoStarter struct {
	store       *store.TournamentStore
	tournaments *TournamentService
	interval    time.Duration
	now         func() time.Time
}

func NewAutoStarter(store *store.TournamentStore, tournaments *TournamentService, interval time.Duration) *AutoStarter {
	return &AutoStarter{
		store:       store,
		tournaments: tournaments,
		interval:    interval,
		now:         time.Now,
	}
}

func (a *AutoStarter) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *AutoStarter) tick(ctx context.Context) {
	due, err := a.store.GetDueTournaments(ctx, a.now())
	if err != nil {
		slog.Error("autostart: failed to list due tournaments", "error", err)
		return
	}

	for _, t := range due {
		_, err := a.tournaments.StartTournament(ctx, t.OrganizerID, t.ID.String())
		switch {
		case err == nil:
			slog.Info("autostart: tournament started", "tournament", t.ID, "name", t.Name)
		case errors.Is(err, bracket.ErrInsufficientParticipants):
			slog.Warn("autostart: not enough teams, leaving open", "tournament", t.ID)
		default:
			slog.Error("autostart: failed to start tournament", "tournament", t.ID, "error", err)
		}
	}
}
