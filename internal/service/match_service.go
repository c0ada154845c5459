package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
)

// matchLocks hands out one mutex per match so the read-evaluate-resolve
// sequence of ReportResult is linearizable per match. Distinct matches share
// nothing and proceed in parallel.
type matchLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (l *matchLocks) get(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.locks == nil {
		l.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// forget drops a finalized match's entry so the map does not grow with every
// match ever played. A caller still queued on the old mutex races a fresh one,
// but both can only observe the already-finalized row.
func (l *matchLocks) forget(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, id)
}

type MatchService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	locks matchLocks
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore) *MatchService {
	return &MatchService{db: db, store: store}
}

// ReportResult records one captain's claim about a match outcome. The vote
// lands in the voter's own slot (overwriting any earlier vote of theirs, never
// the opponent's). Once both slots hold votes: agreement finalizes the match
// and advances the winner, disagreement withdraws both votes and leaves the
// match pending.
func (s *MatchService) ReportResult(ctx context.Context, voterUserID uuid.UUID, tournamentID string, matchID uuid.UUID, claimedWinnerID uuid.UUID) (bracket.VoteOutcome, error) {
	lock := s.locks.get(matchID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", bracket.ErrNotFound
		}
		return "", fmt.Errorf("failed to get match: %w", err)
	}
	if match.TournamentID.String() != tournamentID {
		return "", bracket.ErrNotFound
	}

	if match.Finalized() {
		s.locks.forget(matchID)
		return "", bracket.ErrAlreadyFinalized
	}

	voter, err := s.store.GetParticipantByCaptainTx(ctx, tx, tournamentID, voterUserID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", bracket.ErrUnauthorized
		}
		return "", err
	}

	slot := match.SlotOf(voter.ID)
	if slot == 0 {
		return "", bracket.ErrUnauthorized
	}
	if match.SlotOf(claimedWinnerID) == 0 {
		return "", bracket.ErrInvalidWinner
	}

	if slot == 1 {
		match.Slot1Vote = &claimedWinnerID
	} else {
		match.Slot2Vote = &claimedWinnerID
	}

	var outcome bracket.VoteOutcome
	switch {
	case match.Slot1Vote == nil || match.Slot2Vote == nil:
		outcome = bracket.VoteAwaitingOpponent
	case *match.Slot1Vote == *match.Slot2Vote:
		winner := *match.Slot1Vote
		match.WinnerID = &winner
		match.Status = bracket.MatchFinalized
		outcome = bracket.VoteFinalized
	default:
		// Conflict: withdraw both votes, both captains must re-submit.
		match.Slot1Vote = nil
		match.Slot2Vote = nil
		outcome = bracket.VoteConflict
	}

	if err := s.store.UpdateMatchTx(ctx, tx, match); err != nil {
		return "", fmt.Errorf("failed to update match: %w", err)
	}

	if outcome == bracket.VoteFinalized {
		if err := s.advanceTx(ctx, tx, match); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	if outcome == bracket.VoteFinalized {
		s.locks.forget(matchID)
	}
	return outcome, nil
}

// advanceTx pushes a finalized match's winner into its parent slot. If the
// finalized match is the root, the tournament finishes and the winner is
// recorded as champion.
func (s *MatchService) advanceTx(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	if match.NextMatchID == nil {
		return s.store.FinishTournamentTx(ctx, tx, match.TournamentID.String(), match.WinnerID.String())
	}

	// Only the slot being placed is written. The sibling feeder may be
	// finalizing into the parent's other slot at the same time, under its own
	// match lock.
	if err := s.store.PlaceWinnerTx(ctx, tx, match.NextMatchID.String(), *match.NextSlot, match.WinnerID.String()); err != nil {
		return fmt.Errorf("failed to place winner: %w", err)
	}

	next, err := s.store.GetMatchTx(ctx, tx, match.NextMatchID.String())
	if err != nil {
		return fmt.Errorf("failed to get next match: %w", err)
	}

	// If the opposite slot can never fill (no feeder, or its feeder resolved
	// without producing a winner), the parent is a bye and resolves now.
	if next.Slot1ID == nil || next.Slot2ID == nil {
		otherSlot := 1
		if *match.NextSlot == 1 {
			otherSlot = 2
		}
		feeder, err := s.store.GetFeederMatchTx(ctx, tx, next.ID.String(), otherSlot)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if errors.Is(err, sql.ErrNoRows) || feeder.Finalized() {
			next.IsBye = true
			next.Status = bracket.MatchFinalized
			next.WinnerID = match.WinnerID
			if err := s.store.FinalizeByeTx(ctx, tx, next.ID.String(), match.WinnerID.String()); err != nil {
				return fmt.Errorf("failed to finalize bye: %w", err)
			}
		}
	}

	if next.Finalized() {
		return s.advanceTx(ctx, tx, next)
	}
	return nil
}
