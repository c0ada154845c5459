package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
	"github.com/pwierzba/lol-tournament-backend/internal/utils"
	"github.com/pwierzba/lol-tournament-backend/pkg/types"
)

type TournamentService struct {
	db      *sqlx.DB
	store   *store.TournamentStore
	seeding SeedingPolicy
}

func NewTournamentService(db *sqlx.DB, store *store.TournamentStore) *TournamentService {
	return &TournamentService{db: db, store: store, seeding: SeedByRegistration}
}

// UseSeeding swaps the seeding policy applied when a tournament starts.
func (s *TournamentService) UseSeeding(policy SeedingPolicy) {
	s.seeding = policy
}

type CreateTournamentInput struct {
	Name        string
	Discipline  bracket.Discipline
	Description string
	LocationURL string
	Capacity    int
	Deadline    time.Time
	StartTime   time.Time
}

type TournamentData struct {
	Tournament   *bracket.Tournament
	Participants []bracket.Participant
	Matches      []bracket.Match
}

func (s *TournamentService) CreateTournament(ctx context.Context, organizerID uuid.UUID, in CreateTournamentInput) (uuid.UUID, error) {
	if !in.Deadline.Before(in.StartTime) {
		return uuid.Nil, bracket.ErrInvalidSchedule
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback()

	tournament := bracket.Tournament{
		ID:          uuid.New(),
		OrganizerID: organizerID,
		Name:        in.Name,
		Discipline:  in.Discipline,
		Description: in.Description,
		LocationURL: utils.StringOrNil(in.LocationURL),
		Capacity:    in.Capacity,
		Deadline:    in.Deadline,
		StartTime:   in.StartTime,
		Status:      bracket.TournamentOpen,
	}

	if err := s.store.CreateTournament(ctx, tx, &tournament); err != nil {
		return uuid.Nil, err
	}

	return tournament.ID, tx.Commit()
}

// EditTournament applies the field-lock rules: name, description and location
// are always editable by the organizer; start time and deadline only while
// registration is open. The status check and the write share a transaction so
// a concurrent start cannot let a schedule edit through.
func (s *TournamentService) EditTournament(ctx context.Context, callerID uuid.UUID, tournamentID string, in types.EditTournamentRequest) (*bracket.Tournament, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bracket.ErrNotFound
		}
		return nil, err
	}

	if tournament.OrganizerID != callerID {
		return nil, bracket.ErrUnauthorized
	}

	locked := tournament.Status != bracket.TournamentOpen
	if in.StartTime != nil && !in.StartTime.Equal(tournament.StartTime) {
		if locked {
			return nil, fmt.Errorf("start time: %w", bracket.ErrFieldLocked)
		}
		tournament.StartTime = *in.StartTime
	}
	if in.Deadline != nil && !in.Deadline.Equal(tournament.Deadline) {
		if locked {
			return nil, fmt.Errorf("deadline: %w", bracket.ErrFieldLocked)
		}
		tournament.Deadline = *in.Deadline
	}
	if in.Name != nil {
		tournament.Name = *in.Name
	}
	if in.Description != nil {
		tournament.Description = *in.Description
	}
	if in.LocationURL != nil {
		tournament.LocationURL = utils.StringOrNil(*in.LocationURL)
	}

	if !tournament.Deadline.Before(tournament.StartTime) {
		return nil, bracket.ErrInvalidSchedule
	}

	if err := s.store.UpdateTournamentDetailsTx(ctx, tx, tournament); err != nil {
		return nil, err
	}
	return tournament, tx.Commit()
}

// StartTournament freezes the participant list and generates the bracket in a
// single transaction. Once this commits no registration can slip in: register
// re-reads the status inside its own transaction.
func (s *TournamentService) StartTournament(ctx context.Context, callerID uuid.UUID, tournamentID string) ([]bracket.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, tournamentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bracket.ErrNotFound
		}
		return nil, err
	}

	if tournament.OrganizerID != callerID {
		return nil, bracket.ErrUnauthorized
	}
	if tournament.Status != bracket.TournamentOpen {
		return nil, bracket.ErrTournamentNotOpen
	}

	participants, err := s.store.GetParticipantsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(participants) < 2 {
		return nil, bracket.ErrInsufficientParticipants
	}

	matches := GenerateSingleElimBracket(tournament.ID, s.seeding(participants))

	if err := s.store.UpdateTournamentStatusTx(ctx, tx, tournamentID, bracket.TournamentOngoing); err != nil {
		return nil, err
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, err
	}

	return matches, tx.Commit()
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id string) (*TournamentData, error) {
	tournament, err := s.store.GetTournament(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, bracket.ErrNotFound
		}
		return nil, err
	}

	participants, err := s.store.GetParticipants(ctx, id)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, id)
	if err != nil {
		return nil, err
	}

	return &TournamentData{
		Tournament:   tournament,
		Participants: participants,
		Matches:      matches,
	}, nil
}

func (s *TournamentService) ListTournaments(ctx context.Context, search string) ([]bracket.Tournament, error) {
	return s.store.SearchTournaments(ctx, search)
}
