package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
)

const (
	minRating = 0
	maxRating = 5000
)

// Captain identifier: non-empty name, '#', 3-5 character tag (e.g. "Faker#KR1").
var summonerNameRe = regexp.MustCompile(`^.+#[A-Za-z0-9]{3,5}$`)

type RegistrationService struct {
	db    *sqlx.DB
	store *store.TournamentStore
	now   func() time.Time
}

func NewRegistrationService(db *sqlx.DB, store *store.TournamentStore) *RegistrationService {
	return &RegistrationService{db: db, store: store, now: time.Now}
}

type RegisterInput struct {
	TeamName     string
	SummonerName string
	Rating       int
	Teammates    []string
}

// Register appends a team to an open tournament. The whole check-and-insert
// runs in one transaction so a concurrent start cannot slip a registration
// into a frozen bracket.
func (s *RegistrationService) Register(ctx context.Context, captainID uuid.UUID, tournamentID string, in RegisterInput) (*bracket.Participant, error) {
	if in.Rating < minRating || in.Rating > maxRating {
		return nil, bracket.ErrInvalidRating
	}
	if strings.TrimSpace(in.TeamName) == "" {
		return nil, fmt.Errorf("%w: team name is required", bracket.ErrInvalidRoster)
	}
	if !summonerNameRe.MatchString(in.SummonerName) {
		return nil, fmt.Errorf("%w: summoner name must look like Name#TAG", bracket.ErrInvalidRoster)
	}

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

	if want := tournament.Discipline.TeammateCount(); len(in.Teammates) != want {
		return nil, fmt.Errorf("%w: discipline %s requires exactly %d teammates", bracket.ErrInvalidRoster, tournament.Discipline, want)
	}

	if tournament.Status != bracket.TournamentOpen || !s.now().Before(tournament.Deadline) {
		return nil, bracket.ErrRegistrationClosed
	}

	count, err := s.store.CountParticipantsTx(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	if count >= tournament.Capacity {
		return nil, bracket.ErrCapacityExceeded
	}

	participant := &bracket.Participant{
		ID:           uuid.New(),
		TournamentID: tournament.ID,
		CaptainID:    captainID,
		TeamName:     strings.TrimSpace(in.TeamName),
		SummonerName: in.SummonerName,
		Rating:       in.Rating,
		Teammates:    strings.Join(in.Teammates, ", "),
		Seed:         count + 1,
	}

	duplicates, err := s.store.CountDuplicateRegistrationsTx(ctx, tx, participant)
	if err != nil {
		return nil, err
	}
	if duplicates > 0 {
		return nil, bracket.ErrAlreadyRegistered
	}

	if err := s.store.CreateParticipantTx(ctx, tx, participant); err != nil {
		return nil, err
	}

	return participant, tx.Commit()
}
