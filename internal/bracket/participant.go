package bracket

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a team registration. CaptainID is the user who registered it
// and the only identity allowed to vote on the team's matches. Participants are
// created while the tournament is open and never mutated or deleted afterwards.
type Participant struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`
	CaptainID    uuid.UUID `db:"captain_id"`
	TeamName     string    `db:"team_name"`

	// Captain's in-game identifier, e.g. "Faker#KR1".
	SummonerName string `db:"summoner_name"`

	// Average team MMR, 0..5000.
	Rating int `db:"rating"`

	// Comma-separated teammate names, empty for 1v1.
	Teammates string `db:"teammates"`

	// Registration order, 1-based. The default seeding ships teams into the
	// bracket in this order.
	Seed int `db:"seed"`

	CreatedAt time.Time `db:"created_at"`
}
