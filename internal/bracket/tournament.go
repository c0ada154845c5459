package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentOpen     TournamentStatus = "open"
	TournamentOngoing  TournamentStatus = "ongoing"
	TournamentFinished TournamentStatus = "finished"
)

type Discipline string

const (
	FiveVFive Discipline = "5v5_summoners_rift"
	OneVOne   Discipline = "1v1_howling_abyss"
)

func (d Discipline) Valid() bool {
	return d == FiveVFive || d == OneVOne
}

// TeammateCount is the number of roster names required on top of the captain.
func (d Discipline) TeammateCount() int {
	if d == FiveVFive {
		return 4
	}
	return 0
}

type Tournament struct {
	ID          uuid.UUID        `db:"id"`
	OrganizerID uuid.UUID        `db:"organizer_id"`
	Name        string           `db:"name"`
	Discipline  Discipline       `db:"discipline"`
	Description string           `db:"description"`
	LocationURL *string          `db:"location_url"`
	Capacity    int              `db:"capacity"`
	Deadline    time.Time        `db:"deadline"`
	StartTime   time.Time        `db:"start_time"`
	Status      TournamentStatus `db:"status"`

	// Set once, by the advancement of the final match.
	ChampionID *uuid.UUID `db:"champion_id"`

	CreatedAt time.Time `db:"created_at"`
}
