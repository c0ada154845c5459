package types

import (
	"time"

	"github.com/google/uuid"
)

// TournamentSnapshot is the full point-in-time read of a tournament that the
// GET endpoint serves and the poll watcher diffs. Vote contents are only
// disclosed for the viewer's own slot; everyone else sees presence flags.
type TournamentSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	OrganizerID uuid.UUID  `json:"organizer_id"`
	Name        string     `json:"name"`
	Discipline  string     `json:"discipline"`
	Description string     `json:"description"`
	LocationURL string     `json:"location_url,omitempty"`
	Capacity    int        `json:"capacity"`
	Deadline    time.Time  `json:"deadline"`
	StartTime   time.Time  `json:"start_time"`
	Status      string     `json:"status"`
	ChampionID  *uuid.UUID `json:"champion_id,omitempty"`

	Participants []ParticipantView `json:"participants"`
	Matches      []MatchView       `json:"matches"`
}

type ParticipantView struct {
	ID           uuid.UUID `json:"id"`
	TeamName     string    `json:"team_name"`
	SummonerName string    `json:"summoner_name"`
	Rating       int       `json:"rating"`
	Teammates    string    `json:"teammates,omitempty"`
	Seed         int       `json:"seed"`
}

type MatchView struct {
	ID          uuid.UUID  `json:"id"`
	Round       int        `json:"round"`
	Order       int        `json:"order"`
	Slot1ID     *uuid.UUID `json:"slot_1_id,omitempty"`
	Slot2ID     *uuid.UUID `json:"slot_2_id,omitempty"`
	Slot1Voted  bool       `json:"slot_1_voted"`
	Slot2Voted  bool       `json:"slot_2_voted"`
	YourVote    *uuid.UUID `json:"your_vote,omitempty"`
	WinnerID    *uuid.UUID `json:"winner_id,omitempty"`
	NextMatchID *uuid.UUID `json:"next_match_id,omitempty"`
	IsBye       bool       `json:"is_bye"`
	Status      string     `json:"status"`
}

// FindMatch returns the match view with the given id, or nil.
func (s *TournamentSnapshot) FindMatch(id uuid.UUID) *MatchView {
	for i := range s.Matches {
		if s.Matches[i].ID == id {
			return &s.Matches[i]
		}
	}
	return nil
}
