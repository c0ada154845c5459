package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending   MatchStatus = "pending"
	MatchFinalized MatchStatus = "finalized"
)

// VoteOutcome is the result of a single reportResult call. Conflict is a valid
// protocol outcome, not an error: both votes are withdrawn and both captains
// must re-submit.
type VoteOutcome string

const (
	VoteAwaitingOpponent VoteOutcome = "awaiting_opponent"
	VoteConflict         VoteOutcome = "conflict"
	VoteFinalized        VoteOutcome = "finalized"
)

type Match struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`

	// Position in the tree for reconstructing the view
	RoundNumber int `db:"round_number"`
	MatchOrder  int `db:"match_order"`

	Slot1ID *uuid.UUID `db:"slot_1_id"`
	Slot2ID *uuid.UUID `db:"slot_2_id"`

	Slot1Vote *uuid.UUID `db:"slot_1_vote"`
	Slot2Vote *uuid.UUID `db:"slot_2_vote"`

	WinnerID *uuid.UUID `db:"winner_id"`

	NextMatchID *uuid.UUID `db:"next_match_id"`
	NextSlot    *int       `db:"next_slot"`

	IsBye  bool        `db:"is_bye"`
	Status MatchStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
}

// SlotOf returns 1 or 2 if the participant occupies that slot, 0 otherwise.
func (m *Match) SlotOf(participantID uuid.UUID) int {
	if m.Slot1ID != nil && *m.Slot1ID == participantID {
		return 1
	}
	if m.Slot2ID != nil && *m.Slot2ID == participantID {
		return 2
	}
	return 0
}

func (m *Match) Finalized() bool {
	return m.Status == MatchFinalized
}
