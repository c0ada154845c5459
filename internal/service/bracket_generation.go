package service

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/utils"
)

// SeedingPolicy orders the frozen participant list before slot assignment.
// The builder itself is order-preserving; whatever comes out of the policy is
// what gets paired.
type SeedingPolicy func([]bracket.Participant) []bracket.Participant

// SeedByRegistration keeps registration order.
func SeedByRegistration(participants []bracket.Participant) []bracket.Participant {
	out := make([]bracket.Participant, len(participants))
	copy(out, participants)
	return out
}

// SeedByRating puts the strongest teams first, ties broken by registration order.
func SeedByRating(participants []bracket.Participant) []bracket.Participant {
	out := make([]bracket.Participant, len(participants))
	copy(out, participants)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	return out
}

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func calcBracketSize(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

// GenerateSingleElimBracket builds the complete single-elimination tree for an
// already-seeded participant list. Round 1 match i takes participants 2i and
// 2i+1; a match left with a single occupant is a bye and is finalized on the
// spot, its winner cascading into the parent slot (which may itself bye
// through). Given the same ordered input the topology and seeding come out
// identical every time.
func GenerateSingleElimBracket(tournamentID uuid.UUID, participants []bracket.Participant) []bracket.Match {
	var matches []bracket.Match

	bracketSize := calcBracketSize(len(participants))
	totalRounds := int(math.Log2(float64(bracketSize)))

	nextRoundMatchIDs := make(map[int]uuid.UUID)

	// Significantly easier to start from the last round and work backwards
	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := int(math.Pow(2, float64(totalRounds-r)))
		currentRoundMatchIDs := make(map[int]uuid.UUID)

		for i := 0; i < matchesInCurrentRound; i++ {
			matchID := uuid.New()
			matchOrder := i + 1

			m := bracket.Match{
				ID:           matchID,
				TournamentID: tournamentID,
				RoundNumber:  r,
				MatchOrder:   matchOrder,
				Status:       bracket.MatchPending,
			}

			if r < totalRounds {
				parentMatchOrder := (matchOrder + 1) / 2
				parentID := nextRoundMatchIDs[parentMatchOrder]

				m.NextMatchID = &parentID

				if matchOrder%2 != 0 {
					m.NextSlot = utils.Ptr(1)
				} else {
					m.NextSlot = utils.Ptr(2)
				}
			}

			matches = append(matches, m)
			currentRoundMatchIDs[matchOrder] = matchID
		}
		nextRoundMatchIDs = currentRoundMatchIDs
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].RoundNumber != matches[j].RoundNumber {
			return matches[i].RoundNumber < matches[j].RoundNumber
		}
		return matches[i].MatchOrder < matches[j].MatchOrder
	})

	byID := make(map[uuid.UUID]*bracket.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}
	feeders := make(map[uuid.UUID]map[int]*bracket.Match)
	for i := range matches {
		m := &matches[i]
		if m.NextMatchID == nil {
			continue
		}
		if feeders[*m.NextMatchID] == nil {
			feeders[*m.NextMatchID] = make(map[int]*bracket.Match, 2)
		}
		feeders[*m.NextMatchID][*m.NextSlot] = m
	}

	// Fill round 1: slot i pairs participants 2i and 2i+1.
	for i := range matches {
		m := &matches[i]
		if m.RoundNumber != 1 {
			continue
		}
		first := 2 * (m.MatchOrder - 1)
		second := first + 1
		if first < len(participants) {
			m.Slot1ID = utils.Ptr(participants[first].ID)
		}
		if second < len(participants) {
			m.Slot2ID = utils.Ptr(participants[second].ID)
		}
	}

	var resolveBye func(m *bracket.Match)
	resolveBye = func(m *bracket.Match) {
		if m.Finalized() {
			return
		}
		if m.Slot1ID != nil && m.Slot2ID != nil {
			return
		}
		// An empty slot only counts as a bye once nothing can feed it anymore.
		if feederPending(feeders, m, 1) || feederPending(feeders, m, 2) {
			return
		}

		m.IsBye = true
		m.Status = bracket.MatchFinalized
		if m.Slot1ID != nil {
			m.WinnerID = m.Slot1ID
		} else if m.Slot2ID != nil {
			m.WinnerID = m.Slot2ID
		}

		if m.NextMatchID == nil {
			return
		}
		parent := byID[*m.NextMatchID]
		if m.WinnerID != nil {
			if *m.NextSlot == 1 {
				parent.Slot1ID = m.WinnerID
			} else {
				parent.Slot2ID = m.WinnerID
			}
		}
		resolveBye(parent)
	}

	for i := range matches {
		if matches[i].RoundNumber == 1 {
			resolveBye(&matches[i])
		}
	}

	return matches
}

func feederPending(feeders map[uuid.UUID]map[int]*bracket.Match, m *bracket.Match, slot int) bool {
	if slot == 1 && m.Slot1ID != nil {
		return false
	}
	if slot == 2 && m.Slot2ID != nil {
		return false
	}
	f := feeders[m.ID][slot]
	return f != nil && !f.Finalized()
}
