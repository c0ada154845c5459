package service

import (
	"github.com/google/uuid"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/utils"
	"github.com/pwierzba/lol-tournament-backend/pkg/types"
)

// BuildSnapshot renders tournament data for one viewer. Vote presence is
// public; vote content is only included for the viewer's own slot, so a
// captain never sees what the opponent submitted before resolution.
func BuildSnapshot(data *TournamentData, viewerID uuid.UUID) *types.TournamentSnapshot {
	snap := &types.TournamentSnapshot{
		ID:          data.Tournament.ID,
		OrganizerID: data.Tournament.OrganizerID,
		Name:        data.Tournament.Name,
		Discipline:  string(data.Tournament.Discipline),
		Description: data.Tournament.Description,
		LocationURL: utils.OrZero(data.Tournament.LocationURL),
		Capacity:    data.Tournament.Capacity,
		Deadline:    data.Tournament.Deadline,
		StartTime:   data.Tournament.StartTime,
		Status:      string(data.Tournament.Status),
		ChampionID:  data.Tournament.ChampionID,
	}

	var viewerParticipant *bracket.Participant
	for i := range data.Participants {
		p := &data.Participants[i]
		if viewerID != uuid.Nil && p.CaptainID == viewerID {
			viewerParticipant = p
		}
		snap.Participants = append(snap.Participants, types.ParticipantView{
			ID:           p.ID,
			TeamName:     p.TeamName,
			SummonerName: p.SummonerName,
			Rating:       p.Rating,
			Teammates:    p.Teammates,
			Seed:         p.Seed,
		})
	}

	for i := range data.Matches {
		m := &data.Matches[i]
		view := types.MatchView{
			ID:          m.ID,
			Round:       m.RoundNumber,
			Order:       m.MatchOrder,
			Slot1ID:     m.Slot1ID,
			Slot2ID:     m.Slot2ID,
			Slot1Voted:  m.Slot1Vote != nil,
			Slot2Voted:  m.Slot2Vote != nil,
			WinnerID:    m.WinnerID,
			NextMatchID: m.NextMatchID,
			IsBye:       m.IsBye,
			Status:      string(m.Status),
		}
		if viewerParticipant != nil {
			switch m.SlotOf(viewerParticipant.ID) {
			case 1:
				view.YourVote = m.Slot1Vote
			case 2:
				view.YourVote = m.Slot2Vote
			}
		}
		snap.Matches = append(snap.Matches, view)
	}

	return snap
}
