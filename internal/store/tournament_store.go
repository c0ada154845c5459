package store

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, organizer_id, name, discipline, description, location_url, capacity, deadline, start_time, status)
        VALUES (:id, :organizer_id, :name, :discipline, :description, :location_url, :capacity, :deadline, :start_time, :status)`, tournament)
	return err
}

func (s *TournamentStore) UpdateTournamentDetailsTx(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE tournaments SET
		name = :name,
		description = :description,
		location_url = :location_url,
		deadline = :deadline,
		start_time = :start_time
		WHERE id = :id`, tournament)
	return err
}

func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id string, status bracket.TournamentStatus) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ? WHERE id = ?", status, id)
	return err
}

// FinishTournamentTx records the champion alongside the terminal status so the
// final result lands in one write.
func (s *TournamentStore) FinishTournamentTx(ctx context.Context, tx *sqlx.Tx, id string, championID string) error {
	_, err := tx.ExecContext(ctx, "UPDATE tournaments SET status = ?, champion_id = ? WHERE id = ?",
		bracket.TournamentFinished, championID, id)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := tx.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	return &tournament, err
}

func (s *TournamentStore) SearchTournaments(ctx context.Context, search string) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	if search == "" {
		err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY created_at DESC")
		return tournaments, err
	}
	pattern := "%" + search + "%"
	err := s.db.SelectContext(ctx, &tournaments,
		"SELECT * FROM tournaments WHERE name LIKE ? OR discipline LIKE ? ORDER BY created_at DESC",
		pattern, pattern)
	return tournaments, err
}

// GetDueTournaments returns open tournaments whose registration deadline has
// passed, for the auto-start worker.
func (s *TournamentStore) GetDueTournaments(ctx context.Context, now time.Time) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments,
		"SELECT * FROM tournaments WHERE status = ? AND deadline <= ?", bracket.TournamentOpen, now)
	return tournaments, err
}

func (s *TournamentStore) CreateParticipantTx(ctx context.Context, tx *sqlx.Tx, participant *bracket.Participant) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO participants (id, tournament_id, captain_id, team_name, summoner_name, rating, teammates, seed)
        VALUES (:id, :tournament_id, :captain_id, :team_name, :summoner_name, :rating, :teammates, :seed)`, participant)
	return err
}

func (s *TournamentStore) CountParticipantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, "SELECT COUNT(*) FROM participants WHERE tournament_id = ?", tournamentID)
	return count, err
}

func (s *TournamentStore) CountDuplicateRegistrationsTx(ctx context.Context, tx *sqlx.Tx, p *bracket.Participant) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM participants WHERE tournament_id = ?
		 AND (captain_id = ? OR team_name = ? OR summoner_name = ?)`,
		p.TournamentID, p.CaptainID, p.TeamName, p.SummonerName)
	return count, err
}

func (s *TournamentStore) GetParticipants(ctx context.Context, tournamentID string) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := s.db.SelectContext(ctx, &participants,
		"SELECT * FROM participants WHERE tournament_id = ? ORDER BY seed ASC", tournamentID)
	return participants, err
}

func (s *TournamentStore) GetParticipantsTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) ([]bracket.Participant, error) {
	var participants []bracket.Participant
	err := tx.SelectContext(ctx, &participants,
		"SELECT * FROM participants WHERE tournament_id = ? ORDER BY seed ASC", tournamentID)
	return participants, err
}

func (s *TournamentStore) GetParticipantByCaptainTx(ctx context.Context, tx *sqlx.Tx, tournamentID, captainID string) (*bracket.Participant, error) {
	var participant bracket.Participant
	err := tx.GetContext(ctx, &participant,
		"SELECT * FROM participants WHERE tournament_id = ? AND captain_id = ?", tournamentID, captainID)
	return &participant, err
}

func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO matches (id, tournament_id, round_number, match_order, slot_1_id, slot_2_id, slot_1_vote, slot_2_vote, winner_id, next_match_id, next_slot, is_bye, status)
		VALUES (:id, :tournament_id, :round_number, :match_order, :slot_1_id, :slot_2_id, :slot_1_vote, :slot_2_vote, :winner_id, :next_match_id, :next_slot, :is_bye, :status)`, matches)
	return err
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID string) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches,
		"SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_order ASC", tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatch(ctx context.Context, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := s.db.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	return &match, err
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id string) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match, "SELECT * FROM matches WHERE id = ?", id)
	return &match, err
}

// GetFeederMatchTx returns the match whose winner feeds the given slot of the
// given match, if any.
func (s *TournamentStore) GetFeederMatchTx(ctx context.Context, tx *sqlx.Tx, matchID string, slot int) (*bracket.Match, error) {
	var match bracket.Match
	err := tx.GetContext(ctx, &match,
		"SELECT * FROM matches WHERE next_match_id = ? AND next_slot = ?", matchID, slot)
	return &match, err
}

// UpdateMatchTx writes the consensus columns only. Slot placement and bye
// resolution have their own targeted writes, so a vote landing on a match
// never clobbers a winner a feeder is placing into it concurrently.
func (s *TournamentStore) UpdateMatchTx(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) error {
	_, err := tx.NamedExecContext(ctx, `UPDATE matches SET
		slot_1_vote = :slot_1_vote,
		slot_2_vote = :slot_2_vote,
		winner_id = :winner_id,
		status = :status
		WHERE id = :id`, match)
	return err
}

// PlaceWinnerTx fills one slot of a match. Only the named column is written,
// so sibling feeders resolving into the same parent cannot overwrite each
// other's placement.
func (s *TournamentStore) PlaceWinnerTx(ctx context.Context, tx *sqlx.Tx, matchID string, slot int, participantID string) error {
	column := "slot_1_id"
	if slot == 2 {
		column = "slot_2_id"
	}
	_, err := tx.ExecContext(ctx, "UPDATE matches SET "+column+" = ? WHERE id = ?", participantID, matchID)
	return err
}

func (s *TournamentStore) FinalizeByeTx(ctx context.Context, tx *sqlx.Tx, matchID string, winnerID string) error {
	_, err := tx.ExecContext(ctx, "UPDATE matches SET is_bye = 1, status = ?, winner_id = ? WHERE id = ?",
		bracket.MatchFinalized, winnerID, matchID)
	return err
}
