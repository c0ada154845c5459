package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pwierzba/lol-tournament-backend/internal/bracket"
	"github.com/pwierzba/lol-tournament-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// matchFixture is a started 1v1 tournament with every captain's user ID mapped
// to their participant.
type matchFixture struct {
	tournamentID string
	store        *store.TournamentStore
	matches      *MatchService
	captains     []uuid.UUID
	participants []bracket.Participant
}

func setupStartedTournament(t *testing.T, db *sqlx.DB, teamCount int) *matchFixture {
	t.Helper()

	tournamentStore := store.NewTournamentStore(db)
	tournamentService := NewTournamentService(db, tournamentStore)
	registrationService := NewRegistrationService(db, tournamentStore)

	ctx := context.Background()
	organizerID := createTestUser(t, db)
	tournamentID := createOpenTournament(t, tournamentService, organizerID, CreateTournamentInput{
		Name:       "Consensus Cup",
		Discipline: bracket.OneVOne,
		Capacity:   teamCount,
	})

	captains := make([]uuid.UUID, 0, teamCount)
	for i := 0; i < teamCount; i++ {
		captains = append(captains, createTestUser(t, db))
	}
	participants := registerN(t, registrationService, tournamentID, captains)

	_, err := tournamentService.StartTournament(ctx, organizerID, tournamentID)
	require.NoError(t, err)

	return &matchFixture{
		tournamentID: tournamentID,
		store:        tournamentStore,
		matches:      NewMatchService(db, tournamentStore),
		captains:     captains,
		participants: participants,
	}
}

// round1Match returns the order-th round 1 match.
func (f *matchFixture) round1Match(t *testing.T, order int) bracket.Match {
	t.Helper()

	matches, err := f.store.GetMatches(context.Background(), f.tournamentID)
	require.NoError(t, err)
	for _, m := range matches {
		if m.RoundNumber == 1 && m.MatchOrder == order {
			return m
		}
	}
	t.Fatalf("no round 1 match with order %d", order)
	return bracket.Match{}
}

func (f *matchFixture) reload(t *testing.T, id uuid.UUID) bracket.Match {
	t.Helper()

	m, err := f.store.GetMatch(context.Background(), id.String())
	require.NoError(t, err)
	return *m
}

// captainOf maps a participant back to the user who registered it.
func (f *matchFixture) captainOf(t *testing.T, participantID uuid.UUID) uuid.UUID {
	t.Helper()

	for i, p := range f.participants {
		if p.ID == participantID {
			return f.captains[i]
		}
	}
	t.Fatalf("no captain for participant %s", participantID)
	return uuid.Nil
}

func TestReportResultAgreement(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := setupStartedTournament(t, db, 4)
	ctx := context.Background()
	m := f.round1Match(t, 1)

	slot1Captain := f.captainOf(t, *m.Slot1ID)
	slot2Captain := f.captainOf(t, *m.Slot2ID)

	outcome, err := f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot1ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.VoteAwaitingOpponent, outcome)

	// A captain may change their mind while the match is undecided.
	outcome, err = f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot2ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.VoteAwaitingOpponent, outcome)
	outcome, err = f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot1ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.VoteAwaitingOpponent, outcome)

	outcome, err = f.matches.ReportResult(ctx, slot2Captain, f.tournamentID, m.ID, *m.Slot1ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.VoteFinalized, outcome)

	finalized := f.reload(t, m.ID)
	require.NotNil(t, finalized.WinnerID)
	assert.Equal(t, *m.Slot1ID, *finalized.WinnerID)
	assert.Equal(t, bracket.MatchFinalized, finalized.Status)

	// The winner is waiting in the final's slot 1.
	require.NotNil(t, m.NextMatchID)
	final := f.reload(t, *m.NextMatchID)
	require.NotNil(t, final.Slot1ID)
	assert.Equal(t, *m.Slot1ID, *final.Slot1ID)
	assert.Nil(t, final.Slot2ID)

	// No more votes on a finished match.
	_, err = f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrAlreadyFinalized)
}

func TestReportResultConflict(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := setupStartedTournament(t, db, 4)
	ctx := context.Background()
	m := f.round1Match(t, 1)

	slot1Captain := f.captainOf(t, *m.Slot1ID)
	slot2Captain := f.captainOf(t, *m.Slot2ID)

	_, err := f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot1ID)
	require.NoError(t, err)

	outcome, err := f.matches.ReportResult(ctx, slot2Captain, f.tournamentID, m.ID, *m.Slot2ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.VoteConflict, outcome)

	// Both votes are withdrawn, the match is back to square one.
	cleared := f.reload(t, m.ID)
	assert.Nil(t, cleared.Slot1Vote)
	assert.Nil(t, cleared.Slot2Vote)
	assert.Nil(t, cleared.WinnerID)
	assert.Equal(t, bracket.MatchPending, cleared.Status)

	// A fresh agreeing pair of votes finalizes normally.
	_, err = f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot2ID)
	require.NoError(t, err)
	outcome, err = f.matches.ReportResult(ctx, slot2Captain, f.tournamentID, m.ID, *m.Slot2ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.VoteFinalized, outcome)
}

func TestReportResultAuthorization(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := setupStartedTournament(t, db, 4)
	ctx := context.Background()
	m1 := f.round1Match(t, 1)
	m2 := f.round1Match(t, 2)

	// A user with no team in the tournament.
	outsider := createTestUser(t, db)
	_, err := f.matches.ReportResult(ctx, outsider, f.tournamentID, m1.ID, *m1.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrUnauthorized)

	// A captain voting on someone else's match.
	otherCaptain := f.captainOf(t, *m2.Slot1ID)
	_, err = f.matches.ReportResult(ctx, otherCaptain, f.tournamentID, m1.ID, *m1.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrUnauthorized)

	// Naming a winner that is not one of the match occupants.
	slot1Captain := f.captainOf(t, *m1.Slot1ID)
	_, err = f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m1.ID, *m2.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrInvalidWinner)

	// Unknown match, and a match ID from a different tournament path.
	_, err = f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, uuid.New(), *m1.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrNotFound)
	_, err = f.matches.ReportResult(ctx, slot1Captain, uuid.NewString(), m1.ID, *m1.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

// agree has both occupants of a match vote for the same winner.
func (f *matchFixture) agree(t *testing.T, m bracket.Match, winnerID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := f.matches.ReportResult(ctx, f.captainOf(t, *m.Slot1ID), f.tournamentID, m.ID, winnerID)
	require.NoError(t, err)
	outcome, err := f.matches.ReportResult(ctx, f.captainOf(t, *m.Slot2ID), f.tournamentID, m.ID, winnerID)
	require.NoError(t, err)
	require.Equal(t, bracket.VoteFinalized, outcome)
}

func TestTournamentCompletion(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := setupStartedTournament(t, db, 4)
	ctx := context.Background()

	m1 := f.round1Match(t, 1)
	m2 := f.round1Match(t, 2)

	// Teams A and B meet in match 1, C and D in match 2. A wins cleanly; the
	// second match conflicts first, then settles on C.
	f.agree(t, m1, *m1.Slot1ID)

	_, err := f.matches.ReportResult(ctx, f.captainOf(t, *m2.Slot1ID), f.tournamentID, m2.ID, *m2.Slot1ID)
	require.NoError(t, err)
	outcome, err := f.matches.ReportResult(ctx, f.captainOf(t, *m2.Slot2ID), f.tournamentID, m2.ID, *m2.Slot2ID)
	require.NoError(t, err)
	require.Equal(t, bracket.VoteConflict, outcome)
	f.agree(t, m2, *m2.Slot1ID)

	require.NotNil(t, m1.NextMatchID)
	final := f.reload(t, *m1.NextMatchID)
	require.NotNil(t, final.Slot1ID)
	require.NotNil(t, final.Slot2ID)
	assert.Equal(t, *m1.Slot1ID, *final.Slot1ID)
	assert.Equal(t, *m2.Slot1ID, *final.Slot2ID)

	f.agree(t, final, *final.Slot1ID)

	tournament, err := f.store.GetTournament(ctx, f.tournamentID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentFinished, tournament.Status)
	require.NotNil(t, tournament.ChampionID)
	assert.Equal(t, *m1.Slot1ID, *tournament.ChampionID)
}

func TestRuntimeByeAdvance(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	// Three teams: match 1 is real, match 2 is a build-time bye that already
	// put team 3 into the final. Deciding match 1 must fill the final's other
	// slot without touching the bye.
	f := setupStartedTournament(t, db, 3)

	m1 := f.round1Match(t, 1)
	bye := f.round1Match(t, 2)
	require.True(t, bye.IsBye)
	require.True(t, bye.Finalized())

	f.agree(t, m1, *m1.Slot2ID)

	require.NotNil(t, m1.NextMatchID)
	final := f.reload(t, *m1.NextMatchID)
	require.NotNil(t, final.Slot1ID)
	require.NotNil(t, final.Slot2ID)
	assert.Equal(t, *m1.Slot2ID, *final.Slot1ID)
	assert.Equal(t, *bye.Slot1ID, *final.Slot2ID)
	assert.False(t, final.Finalized())

	f.agree(t, final, *final.Slot2ID)

	tournament, err := f.store.GetTournament(context.Background(), f.tournamentID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentFinished, tournament.Status)
	require.NotNil(t, tournament.ChampionID)
	assert.Equal(t, *bye.Slot1ID, *tournament.ChampionID)
}

func TestReportResultConcurrentVotes(t *testing.T) {
	for i := 0; i < 20; i++ {
		db := setupTestDB(t)
		// Each pooled connection gets its own in-memory database, so
		// concurrent transactions must share one connection.
		db.SetMaxOpenConns(1)

		f := setupStartedTournament(t, db, 4)
		ctx := context.Background()
		m := f.round1Match(t, 1)

		captains := []uuid.UUID{f.captainOf(t, *m.Slot1ID), f.captainOf(t, *m.Slot2ID)}
		outcomes := make(chan bracket.VoteOutcome, len(captains))

		var wg sync.WaitGroup
		for _, captain := range captains {
			wg.Add(1)
			go func(captain uuid.UUID) {
				defer wg.Done()
				outcome, err := f.matches.ReportResult(ctx, captain, f.tournamentID, m.ID, *m.Slot1ID)
				assert.NoError(t, err)
				outcomes <- outcome
			}(captain)
		}
		wg.Wait()
		close(outcomes)

		// Whatever the interleaving, exactly one call sees a half-voted match
		// and exactly one resolves it.
		var got []bracket.VoteOutcome
		for outcome := range outcomes {
			got = append(got, outcome)
		}
		assert.ElementsMatch(t, []bracket.VoteOutcome{bracket.VoteAwaitingOpponent, bracket.VoteFinalized}, got)

		finalized := f.reload(t, m.ID)
		require.NotNil(t, finalized.WinnerID)
		assert.Equal(t, *m.Slot1ID, *finalized.WinnerID)

		db.Close()
	}
}

func TestAdvanceConcurrentFeeders(t *testing.T) {
	for i := 0; i < 20; i++ {
		db := setupTestDB(t)
		db.SetMaxOpenConns(1)

		f := setupStartedTournament(t, db, 4)
		ctx := context.Background()
		m1 := f.round1Match(t, 1)
		m2 := f.round1Match(t, 2)

		// First votes go in up front so each goroutine's call is the
		// finalizing one, and both semifinals advance into the shared final
		// at the same time.
		_, err := f.matches.ReportResult(ctx, f.captainOf(t, *m1.Slot1ID), f.tournamentID, m1.ID, *m1.Slot1ID)
		require.NoError(t, err)
		_, err = f.matches.ReportResult(ctx, f.captainOf(t, *m2.Slot1ID), f.tournamentID, m2.ID, *m2.Slot1ID)
		require.NoError(t, err)

		finishers := []struct {
			captain uuid.UUID
			matchID uuid.UUID
			winner  uuid.UUID
		}{
			{f.captainOf(t, *m1.Slot2ID), m1.ID, *m1.Slot1ID},
			{f.captainOf(t, *m2.Slot2ID), m2.ID, *m2.Slot1ID},
		}

		var wg sync.WaitGroup
		for _, finisher := range finishers {
			wg.Add(1)
			go func(captain, matchID, winner uuid.UUID) {
				defer wg.Done()
				outcome, err := f.matches.ReportResult(ctx, captain, f.tournamentID, matchID, winner)
				assert.NoError(t, err)
				assert.Equal(t, bracket.VoteFinalized, outcome)
			}(finisher.captain, finisher.matchID, finisher.winner)
		}
		wg.Wait()

		// Neither advancement may have overwritten the other's slot.
		require.NotNil(t, m1.NextMatchID)
		final := f.reload(t, *m1.NextMatchID)
		require.NotNil(t, final.Slot1ID)
		require.NotNil(t, final.Slot2ID)
		assert.Equal(t, *m1.Slot1ID, *final.Slot1ID)
		assert.Equal(t, *m2.Slot1ID, *final.Slot2ID)
		assert.False(t, final.Finalized())

		db.Close()
	}
}

func TestFinalizedMatchLockReleased(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := setupStartedTournament(t, db, 4)
	m := f.round1Match(t, 1)
	f.agree(t, m, *m.Slot1ID)

	f.matches.locks.mu.Lock()
	remaining := len(f.matches.locks.locks)
	f.matches.locks.mu.Unlock()
	assert.Zero(t, remaining)

	// A late vote recreates and immediately drops the entry again.
	_, err := f.matches.ReportResult(context.Background(), f.captainOf(t, *m.Slot1ID), f.tournamentID, m.ID, *m.Slot1ID)
	assert.ErrorIs(t, err, bracket.ErrAlreadyFinalized)

	f.matches.locks.mu.Lock()
	remaining = len(f.matches.locks.locks)
	f.matches.locks.mu.Unlock()
	assert.Zero(t, remaining)
}

func TestSnapshotVoteVisibility(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	f := setupStartedTournament(t, db, 4)
	ctx := context.Background()
	m := f.round1Match(t, 1)

	slot1Captain := f.captainOf(t, *m.Slot1ID)
	slot2Captain := f.captainOf(t, *m.Slot2ID)

	_, err := f.matches.ReportResult(ctx, slot1Captain, f.tournamentID, m.ID, *m.Slot1ID)
	require.NoError(t, err)

	tournamentService := NewTournamentService(db, f.store)
	data, err := tournamentService.GetTournamentData(ctx, f.tournamentID)
	require.NoError(t, err)

	// The voter sees their own claim.
	own := BuildSnapshot(data, slot1Captain)
	view := own.FindMatch(m.ID)
	require.NotNil(t, view)
	assert.True(t, view.Slot1Voted)
	assert.False(t, view.Slot2Voted)
	require.NotNil(t, view.YourVote)
	assert.Equal(t, *m.Slot1ID, *view.YourVote)

	// The opponent and the public only see that a vote exists.
	for _, viewer := range []uuid.UUID{slot2Captain, uuid.Nil} {
		snap := BuildSnapshot(data, viewer)
		view := snap.FindMatch(m.ID)
		require.NotNil(t, view)
		assert.True(t, view.Slot1Voted)
		assert.Nil(t, view.YourVote)
	}
}
