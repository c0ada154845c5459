// Package poll is the consumer side of tournament synchronization: a
// read-only subscriber that re-fetches snapshots on a fixed interval and diffs
// them, instead of the server pushing events. A captain whose vote silently
// disappears between two snapshots (while the match is still undecided) learns
// this way that the opponent disagreed and both votes were withdrawn.
package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pwierzba/lol-tournament-backend/pkg/types"
)

type Observer interface {
	SnapshotUpdated(snap *types.TournamentSnapshot)
	ConflictDetected(matchID uuid.UUID)
}

type Watcher struct {
	client        *http.Client
	baseURL       string
	tournamentID  string
	participantID uuid.UUID
	interval      time.Duration
	observer      Observer

	prev *types.TournamentSnapshot
}

func NewWatcher(baseURL, tournamentID string, participantID uuid.UUID, interval time.Duration, observer Observer) *Watcher {
	return &Watcher{
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       strings.TrimRight(baseURL, "/"),
		tournamentID:  tournamentID,
		participantID: participantID,
		interval:      interval,
		observer:      observer,
	}
}

// Run polls until the context is cancelled. A failed fetch is logged and the
// next tick retries; staleness up to one interval is accepted.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Poll(ctx); err != nil {
				slog.Warn("poll: snapshot fetch failed", "tournament", w.tournamentID, "error", err)
			}
		}
	}
}

// Poll fetches one snapshot, raises any conflicts found by the diff and hands
// the fresh snapshot to the observer.
func (w *Watcher) Poll(ctx context.Context) error {
	snap, err := w.fetch(ctx)
	if err != nil {
		return err
	}

	for _, matchID := range DiffConflicts(w.prev, snap, w.participantID) {
		w.observer.ConflictDetected(matchID)
	}

	w.prev = snap
	w.observer.SnapshotUpdated(snap)
	return nil
}

func (w *Watcher) fetch(ctx context.Context) (*types.TournamentSnapshot, error) {
	url := fmt.Sprintf("%s/tournaments/%s", w.baseURL, w.tournamentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var snap types.TournamentSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// DiffConflicts compares two snapshots under one participant's identity. A
// conflict is reported for every match where that participant's own vote was
// present in the old snapshot, is absent in the new one and the match still
// has no winner.
func DiffConflicts(prev, next *types.TournamentSnapshot, participantID uuid.UUID) []uuid.UUID {
	if prev == nil || next == nil {
		return nil
	}

	var conflicts []uuid.UUID
	for i := range next.Matches {
		nm := &next.Matches[i]
		if nm.WinnerID != nil {
			continue
		}
		pm := prev.FindMatch(nm.ID)
		if pm == nil {
			continue
		}
		if ownVotePresent(pm, participantID) && !ownVotePresent(nm, participantID) {
			conflicts = append(conflicts, nm.ID)
		}
	}
	return conflicts
}

func ownVotePresent(m *types.MatchView, participantID uuid.UUID) bool {
	if m.Slot1ID != nil && *m.Slot1ID == participantID {
		return m.Slot1Voted
	}
	if m.Slot2ID != nil && *m.Slot2ID == participantID {
		return m.Slot2Voted
	}
	return false
}
