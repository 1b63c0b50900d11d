package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/kingdomofaen/aen-server-go/internal/game/board"
)

// SnapshotVersion is bumped whenever the snapshot layout changes.
const SnapshotVersion = 1

// Snapshot is a complete, self-contained copy of a match at one instant.
// It is what replays store and what views are projected from.
type Snapshot struct {
	MatchID string
	Round   int
	Phase   string
	Outcome string
	Wins    [2]int
	Clock   time.Duration // virtual clock
	Pending int           // effects still scheduled
	Weather board.Weather
	Sides   [2]SideSnapshot
	TakenAt time.Time
}

// SideSnapshot is one side of a Snapshot.
type SideSnapshot struct {
	Side       string
	Leader     string
	LeaderUsed bool
	Passed     bool
	Total      int
	LaneTotals [3]int
	Lanes      [3][]CardSnapshot
	Hand       []CardSnapshot
	Deck       []CardSnapshot
	Graveyard  []CardSnapshot
}

// CardSnapshot is one card instance.
type CardSnapshot struct {
	ID        string
	DefID     string
	Name      string
	BasePower int
	Power     int
	Spy       bool
	PlayedBy  string
}

// SerializationChecksum is a digest of a snapshot's game-relevant content.
type SerializationChecksum struct {
	Hash      string // SHA-256 of the deterministic rendering
	Timestamp string
	Version   int
}

// Snapshot captures the current match state.
func (m *Match) Snapshot() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Match) snapshotLocked() *Snapshot {
	scores := m.engine.Scores()
	snap := &Snapshot{
		MatchID: m.id,
		Round:   m.turns.Round(),
		Phase:   m.turns.Phase().String(),
		Outcome: m.turns.MatchResult().String(),
		Wins:    [2]int{m.turns.Wins(board.Player), m.turns.Wins(board.Opponent)},
		Clock:   m.scheduler.Now(),
		Pending: m.scheduler.Pending(),
		Weather: m.board.Weather,
		TakenAt: time.Now(),
	}
	for _, side := range []board.Side{board.Player, board.Opponent} {
		state := m.board.Side(side)
		ss := SideSnapshot{
			Side:       side.String(),
			LeaderUsed: state.LeaderUsed,
			Passed:     state.Passed,
			Total:      scores.Total(side),
			LaneTotals: scores.Lanes[side],
			Hand:       snapshotCards(state.Hand),
			Deck:       snapshotCards(state.Deck),
			Graveyard:  snapshotCards(state.Graveyard),
		}
		if state.Leader != nil {
			ss.Leader = state.Leader.ID
		}
		for l, lane := range state.Lanes {
			ss.Lanes[l] = snapshotCards(lane)
		}
		snap.Sides[side] = ss
	}
	return snap
}

func snapshotCards(cards []*board.Instance) []CardSnapshot {
	out := make([]CardSnapshot, len(cards))
	for i, c := range cards {
		out[i] = CardSnapshot{
			ID:        c.ID,
			DefID:     c.Def.ID,
			Name:      c.Def.Name,
			BasePower: c.BasePower,
			Power:     c.Power,
			Spy:       c.Spy,
			PlayedBy:  c.PlayedBy.String(),
		}
	}
	return out
}

// ComputeChecksum hashes the snapshot without its wall-clock timestamp.
// Card order is kept since lanes, decks and graveyards are ordered.
func (snapshot *Snapshot) ComputeChecksum() (*SerializationChecksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(snapshot.buildDeterministicRepresentation())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &SerializationChecksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: snapshot.TakenAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		Version:   SnapshotVersion,
	}, nil
}

func (snapshot *Snapshot) buildDeterministicRepresentation() string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "MATCH:%s|%d|%s|%s|%d-%d|%d|%d\n",
		snapshot.MatchID,
		snapshot.Round,
		snapshot.Phase,
		snapshot.Outcome,
		snapshot.Wins[0], snapshot.Wins[1],
		snapshot.Clock,
		snapshot.Pending,
	)
	fmt.Fprintf(&buf, "WEATHER:%t|%t|%t\n", snapshot.Weather.Frost, snapshot.Weather.Fog, snapshot.Weather.Rain)

	for _, side := range snapshot.Sides {
		fmt.Fprintf(&buf, "SIDE:%s|%s|%t|%t|%d|%v\n",
			side.Side,
			side.Leader,
			side.LeaderUsed,
			side.Passed,
			side.Total,
			side.LaneTotals,
		)
		for l, lane := range side.Lanes {
			fmt.Fprintf(&buf, "  LANE%d:%s\n", l, renderCards(lane))
		}
		fmt.Fprintf(&buf, "  HAND:%s\n", renderCards(side.Hand))
		fmt.Fprintf(&buf, "  DECK:%s\n", renderCards(side.Deck))
		fmt.Fprintf(&buf, "  GRAVEYARD:%s\n", renderCards(side.Graveyard))
	}
	return buf.String()
}

func renderCards(cards []CardSnapshot) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = fmt.Sprintf("%s=%s/%d/%d/%t/%s", c.ID, c.DefID, c.BasePower, c.Power, c.Spy, c.PlayedBy)
	}
	return strings.Join(parts, ",")
}

// VerifyChecksum reports whether the snapshot still matches expected.
func (snapshot *Snapshot) VerifyChecksum(expected *SerializationChecksum) (bool, error) {
	computed, err := snapshot.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}
