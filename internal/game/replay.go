package game

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReplayExt is the file extension of saved replays.
const ReplayExt = ".replay"

// ErrNoReplay is returned when a match has no replay in progress.
var ErrNoReplay = errors.New("no replay in progress")

// Replay is the snapshot history of one match together with the seed and
// player deck needed to play it again.
type Replay struct {
	MatchID string
	Seed    int64
	Deck    []string

	mu     sync.RWMutex
	states []*Snapshot
}

// NewReplay creates an empty replay.
func NewReplay(matchID string, seed int64, deck []string) *Replay {
	return &Replay{
		MatchID: matchID,
		Seed:    seed,
		Deck:    append([]string(nil), deck...),
	}
}

// Append adds a snapshot to the history.
func (r *Replay) Append(snapshot *Snapshot) {
	r.mu.Lock()
	r.states = append(r.states, snapshot)
	r.mu.Unlock()
}

// Len returns the number of snapshots.
func (r *Replay) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// At returns snapshot i, or nil when i is out of range.
func (r *Replay) At(i int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.states) {
		return nil
	}
	return r.states[i]
}

// Last returns the final snapshot, or nil for an empty replay.
func (r *Replay) Last() *Snapshot {
	return r.At(r.Len() - 1)
}

// Diverges walks both histories and returns the index of the first snapshot
// whose checksum differs, or -1 when they are identical. A shorter history
// diverges where it ends.
func (r *Replay) Diverges(other *Replay) (int, error) {
	n, m := r.Len(), other.Len()
	for i := 0; i < n && i < m; i++ {
		want, err := r.At(i).ComputeChecksum()
		if err != nil {
			return i, err
		}
		same, err := other.At(i).VerifyChecksum(want)
		if err != nil {
			return i, err
		}
		if !same {
			return i, nil
		}
	}
	if n != m {
		return min(n, m), nil
	}
	return -1, nil
}

type replayHeader struct {
	MatchID string
	Seed    int64
	Deck    []string
	Version int
	States  int
	SavedAt time.Time
}

// ReplayPath returns where the replay of matchID lives under dir.
func ReplayPath(dir, matchID string) string {
	return filepath.Join(dir, matchID+ReplayExt)
}

// WriteFile saves the replay under dir as a gzip-compressed gob stream: a
// header followed by every snapshot. It returns the file path.
func (r *Replay) WriteFile(dir string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create replay directory: %w", err)
	}
	path := ReplayPath(dir, r.MatchID)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create replay file: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	enc := gob.NewEncoder(zw)
	header := replayHeader{
		MatchID: r.MatchID,
		Seed:    r.Seed,
		Deck:    r.Deck,
		Version: SnapshotVersion,
		States:  len(r.states),
		SavedAt: time.Now(),
	}
	if err := enc.Encode(&header); err != nil {
		return "", fmt.Errorf("encode replay header: %w", err)
	}
	for i, s := range r.states {
		if err := enc.Encode(s); err != nil {
			return "", fmt.Errorf("encode snapshot %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("flush replay: %w", err)
	}
	return path, nil
}

// ReadReplay loads a replay written by WriteFile.
func ReadReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open replay: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("read replay %s: %w", path, err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var header replayHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("decode replay header: %w", err)
	}
	if header.Version != SnapshotVersion {
		return nil, fmt.Errorf("replay %s has snapshot version %d, want %d", path, header.Version, SnapshotVersion)
	}

	r := NewReplay(header.MatchID, header.Seed, header.Deck)
	r.states = make([]*Snapshot, 0, header.States)
	for i := 0; i < header.States; i++ {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode snapshot %d: %w", i, err)
		}
		r.states = append(r.states, &s)
	}
	return r, nil
}

// ReplayRecorder collects the replays of live matches and writes them out
// when the match is done.
type ReplayRecorder struct {
	logger *zap.Logger
	dir    string

	mu     sync.Mutex
	active map[string]*Replay
}

// NewReplayRecorder creates a recorder saving into dir. An empty dir is
// fine for recorders whose replays are only taken, never saved.
func NewReplayRecorder(logger *zap.Logger, dir string) *ReplayRecorder {
	return &ReplayRecorder{
		logger: logger,
		dir:    dir,
		active: make(map[string]*Replay),
	}
}

// Start opens a replay for a match, replacing any earlier one.
func (rr *ReplayRecorder) Start(matchID string, seed int64, deck []string) {
	rr.mu.Lock()
	rr.active[matchID] = NewReplay(matchID, seed, deck)
	rr.mu.Unlock()

	if rr.logger != nil {
		rr.logger.Debug("replay started", zap.String("match_id", matchID), zap.Int64("seed", seed))
	}
}

// Record appends snapshot to the match's replay. Matches without a replay
// are ignored.
func (rr *ReplayRecorder) Record(matchID string, snapshot *Snapshot) {
	rr.mu.Lock()
	r := rr.active[matchID]
	rr.mu.Unlock()
	if r != nil {
		r.Append(snapshot)
	}
}

// Recording reports whether matchID has a replay in progress.
func (rr *ReplayRecorder) Recording(matchID string) bool {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	_, ok := rr.active[matchID]
	return ok
}

// Take ends the match's replay and hands it over.
func (rr *ReplayRecorder) Take(matchID string) (*Replay, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r, ok := rr.active[matchID]
	delete(rr.active, matchID)
	return r, ok
}

// Save ends the match's replay and writes it to the recorder's directory.
func (rr *ReplayRecorder) Save(matchID string) (string, error) {
	r, ok := rr.Take(matchID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoReplay, matchID)
	}
	path, err := r.WriteFile(rr.dir)
	if err != nil {
		return "", err
	}
	if rr.logger != nil {
		rr.logger.Info("replay saved",
			zap.String("match_id", matchID),
			zap.Int("snapshots", r.Len()),
			zap.String("path", path),
		)
	}
	return path, nil
}
