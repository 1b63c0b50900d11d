// Package sim plays series of AI-versus-AI duels. The player side is driven
// by the same decision engine as the opponent, through the human entry
// points of a match.
package sim

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kingdomofaen/aen-server-go/internal/game"
	"github.com/kingdomofaen/aen-server-go/internal/game/ai"
	"github.com/kingdomofaen/aen-server-go/internal/game/board"
	"github.com/kingdomofaen/aen-server-go/internal/game/rules"
)

// maxActions bounds the player-side actions of one match.
const maxActions = 200

var (
	// ErrStalled is returned when a match stops making progress.
	ErrStalled = errors.New("match stalled")
	// ErrReplayMismatch is returned when a replayed match leaves its recording.
	ErrReplayMismatch = errors.New("replay diverged")
)

// Result is the outcome of one simulated match.
type Result struct {
	MatchID    string
	Seed       int64
	Outcome    rules.MatchOutcome
	Rounds     []rules.RoundResult
	Actions    int
	Checksum   string
	Stats      []rules.Tally
	ReplayPath string // set when the replay was saved
}

// Summary tallies a series of matches.
type Summary struct {
	Matches      int
	PlayerWins   int
	OpponentWins int
	Draws        int
	TotalRounds  int
	Results      []Result
}

// AverageRounds returns the mean number of rounds per match.
func (s Summary) AverageRounds() float64 {
	if s.Matches == 0 {
		return 0
	}
	return float64(s.TotalRounds) / float64(s.Matches)
}

func (s *Summary) add(r Result) {
	s.Matches++
	s.TotalRounds += len(r.Rounds)
	switch r.Outcome {
	case rules.OutcomePlayerWon:
		s.PlayerWins++
	case rules.OutcomeOpponentWon:
		s.OpponentWins++
	case rules.OutcomeDraw:
		s.Draws++
	}
	s.Results = append(s.Results, r)
}

// Runner plays matches with fixed settings.
type Runner struct {
	settings game.Settings
	recorder *game.ReplayRecorder
	decider  *ai.Decider
	logger   *zap.Logger
}

// NewRunner creates a runner. recorder may be nil; when set every match's
// replay is saved.
func NewRunner(settings game.Settings, recorder *game.ReplayRecorder, logger *zap.Logger) *Runner {
	return &Runner{
		settings: settings,
		recorder: recorder,
		decider:  ai.NewDecider(nil),
		logger:   logger,
	}
}

// Run plays n matches with seeds seed..seed+n-1, the player using deck.
func (r *Runner) Run(deck []string, seed int64, n int) (Summary, error) {
	var summary Summary
	for i := 0; i < n; i++ {
		res, err := r.Play(deck, seed+int64(i))
		if err != nil {
			return summary, err
		}
		summary.add(res)
	}
	if r.logger != nil {
		r.logger.Info("simulation finished",
			zap.Int("matches", summary.Matches),
			zap.Int("player_wins", summary.PlayerWins),
			zap.Int("opponent_wins", summary.OpponentWins),
			zap.Int("draws", summary.Draws),
		)
	}
	return summary, nil
}

// Play runs one match to its end. With a recorder the replay is saved.
func (r *Runner) Play(deck []string, seed int64) (Result, error) {
	res, err := r.play(deck, seed, r.recorder)
	if err != nil {
		return Result{}, err
	}
	if r.recorder != nil {
		path, err := r.recorder.Save(res.MatchID)
		if err != nil {
			return Result{}, err
		}
		res.ReplayPath = path
	}
	if r.logger != nil {
		r.logger.Info("simulated match finished",
			zap.String("match_id", res.MatchID),
			zap.Int64("seed", seed),
			zap.String("outcome", res.Outcome.String()),
			zap.Int("rounds", len(res.Rounds)),
			zap.Int("actions", res.Actions),
		)
	}
	return res, nil
}

// Verify plays the recorded match again from its seed and deck and checks
// every snapshot against the recording. The runner must use the settings
// the recording was made with.
func (r *Runner) Verify(replay *game.Replay) (Result, error) {
	recorder := game.NewReplayRecorder(nil, "")
	res, err := r.play(replay.Deck, replay.Seed, recorder)
	if err != nil {
		return Result{}, err
	}
	again, ok := recorder.Take(res.MatchID)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", game.ErrNoReplay, res.MatchID)
	}
	idx, err := replay.Diverges(again)
	if err != nil {
		return Result{}, err
	}
	if idx >= 0 {
		return res, fmt.Errorf("%w: %s at snapshot %d (recorded %d, replayed %d)",
			ErrReplayMismatch, replay.MatchID, idx, replay.Len(), again.Len())
	}
	if r.logger != nil {
		r.logger.Info("replay verified",
			zap.String("match_id", replay.MatchID),
			zap.Int("snapshots", replay.Len()),
		)
	}
	return res, nil
}

func (r *Runner) play(deck []string, seed int64, recorder *game.ReplayRecorder) (Result, error) {
	settings := r.settings
	settings.Seed = seed
	opts := []game.MatchOption{game.WithMatchID(fmt.Sprintf("sim-%d", seed))}
	if recorder != nil {
		opts = append(opts, game.WithRecorder(recorder))
	}

	m, err := game.NewMatch(settings, deck, r.logger, opts...)
	if err != nil {
		return Result{}, err
	}
	watchers := rules.NewDuelWatchers()
	m.Subscribe(watchers.Listener())

	actions := 0
	for m.Outcome() == rules.OutcomeUndecided {
		if actions >= maxActions {
			return Result{}, fmt.Errorf("%w: %s after %d actions", ErrStalled, m.ID(), actions)
		}
		if m.Phase() != rules.PhaseHumanTurn {
			if m.Settle() == 0 {
				return Result{}, fmt.Errorf("%w: %s in %s with nothing pending", ErrStalled, m.ID(), m.Phase())
			}
			continue
		}

		dec := r.decider.Decide(m.BoardView(), board.Player)
		if _, err := m.Apply(board.Player, dec); err != nil {
			if _, err := m.PassTurn(board.Player); err != nil {
				return Result{}, fmt.Errorf("player side of %s cannot act: %w", m.ID(), err)
			}
		}
		actions++
		m.Settle()
	}

	checksum, err := m.Snapshot().ComputeChecksum()
	if err != nil {
		return Result{}, err
	}
	return Result{
		MatchID:  m.ID(),
		Seed:     seed,
		Outcome:  m.Outcome(),
		Rounds:   m.History(),
		Actions:  actions,
		Checksum: checksum.Hash,
		Stats:    watchers.Tallies(),
	}, nil
}
