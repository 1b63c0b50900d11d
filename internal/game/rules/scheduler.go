package rules

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ScheduledEffect is a delayed board mutation waiting on the virtual clock.
type ScheduledEffect struct {
	ID          string
	Description string
	Due         time.Duration
	seq         uint64
	commit      func()
}

// Scheduler is the two-phase effect queue: Schedule records an effect now and
// the effect commits once the virtual clock reaches its due time. Effects are
// never cancelled. Commits run in (due, schedule order) and may schedule
// further effects, which are picked up by the same Advance call when due.
type Scheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	queue  []*ScheduledEffect
	logger *zap.Logger
}

// NewScheduler creates a scheduler with the clock at zero.
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		queue:  make([]*ScheduledEffect, 0, 8),
		logger: logger,
	}
}

// Schedule queues commit to run after delay. Negative delays count as zero;
// a zero delay still waits for the next Advance or Flush.
func (s *Scheduler) Schedule(delay time.Duration, description string, commit func()) string {
	if delay < 0 {
		delay = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	fx := &ScheduledEffect{
		ID:          fmt.Sprintf("fx-%d", s.seq),
		Description: description,
		Due:         s.now + delay,
		seq:         s.seq,
		commit:      commit,
	}
	idx := sort.Search(len(s.queue), func(i int) bool {
		q := s.queue[i]
		return q.Due > fx.Due || (q.Due == fx.Due && q.seq > fx.seq)
	})
	s.queue = append(s.queue, nil)
	copy(s.queue[idx+1:], s.queue[idx:])
	s.queue[idx] = fx

	if s.logger != nil {
		s.logger.Debug("effect scheduled",
			zap.String("effect_id", fx.ID),
			zap.String("description", description),
			zap.Duration("due", fx.Due),
		)
	}
	return fx.ID
}

// Now returns the virtual clock.
func (s *Scheduler) Now() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Pending returns the number of effects not yet committed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// NextDue returns the due time of the earliest pending effect.
func (s *Scheduler) NextDue() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].Due, true
}

// Advance moves the clock forward by d and commits every effect that becomes
// due. It returns the number of committed effects.
func (s *Scheduler) Advance(d time.Duration) int {
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	committed := 0
	for {
		fx, ok := s.popDue(target, false)
		if !ok {
			break
		}
		s.run(fx)
		committed++
	}

	s.mu.Lock()
	if s.now < target {
		s.now = target
	}
	s.mu.Unlock()
	return committed
}

// Flush commits every pending effect, including ones scheduled while
// flushing, moving the clock to each effect's due time.
func (s *Scheduler) Flush() int {
	committed := 0
	for {
		fx, ok := s.popDue(0, true)
		if !ok {
			return committed
		}
		s.run(fx)
		committed++
	}
}

func (s *Scheduler) popDue(target time.Duration, all bool) (*ScheduledEffect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, false
	}
	fx := s.queue[0]
	if !all && fx.Due > target {
		return nil, false
	}
	s.queue = s.queue[1:]
	if fx.Due > s.now {
		s.now = fx.Due
	}
	return fx, true
}

// run commits outside the scheduler lock so the effect can schedule more.
func (s *Scheduler) run(fx *ScheduledEffect) {
	if s.logger != nil {
		s.logger.Debug("effect committed",
			zap.String("effect_id", fx.ID),
			zap.String("description", fx.Description),
			zap.Duration("at", fx.Due),
		)
	}
	if fx.commit != nil {
		fx.commit()
	}
}
