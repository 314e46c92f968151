package workers

import (
	"context"
	"log/slog"
	"time"

	"moment/contract"
	"moment/domain"
	"moment/domain/event"
	"moment/runtime"
)

const (
	// DefaultTickInterval is how often the scheduler sweeps every room.
	DefaultTickInterval = 10 * time.Second

	// DefaultAwayAfter demotes an Online participant to Away.
	DefaultAwayAfter = 5 * time.Minute

	// DefaultEvictAfter permanently removes an Offline participant.
	DefaultEvictAfter = 10 * time.Minute
)

// ExpiryScheduler is the only autonomous driver of the room store. On
// every tick it walks a registry snapshot and, per room: publishes the
// countdown, fires the one-shot 5-minute and 1-minute warnings, closes
// expired rooms, demotes idle members to Away, and evicts long-gone
// Offline members through the regular departure path.
//
// Ticks never overlap: the sweep runs inline in the ticker goroutine,
// so a slow sweep simply delays the next one. Publishing is fire and
// forget and a panic while handling one room is recovered and logged
// without aborting the rest of the sweep.
type ExpiryScheduler struct {
	log         *slog.Logger
	registry    *runtime.Registry
	presence    *runtime.Presence
	voting      *runtime.Voting
	broadcaster contract.Broadcaster

	interval   time.Duration
	awayAfter  time.Duration
	evictAfter time.Duration

	now func() time.Time
}

func NewExpiryScheduler(
	log *slog.Logger,
	registry *runtime.Registry,
	presence *runtime.Presence,
	voting *runtime.Voting,
	broadcaster contract.Broadcaster,
	interval, awayAfter, evictAfter time.Duration,
) *ExpiryScheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if awayAfter <= 0 {
		awayAfter = DefaultAwayAfter
	}
	if evictAfter <= 0 {
		evictAfter = DefaultEvictAfter
	}
	return &ExpiryScheduler{
		log:         log,
		registry:    registry,
		presence:    presence,
		voting:      voting,
		broadcaster: broadcaster,
		interval:    interval,
		awayAfter:   awayAfter,
		evictAfter:  evictAfter,
		now:         time.Now,
	}
}

func (s *ExpiryScheduler) Run(ctx context.Context) error {
	s.log.Info("Starting expiry scheduler", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Expiry scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *ExpiryScheduler) sweep() {
	for _, room := range s.registry.Snapshot() {
		s.checkRoom(room)
	}
}

// checkRoom evaluates a single room. A room deleted since the snapshot
// was taken is a benign no-op.
func (s *ExpiryScheduler) checkRoom(room *domain.Room) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Recovered panic while checking room", "room", room.Code, "panic", r)
		}
	}()

	if _, ok := s.registry.GetRoom(room.Code); !ok {
		return
	}

	report := room.Tick(s.now().UTC(), s.awayAfter, s.evictAfter)

	s.broadcaster.Publish(room.Code, event.TimerTick{RemainingSeconds: report.RemainingSeconds})

	for _, minutes := range report.Warnings {
		s.log.Info("Expiry warning", "room", room.Code, "minutes", minutes)
		s.broadcaster.Publish(room.Code, event.ExpiryWarning{Minutes: minutes})
	}

	if report.Expired {
		s.log.Info("Room expired", "room", room.Code)
		s.broadcaster.Publish(room.Code, event.RoomClosed{})
		s.registry.DeleteRoom(room.Code)
		return
	}

	for _, p := range report.ToDemote {
		if err := s.presence.SetStatus(room.Code, p.ID, domain.Away); err != nil {
			continue
		}
		s.broadcaster.Publish(room.Code, event.ParticipantStatusChanged{
			ParticipantID: p.ID,
			Status:        domain.Away,
		})
	}

	for _, p := range report.ToEvict {
		s.evict(room.Code, p)
	}
}

// evict removes a long-offline participant through the departure path,
// which can cascade into room deletion or flip an open vote.
func (s *ExpiryScheduler) evict(code string, p domain.Participant) {
	_, roomDeleted, err := s.presence.MarkDeparted(code, p.ID)
	if err != nil {
		return
	}
	s.log.Info("Participant evicted for inactivity", "room", code, "participant", p.DisplayName)

	if roomDeleted {
		return
	}
	s.broadcaster.Publish(code, event.ParticipantLeft{ParticipantID: p.ID})
	if s.voting.Recalculate(code) {
		s.broadcaster.Publish(code, event.VotePassed{})
	}
}
