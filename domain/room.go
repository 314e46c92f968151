package domain

import (
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	apperrors "moment/errors"
)

type RoomKind int

const (
	PairRoom RoomKind = iota
	GroupRoom
)

func (k RoomKind) String() string {
	if k == PairRoom {
		return "pair"
	}
	return "group"
}

const (
	// DefaultMaxParticipants bounds a room when no explicit capacity is given.
	DefaultMaxParticipants = 50

	// GracePeriod is how long a room stays open once a close vote passes.
	GracePeriod = 5 * time.Minute
)

// Room is the aggregate for one chat session. Every compound mutation
// (capacity check + append, ballot + majority + grace arming) happens
// under the room's own lock so concurrent request handlers and the
// background scheduler always observe a consistent state.
//
// expiresAt only ever moves earlier, with one exception: arming the
// grace period after a passed vote resets it to now + GracePeriod.
type Room struct {
	mu sync.Mutex

	Code        string
	DisplayName string
	CreatedAt   time.Time
	Kind        RoomKind

	expiresAt    time.Time
	participants []*Participant
	messages     []Message
	activeVote   *VoteSession
	capacity     int

	gracePeriodStartedAt time.Time
	inGracePeriod        bool

	fiveMinWarned bool
	oneMinWarned  bool
}

// NewRoom creates a room expiring at now+ttl. A capacity of zero means
// DefaultMaxParticipants.
func NewRoom(code, displayName string, ttl time.Duration, kind RoomKind, capacity int) *Room {
	if capacity <= 0 {
		capacity = DefaultMaxParticipants
	}
	now := time.Now().UTC()
	return &Room{
		Code:        code,
		DisplayName: displayName,
		CreatedAt:   now,
		Kind:        kind,
		expiresAt:   now.Add(ttl),
		capacity:    capacity,
	}
}

func (r *Room) ExpiresAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.expiresAt
}

func (r *Room) Capacity() int {
	return r.capacity
}

func (r *Room) InGracePeriod() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inGracePeriod
}

// AddParticipant appends a new member. It fails when the room is at
// capacity or when the display name or color collides, case
// insensitively, with a member that has not departed.
func (r *Room) AddParticipant(p *Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeCountLocked() >= r.capacity {
		return apperrors.ErrCapacityExceeded
	}
	for _, existing := range r.participants {
		if existing.Departed {
			continue
		}
		if strings.EqualFold(existing.DisplayName, p.DisplayName) ||
			strings.EqualFold(existing.ColorHex, p.ColorHex) {
			return apperrors.ErrIdentityConflict
		}
	}
	r.participants = append(r.participants, p)
	return nil
}

// Attach binds a real-time connection to a member. The returned flag is
// true only on the very first attach, so callers can announce a join
// versus handling a silent reconnect. Departed identities cannot
// re-attach.
func (r *Room) Attach(participantID, connectionID string) (Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(participantID)
	if p == nil {
		return Participant{}, false, apperrors.ErrParticipantNotFound
	}
	if p.Departed {
		return Participant{}, false, apperrors.ErrParticipantDeparted
	}

	first := p.firstConnection
	p.firstConnection = false
	p.ConnectionID = connectionID
	p.Status = Online
	p.LastActivity = time.Now().UTC()
	return *p, first, nil
}

// MarkDeparted tombstones a member. The entry stays in the sequence so
// message attribution keeps working; it is simply ignored by capacity,
// conflict, and vote math from now on. Returns true when every member
// of the room has departed, which callers treat as a cue to delete the
// room itself.
func (r *Room) MarkDeparted(participantID string) (Participant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(participantID)
	if p == nil {
		return Participant{}, false, apperrors.ErrParticipantNotFound
	}
	p.Departed = true
	p.Status = Offline
	return *p, r.activeCountLocked() == 0, nil
}

// UpdateActivity refreshes the member's last-activity timestamp. Any
// activity implies presence, so a non-Online member is forced back to
// Online.
func (r *Room) UpdateActivity(participantID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(participantID)
	if p == nil {
		return apperrors.ErrParticipantNotFound
	}
	p.LastActivity = time.Now().UTC()
	if p.Status != Online {
		p.Status = Online
	}
	return nil
}

func (r *Room) SetStatus(participantID string, status ParticipantStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(participantID)
	if p == nil {
		return apperrors.ErrParticipantNotFound
	}
	p.Status = status
	return nil
}

// ParticipantByConnection is the reverse lookup used on disconnect.
func (r *Room) ParticipantByConnection(connectionID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.participants {
		if p.ConnectionID == connectionID {
			return *p, true
		}
	}
	return Participant{}, false
}

func (r *Room) Member(participantID string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.memberLocked(participantID)
	if p == nil {
		return Participant{}, false
	}
	return *p, true
}

// ActiveParticipants returns copies of every non-departed member.
func (r *Room) ActiveParticipants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	return lo.FilterMap(r.participants, func(p *Participant, _ int) (Participant, bool) {
		return *p, !p.Departed
	})
}

func (r *Room) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeCountLocked()
}

func (r *Room) AppendMessage(m Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, m)
}

func (r *Room) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// OpenVote starts a close-the-room vote with empty ballots. Only one
// vote session may exist per room.
func (r *Room) OpenVote(initiatorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeVote != nil {
		return apperrors.ErrVoteAlreadyOpen
	}
	r.activeVote = newVoteSession(initiatorID, time.Now().UTC())
	return nil
}

// CastBallot records an immutable yes/no ballot and re-evaluates the
// majority in the same critical section. When the threshold is reached
// the vote passes and the grace period is armed. Returns true exactly
// when this ballot made the vote pass.
func (r *Room) CastBallot(participantID string, yes bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeVote == nil || r.activeVote.passed {
		return false, apperrors.ErrNoOpenVote
	}
	p := r.memberLocked(participantID)
	if p == nil || p.Departed {
		return false, apperrors.ErrParticipantNotFound
	}
	if _, voted := r.activeVote.votes[participantID]; voted {
		return false, apperrors.ErrAlreadyVoted
	}

	r.activeVote.votes[participantID] = yes
	if r.majorityLocked() {
		r.passVoteLocked()
		return true, nil
	}
	return false, nil
}

// RecalculateVote drops ballots cast by members who have since
// departed and re-checks the majority: a departure shrinks the
// denominator and can flip a pending vote to passed. No-op when there
// is no open vote or the vote already passed.
func (r *Room) RecalculateVote() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeVote == nil || r.activeVote.passed {
		return false
	}
	for _, p := range r.participants {
		if p.Departed {
			delete(r.activeVote.votes, p.ID)
		}
	}
	if r.majorityLocked() {
		r.passVoteLocked()
		return true
	}
	return false
}

// MajorityReached reports whether the open vote currently meets the
// quorum threshold.
func (r *Room) MajorityReached() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeVote != nil && r.majorityLocked()
}

// VoteStatus snapshots the open vote, or returns nil when none exists.
func (r *Room) VoteStatus() *VoteStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.activeVote == nil {
		return nil
	}

	status := &VoteStatus{
		Passed:  r.activeVote.passed,
		Ballots: make(map[string]Ballot),
	}
	for _, p := range r.participants {
		if p.Departed {
			continue
		}
		status.TotalParticipants++
		vote, cast := r.activeVote.votes[p.ID]
		switch {
		case !cast:
			status.NotVoted++
			status.Ballots[p.DisplayName] = BallotPending
		case vote:
			status.YesVotes++
			status.Ballots[p.DisplayName] = BallotYes
		default:
			status.NoVotes++
			status.Ballots[p.DisplayName] = BallotNo
		}
	}
	if status.TotalParticipants > 0 {
		status.YesPercentage = float64(status.YesVotes) / float64(status.TotalParticipants) * 100
	}
	return status
}

// TickReport is the outcome of one scheduler pass over a room,
// computed in a single critical section.
type TickReport struct {
	RemainingSeconds int
	Warnings         []int // whole minutes, each fired at most once per room
	Expired          bool
	ToDemote         []Participant // Online members idle past the away threshold
	ToEvict          []Participant // Offline members idle past the eviction threshold
}

// Tick evaluates the room's timers for the scheduler. Expiry warnings
// are edge-triggered through sticky per-room flags so each band fires
// exactly once regardless of tick cadence, and both are suppressed once
// the grace period is running (the closure is already announced then).
func (r *Room) Tick(now time.Time, awayAfter, evictAfter time.Duration) TickReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.expiresAt.Sub(now)
	report := TickReport{RemainingSeconds: int(remaining.Seconds())}

	if !r.inGracePeriod {
		if remaining <= 5*time.Minute && !r.fiveMinWarned {
			r.fiveMinWarned = true
			report.Warnings = append(report.Warnings, 5)
		}
		if remaining <= time.Minute && !r.oneMinWarned {
			r.oneMinWarned = true
			report.Warnings = append(report.Warnings, 1)
		}
	}
	if remaining <= 0 {
		report.Expired = true
	}

	for _, p := range r.participants {
		if p.Departed {
			continue
		}
		idle := now.Sub(p.LastActivity)
		if p.Status == Online && idle >= awayAfter {
			report.ToDemote = append(report.ToDemote, *p)
		}
		if p.Status == Offline && idle >= evictAfter {
			report.ToEvict = append(report.ToEvict, *p)
		}
	}
	return report
}

func (r *Room) memberLocked(participantID string) *Participant {
	for _, p := range r.participants {
		if p.ID == participantID {
			return p
		}
	}
	return nil
}

func (r *Room) activeCountLocked() int {
	return lo.CountBy(r.participants, func(p *Participant) bool {
		return !p.Departed
	})
}

func (r *Room) majorityLocked() bool {
	active := r.activeCountLocked()
	if active == 0 {
		return false
	}
	yes := lo.CountBy(lo.Values(r.activeVote.votes), func(v bool) bool { return v })
	return yes >= RequiredYesVotes(active)
}

func (r *Room) passVoteLocked() {
	now := time.Now().UTC()
	r.activeVote.passed = true
	r.activeVote.passedAt = now
	r.inGracePeriod = true
	r.gracePeriodStartedAt = now
	r.expiresAt = now.Add(GracePeriod)
}
