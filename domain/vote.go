package domain

import "time"

// Ballot is the per-participant view of an open vote.
type Ballot int

const (
	BallotPending Ballot = iota
	BallotYes
	BallotNo
)

// VoteSession is the single close-the-room vote a room may carry.
// Ballots are immutable once cast and the passed flag never reverts.
// All access goes through the owning Room, under its lock.
type VoteSession struct {
	initiatedBy string
	startedAt   time.Time
	votes       map[string]bool
	passed      bool
	passedAt    time.Time
}

func newVoteSession(initiatorID string, now time.Time) *VoteSession {
	return &VoteSession{
		initiatedBy: initiatorID,
		startedAt:   now,
		votes:       make(map[string]bool),
	}
}

// VoteStatus is a consistent snapshot of an open vote, computed over
// active (non-departed) participants only.
type VoteStatus struct {
	TotalParticipants int
	YesVotes          int
	NoVotes           int
	NotVoted          int
	YesPercentage     float64
	Passed            bool
	Ballots           map[string]Ballot // keyed by display name
}

// RequiredYesVotes is the quorum threshold: strictly more than half of
// the active participants, rounded up, plus one participant of margin.
// With 4 active members 3 yes votes are needed, with 5 members 4.
func RequiredYesVotes(active int) int {
	return (active+1)/2 + 1
}
