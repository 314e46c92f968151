package runtime

import (
	"log/slog"

	"moment/domain"
	apperrors "moment/errors"
)

// Voting runs the close-the-room vote for each room. The state machine
// is NoVote, VoteOpen, Passed: a vote that never reaches quorum simply
// stays open until departures shrink the denominator or the room's
// timer closes it. There is no cancel operation and no failed state.
type Voting struct {
	registry *Registry
	log      *slog.Logger
}

func NewVoting(registry *Registry, log *slog.Logger) *Voting {
	return &Voting{registry: registry, log: log}
}

// InitiateVote opens a vote session with empty ballots. Fails when the
// room is absent or a vote is already open.
func (v *Voting) InitiateVote(code, initiatorID string) error {
	room, ok := v.registry.GetRoom(code)
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	if err := room.OpenVote(initiatorID); err != nil {
		return err
	}
	v.log.Info("Vote initiated", "room", code, "initiator", initiatorID)
	return nil
}

// CastVote records an immutable ballot and reports whether this ballot
// made the vote pass. Passing arms the room's grace period: the expiry
// moves to five minutes from now and the scheduler takes it from there.
func (v *Voting) CastVote(code, participantID string, yes bool) (bool, error) {
	room, ok := v.registry.GetRoom(code)
	if !ok {
		return false, apperrors.ErrRoomNotFound
	}

	passed, err := room.CastBallot(participantID, yes)
	if err != nil {
		return false, err
	}
	if passed {
		v.log.Info("Vote passed, grace period armed", "room", code)
	}
	return passed, nil
}

// MajorityReached reports whether the open vote currently meets the
// ceil(A/2)+1 threshold over the A active participants.
func (v *Voting) MajorityReached(code string) bool {
	room, ok := v.registry.GetRoom(code)
	if !ok {
		return false
	}
	return room.MajorityReached()
}

// Status snapshots the open vote. Nil when the room is absent or no
// vote exists.
func (v *Voting) Status(code string) *domain.VoteStatus {
	room, ok := v.registry.GetRoom(code)
	if !ok {
		return nil
	}
	return room.VoteStatus()
}

// Recalculate is invoked whenever a participant departs. Ballots of
// departed members are dropped and the majority is re-evaluated, since
// a shrinking denominator can turn a pending vote into a passing one.
// No-op without an open vote or once the vote has passed.
func (v *Voting) Recalculate(code string) bool {
	room, ok := v.registry.GetRoom(code)
	if !ok {
		return false
	}
	passed := room.RecalculateVote()
	if passed {
		v.log.Info("Vote passed after departure, grace period armed", "room", code)
	}
	return passed
}
