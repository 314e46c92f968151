package errors

import "fmt"

var (
	ErrRoomNotFound        = fmt.Errorf("room not found")
	ErrParticipantNotFound = fmt.Errorf("participant not found")
	ErrParticipantDeparted = fmt.Errorf("participant has left the room")
	ErrCapacityExceeded    = fmt.Errorf("room is at full capacity")
	ErrIdentityConflict    = fmt.Errorf("display name or color already in use")
	ErrCodeSpaceExhausted  = fmt.Errorf("unable to generate a unique room code")
	ErrVoteAlreadyOpen     = fmt.Errorf("a vote is already open")
	ErrNoOpenVote          = fmt.Errorf("no open vote")
	ErrAlreadyVoted        = fmt.Errorf("participant already voted")
	ErrRateLimited         = fmt.Errorf("sending messages too quickly")
	ErrInvalidContent      = fmt.Errorf("invalid message content")
	ErrWorkerPanic         = fmt.Errorf("worker panic")
)
