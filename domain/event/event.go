// Package event defines the domain events the engine publishes to
// connected clients through a Broadcaster. Publishing is best effort:
// the engine never waits for delivery and never retries.
package event

import (
	"moment/domain"
)

type DomainEvent interface {
	Name() string
}

// TimerTick carries the whole seconds remaining before the room
// expires. It may momentarily go negative just before cleanup.
type TimerTick struct {
	RemainingSeconds int
}

func (TimerTick) Name() string { return "TimerUpdate" }

// ExpiryWarning fires once per room per band (5 minutes, 1 minute).
type ExpiryWarning struct {
	Minutes int
}

func (ExpiryWarning) Name() string { return "ExpiryWarning" }

type RoomClosed struct{}

func (RoomClosed) Name() string { return "RoomClosed" }

type ParticipantJoined struct {
	Participant domain.Participant
	Reconnected bool
}

func (ParticipantJoined) Name() string { return "UserJoined" }

type ParticipantLeft struct {
	ParticipantID string
}

func (ParticipantLeft) Name() string { return "UserLeft" }

type ParticipantStatusChanged struct {
	ParticipantID string
	Status        domain.ParticipantStatus
}

func (ParticipantStatusChanged) Name() string { return "ParticipantStatusChanged" }

type MessagePosted struct {
	Message domain.Message
}

func (MessagePosted) Name() string { return "ReceiveMessage" }

type VoteStarted struct {
	InitiatorName string
}

func (VoteStarted) Name() string { return "VoteStarted" }

type VoteUpdated struct {
	Status domain.VoteStatus
}

func (VoteUpdated) Name() string { return "VoteUpdated" }

type VotePassed struct{}

func (VotePassed) Name() string { return "VotePassed" }
