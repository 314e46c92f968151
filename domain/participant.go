// Package domain contains core concepts of the room engine.
// This file defines Participant entities and their presence states.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type ParticipantStatus int

const (
	Online ParticipantStatus = iota
	Away
	Offline
)

func (s ParticipantStatus) String() string {
	switch s {
	case Online:
		return "online"
	case Away:
		return "away"
	case Offline:
		return "offline"
	default:
		return "unknown"
	}
}

// Participant is a member of a single room. Departure is a tombstone:
// the entry stays in the room so message attribution survives, but a
// departed identity never comes back.
type Participant struct {
	ID           string
	ConnectionID string
	DisplayName  string
	ColorHex     string
	JoinedAt     time.Time
	LastActivity time.Time
	Status       ParticipantStatus
	Departed     bool

	// firstConnection stays true until the first successful real-time
	// attach, so a reconnect can be told apart from a first join.
	firstConnection bool
}

func NewParticipant(displayName, colorHex string) *Participant {
	now := time.Now().UTC()
	return &Participant{
		ID:              uuid.NewString(),
		DisplayName:     displayName,
		ColorHex:        colorHex,
		JoinedAt:        now,
		LastActivity:    now,
		Status:          Online,
		firstConnection: true,
	}
}
