package runtime

import (
	"log/slog"

	"moment/domain"
	apperrors "moment/errors"
)

// Presence handles join, attach, departure, and status transitions for
// the participants of a room. It layers on the registry: every
// operation resolves the room first and treats an absent room as a
// normal negative result.
type Presence struct {
	registry *Registry
	log      *slog.Logger
}

func NewPresence(registry *Registry, log *slog.Logger) *Presence {
	return &Presence{registry: registry, log: log}
}

// AddParticipant appends a new member to the room. Fails when the room
// is absent, at capacity, or the display name or color is already
// taken by an active member.
func (p *Presence) AddParticipant(code string, participant *domain.Participant) error {
	room, ok := p.registry.GetRoom(code)
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	if err := room.AddParticipant(participant); err != nil {
		return err
	}
	p.log.Debug("Participant added", "room", code, "participant", participant.DisplayName)
	return nil
}

// Attach binds a real-time connection to a member and reports whether
// this was the first attach, so the caller can announce a join versus
// staying silent on a reconnect.
func (p *Presence) Attach(code, participantID, connectionID string) (domain.Participant, bool, error) {
	room, ok := p.registry.GetRoom(code)
	if !ok {
		return domain.Participant{}, false, apperrors.ErrRoomNotFound
	}
	return room.Attach(participantID, connectionID)
}

// MarkDeparted tombstones a member. This is the only departure path:
// once departed, an identity never re-attaches. When the last active
// member departs the room itself is deleted; the returned flag reports
// that cascade so callers can skip further work on the room.
func (p *Presence) MarkDeparted(code, participantID string) (domain.Participant, bool, error) {
	room, ok := p.registry.GetRoom(code)
	if !ok {
		return domain.Participant{}, false, apperrors.ErrRoomNotFound
	}

	participant, allDeparted, err := room.MarkDeparted(participantID)
	if err != nil {
		return domain.Participant{}, false, err
	}
	if allDeparted {
		p.registry.DeleteRoom(code)
		return participant, true, nil
	}
	return participant, false, nil
}

// UpdateActivity refreshes the member's activity clock and forces them
// back Online, since any activity implies presence.
func (p *Presence) UpdateActivity(code, participantID string) error {
	room, ok := p.registry.GetRoom(code)
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	return room.UpdateActivity(participantID)
}

// SetStatus sets the member's status directly. Used by the scheduler
// for away and offline demotion.
func (p *Presence) SetStatus(code, participantID string, status domain.ParticipantStatus) error {
	room, ok := p.registry.GetRoom(code)
	if !ok {
		return apperrors.ErrRoomNotFound
	}
	return room.SetStatus(participantID, status)
}

// FindByConnection is the reverse lookup used for disconnect handling.
func (p *Presence) FindByConnection(code, connectionID string) (domain.Participant, bool) {
	room, ok := p.registry.GetRoom(code)
	if !ok {
		return domain.Participant{}, false
	}
	return room.ParticipantByConnection(connectionID)
}
