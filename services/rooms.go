package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"moment/contract"
	"moment/domain"
	"moment/domain/event"
	apperrors "moment/errors"
	"moment/runtime"
)

// RoomService ties the registry, presence tracker, voting engine, rate
// limiter, and content boundary into the operations the transport
// exposes. All announcements go through the Broadcaster, fire and
// forget.
type RoomService struct {
	log         *slog.Logger
	registry    *runtime.Registry
	presence    *runtime.Presence
	voting      *runtime.Voting
	limiter     *runtime.RateLimiter
	sanitizer   contract.Sanitizer
	broadcaster contract.Broadcaster
}

func NewRoomService(
	log *slog.Logger,
	registry *runtime.Registry,
	presence *runtime.Presence,
	voting *runtime.Voting,
	limiter *runtime.RateLimiter,
	sanitizer contract.Sanitizer,
	broadcaster contract.Broadcaster,
) *RoomService {
	return &RoomService{
		log:         log,
		registry:    registry,
		presence:    presence,
		voting:      voting,
		limiter:     limiter,
		sanitizer:   sanitizer,
		broadcaster: broadcaster,
	}
}

func (s *RoomService) CreateRoom(displayName string, ttl time.Duration, kind domain.RoomKind) (*domain.Room, error) {
	return s.registry.CreateRoom(displayName, ttl, kind)
}

func (s *RoomService) GetRoom(code string) (*domain.Room, bool) {
	return s.registry.GetRoom(code)
}

// Join creates a participant with a random free color and adds them to
// the room. The real-time announcement happens later, on Attach.
func (s *RoomService) Join(code, displayName string) (domain.Participant, error) {
	room, ok := s.registry.GetRoom(code)
	if !ok {
		return domain.Participant{}, apperrors.ErrRoomNotFound
	}

	used := lo.Map(room.ActiveParticipants(), func(p domain.Participant, _ int) string {
		return p.ColorHex
	})
	color := RandomAvailableColor(used)

	participant := domain.NewParticipant(displayName, color.Hex)
	if err := s.presence.AddParticipant(code, participant); err != nil {
		return domain.Participant{}, err
	}
	return *participant, nil
}

// Attach binds a real-time connection. A first attach announces the
// join with a system message; a reconnect stays silent apart from the
// presence update.
func (s *RoomService) Attach(code, participantID, connectionID string) (domain.Participant, bool, error) {
	participant, first, err := s.presence.Attach(code, participantID, connectionID)
	if err != nil {
		return domain.Participant{}, false, err
	}

	if first {
		s.announce(code, fmt.Sprintf("%s joined the room", participant.DisplayName))
		s.broadcaster.Publish(code, event.ParticipantJoined{Participant: participant})
	} else {
		s.broadcaster.Publish(code, event.ParticipantJoined{Participant: participant, Reconnected: true})
	}
	return participant, first, nil
}

// Leave permanently departs a participant. The room may disappear as a
// cascade; otherwise the open vote is recalculated, since the shrunken
// denominator can make it pass.
func (s *RoomService) Leave(code, participantID string) error {
	participant, roomDeleted, err := s.presence.MarkDeparted(code, participantID)
	if err != nil {
		return err
	}
	s.limiter.Forget(participantID)

	if roomDeleted {
		return nil
	}

	if s.voting.Recalculate(code) {
		s.announceVotePassed(code)
	}
	s.announce(code, fmt.Sprintf("%s left the room", participant.DisplayName))
	s.broadcaster.Publish(code, event.ParticipantLeft{ParticipantID: participant.ID})
	return nil
}

// Send stores and broadcasts a user message: rate limit, then validate
// and sanitize, then append with a snapshot of the sender's identity.
func (s *RoomService) Send(code, participantID, content string) (domain.Message, error) {
	if !s.limiter.Allow(participantID, code) {
		return domain.Message{}, apperrors.ErrRateLimited
	}

	room, ok := s.registry.GetRoom(code)
	if !ok {
		return domain.Message{}, apperrors.ErrRoomNotFound
	}
	sender, ok := room.Member(participantID)
	if !ok || sender.Departed {
		return domain.Message{}, apperrors.ErrParticipantNotFound
	}

	if !s.sanitizer.Validate(content) {
		return domain.Message{}, apperrors.ErrInvalidContent
	}

	msg := domain.NewMessage(sender, s.sanitizer.Sanitize(content))
	room.AppendMessage(msg)
	_ = room.UpdateActivity(participantID)

	s.broadcaster.Publish(code, event.MessagePosted{Message: msg})
	return msg, nil
}

// StartVote opens a close-the-room vote and announces it.
func (s *RoomService) StartVote(code, participantID string) (*domain.VoteStatus, error) {
	room, ok := s.registry.GetRoom(code)
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	initiator, ok := room.Member(participantID)
	if !ok || initiator.Departed {
		return nil, apperrors.ErrParticipantNotFound
	}

	if err := s.voting.InitiateVote(code, participantID); err != nil {
		return nil, err
	}

	s.announce(code, fmt.Sprintf("%s started a vote to close this room", initiator.DisplayName))
	s.broadcaster.Publish(code, event.VoteStarted{InitiatorName: initiator.DisplayName})

	status := s.voting.Status(code)
	if status != nil {
		s.broadcaster.Publish(code, event.VoteUpdated{Status: *status})
	}
	return status, nil
}

// CastVote records a ballot and broadcasts the updated tally. When the
// ballot makes the vote pass, the closure announcement goes out too.
func (s *RoomService) CastVote(code, participantID string, yes bool) (*domain.VoteStatus, error) {
	passed, err := s.voting.CastVote(code, participantID, yes)
	if err != nil {
		return nil, err
	}

	status := s.voting.Status(code)
	if status != nil {
		s.broadcaster.Publish(code, event.VoteUpdated{Status: *status})
	}
	if passed {
		s.announceVotePassed(code)
	}
	return status, nil
}

func (s *RoomService) VoteStatus(code string) *domain.VoteStatus {
	return s.voting.Status(code)
}

// Heartbeat refreshes the participant's activity clock.
func (s *RoomService) Heartbeat(code, participantID string) error {
	return s.presence.UpdateActivity(code, participantID)
}

// Disconnect handles a dropped connection: the participant goes
// Offline (the scheduler evicts them later if they never return) and
// their rate-limiter entries are reclaimed.
func (s *RoomService) Disconnect(code, connectionID string) {
	participant, ok := s.presence.FindByConnection(code, connectionID)
	if !ok {
		return
	}
	if !participant.Departed {
		if err := s.presence.SetStatus(code, participant.ID, domain.Offline); err == nil {
			s.broadcaster.Publish(code, event.ParticipantStatusChanged{
				ParticipantID: participant.ID,
				Status:        domain.Offline,
			})
		}
	}
	s.limiter.Forget(participant.ID)
}

// RoomState is the snapshot a client receives right after attaching.
type RoomState struct {
	Participants []domain.Participant
	Messages     []domain.Message
	Vote         *domain.VoteStatus
}

func (s *RoomService) RoomState(code string) (RoomState, error) {
	room, ok := s.registry.GetRoom(code)
	if !ok {
		return RoomState{}, apperrors.ErrRoomNotFound
	}
	return RoomState{
		Participants: room.ActiveParticipants(),
		Messages:     room.Messages(),
		Vote:         room.VoteStatus(),
	}, nil
}

func (s *RoomService) announce(code, text string) {
	room, ok := s.registry.GetRoom(code)
	if !ok {
		return
	}
	msg := NewSystemMessage(text)
	room.AppendMessage(msg)
	s.broadcaster.Publish(code, event.MessagePosted{Message: msg})
}

func (s *RoomService) announceVotePassed(code string) {
	s.announce(code, "Vote passed! This room will close in 5 minutes.")
	s.broadcaster.Publish(code, event.VotePassed{})
}
