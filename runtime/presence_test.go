package runtime

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"moment/domain"
	apperrors "moment/errors"
)

func newPresenceFixture(t *testing.T) (*Registry, *Presence, *domain.Room) {
	t.Helper()
	registry := NewRegistry(slog.Default(), 0)
	presence := NewPresence(registry, slog.Default())
	room, err := registry.CreateRoom("", time.Hour, domain.GroupRoom)
	require.NoError(t, err)
	return registry, presence, room
}

func TestPresence_AddParticipant_RoomAbsent(t *testing.T) {
	req := require.New(t)
	_, presence, _ := newPresenceFixture(t)

	err := presence.AddParticipant("NOPE42", domain.NewParticipant("Blue", "#3B82F6"))
	req.ErrorIs(err, apperrors.ErrRoomNotFound)
}

func TestPresence_AttachThenReconnect(t *testing.T) {
	req := require.New(t)
	_, presence, room := newPresenceFixture(t)

	p := domain.NewParticipant("Blue", "#3B82F6")
	req.NoError(presence.AddParticipant(room.Code, p))

	_, first, err := presence.Attach(room.Code, p.ID, "conn-1")
	req.NoError(err)
	req.True(first)

	_, first, err = presence.Attach(room.Code, p.ID, "conn-2")
	req.NoError(err)
	req.False(first)

	// Reverse lookup resolves the latest connection
	found, ok := presence.FindByConnection(room.Code, "conn-2")
	req.True(ok)
	req.Equal(p.ID, found.ID)
}

func TestPresence_MarkDeparted_CascadesRoomDeletion(t *testing.T) {
	req := require.New(t)
	registry, presence, room := newPresenceFixture(t)

	blue := domain.NewParticipant("Blue", "#3B82F6")
	red := domain.NewParticipant("Red", "#EF4444")
	req.NoError(presence.AddParticipant(room.Code, blue))
	req.NoError(presence.AddParticipant(room.Code, red))

	// First departure leaves the room standing
	_, roomDeleted, err := presence.MarkDeparted(room.Code, blue.ID)
	req.NoError(err)
	req.False(roomDeleted)

	// Last departure deletes the room
	_, roomDeleted, err = presence.MarkDeparted(room.Code, red.ID)
	req.NoError(err)
	req.True(roomDeleted)
	_, ok := registry.GetRoom(room.Code)
	req.False(ok)
}

func TestPresence_UpdateActivity_PromotesBackOnline(t *testing.T) {
	req := require.New(t)
	_, presence, room := newPresenceFixture(t)

	p := domain.NewParticipant("Blue", "#3B82F6")
	req.NoError(presence.AddParticipant(room.Code, p))
	req.NoError(presence.SetStatus(room.Code, p.ID, domain.Offline))

	req.NoError(presence.UpdateActivity(room.Code, p.ID))

	member, ok := room.Member(p.ID)
	req.True(ok)
	req.Equal(domain.Online, member.Status)
}
